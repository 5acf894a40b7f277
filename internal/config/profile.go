package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/andremillet/prescreveai/internal/domain/prescription"
)

// Profile is the prescriber identity used by the interactive CLI when
// printing documents.
type Profile struct {
	Emitter         prescription.Emitter `toml:"emitter"`
	ClinicName      string               `toml:"clinic_name"`
	OutputDir       string               `toml:"output_dir"`
	DefaultTemplate string               `toml:"default_template"`
}

// DefaultProfilePath is where the CLI looks when PRESCREVEAI_PROFILE is
// unset.
func DefaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "prescreveai", "profile.toml")
}

// LoadProfile decodes the TOML profile at path. A missing file yields an
// empty profile with defaults applied.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		path = DefaultProfilePath()
	}
	path = os.ExpandEnv(path)

	var p Profile
	md, err := toml.DecodeFile(path, &p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown profile keys in %s: %v", path, undecoded)
		}
	}

	p.applyDefaults()
	return &p, nil
}

func (p *Profile) applyDefaults() {
	if p.OutputDir == "" {
		p.OutputDir = "."
	}
	if p.DefaultTemplate == "" {
		p.DefaultTemplate = "memed"
	}
}

// WriteProfile encodes p as TOML at path, creating parent directories.
func WriteProfile(path string, p *Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return nil
}
