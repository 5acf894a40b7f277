// Package cli implements the prescreveai command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/andremillet/prescreveai/internal/config"
	"github.com/andremillet/prescreveai/internal/render"
)

var (
	Version   = "dev"
	GitCommit = "development"
	BuildDate = "unknown"
)

type rootOptions struct {
	profilePath string
}

// NewRootCommand builds the command tree. Without a subcommand it starts
// the interactive prompt.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "prescreveai",
		Short: "Interpretador de prescrições !MED",
		Long: `PrescreveAI converte a abreviação !MED em medicações estruturadas
e gera receituários em PDF.

Sem subcomando, inicia o modo interativo.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := opts.loadProfile()
			if err != nil {
				return err
			}
			return NewREPL(cmd.InOrStdin(), cmd.OutOrStdout(), profile, render.NewPDFRenderer()).Run()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.profilePath, "profile", "", "Arquivo de perfil TOML (default: $"+config.Prefix+"PROFILE ou "+config.DefaultProfilePath()+")")

	cmd.AddCommand(
		newParseCommand(),
		newServeCommand(),
		newStopCommand(),
		newStatusCommand(),
		newTailCommand(),
		newTopicsCommand(),
		newInstallCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *rootOptions) path() string {
	if o.profilePath != "" {
		return o.profilePath
	}
	if cfg, err := config.Load(); err == nil && cfg.ProfilePath != "" {
		return cfg.ProfilePath
	}
	return config.DefaultProfilePath()
}

func (o *rootOptions) loadProfile() (*config.Profile, error) {
	return config.LoadProfile(o.path())
}
