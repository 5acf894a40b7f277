package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/andremillet/prescreveai/internal/config"
	"github.com/andremillet/prescreveai/internal/domain/prescription"
	"github.com/andremillet/prescreveai/internal/render"
)

const modulePath = "github.com/andremillet/prescreveai/cmd/prescreveai"

func newInstallCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Mostra como instalar e cria o perfil do emitente",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\nBem-vindo ao PrescreveAI!")
			fmt.Fprintln(out, "Para instalar ou atualizar o PrescreveAI, execute:")
			fmt.Fprintf(out, "\n  go install %s@latest\n\n", modulePath)
			fmt.Fprintln(out, "Após a instalação, você poderá usar os comandos 'prescreveai' e 'prescreveai serve'.")

			path := opts.path()
			_, err := os.Stat(path)
			switch {
			case err == nil:
				fmt.Fprintf(out, "Perfil existente: %s\n", path)
				return nil
			case !errors.Is(err, fs.ErrNotExist):
				return err
			}

			profile := &config.Profile{
				Emitter:         prescription.Emitter{},
				OutputDir:       ".",
				DefaultTemplate: string(render.TemplateDefault),
			}
			if err := config.WriteProfile(path, profile); err != nil {
				return err
			}
			fmt.Fprintf(out, "Perfil criado em %s; preencha os dados do emitente.\n", path)
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Mostra a versão",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "prescreveai %s\n", Version)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "  Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
