package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andremillet/prescreveai/internal/config"
	"github.com/andremillet/prescreveai/internal/daemon"
)

func newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Encerra o servidor em segundo plano",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			pid, err := daemon.Stop(cfg.PIDFile)
			switch {
			case errors.Is(err, daemon.ErrNotRunning):
				fmt.Fprintln(out, "Servidor não está rodando (arquivo PID não encontrado).")
			case errors.Is(err, daemon.ErrProcessGone):
				fmt.Fprintf(out, "Servidor (PID: %d) não encontrado ou já encerrado.\n", pid)
			case err != nil:
				return fmt.Errorf("erro ao tentar parar o servidor: %w", err)
			default:
				fmt.Fprintf(out, "Servidor (PID: %d) interrompido.\n", pid)
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Mostra se o servidor está rodando",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			pid, err := daemon.Status(cfg.PIDFile)
			switch {
			case errors.Is(err, daemon.ErrNotRunning):
				fmt.Fprintln(out, "Servidor não está rodando (arquivo PID não encontrado).")
			case errors.Is(err, daemon.ErrProcessGone):
				fmt.Fprintf(out, "Servidor (PID: %d) não está rodando (processo não encontrado).\n", pid)
			case err != nil:
				return fmt.Errorf("erro ao verificar status do servidor: %w", err)
			default:
				fmt.Fprintf(out, "Servidor está rodando com PID: %d em http://localhost:%d\n", pid, cfg.Port)
			}
			return nil
		},
	}
}
