package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andremillet/prescreveai/internal/shorthand"
)

var errParseFailed = errors.New("parse failed")

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [linha]",
		Short: "Interpreta uma linha !MED e imprime o JSON",
		Long: `Interpreta uma linha !MED e imprime o resultado em JSON.

Sem argumentos, a linha é lida da entrada padrão.`,
		Example: `  prescreveai parse '!MED DIPIRONA 500MG SE DOR; AMOXICILINA 500MG 8/8H'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				line = strings.TrimRight(string(raw), "\r\n")
			}

			records, err := shorthand.Parse(line)
			if werr := writeJSON(cmd.OutOrStdout(), shorthand.NewResult(records, err)); werr != nil {
				return werr
			}
			if err != nil {
				cmd.SilenceErrors = true
				return errParseFailed
			}
			return nil
		},
	}
}
