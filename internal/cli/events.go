package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andremillet/prescreveai/internal/config"
	"github.com/andremillet/prescreveai/internal/domain/prescription"
	"github.com/andremillet/prescreveai/internal/events"
	"github.com/andremillet/prescreveai/internal/observability/logging"
	"github.com/andremillet/prescreveai/internal/shorthand"
	"github.com/andremillet/prescreveai/pkg/idempotency"
)

var errNoBrokers = fmt.Errorf("nenhum broker configurado; defina %sKAFKA_BROKERS", config.Prefix)

func newTailCommand() *cobra.Command {
	var fromStart bool

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Acompanha as prescrições emitidas",
		Long:  "Consome o tópico de prescrições emitidas e imprime cada documento.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Events.Enabled() {
				return errNoBrokers
			}
			logger, err := logging.New(cfg.LogLevel, "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ccfg := events.DefaultConsumerConfig(cfg.Events.Brokers, cfg.Events.ConsumerGroup, cfg.Events.Topic)
			if fromStart {
				ccfg.StartOffset = "earliest"
			}
			inbox := idempotency.NewInbox(idempotency.DefaultInboxConfig(), logger)
			inbox.StartCleanup()
			defer inbox.Stop()

			consumer, err := events.NewConsumer(ccfg, tailHandler(cmd.OutOrStdout(), inbox, logger), logger)
			if err != nil {
				return err
			}

			logger.Info("following topic", zap.String("topic", cfg.Events.Topic))
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "Lê o tópico desde o início")
	return cmd
}

// tailHandler prints each issued event once, even when the broker
// redelivers it.
func tailHandler(w io.Writer, inbox *idempotency.Inbox, logger *zap.Logger) events.EventHandler {
	return func(ctx context.Context, e *prescription.Event) error {
		err := inbox.Process(ctx, e.ID, func(context.Context) error {
			return printIssued(w, e)
		})
		switch {
		case errors.Is(err, idempotency.ErrDuplicateMessage):
			logger.Debug("skipping redelivered event", zap.String("event_id", e.ID))
			return nil
		case errors.Is(err, idempotency.ErrPreviouslyFailed):
			return nil
		}
		return err
	}
}

func printIssued(w io.Writer, e *prescription.Event) error {
	if e.EventType != prescription.EventPrescriptionIssued {
		return nil
	}
	data, err := e.DecodeIssued()
	if err != nil {
		return idempotency.Terminal(fmt.Errorf("decode %s: %w", e.ID, err))
	}
	fmt.Fprintf(w, "%s  %s  %s  CRM %s\n",
		data.IssuedAt.Local().Format("02/01/2006 15:04"), data.DocumentID, data.Template, data.EmitterCRM)
	for i, rec := range data.Medications {
		fmt.Fprintf(w, "  %d. %s\n", i+1, shorthand.Format(rec))
	}
	return nil
}

func newTopicsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "Cria o tópico de eventos, se necessário, e lista os tópicos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Events.Enabled() {
				return errNoBrokers
			}
			logger, err := logging.New(cfg.LogLevel, "console")
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if err := events.HealthCheck(ctx, cfg.Events.Brokers); err != nil {
				return err
			}

			admin, err := events.NewAdmin(cfg.Events.Brokers, logger)
			if err != nil {
				return err
			}
			defer admin.Close()

			if err := admin.EnsureTopics(ctx, cfg.Events.Topic); err != nil {
				return err
			}
			names, err := admin.ListTopics(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
