package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andremillet/prescreveai/internal/api"
	"github.com/andremillet/prescreveai/internal/config"
	"github.com/andremillet/prescreveai/internal/daemon"
	"github.com/andremillet/prescreveai/internal/events"
	"github.com/andremillet/prescreveai/internal/observability/logging"
	"github.com/andremillet/prescreveai/internal/observability/metrics"
	"github.com/andremillet/prescreveai/internal/observability/tracing"
	"github.com/andremillet/prescreveai/internal/render"
)

func newServeCommand() *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Inicia o servidor HTTP",
		Long: `Inicia a API HTTP do PrescreveAI.

A configuração vem das variáveis ` + config.Prefix + `*. Com --detach o servidor
roda em segundo plano e pode ser controlado com 'stop' e 'status'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if pid, err := daemon.Status(cfg.PIDFile); err == nil {
				return fmt.Errorf("servidor já está rodando (PID: %d)", pid)
			}

			if detach {
				logPath := filepath.Join(filepath.Dir(cfg.PIDFile), "prescreveai.log")
				pid, err := daemon.Detach([]string{"serve"}, logPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Servidor iniciado em segundo plano (PID: %d). Acesse http://localhost:%d/docs/index.html\n", pid, cfg.Port)
				fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", logPath)
				return nil
			}
			return serve(cfg)
		},
	}
	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "Roda o servidor em segundo plano")
	return cmd
}

func serve(cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    api.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		publisher events.Publisher = events.NopPublisher{}
		producer  *events.Producer
	)
	if cfg.Events.Enabled() {
		pcfg := events.DefaultProducerConfig(cfg.Events.Brokers)
		pcfg.ClientID = cfg.Events.ClientID
		producer, err = events.NewProducer(pcfg, logger)
		if err != nil {
			return err
		}
		publisher, err = events.NewAsyncPublisher(producer, events.PublisherConfig{
			Topic:     cfg.Events.Topic,
			Workers:   cfg.Events.Workers,
			QueueSize: cfg.Events.QueueSize,
		}, m, logger)
		if err != nil {
			producer.Close(ctx)
			return err
		}
		logger.Info("event publishing enabled",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic))
	}

	api.Version = Version
	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(api.Options{
			Renderer:   render.NewPDFRenderer(),
			Publisher:  publisher,
			Metrics:    m,
			Logger:     logger,
			APIKeys:    cfg.APIKeys,
			ClinicName: cfg.ClinicName,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := daemon.WritePID(cfg.PIDFile, os.Getpid()); err != nil {
		return err
	}
	defer daemon.RemovePID(cfg.PIDFile)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting prescreveai API",
			zap.String("addr", server.Addr),
			zap.Bool("auth", len(cfg.APIKeys) > 0),
			zap.String("version", Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if err := publisher.Close(shutdownCtx); err != nil {
		logger.Error("publisher drain incomplete", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(shutdownCtx); err != nil {
			logger.Error("producer close error", zap.Error(err))
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
