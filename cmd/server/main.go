// Command server runs a small widget API whose responses are all wrapped in
// {status, code, message, data} envelopes.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/drblury/apienvelope/internal/config"
	"github.com/drblury/apienvelope/probe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Logger.Level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	doc, err := loadOpenAPI(ctx)
	if err != nil {
		return err
	}

	var readiness []probe.Func
	if cfg.Probes.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Probes.MongoURI))
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("mongo disconnect failed", "error", err)
			}
		}()
		readiness = append(readiness, probe.NewMongoPingProbe(client, nil))
	}
	if cfg.Probes.UpstreamHealthURL != "" {
		client := &http.Client{Timeout: cfg.Probes.Timeout}
		readiness = append(readiness, probe.NewEnvelopeProbe("upstream", cfg.Probes.UpstreamHealthURL, probe.WithHTTPClient(client)))
	}

	handler, err := buildHandler(cfg, logger, doc, readiness...)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.HTTP.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.HTTP.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
