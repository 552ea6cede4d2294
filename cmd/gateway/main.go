package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"registrar/internal/gateway"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/logger"
	platformmetrics "registrar/internal/platform/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("gateway exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	configPath := flag.String("config", os.Getenv("GATEWAY_CONFIG"), "path to gateway config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := gateway.Load(*configPath)
	if err != nil {
		return err
	}

	gw, err := gateway.New(cfg, log, gateway.WithMetrics(gateway.NewMetrics()))
	if err != nil {
		return err
	}

	apiServer := httpserver.New(cfg.Addr, gw.Handler())
	metricsServer := httpserver.New(cfg.MetricsAddr, platformmetrics.Handler())

	log.Info("starting gateway", "addr", cfg.Addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(gCtx, apiServer, log, "gateway") })
	g.Go(func() error { return serve(gCtx, metricsServer, log, "metrics") })
	return g.Wait()
}

func serve(ctx context.Context, server *http.Server, log *slog.Logger, name string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info("listening", "server", name, "addr", server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("server stopped", "server", name)
		return ctx.Err()
	}
}
