package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"registrar/internal/audit"
	httpapi "registrar/internal/http"
	"registrar/internal/jwttoken"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/logger"
	platformmetrics "registrar/internal/platform/metrics"
	"registrar/internal/platform/postgres"
	platformredis "registrar/internal/platform/redis"
	schoolhandler "registrar/internal/school/handler"
	schoolmetrics "registrar/internal/school/metrics"
	"registrar/internal/school/service"
	"registrar/internal/school/store"
	"registrar/internal/school/store/cache"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log.Info("starting school service",
		"addr", cfg.Addr,
		"service_type", string(cfg.ServiceType),
	)

	deps, err := buildDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	procMetrics := platformmetrics.New()
	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(schoolmetrics.New()),
		service.WithChangePublisher(deps.publisher),
	}
	if deps.tx != nil {
		svcOpts = append(svcOpts, service.WithTx(deps.tx))
	}
	svc := service.New(deps.commands, deps.queries, svcOpts...)

	opts := httpapi.Options{Metrics: procMetrics}
	if cfg.WriteSigningKey != "" {
		tokens := jwttoken.NewService(cfg.WriteSigningKey, "registrar")
		opts.TokenValidator = jwttoken.NewMiddlewareAdapter(tokens)
	}
	router := httpapi.NewRouter(cfg, schoolhandler.New(svc, log), log, opts)

	apiServer := httpserver.New(cfg.Addr, router)
	metricsServer := httpserver.New(cfg.MetricsAddr, platformmetrics.Handler())

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return serve(gCtx, apiServer, log, "api") })
	g.Go(func() error { return serve(gCtx, metricsServer, log, "metrics") })

	if deps.relay != nil {
		g.Go(func() error { return deps.relay.Run(gCtx) })
	}

	return g.Wait()
}

// dependencies bundles the storage-side collaborators; which fields are set
// depends on the deployment profile and on what the environment configures.
type dependencies struct {
	commands  service.CommandStore
	queries   service.QueryStore
	tx        service.StoreTx
	publisher service.ChangePublisher
	relay     *audit.KafkaRelay

	writeDB *sql.DB
	readDB  *sql.DB
	redis   *platformredis.Client
}

func (d *dependencies) close() {
	if d.writeDB != nil {
		_ = d.writeDB.Close()
	}
	if d.readDB != nil && d.readDB != d.writeDB {
		_ = d.readDB.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

// buildDependencies wires the stores per profile. Without a DSN everything
// runs on the in-memory store, which keeps local runs dependency-free.
func buildDependencies(ctx context.Context, cfg config.Server, log *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.WriteDSN == "" {
		mem := store.NewInMemory()
		auditStore := audit.NewInMemoryStore()
		deps.publisher = audit.NewPublisher(auditStore)
		applyProfile(deps, cfg.ServiceType, mem, mem)
		log.Warn("no database DSN configured, using in-memory store")
		return deps, nil
	}

	writeDB, err := postgres.Open(ctx, cfg.WriteDSN)
	if err != nil {
		return nil, err
	}
	deps.writeDB = writeDB

	readDB := writeDB
	if cfg.ReadDSN != cfg.WriteDSN {
		if readDB, err = postgres.Open(ctx, cfg.ReadDSN); err != nil {
			deps.close()
			return nil, err
		}
	}
	deps.readDB = readDB

	if err := store.EnsureSchema(ctx, writeDB); err != nil {
		deps.close()
		return nil, err
	}

	var queries service.QueryStore = store.NewQueryPostgres(readDB)
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.redis = redisClient
		queries = cache.New(store.NewQueryPostgres(readDB), redisClient, cfg.CacheTTL)
		log.Info("query cache enabled", "ttl", cfg.CacheTTL.String())
	}

	outbox := audit.NewPostgresStore(writeDB)
	deps.publisher = audit.NewPublisher(outbox)
	deps.tx = store.NewSQLTxRunner(writeDB)
	applyProfile(deps, cfg.ServiceType, store.NewCommandPostgres(writeDB), queries)

	if len(cfg.KafkaBrokers) > 0 && deps.commands != nil {
		relay, err := audit.NewKafkaRelay(ctx, cfg.KafkaBrokers, cfg.ChangeTopic, outbox, log)
		if err != nil {
			deps.close()
			return nil, err
		}
		deps.relay = relay
		log.Info("outbox relay enabled", "topic", cfg.ChangeTopic)
	}

	return deps, nil
}

// applyProfile drops the store side the profile does not serve. The service
// facade answers Forbidden for the missing side, backing up the HTTP gate.
func applyProfile(deps *dependencies, serviceType config.ServiceType, commands service.CommandStore, queries service.QueryStore) {
	switch serviceType {
	case config.ServiceTypeReader:
		deps.queries = queries
	case config.ServiceTypeWriter:
		deps.commands = commands
		// Delete checks existence on the query side before mutating, so the
		// writer profile keeps its query store for internal use only.
		deps.queries = queries
	default:
		deps.commands = commands
		deps.queries = queries
	}
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
