// Command api serves the driver directory HTTP API.
//
// @title                       Driver Directory API
// @version                     1.0
// @description                 Registry of freight drivers: registration, search, update and removal behind a bearer token.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token returned by /auth/login.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/fretemais/driver-directory/internal/api"
	"github.com/fretemais/driver-directory/internal/api/handler"
	"github.com/fretemais/driver-directory/internal/api/metrics"
	"github.com/fretemais/driver-directory/internal/core/ports"
	"github.com/fretemais/driver-directory/internal/core/service"
	"github.com/fretemais/driver-directory/internal/infrastructure/db/memory"
	"github.com/fretemais/driver-directory/internal/infrastructure/db/mongo"
	"github.com/fretemais/driver-directory/internal/infrastructure/db/postgres"
	"github.com/fretemais/driver-directory/internal/infrastructure/db/redis"
	"github.com/fretemais/driver-directory/internal/infrastructure/security"
	"github.com/fretemais/driver-directory/internal/pkg/config"
	"github.com/fretemais/driver-directory/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "driver-directory: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "driver-directory",
	})
	log := logger.Get()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	readiness := map[string]handler.Pinger{}

	repo, closeStore, err := openStore(ctx, cfg, log, readiness)
	if err != nil {
		return err
	}
	defer closeStore()

	driverOpts := []service.DriverServiceOption{service.WithDirectoryRecorder(m)}
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		guard := redis.NewClaimGuard(rdb, cfg.Redis.ClaimTTL)
		driverOpts = append(driverOpts, service.WithUniqueKeyGuard(guard))
		readiness["redis"] = guard
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.ClaimTTL).Msg("unique-key claims enabled")
	}

	authority, err := security.NewTokenAuthority(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(authority, service.Credentials{
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	}, log, m)
	driverService := service.NewDriverService(repo, log, driverOpts...)

	e := api.NewRouter(api.Deps{
		Logger:    log,
		Auth:      authService,
		Drivers:   driverService,
		Verifier:  authority,
		Metrics:   m,
		Registry:  reg,
		Readiness: readiness,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore builds the DriverRepository selected by STORE and registers its
// readiness check. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, readiness map[string]handler.Pinger) (ports.DriverRepository, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		db, disconnect, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = disconnect(context.Background()) }
		repo := mongo.NewDriverRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		readiness["mongodb"] = repo
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
		return repo, closeFn, nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		repo := postgres.NewDriverRepository(pool)
		readiness["postgres"] = repo
		log.Info().Msg("postgres store ready")
		return repo, pool.Close, nil

	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewDriverRepository(), func() {}, nil
	}
}
