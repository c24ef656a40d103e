package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/transfer-service/internal/command"
	"github.com/eaglebank/transfer-service/internal/config"
	"github.com/eaglebank/transfer-service/internal/handler"
	"github.com/eaglebank/transfer-service/internal/projection"
	"github.com/eaglebank/transfer-service/internal/query"
	"github.com/eaglebank/transfer-service/internal/repository"
	"github.com/eaglebank/transfer-service/internal/transfer"
	"github.com/eaglebank/transfer-service/shared/events"
	"github.com/eaglebank/transfer-service/shared/logging"
	sharedredis "github.com/eaglebank/transfer-service/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	projectorGroup  = "balance-projector"
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(envFile *string) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the balance projector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, autoMigrate, logger)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply database migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, autoMigrate bool, logger *zap.Logger) error {
	redis, err := sharedredis.NewClient(ctx, sharedredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return err
	}
	defer redis.Close()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if autoMigrate {
			if err := repository.Migrate(db, repository.MigrateUp, logger); err != nil {
				return err
			}
		}
	}

	accounts, err := newAccountStore(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	transfers := newTransferStore(cfg, db, redis)

	executor, err := transfer.NewExecutor(accounts, transfers, cfg.RetryPolicy(), logger)
	if err != nil {
		return err
	}

	publisher := events.NewPublisher(redis.Client)
	views := repository.NewAccountReadRepository(redis.Client, logger)

	commandSvc := command.NewTransferCommandService(executor, transfers, publisher, logger)
	querySvc := query.NewTransferQueryService(transfers, accounts, views, executor, logger)

	projector := projection.NewBalanceProjector(views, logger)
	consumer, _ := os.Hostname()
	subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
		Group:    projectorGroup,
		Consumer: consumer,
		Stream:   events.TransferEventsStream,
		Handler:  projector.Handle,
		Logger:   logger,
	})
	subscriberDone := make(chan error, 1)
	go func() { subscriberDone <- subscriber.Start(ctx) }()

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.NewTransferHandler(commandSvc, querySvc), logger, []byte(cfg.JWTSecret))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("transfer service starting",
			zap.String("port", cfg.Port),
			zap.String("transfer_store", cfg.TransferStore),
			zap.Bool("postgres", db != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case err := <-subscriberDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("balance projector stopped", zap.Error(err))
		}
		<-ctx.Done()
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

type accountStore interface {
	transfer.AccountStore
	repository.AccountCreator
}

// newAccountStore picks Postgres when a database is configured and seeds the
// store from ACCOUNT_SEED_FILE when one is set.
func newAccountStore(ctx context.Context, cfg *config.Config, db *sql.DB, logger *zap.Logger) (accountStore, error) {
	var store accountStore
	if db != nil {
		store = repository.NewPostgresAccountStore(db)
	} else {
		store = repository.NewMemoryAccountStore()
	}

	if cfg.AccountSeedFile == "" {
		return store, nil
	}
	seed, err := repository.LoadSeedFile(cfg.AccountSeedFile)
	if err != nil {
		return nil, err
	}
	if err := repository.Seed(ctx, store, seed); err != nil {
		return nil, err
	}
	logger.Info("accounts seeded", zap.String("file", cfg.AccountSeedFile), zap.Int("count", len(seed)))
	return store, nil
}

func newTransferStore(cfg *config.Config, db *sql.DB, redis *sharedredis.Client) transfer.Store {
	switch cfg.TransferStore {
	case config.StorePostgres:
		return repository.NewTransferWriteRepository(db)
	case config.StoreRedis:
		return repository.NewRedisTransferStore(redis.Client)
	default:
		return repository.NewMemoryTransferStore()
	}
}
