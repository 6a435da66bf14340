package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/lumen-fi/advisor/internal/queue"
	"github.com/lumen-fi/advisor/internal/setup"
	"github.com/lumen-fi/advisor/internal/util"
	"github.com/lumen-fi/advisor/pkg/advisor"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/logger/console"
	"github.com/lumen-fi/advisor/pkg/profile"
	pgxstore "github.com/lumen-fi/advisor/pkg/store/pgx"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := pgxstore.Migrate(databaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Invalid database URL", "err", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pgConn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()
	storage := pgxstore.NewStorageWithConnection(pgConn)

	gateway := setup.NewGateway()
	profiles := profile.NewManager(storage, gateway)

	client, err := advisor.NewClient(advisor.NewClientParams{
		Registry: setup.NewPartitionerRegistry(),
		Gateway:  gateway,
		Vector:   storage,
		Graph:    storage,
		Profiles: profiles,
		PoolSize: int(util.GetEnvNumeric("INGEST_POOL_SIZE", 4)),
	})
	if err != nil {
		logger.Fatal("Failed to build advisor client", "err", err)
	}
	defer client.Close()

	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.IngestQueue)

	if err := queue.ConsumeIngest(ctx, ch, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Consumer stopped", "err", err)
	}

	logger.Info("Shutdown signal received, exiting...")
}
