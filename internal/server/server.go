package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/lumen-fi/advisor/internal/queue"
	mid "github.com/lumen-fi/advisor/internal/server/middleware"
	"github.com/lumen-fi/advisor/internal/setup"
	"github.com/lumen-fi/advisor/internal/util"
	"github.com/lumen-fi/advisor/pkg/advisor"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/profile"
	pgxstore "github.com/lumen-fi/advisor/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	storage := pgxstore.NewStorageWithConnection(conn)

	gateway := setup.NewGateway()
	profiles := profile.NewManager(storage, gateway)

	advisorClient, err := advisor.NewClient(advisor.NewClientParams{
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
	defer advisorClient.Close()

	app := &mid.App{
		Advisor:  advisorClient,
		Profiles: profiles,
		Graph:    storage,
	}

	// the broker is optional; without it documents process synchronously
	if util.GetEnvString("RABBITMQ_HOST", "") != "" {
		que := queue.Init()
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("16M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
