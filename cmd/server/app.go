package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	apiMiddleware "github.com/phrazzld/tasks-api/internal/api/middleware"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/database"
	"github.com/phrazzld/tasks-api/internal/platform/ratelimit"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config

	logger  *slog.Logger
	db      *sql.DB
	dialect database.Dialect

	taskStore   store.TaskStore
	taskService service.TaskService
	jwtService  auth.JWTService

	eventEmitter *events.InMemoryEventEmitter
	dispatcher   *events.Dispatcher
	publisher    events.Publisher

	// Both nil when rate limiting is disabled.
	redisClient *redis.Client
	limiter     apiMiddleware.Limiter
}

// runServer opens the database, wires the application and serves until ctx
// is cancelled.
func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver)

	db, dialect, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		m, err := database.NewMigrator(db, dialect, logger)
		if err != nil {
			closeDB(db, logger)
			return err
		}
		if err := m.Up(ctx); err != nil {
			closeDB(db, logger)
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app, err := newApplication(ctx, cfg, logger, db, dialect)
	if err != nil {
		closeDB(db, logger)
		return err
	}
	defer app.cleanup()

	return app.Run(ctx)
}

// newApplication wires every component on top of an open database.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	dialect database.Dialect,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		dialect: dialect,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.taskStore = database.NewTaskStore(db, dialect, logger)

	if err := app.setupEvents(); err != nil {
		return nil, err
	}

	app.taskService, err = service.NewTaskService(
		service.NewTaskRepository(app.taskStore),
		app.eventEmitter,
		logger,
	)
	if err != nil {
		app.stopEvents()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	if cfg.RateLimit.Enabled {
		app.redisClient, err = ratelimit.NewClient(ctx, cfg.RateLimit.RedisAddr)
		if err != nil {
			app.stopEvents()
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
		app.limiter = ratelimit.NewLimiter(app.redisClient, "tasks:ratelimit:")
		logger.Info("Rate limiting enabled",
			"requests", cfg.RateLimit.Requests,
			"window_seconds", cfg.RateLimit.WindowSeconds)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupEvents registers the publishing handler behind a background
// dispatcher: AMQP when configured, otherwise a publisher that only logs.
func (app *application) setupEvents() error {
	app.eventEmitter = events.NewInMemoryEventEmitter(app.logger)

	if url := app.config.Events.AMQPURL; url != "" {
		publisher, err := events.NewRabbitMQPublisher(url, app.config.Events.Exchange, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		app.publisher = publisher
	} else {
		app.publisher = events.NewNoopPublisher(app.logger)
	}

	publishing := events.NewPublishingHandler(
		app.publisher,
		events.BreakerSettings{
			FailureThreshold: uint32(app.config.Events.BreakerFailureThreshold),
			Timeout:          app.config.Events.BreakerTimeout(),
		},
		app.logger,
	)

	app.dispatcher = events.NewDispatcher(publishing, events.DispatcherConfig{
		WorkerCount: app.config.Events.WorkerCount,
		QueueSize:   app.config.Events.QueueSize,
	}, app.logger)
	app.dispatcher.Start()

	app.eventEmitter.RegisterHandler(app.dispatcher)
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// stopEvents drains pending events and closes the publisher.
func (app *application) stopEvents() {
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}

	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("Error closing event publisher", "error", err)
		}
	}
}

// cleanup drains pending events, then releases the publisher, Redis and
// database connections.
func (app *application) cleanup() {
	app.stopEvents()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("Error closing Redis client", "error", err)
		}
	}

	if app.db != nil {
		closeDB(app.db, app.logger)
	}

	app.logger.Info("Application shutdown completed")
}
