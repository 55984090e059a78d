package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/recall-api/internal/config"
	"github.com/phrazzld/recall-api/internal/events"
	"github.com/phrazzld/recall-api/internal/service/assessment"
	"github.com/phrazzld/recall-api/internal/service/auth"
	"github.com/phrazzld/recall-api/internal/service/backup"
	"github.com/phrazzld/recall-api/internal/task"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	backend *backend

	jwtService        auth.JWTService
	authService       auth.Service
	assessmentService assessment.Service
	backupService     backup.Service

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication connects storage, builds the services and starts the
// background task runner.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app, err := assemble(ctx, cfg, logger, b)
	if err != nil {
		b.Close()
		return nil, err
	}
	return app, nil
}

func assemble(ctx context.Context, cfg *config.Config, logger *slog.Logger, b *backend) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		backend: b,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.authService = auth.NewService(b.users, app.jwtService, auth.NewBcryptHasher(cfg.Auth.BCryptCost), logger)
	logger.Info("authentication initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes),
		slog.Int("refresh_token_lifetime_minutes", cfg.Auth.RefreshTokenLifetimeMinutes))

	grader, err := newGrader(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	// Failed history appends travel emitter -> handler -> runner.
	app.taskRunner = task.NewTaskRunner(task.RunnerConfigFrom(cfg.Task), logger)
	historyTasks := task.NewHistoryAppendTaskFactory(
		b.history,
		cfg.Task.MaxAttempts,
		time.Duration(cfg.Task.RetryDelayMs)*time.Millisecond,
		logger,
	)
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(historyTasks, app.taskRunner, logger))

	app.assessmentService = assessment.NewService(assessment.Dependencies{
		Results:   b.results,
		History:   b.history,
		Curricula: b.curricula,
		Emitter:   app.eventEmitter,
		DB:        b.txBeginner(),
		Grader:    grader,
	}, logger)
	app.backupService = backup.NewService(b.backupStores(), logger)

	app.taskRunner.Start()
	logger.Info("application initialized", slog.String("storage", b.name))
	return app, nil
}

// Run serves HTTP until ctx is canceled, then shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains pending retries and closes storage.
func (app *application) cleanup(ctx context.Context) {
	if app.taskRunner != nil {
		if err := app.taskRunner.Stop(ctx); err != nil {
			app.logger.Error("task runner did not drain before shutdown",
				slog.String("error", err.Error()),
				slog.Int("pending", app.taskRunner.Pending()))
		}
	}
	app.backend.Close()
	app.logger.Info("application shutdown completed")
}
