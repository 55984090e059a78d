package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/recall-api/internal/api"
	apiMiddleware "github.com/phrazzld/recall-api/internal/api/middleware"
	"github.com/phrazzld/recall-api/internal/api/shared"
)

// setupRouter registers middleware and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(app.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.authService, app.logger)
	assessmentHandler := api.NewAssessmentHandler(app.assessmentService, app.logger)
	backupHandler := api.NewBackupHandler(app.backupService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/attempts", assessmentHandler.RecordAttempt)
			r.Get("/results", assessmentHandler.Results)
			r.Get("/results/{conceptID}", assessmentHandler.Result)
			r.Post("/results/{conceptID}/postpone", assessmentHandler.Postpone)
			r.Get("/reviews/due", assessmentHandler.DueItems)
			r.Get("/history", assessmentHandler.History)

			r.Put("/knowledge-bases/{kbID}/curriculum", assessmentHandler.SaveCurriculum)
			r.Get("/knowledge-bases/{kbID}/path", assessmentHandler.LearningPath)
			r.Get("/analytics", assessmentHandler.Analytics)

			r.Get("/backup", backupHandler.Export)
			r.Post("/backup", backupHandler.Import)
		})
	})

	r.Get("/health", app.health)

	return r
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.backend.Ping(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Storage unavailable", err,
			shared.WithElevatedLogLevel())
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": app.backend.name,
	})
}
