package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/tasks-api/internal/api"
	apiMiddleware "github.com/phrazzld/tasks-api/internal/api/middleware"
	"github.com/phrazzld/tasks-api/internal/api/shared"
)

const healthCheckTimeout = 2 * time.Second

// setupRouter creates the router with stock middleware, the health check
// and the authenticated /task resource.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	taskHandler := api.NewTaskHandler(app.taskService)

	r.Route("/task", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		if app.limiter != nil {
			limit := apiMiddleware.NewRateLimitMiddleware(
				app.limiter,
				app.config.RateLimit.Requests,
				app.config.RateLimit.Window(),
			)
			r.Use(limit.Limit)
		}

		r.Get("/", taskHandler.ListTasks)
		r.Post("/", taskHandler.CreateTask)
		r.Get("/{"+api.TaskIDParam+"}", taskHandler.GetTask)
		r.Put("/{"+api.TaskIDParam+"}", taskHandler.UpdateTask)
		r.Delete("/{"+api.TaskIDParam+"}", taskHandler.DeleteTask)
		r.Patch("/{"+api.TaskIDParam+"}/complete", taskHandler.CompleteTask)
	})

	r.Get("/health", app.handleHealth)

	return r
}

func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, "", map[string]any{"status": "ok"})
}
