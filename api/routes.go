package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health/{$}", app.healthCheckHandler)

	mux.HandleFunc("POST /api/auth/register/{$}", app.registerUserHandler)
	mux.HandleFunc("POST /api/auth/login/{$}", app.loginUserHandler)
	mux.HandleFunc("POST /api/auth/logout/{$}", app.requireAuthenticatedUser(app.logoutUserHandler))
	mux.HandleFunc("GET /api/auth/profile/{$}", app.requireAuthenticatedUser(app.getProfileHandler))
	mux.HandleFunc("PUT /api/auth/profile/{$}", app.requireAuthenticatedUser(app.updateProfileHandler))
	mux.HandleFunc("PATCH /api/auth/profile/{$}", app.requireAuthenticatedUser(app.updateProfileHandler))

	mux.HandleFunc("GET /api/tasks/{$}", app.requireAuthenticatedUser(app.listTasksHandler))
	mux.HandleFunc("POST /api/tasks/{$}", app.requireAuthenticatedUser(app.createTaskHandler))
	mux.HandleFunc("GET /api/tasks/{id}/{$}", app.requireAuthenticatedUser(app.getTaskHandler))
	mux.HandleFunc("PUT /api/tasks/{id}/{$}", app.requireAuthenticatedUser(app.updateTaskHandler))
	mux.HandleFunc("PATCH /api/tasks/{id}/{$}", app.requireAuthenticatedUser(app.updateTaskHandler))
	mux.HandleFunc("DELETE /api/tasks/{id}/{$}", app.requireAuthenticatedUser(app.deleteTaskHandler))

	var handler http.Handler = app.enableCORS(mux)
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	return handler
}
