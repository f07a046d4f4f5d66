package main

import (
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()
	auth := app.requireAuthenticatedUser

	mux.HandleFunc("/", app.notFoundHandler)
	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)
	mux.Handle("GET /metrics", app.metrics.handler())

	mux.HandleFunc("POST /v1/auth/register", app.registerHandler)
	mux.HandleFunc("POST /v1/auth/login", app.loginHandler)
	mux.HandleFunc("GET /v1/auth/token", auth(app.tokenInfoHandler))

	mux.HandleFunc("GET /v1/users/me", auth(app.getCurrentUserHandler))
	mux.HandleFunc("DELETE /v1/users/me", auth(app.deleteCurrentUserHandler))

	mux.HandleFunc("GET /v1/spheres", auth(app.listSpheresHandler))
	mux.HandleFunc("POST /v1/spheres", auth(app.createSphereHandler))
	mux.HandleFunc("POST /v1/spheres/defaults", auth(app.createDefaultSpheresHandler))
	mux.HandleFunc("GET /v1/spheres/{id}", auth(app.getSphereHandler))
	mux.HandleFunc("PUT /v1/spheres/{id}", auth(app.updateSphereHandler))
	mux.HandleFunc("DELETE /v1/spheres/{id}", auth(app.deleteSphereHandler))

	mux.HandleFunc("GET /v1/projects", auth(app.listProjectsHandler))
	mux.HandleFunc("POST /v1/projects", auth(app.createProjectHandler))
	mux.HandleFunc("GET /v1/projects/overdue", auth(app.listOverdueProjectsHandler))
	mux.HandleFunc("GET /v1/projects/{id}", auth(app.getProjectHandler))
	mux.HandleFunc("PUT /v1/projects/{id}", auth(app.updateProjectHandler))
	mux.HandleFunc("DELETE /v1/projects/{id}", auth(app.deleteProjectHandler))
	mux.HandleFunc("GET /v1/projects/{id}/tasks", auth(app.listProjectTasksHandler))

	mux.HandleFunc("GET /v1/tasks", auth(app.listTasksHandler))
	mux.HandleFunc("POST /v1/tasks", auth(app.createTaskHandler))
	mux.HandleFunc("GET /v1/tasks/{id}", auth(app.getTaskHandler))
	mux.HandleFunc("PUT /v1/tasks/{id}", auth(app.updateTaskHandler))
	mux.HandleFunc("DELETE /v1/tasks/{id}", auth(app.deleteTaskHandler))
	mux.HandleFunc("PATCH /v1/tasks/{id}/complete", auth(app.completeTaskHandler))

	mux.HandleFunc("GET /v1/analytics/sphere-balance", auth(app.sphereBalanceHandler))
	mux.HandleFunc("GET /v1/analytics/project-progress", auth(app.projectProgressHandler))
	mux.HandleFunc("GET /v1/analytics/productivity", auth(app.productivityHandler))
	mux.HandleFunc("GET /v1/analytics/time-stats", auth(app.timeStatsHandler))
	mux.HandleFunc("GET /v1/analytics/priority-distribution", auth(app.priorityDistributionHandler))
	mux.HandleFunc("GET /v1/analytics/dashboard", auth(app.dashboardHandler))

	var h http.Handler = app.instrument(mux)
	if app.config.limiter.enabled {
		h = app.rateLimit(h)
	}
	return app.recoverPanic(app.logRequests(app.enableCORS(h)))
}
