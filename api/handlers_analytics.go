package main

import (
	"context"
	"net/http"
)

// analyticsHandler serves one report of the analytics engine for the current
// user, wrapped under its name.
func analyticsHandler[T any](app *application, report string, compute func(context.Context, int64) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := compute(r.Context(), getUserFromRequest(r).ID)
		app.metrics.analyticsDone(report, err)
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		app.respond(w, r, http.StatusOK, envelope{report: result})
	}
}

func (app *application) sphereBalanceHandler(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(app, "sphere_balance", app.analytics.SphereTimeBalance)(w, r)
}

func (app *application) projectProgressHandler(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(app, "project_progress", app.analytics.ProjectProgress)(w, r)
}

func (app *application) productivityHandler(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(app, "productivity", app.analytics.ProductivityStats)(w, r)
}

func (app *application) timeStatsHandler(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(app, "time_statistics", app.analytics.TimeStatistics)(w, r)
}

func (app *application) priorityDistributionHandler(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(app, "priority_distribution", app.analytics.PriorityDistribution)(w, r)
}

func (app *application) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(app, "dashboard", app.analytics.Dashboard)(w, r)
}
