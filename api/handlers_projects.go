package main

import (
	"net/http"
	"slices"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/validator"
)

var projectStatuses = []data.ProjectStatus{
	data.ProjectPlanned,
	data.ProjectActive,
	data.ProjectOnHold,
	data.ProjectCompleted,
	data.ProjectCancelled,
}

type projectInput struct {
	Title        string             `json:"title" validate:"required,max=200"`
	Description  string             `json:"description" validate:"max=2000"`
	LifeSphereID int64              `json:"life_sphere_id" validate:"required,gt=0"`
	Deadline     *data.Date         `json:"deadline"`
	Priority     data.Priority      `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status       data.ProjectStatus `json:"status" validate:"omitempty,oneof=PLANNED ACTIVE ON_HOLD COMPLETED CANCELLED"`
}

func (in *projectInput) project(userID int64) data.Project {
	return data.Project{
		UserID:      userID,
		LifeSphere:  &data.LifeSphere{ID: in.LifeSphereID},
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Priority:    in.Priority,
		Status:      in.Status,
	}
}

func readProjectInput(w http.ResponseWriter, r *http.Request) (*projectInput, bool) {
	var input projectInput
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return nil, false
	}
	v := validator.New()
	v.CheckStruct(input)
	if v.HasErrors() {
		failedValidation(w, v)
		return nil, false
	}
	return &input, true
}

// listProjectsHandler accepts optional status and life_sphere_id filters.
func (app *application) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	status := data.ProjectStatus(r.URL.Query().Get("status"))
	v.CheckCond(status == "" || slices.Contains(projectStatuses, status), "status", "must be a valid project status")
	sphereID := readIDQuery(r, "life_sphere_id", v)
	if v.HasErrors() {
		failedValidation(w, v)
		return
	}

	ctx, userID := r.Context(), getUserFromRequest(r).ID
	var (
		projects []data.Project
		err      error
	)
	switch {
	case sphereID != 0:
		projects, err = app.projects.FindAllByUserIDAndLifeSphereID(ctx, userID, sphereID)
	case status != "":
		projects, err = app.projects.FindAllByUserIDAndStatus(ctx, userID, status)
	default:
		projects, err = app.projects.FindAllByUserID(ctx, userID)
	}
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	if sphereID != 0 && status != "" {
		projects = slices.DeleteFunc(projects, func(p data.Project) bool { return p.Status != status })
	}
	app.respond(w, r, http.StatusOK, envelope{"projects": projects})
}

func (app *application) listOverdueProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := app.projects.FindOverdueByUserID(r.Context(), getUserFromRequest(r).ID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"projects": projects})
}

func (app *application) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	input, ok := readProjectInput(w, r)
	if !ok {
		return
	}
	u := getUserFromRequest(r)
	p := input.project(u.ID)
	created, err := app.projects.Create(r.Context(), &p, u.ID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusCreated, envelope{"project": created})
}

func (app *application) projectFromPath(w http.ResponseWriter, r *http.Request) (*data.Project, bool) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return nil, false
	}
	p, err := app.projects.FindByIDAndUserID(r.Context(), id, getUserFromRequest(r).ID)
	if err != nil {
		app.serviceError(w, r, err)
		return nil, false
	}
	return p, true
}

func (app *application) getProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := app.projectFromPath(w, r)
	if !ok {
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"project": p})
}

func (app *application) updateProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := app.projectFromPath(w, r)
	if !ok {
		return
	}
	input, ok := readProjectInput(w, r)
	if !ok {
		return
	}
	p, err := app.projects.Update(r.Context(), p, input.project(p.UserID))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"project": p})
}

func (app *application) deleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := app.projectFromPath(w, r)
	if !ok {
		return
	}
	if err := app.projects.Delete(r.Context(), p); err != nil {
		app.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) listProjectTasksHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := app.projectFromPath(w, r)
	if !ok {
		return
	}
	tasks, err := app.tasks.FindAllByProjectID(r.Context(), p.ID, p.UserID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"tasks": tasks})
}
