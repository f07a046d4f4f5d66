package main

import (
	"net/http"
	"slices"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/validator"
)

var taskTypes = []data.TaskType{data.TaskStep, data.TaskAction, data.TaskRitual, data.TaskHabit}

type taskInput struct {
	Title                string          `json:"title" validate:"required,max=200"`
	Description          string          `json:"description" validate:"max=2000"`
	LifeSphereID         int64           `json:"life_sphere_id" validate:"required,gt=0"`
	ProjectID            *int64          `json:"project_id" validate:"omitempty,gt=0"`
	Deadline             *data.Date      `json:"deadline"`
	EstimatedTimeMinutes int             `json:"estimated_time_minutes" validate:"gte=0,max=100000"`
	Priority             data.Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	EnergyCost           data.EnergyCost `json:"energy_cost" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Type                 data.TaskType   `json:"type" validate:"omitempty,oneof=STEP ACTION RITUAL HABIT"`
	Completed            bool            `json:"completed"`
}

func (in *taskInput) task(userID int64) data.Task {
	return data.Task{
		UserID:               userID,
		LifeSphere:           &data.LifeSphere{ID: in.LifeSphereID},
		ProjectID:            in.ProjectID,
		Title:                in.Title,
		Description:          in.Description,
		Deadline:             in.Deadline,
		EstimatedTimeMinutes: in.EstimatedTimeMinutes,
		Priority:             in.Priority,
		EnergyCost:           in.EnergyCost,
		Type:                 in.Type,
		Completed:            in.Completed,
	}
}

func readTaskInput(w http.ResponseWriter, r *http.Request) (*taskInput, bool) {
	var input taskInput
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

// listTasksHandler accepts optional type and life_sphere_id filters.
func (app *application) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	taskType := data.TaskType(r.URL.Query().Get("type"))
	v.CheckCond(taskType == "" || slices.Contains(taskTypes, taskType), "type", "must be a valid task type")
	sphereID := readIDQuery(r, "life_sphere_id", v)
	if v.HasErrors() {
		failedValidation(w, v)
		return
	}

	ctx, userID := r.Context(), getUserFromRequest(r).ID
	var (
		tasks []data.Task
		err   error
	)
	switch {
	case taskType != "":
		tasks, err = app.tasks.FindAllByUserIDAndType(ctx, userID, taskType)
	case sphereID != 0:
		tasks, err = app.tasks.FindAllByUserIDAndLifeSphereID(ctx, userID, sphereID)
	default:
		tasks, err = app.tasks.FindAllByUserID(ctx, userID)
	}
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	if taskType != "" && sphereID != 0 {
		tasks = slices.DeleteFunc(tasks, func(t data.Task) bool { return t.LifeSphereID() != sphereID })
	}
	app.respond(w, r, http.StatusOK, envelope{"tasks": tasks})
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	input, ok := readTaskInput(w, r)
	if !ok {
		return
	}
	u := getUserFromRequest(r)
	t := input.task(u.ID)
	created, err := app.tasks.Create(r.Context(), &t, u.ID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusCreated, envelope{"task": created})
}

func (app *application) taskFromPath(w http.ResponseWriter, r *http.Request) (*data.Task, bool) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return nil, false
	}
	t, err := app.tasks.FindByIDAndUserID(r.Context(), id, getUserFromRequest(r).ID)
	if err != nil {
		app.serviceError(w, r, err)
		return nil, false
	}
	return t, true
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := app.taskFromPath(w, r)
	if !ok {
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"task": t})
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := app.taskFromPath(w, r)
	if !ok {
		return
	}
	input, ok := readTaskInput(w, r)
	if !ok {
		return
	}
	t, err := app.tasks.Update(r.Context(), t, input.task(t.UserID))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"task": t})
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := app.taskFromPath(w, r)
	if !ok {
		return
	}
	if err := app.tasks.Delete(r.Context(), t); err != nil {
		app.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) completeTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	t, err := app.tasks.MarkAsCompleted(r.Context(), id, getUserFromRequest(r).ID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"task": t})
}
