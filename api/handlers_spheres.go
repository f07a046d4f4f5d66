package main

import (
	"net/http"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/validator"
)

type sphereInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func readSphereInput(w http.ResponseWriter, r *http.Request) (*sphereInput, bool) {
	var input sphereInput
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

func (app *application) listSpheresHandler(w http.ResponseWriter, r *http.Request) {
	spheres, err := app.spheres.FindAllByUserID(r.Context(), getUserFromRequest(r).ID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"life_spheres": spheres})
}

func (app *application) createSphereHandler(w http.ResponseWriter, r *http.Request) {
	input, ok := readSphereInput(w, r)
	if !ok {
		return
	}
	u := getUserFromRequest(r)
	ls, err := app.spheres.Create(r.Context(), &data.LifeSphere{
		UserID: u.ID,
		Name:   input.Name,
		Color:  input.Color,
	}, u.ID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusCreated, envelope{"life_sphere": ls})
}

func (app *application) createDefaultSpheresHandler(w http.ResponseWriter, r *http.Request) {
	created, err := app.spheres.CreateDefaults(r.Context(), getUserFromRequest(r).ID)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusCreated, envelope{"life_spheres": created})
}

// sphereFromPath loads the sphere named by the {id} path segment. It writes
// the error response itself and reports whether the handler may continue.
func (app *application) sphereFromPath(w http.ResponseWriter, r *http.Request) (*data.LifeSphere, bool) {
	id, err := readIDParam(r)
	if err != nil {
		writeError(w, err, http.StatusBadRequest)
		return nil, false
	}
	ls, err := app.spheres.FindByIDAndUserID(r.Context(), id, getUserFromRequest(r).ID)
	if err != nil {
		app.serviceError(w, r, err)
		return nil, false
	}
	return ls, true
}

func (app *application) getSphereHandler(w http.ResponseWriter, r *http.Request) {
	ls, ok := app.sphereFromPath(w, r)
	if !ok {
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"life_sphere": ls})
}

func (app *application) updateSphereHandler(w http.ResponseWriter, r *http.Request) {
	ls, ok := app.sphereFromPath(w, r)
	if !ok {
		return
	}
	input, ok := readSphereInput(w, r)
	if !ok {
		return
	}
	ls, err := app.spheres.Update(r.Context(), ls, data.LifeSphere{Name: input.Name, Color: input.Color})
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{"life_sphere": ls})
}

func (app *application) deleteSphereHandler(w http.ResponseWriter, r *http.Request) {
	ls, ok := app.sphereFromPath(w, r)
	if !ok {
		return
	}
	if err := app.spheres.Delete(r.Context(), ls); err != nil {
		app.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
