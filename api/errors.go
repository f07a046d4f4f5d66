package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/harlequingg/lifestrat-api/internal/service"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

var (
	errInternal      = errors.New("internal server error")
	errInvalidAuth   = errors.New("invalid Authorization header")
	errInvalidToken  = errors.New("invalid or expired token")
	errUserGone      = errors.New("user no longer exists")
	errEditConflict  = errors.New("unable to update the record due to an edit conflict, please try again")
	errRateLimited   = errors.New("rate limit exceeded")
	errNotFoundRoute = errors.New("the requested resource could not be found")
)

func composeJSONError(err error) []byte {
	var msg json.RawMessage
	// Validator errors are already a JSON object of field messages.
	if b := []byte(err.Error()); len(b) > 0 && b[0] == '{' && json.Valid(b) {
		msg = b
	} else {
		msg, _ = json.Marshal(err.Error())
	}
	result, _ := json.Marshal(map[string]json.RawMessage{"error": msg})
	return append(result, '\n')
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	w.Write(composeJSONError(err))
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID(r)),
		zap.Error(err),
	)
	writeError(w, errInternal, http.StatusInternalServerError)
}

// serviceError writes the status that matches an error returned by the
// service layer.
func (app *application) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrNotFound) && verr.Field == "":
			status = http.StatusNotFound
		case errors.Is(err, service.ErrInvalidCredentials):
			status = http.StatusUnauthorized
		case errors.Is(err, service.ErrDuplicateName):
			status = http.StatusConflict
		case verr.Field != "":
			status = http.StatusUnprocessableEntity
		}
		writeError(w, verr, status)
	case errors.Is(err, storage.ErrEditConflict):
		writeError(w, errEditConflict, http.StatusConflict)
	default:
		app.serverError(w, r, err)
	}
}
