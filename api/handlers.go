package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/service"
	"github.com/harlequingg/lifestrat-api/internal/validator"
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	healthCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
		Storage     string `json:"storage"`
	}{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
		Storage:     app.config.db.Backend,
	}
	app.respond(w, r, http.StatusOK, healthCheck)
}

func (app *application) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, errNotFoundRoute, http.StatusNotFound)
}

type authResponse struct {
	User      *data.User `json:"user"`
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresIn int64      `json:"expires_in"`
}

func (app *application) writeAuth(w http.ResponseWriter, r *http.Request, status int, res *service.AuthResult, flow string) {
	app.metrics.tokensIssued.WithLabelValues(flow).Inc()
	app.respond(w, r, status, authResponse{
		User:      res.User,
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(app.tokens.Lifetime() / time.Second),
	})
}

func (app *application) registerHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,min=3,max=50"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := validator.New()
	v.CheckStruct(input)
	v.CheckEmail(input.Email)
	v.CheckPassword(input.Password)
	if v.HasErrors() {
		failedValidation(w, v)
		return
	}

	res, err := app.auth.Register(r.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}

	if app.mailer != nil {
		u := res.User
		app.background(func() {
			if err := app.mailer.send(u.Email, "user_welcome.tmpl", u); err != nil {
				app.logger.Error("welcome mail", zap.String("email", u.Email), zap.Error(err))
			}
		})
	}
	app.writeAuth(w, r, http.StatusCreated, res, "register")
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	v := validator.New()
	v.CheckStruct(input)
	if v.HasErrors() {
		failedValidation(w, v)
		return
	}

	res, err := app.auth.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeAuth(w, r, http.StatusOK, res, "login")
}

// tokenInfoHandler describes the bearer token of the request itself.
func (app *application) tokenInfoHandler(w http.ResponseWriter, r *http.Request) {
	token := getTokenFromRequest(r)
	expiresAt, err := app.tokens.ParseExpiry(token)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.respond(w, r, http.StatusOK, envelope{
		"username":          getUserFromRequest(r).Username,
		"expires_at":        expiresAt.UTC(),
		"remaining_seconds": int64(app.tokens.RemainingLifetime(token) / time.Second),
	})
}

func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	app.respond(w, r, http.StatusOK, envelope{"user": getUserFromRequest(r)})
}

func (app *application) deleteCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.users.Delete(r.Context(), getUserFromRequest(r)); err != nil {
		app.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
