package main

import (
	"net/http"

	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/core"
)

func (app *application) registerUser(w http.ResponseWriter, r *http.Request) {
	type registerUserPayload struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	type RegisterUserRequest struct {
		User registerUserPayload `json:"user"`
	}

	var registerUserRequest RegisterUserRequest

	if err := app.readJSON(w, r, &registerUserRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	user, err := app.core.RegisterUser(r.Context(), core.RegisterInput{
		Username: registerUserRequest.User.Username,
		Email:    registerUserRequest.User.Email,
		Password: registerUserRequest.User.Password,
	})
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	app.signIn(w, r, http.StatusCreated, user)
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	type loginUserPayload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	type LoginUserRequest struct {
		User loginUserPayload `json:"user"`
	}

	var loginUserRequest LoginUserRequest

	if err := app.readJSON(w, r, &loginUserRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	user, err := app.core.Login(r.Context(), loginUserRequest.User.Username, loginUserRequest.User.Password)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	app.signIn(w, r, http.StatusOK, user)
}

// signIn issues a token and starts a cookie session for user.
func (app *application) signIn(w http.ResponseWriter, r *http.Request, status int, user *auth.User) {
	token, err := app.auth.GenerateToken(user)
	if err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}
	if err := app.auth.StartSession(w, r, user); err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, status, userResponse(user, token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.auth.EndSession(w, r); err != nil {
		app.internalErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := app.auth.Viewer(r)
	if err := app.writeJSON(w, http.StatusOK, userResponse(user, user.Token), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func userResponse(user *auth.User, token string) envelope {
	user.Token = token
	return envelope{"user": user}
}
