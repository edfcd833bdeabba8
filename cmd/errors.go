package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/core"
	"github.com/siahsang/yatube/internal/media"
)

type AppError struct {
	ErrorStack   error
	ErrorMessage string
	ErrorDetails map[string]string
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, appError *AppError) {
	app.errorResponse(w, r, http.StatusBadRequest, appError)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, &AppError{
		ErrorMessage: "The requested resource could not be found.",
	})
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, &AppError{
		ErrorMessage: "The " + r.Method + " method is not supported for this resource.",
	})
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusUnauthorized, &AppError{ErrorStack: err,
		ErrorMessage: "You must be authenticated to access this resource.",
	})
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", "Token")
	app.errorResponse(w, r, http.StatusUnauthorized, &AppError{ErrorStack: err,
		ErrorMessage: "Invalid or missing authentication token.",
	})
}

func (app *application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusUnauthorized, &AppError{ErrorStack: err,
		ErrorMessage: "Invalid credentials",
	})
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusForbidden, &AppError{ErrorStack: err,
		ErrorMessage: "You do not have permission to change this resource.",
	})
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, details map[string]string) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, &AppError{
		ErrorMessage: "The submitted data is invalid.",
		ErrorDetails: details,
	})
}

func (app *application) internalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusInternalServerError, &AppError{ErrorStack: err,
		ErrorMessage: "An internal server error occurred.",
	})
}

// coreErrorResponse maps an error returned by the core, or by the media store,
// to its response.
func (app *application) coreErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationError *core.ValidationError

	switch {
	case errors.As(err, &validationError):
		app.failedValidationResponse(w, r, validationError.Fields)
	case errors.Is(err, core.ErrNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, core.ErrUnauthorized):
		app.authenticationRequiredResponse(w, r, err)
	case errors.Is(err, core.ErrForbidden):
		app.forbiddenResponse(w, r, err)
	case errors.Is(err, core.ErrInvalidCredentials):
		app.invalidCredentialsResponse(w, r, err)
	case errors.Is(err, media.ErrInvalidImage):
		app.failedValidationResponse(w, r, map[string]string{"image": media.ErrInvalidImage.Error()})
	case errors.Is(err, media.ErrTooLarge):
		app.failedValidationResponse(w, r, map[string]string{"image": media.ErrTooLarge.Error()})
	default:
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, appError *AppError) {
	errorDetails := map[string]any{
		"errorMessage": appError.ErrorMessage,
		"errorDetails": appError.ErrorDetails,
	}

	var attrs []slog.Attr
	attrs = append(attrs, slog.String("request_url", r.URL.String()))
	attrs = append(attrs, slog.String("request_method", r.Method))
	attrs = append(attrs, slog.Int("status", status))
	if appError.ErrorStack != nil {
		attrs = append(attrs, slog.String("stack", xerrors.Sprint(appError.ErrorStack)))
	}

	for key, valueData := range appError.ErrorDetails {
		attrs = append(attrs, slog.Any(key, valueData))
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	app.logger.LogAttrs(r.Context(), level, "ErrorStack in handling request", attrs...)

	err := app.writeJSON(w, status, errorDetails, nil)
	if err != nil {
		app.logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) writeJSON(w http.ResponseWriter, status int, data map[string]any, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		app.logger.Error(err.Error())
		return err
	}

	return nil
}
