package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/core"
)

// statusRecorder remembers the status written through it and, when body is
// set, a copy of the response body.
type statusRecorder struct {
	http.ResponseWriter
	status int
	body   *bytes.Buffer
}

func (rec *statusRecorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	if rec.body != nil {
		rec.body.Write(b)
	}
	return rec.ResponseWriter.Write(b)
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.internalErrorResponse(w, r, xerrors.New(fmt.Sprintf("%v", err)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// observe records the request under route in the metrics and logs it, at WARN
// when it took longer than the slow request threshold.
func (app *application) observe(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		took := time.Since(start)
		app.metrics.ObserveRequest(route, rec.status, took)

		level := slog.LevelInfo
		if app.config.Server.SlowRequest > 0 && took > app.config.Server.SlowRequest {
			level = slog.LevelWarn
		}
		app.logger.LogAttrs(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", took),
		)
	})
}

// authenticate resolves the viewer from a "Token <jwt>" header or, failing
// that, from the session cookie. Requests without either stay anonymous.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		w.Header().Add("Vary", "Cookie")

		authorization := r.Header.Get("Authorization")
		if authorization != "" {
			authorizationParts := strings.Split(authorization, " ")
			if len(authorizationParts) != 2 || authorizationParts[0] != "Token" {
				app.invalidAuthenticationTokenResponse(w, r, xerrors.New("Authentication header must be in the format 'Token <token>'"))
				return
			}
			token := authorizationParts[1]
			claim, err := app.auth.Authenticate(token)
			if err != nil {
				app.invalidAuthenticationTokenResponse(w, r, err)
				return
			}

			user, err := app.core.GetUserByUsername(r.Context(), claim.Username)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					app.invalidAuthenticationTokenResponse(w, r, err)
					return
				}
				app.internalErrorResponse(w, r, err)
				return
			}
			user.Token = token
			next.ServeHTTP(w, app.auth.SetAuthenticatedUser(r, user))
			return
		}

		if id, ok := app.auth.SessionUserID(r); ok {
			user, err := app.core.GetUser(r.Context(), id)
			switch {
			case err == nil:
				r = app.auth.SetAuthenticatedUser(r, user)
			case !errors.Is(err, core.ErrNotFound):
				app.internalErrorResponse(w, r, err)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.auth.IsUserAuthenticated(r) {
			app.authenticationRequiredResponse(w, r, xerrors.New(auth.NotAuthenticatesUser))
			return
		}
		next(w, r)
	}
}

// cachePage serves anonymous GET requests from the page cache, keyed by
// request URI, and stores successful responses in it.
func (app *application) cachePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || app.auth.IsUserAuthenticated(r) {
			next(w, r)
			return
		}

		key := r.URL.RequestURI()
		if body, ok := app.cache.Get(key); ok {
			app.metrics.CacheLookup(true)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}
		app.metrics.CacheLookup(false)

		w.Header().Set("X-Cache", "MISS")
		rec := &statusRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
		next(rec, r)

		if rec.status == http.StatusOK {
			app.cache.Set(key, rec.body.Bytes())
		}
	}
}

// purgeCache drops every cached page after a write to posts or comments.
func (app *application) purgeCache() {
	app.cache.Clear()
}
