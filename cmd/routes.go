package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	handle := func(method, path string, handler http.HandlerFunc) {
		router.Handler(method, path, app.observe(path, handler))
	}

	// Not require authentication for these routes
	handle(http.MethodPost, "/api/users", app.registerUser)
	handle(http.MethodPost, "/api/users/login", app.login)
	handle(http.MethodPost, "/api/users/logout", app.logout)
	handle(http.MethodGet, "/api/posts", app.cachePage(app.listPosts))
	handle(http.MethodGet, "/api/posts/:id", app.getPost)
	handle(http.MethodGet, "/api/groups", app.listGroups)
	handle(http.MethodGet, "/api/groups/:slug", app.getGroupFeed)
	handle(http.MethodGet, "/api/profiles/:username", app.getProfileFeed)

	// Require authentication for these routes
	handle(http.MethodGet, "/api/user", app.requireAuthenticatedUser(app.getCurrentUser))
	handle(http.MethodPost, "/api/posts", app.requireAuthenticatedUser(app.createPost))
	handle(http.MethodPut, "/api/posts/:id", app.requireAuthenticatedUser(app.updatePost))
	handle(http.MethodDelete, "/api/posts/:id", app.requireAuthenticatedUser(app.deletePost))
	handle(http.MethodPost, "/api/posts/:id/comments", app.requireAuthenticatedUser(app.createComment))
	handle(http.MethodPost, "/api/groups", app.requireAuthenticatedUser(app.createGroup))
	handle(http.MethodPost, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.followUser))
	handle(http.MethodDelete, "/api/profiles/:username/follow", app.requireAuthenticatedUser(app.unfollowUser))
	handle(http.MethodGet, "/api/feed", app.requireAuthenticatedUser(app.followingFeed))

	router.Handler(http.MethodGet, "/media/*filepath", http.StripPrefix("/media", http.FileServer(http.Dir(app.media.Dir()))))
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	router.HandlerFunc(http.MethodGet, "/healthz", app.healthcheck)

	return app.recoverPanic(app.authenticate(router))
}

func (app *application) healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := app.writeJSON(w, http.StatusOK, envelope{"status": "available"}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}
