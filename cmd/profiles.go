package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/siahsang/yatube/internal/core"
)

func (app *application) getProfileFeed(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")

	feed, err := app.core.ComposeFeed(r.Context(), core.ByAuthor(username), app.auth.Viewer(r), readPage(r))
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, app.feedResponse(feed), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) followUser(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")
	viewer := app.auth.Viewer(r)

	if err := app.core.Follow(r.Context(), viewer, username); err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}
	app.metrics.Follows.Inc()

	app.profileResponse(w, r, username)
}

func (app *application) unfollowUser(w http.ResponseWriter, r *http.Request) {
	username := httprouter.ParamsFromContext(r.Context()).ByName("username")
	viewer := app.auth.Viewer(r)

	if err := app.core.Unfollow(r.Context(), viewer, username); err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}
	app.metrics.Unfollows.Inc()

	app.profileResponse(w, r, username)
}

func (app *application) profileResponse(w http.ResponseWriter, r *http.Request, username string) {
	profile, err := app.core.GetProfile(r.Context(), username, app.auth.Viewer(r))
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"profile": profile}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) followingFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := app.core.ComposeFeed(r.Context(), core.FollowingOnly(), app.auth.Viewer(r), readPage(r))
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, app.feedResponse(feed), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}
