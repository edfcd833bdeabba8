package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/siahsang/yatube/internal/core"
)

func (app *application) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := app.core.ListGroups(r.Context())
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, envelope{"groups": groups}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) createGroup(w http.ResponseWriter, r *http.Request) {
	type groupPayload struct {
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}

	type CreateGroupRequest struct {
		Group groupPayload `json:"group"`
	}

	var createGroupRequest CreateGroupRequest
	if err := app.readJSON(w, r, &createGroupRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{ErrorMessage: err.Error(), ErrorStack: err})
		return
	}

	group, err := app.core.CreateGroup(r.Context(), app.auth.Viewer(r), core.GroupInput{
		Title:       createGroupRequest.Group.Title,
		Slug:        createGroupRequest.Group.Slug,
		Description: createGroupRequest.Group.Description,
	})
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusCreated, envelope{"group": group}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) getGroupFeed(w http.ResponseWriter, r *http.Request) {
	slug := httprouter.ParamsFromContext(r.Context()).ByName("slug")

	feed, err := app.core.ComposeFeed(r.Context(), core.ByGroup(slug), app.auth.Viewer(r), readPage(r))
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, app.feedResponse(feed), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}
