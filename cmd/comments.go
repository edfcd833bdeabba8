package main

import (
	"net/http"
)

func (app *application) createComment(w http.ResponseWriter, r *http.Request) {
	type CreateCommentPayload struct {
		Text string `json:"text"`
	}

	type CreateCommentRequest struct {
		Comment CreateCommentPayload `json:"comment"`
	}

	var createCommentRequest CreateCommentRequest

	if err := app.readJSON(w, r, &createCommentRequest); err != nil {
		app.badRequestResponse(w, r, &AppError{
			ErrorMessage: err.Error(),
			ErrorStack:   err,
		})
		return
	}

	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	comment, err := app.core.AddComment(r.Context(), app.auth.Viewer(r), id, createCommentRequest.Comment.Text)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	app.metrics.CommentsCreated.Inc()
	app.purgeCache()

	if err := app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}
