package main

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/core"
	"github.com/siahsang/yatube/internal/utils/functional"
)

type postView struct {
	core.FeedItem
	ImageURL string `json:"imageUrl,omitempty"`
}

// postForm is a submitted post, read from JSON or from a multipart form
// carrying an optional image file.
type postForm struct {
	input core.PostInput
	image multipart.File
}

func (app *application) listPosts(w http.ResponseWriter, r *http.Request) {
	feed, err := app.core.ComposeFeed(r.Context(), core.Global(), app.auth.Viewer(r), readPage(r))
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	if err := app.writeJSON(w, http.StatusOK, app.feedResponse(feed), nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) createPost(w http.ResponseWriter, r *http.Request) {
	form, err := app.readPostForm(w, r)
	if err != nil {
		app.badRequestResponse(w, r, &AppError{ErrorMessage: err.Error(), ErrorStack: err})
		return
	}
	if err := app.storeImage(form); err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	item, err := app.core.CreatePost(r.Context(), app.auth.Viewer(r), form.input)
	if err != nil {
		app.discardImage(form.input.Image)
		app.coreErrorResponse(w, r, err)
		return
	}

	app.metrics.PostsCreated.Inc()
	app.purgeCache()

	if err := app.writeJSON(w, http.StatusCreated, envelope{"post": app.postView(*item)}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	detail, err := app.core.GetPost(r.Context(), id)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	response := envelope{
		"post":             app.postView(detail.Post),
		"comments":         detail.Comments,
		"authorPostsCount": detail.AuthorPostsCount,
	}
	if err := app.writeJSON(w, http.StatusOK, response, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	form, err := app.readPostForm(w, r)
	if err != nil {
		app.badRequestResponse(w, r, &AppError{ErrorMessage: err.Error(), ErrorStack: err})
		return
	}
	if err := app.storeImage(form); err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	item, replaced, err := app.core.UpdatePost(r.Context(), app.auth.Viewer(r), id, form.input)
	if err != nil {
		app.discardImage(form.input.Image)
		app.coreErrorResponse(w, r, err)
		return
	}

	app.discardImage(replaced)
	app.purgeCache()

	if err := app.writeJSON(w, http.StatusOK, envelope{"post": app.postView(*item)}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	post, err := app.core.DeletePost(r.Context(), app.auth.Viewer(r), id)
	if err != nil {
		app.coreErrorResponse(w, r, err)
		return
	}

	app.discardImage(post.Image)
	app.metrics.PostsDeleted.Inc()
	app.purgeCache()

	if err := app.writeJSON(w, http.StatusOK, envelope{"message": "post successfully deleted"}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

func (app *application) readPostForm(w http.ResponseWriter, r *http.Request) (*postForm, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		type postPayload struct {
			Text  string `json:"text"`
			Group string `json:"group"`
		}

		type PostRequest struct {
			Post postPayload `json:"post"`
		}

		var postRequest PostRequest
		if err := app.readJSON(w, r, &postRequest); err != nil {
			return nil, err
		}
		return &postForm{input: core.PostInput{Text: postRequest.Post.Text, GroupSlug: postRequest.Post.Group}}, nil
	}

	const formOverhead = 1 << 20
	maxBytes := app.config.Media.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, xerrors.Newf("invalid multipart form: %w", err)
	}

	form := &postForm{input: core.PostInput{
		Text:      r.PostFormValue("text"),
		GroupSlug: r.PostFormValue("group"),
	}}

	file, _, err := r.FormFile("image")
	switch {
	case err == nil:
		form.image = file
	case !errors.Is(err, http.ErrMissingFile):
		return nil, xerrors.Newf("invalid image field: %w", err)
	}

	return form, nil
}

// storeImage saves the uploaded image of form, if any, and points the input
// at it.
func (app *application) storeImage(form *postForm) error {
	if form.image == nil {
		return nil
	}
	defer form.image.Close()

	ref, err := app.media.Save(form.image)
	if err != nil {
		return err
	}
	form.input.Image = &ref
	return nil
}

// discardImage removes a stored image in the background.
func (app *application) discardImage(ref *string) {
	if ref == nil {
		return
	}
	name := *ref
	app.doInBackground(func() {
		if err := app.media.Delete(name); err != nil {
			app.logger.Error("failed to delete image", slog.String("ref", name), slog.String("error", err.Error()))
		}
	})
}

func (app *application) postView(item core.FeedItem) postView {
	view := postView{FeedItem: item}
	if item.ImageRef != nil {
		view.ImageURL = app.media.URL(*item.ImageRef)
	}
	return view
}

func (app *application) feedResponse(feed *core.FeedPage) envelope {
	response := envelope{
		"posts": functional.Map(feed.Items, app.postView),
		"page":  feed.Page,
	}
	if feed.Group != nil {
		response["group"] = feed.Group
	}
	if feed.Author != nil {
		response["profile"] = feed.Author
	}
	return response
}
