package gormstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/database"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/models"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.OpenGorm(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"}, log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db, log)
}

func mustUser(t *testing.T, s *store.Store, username string) *auth.User {
	t.Helper()

	user := &auth.User{Username: username, Email: username + "@example.com", Password: []byte("hash")}
	if err := s.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func mustPost(t *testing.T, s *store.Store, author *auth.User, text string, at time.Time) *models.Post {
	t.Helper()

	post := &models.Post{AuthorID: author.ID, Text: text, CreatedAt: at}
	if err := s.Posts.Create(context.Background(), post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestUserUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, "leo")

	err := s.Users.Create(ctx, &auth.User{Username: "leo", Email: "other@example.com", Password: []byte("x")})
	if !errors.Is(err, store.ErrDuplicateUsername) {
		t.Errorf("duplicate username err = %v", err)
	}

	err = s.Users.Create(ctx, &auth.User{Username: "anna", Email: "leo@example.com", Password: []byte("x")})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Errorf("duplicate email err = %v", err)
	}

	if _, err := s.Users.GetByUsername(ctx, "missing"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestPostListOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo, anna := mustUser(t, s, "leo"), mustUser(t, s, "anna")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first := mustPost(t, s, leo, "first", base)
	tieA := mustPost(t, s, anna, "tie a", base.Add(time.Hour))
	tieB := mustPost(t, s, leo, "tie b", base.Add(time.Hour))

	posts, err := s.Posts.List(ctx, store.PostFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	wantIDs := []int64{tieB.ID, tieA.ID, first.ID}
	for i, p := range posts {
		if p.ID != wantIDs[i] {
			t.Fatalf("order = %v, want ids %v", ids(posts), wantIDs)
		}
	}

	n, err := s.Posts.Count(ctx, store.PostFilter{AuthorID: leo.ID})
	if err != nil || n != 2 {
		t.Errorf("Count(leo) = %d, %v; want 2", n, err)
	}

	page, err := s.Posts.List(ctx, store.PostFilter{}, 2, 2)
	if err != nil || len(page) != 1 || page[0].ID != first.ID {
		t.Errorf("List(limit 2, offset 2) = %v, %v", ids(page), err)
	}
}

func TestPostFollowedByFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo, anna, ivan := mustUser(t, s, "leo"), mustUser(t, s, "anna"), mustUser(t, s, "ivan")
	now := time.Now().UTC()
	mustPost(t, s, anna, "by anna", now)
	mustPost(t, s, ivan, "by ivan", now)

	if _, err := s.Follows.Create(ctx, leo.ID, anna.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	posts, err := s.Posts.List(ctx, store.PostFilter{FollowedBy: leo.ID}, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 1 || posts[0].AuthorID != anna.ID {
		t.Errorf("followed posts = %+v, want only anna's", posts)
	}
}

func TestFollowEdgeIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo, anna := mustUser(t, s, "leo"), mustUser(t, s, "anna")

	created, err := s.Follows.Create(ctx, leo.ID, anna.ID)
	if err != nil || !created {
		t.Fatalf("first Create = %v, %v; want true, nil", created, err)
	}
	created, err = s.Follows.Create(ctx, leo.ID, anna.ID)
	if err != nil || created {
		t.Fatalf("second Create = %v, %v; want false, nil", created, err)
	}

	if n, _ := s.Follows.CountFollowers(ctx, anna.ID); n != 1 {
		t.Errorf("CountFollowers(anna) = %d, want 1", n)
	}
	if n, _ := s.Follows.CountFollowing(ctx, leo.ID); n != 1 {
		t.Errorf("CountFollowing(leo) = %d, want 1", n)
	}

	deleted, err := s.Follows.Delete(ctx, leo.ID, anna.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = s.Follows.Delete(ctx, leo.ID, anna.ID)
	if err != nil || deleted {
		t.Errorf("second Delete = %v, %v; want false, nil", deleted, err)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo := mustUser(t, s, "leo")
	post := mustPost(t, s, leo, "doomed", time.Now().UTC())
	other := mustPost(t, s, leo, "kept", time.Now().UTC())

	for _, postID := range []int64{post.ID, post.ID, other.ID} {
		if err := s.Comments.Create(ctx, &models.Comment{PostID: postID, AuthorID: leo.ID, Text: "hi"}); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}

	counts, err := s.Comments.CountByPostIDs(ctx, []int64{post.ID, other.ID})
	if err != nil || counts[post.ID] != 2 || counts[other.ID] != 1 {
		t.Fatalf("CountByPostIDs = %v, %v", counts, err)
	}

	if err := s.Posts.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	comments, err := s.Comments.ListByPost(ctx, post.ID)
	if err != nil || len(comments) != 0 {
		t.Errorf("orphan comments = %d, %v", len(comments), err)
	}
	if _, err := s.Posts.GetByID(ctx, post.ID); !errors.Is(err, store.ErrRecordNotFound) {
		t.Errorf("GetByID after delete err = %v", err)
	}
	if err := s.Posts.Delete(ctx, post.ID); !errors.Is(err, store.ErrRecordNotFound) {
		t.Errorf("second Delete err = %v", err)
	}

	counts, _ = s.Comments.CountByPostIDs(ctx, []int64{other.ID})
	if counts[other.ID] != 1 {
		t.Errorf("other post comments = %d, want 1", counts[other.ID])
	}
}

func TestUpdatePostKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo := mustUser(t, s, "leo")
	created := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	post := mustPost(t, s, leo, "draft", created)

	group := &models.Group{Title: "Cats", Slug: "cats"}
	if err := s.Groups.Create(ctx, group); err != nil {
		t.Fatalf("group: %v", err)
	}

	post.Text = "final"
	post.GroupID = &group.ID
	if err := s.Posts.Update(ctx, post); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Text != "final" || got.GroupID == nil || *got.GroupID != group.ID {
		t.Errorf("updated post = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	if err := s.Groups.Create(ctx, &models.Group{Title: "Cats again", Slug: "cats"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate slug err = %v", err)
	}
}

func ids(posts []*models.Post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
