package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/models"
)

// newTestStore connects to BLOG_TEST_POSTGRES_DSN and truncates every table.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := os.Getenv("BLOG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BLOG_TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE follows, comments, posts, post_groups, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatal(err)
	}

	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Second)
}

func mustUser(t *testing.T, s *store.Store, username string) *auth.User {
	t.Helper()
	user := &auth.User{Username: username, Email: username + "@example.com", Password: []byte("hash")}
	if err := s.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func TestUserUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustUser(t, s, "leo")

	err := s.Users.Create(ctx, &auth.User{Username: "leo", Email: "other@example.com", Password: []byte("x")})
	if !errors.Is(err, store.ErrDuplicateUsername) {
		t.Errorf("duplicate username: got %v", err)
	}

	err = s.Users.Create(ctx, &auth.User{Username: "other", Email: "leo@example.com", Password: []byte("x")})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Errorf("duplicate email: got %v", err)
	}

	if _, err := s.Users.GetByUsername(ctx, "nobody"); !errors.Is(err, store.ErrRecordNotFound) {
		t.Errorf("missing user: got %v", err)
	}
}

func TestPostsOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo := mustUser(t, s, "leo")
	anna := mustUser(t, s, "anna")

	group := &models.Group{Title: "Cats", Slug: "cats"}
	if err := s.Groups.Create(ctx, group); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []*models.Post{
		{AuthorID: leo.ID, Text: "first", CreatedAt: base},
		{AuthorID: anna.ID, GroupID: &group.ID, Text: "second", CreatedAt: base.Add(time.Hour)},
		{AuthorID: leo.ID, GroupID: &group.ID, Text: "tie a", CreatedAt: base.Add(2 * time.Hour)},
		{AuthorID: anna.ID, Text: "tie b", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, p := range posts {
		if err := s.Posts.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.Posts.List(ctx, store.PostFilter{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"tie b", "tie a", "second", "first"}
	for i, p := range all {
		if p.Text != want[i] {
			t.Errorf("position %d: got %q, want %q", i, p.Text, want[i])
		}
	}

	n, err := s.Posts.Count(ctx, store.PostFilter{GroupID: group.ID})
	if err != nil || n != 2 {
		t.Errorf("group count = %d, %v; want 2", n, err)
	}

	if _, err := s.Follows.Create(ctx, leo.ID, anna.ID); err != nil {
		t.Fatal(err)
	}
	followed, err := s.Posts.List(ctx, store.PostFilter{FollowedBy: leo.ID}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(followed) != 2 || followed[0].Text != "tie b" {
		t.Errorf("followed feed = %v", followed)
	}
}

func TestFollowEdge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo := mustUser(t, s, "leo")
	anna := mustUser(t, s, "anna")

	created, err := s.Follows.Create(ctx, leo.ID, anna.ID)
	if err != nil || !created {
		t.Fatalf("first follow: created=%v err=%v", created, err)
	}
	created, err = s.Follows.Create(ctx, leo.ID, anna.ID)
	if err != nil || created {
		t.Fatalf("second follow: created=%v err=%v", created, err)
	}

	if n, _ := s.Follows.CountFollowers(ctx, anna.ID); n != 1 {
		t.Errorf("followers = %d, want 1", n)
	}

	existed, err := s.Follows.Delete(ctx, leo.ID, anna.ID)
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if ok, _ := s.Follows.Exists(ctx, leo.ID, anna.ID); ok {
		t.Error("edge still exists after delete")
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	leo := mustUser(t, s, "leo")

	post := &models.Post{AuthorID: leo.ID, Text: "hello"}
	if err := s.Posts.Create(ctx, post); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := s.Comments.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "hi"}); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Posts.Delete(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	counts, err := s.Comments.CountByPostIDs(ctx, []int64{post.ID})
	if err != nil {
		t.Fatal(err)
	}
	if counts[post.ID] != 0 {
		t.Errorf("comments left after delete: %d", counts[post.ID])
	}
	if err := s.Posts.Delete(ctx, post.ID); !errors.Is(err, store.ErrRecordNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}
