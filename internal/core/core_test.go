package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/database"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/store/gormstore"
	"github.com/siahsang/yatube/models"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCore(t *testing.T) (*Core, *store.Store) {
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
	if err := gormstore.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st := gormstore.New(db, log)
	return NewCore(st, log, DefaultPageSizes()), st
}

func mustRegister(t *testing.T, c *Core, username string) *auth.User {
	t.Helper()

	user, err := c.RegisterUser(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

// mustPostAt stores a post with a fixed creation time.
func mustPostAt(t *testing.T, st *store.Store, author *auth.User, group *models.Group, text string, at time.Time) *models.Post {
	t.Helper()

	post := &models.Post{AuthorID: author.ID, Text: text, CreatedAt: at}
	if group != nil {
		post.GroupID = &group.ID
	}
	if err := st.Posts.Create(context.Background(), post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func mustGroup(t *testing.T, c *Core, owner *auth.User, slug string) *models.Group {
	t.Helper()

	group, err := c.CreateGroup(context.Background(), owner, GroupInput{Title: "Group " + slug, Slug: slug})
	if err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return group
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve.Fields
}

func TestComposeFeedOrdersNewestFirst(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")

	mustPostAt(t, st, leo, nil, "old", epoch)
	tieA := mustPostAt(t, st, leo, nil, "tie a", epoch.Add(time.Hour))
	tieB := mustPostAt(t, st, leo, nil, "tie b", epoch.Add(time.Hour))
	mustPostAt(t, st, leo, nil, "new", epoch.Add(2*time.Hour))

	feed, err := c.ComposeFeed(ctx, Global(), nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	if len(feed.Items) != 4 {
		t.Fatalf("got %d items, want 4", len(feed.Items))
	}
	for i := 1; i < len(feed.Items); i++ {
		if feed.Items[i].CreatedAt.After(feed.Items[i-1].CreatedAt) {
			t.Errorf("item %d is newer than item %d", i, i-1)
		}
	}
	if feed.Items[1].PostID != tieB.ID || feed.Items[2].PostID != tieA.ID {
		t.Errorf("tie not broken by id descending: got %d, %d", feed.Items[1].PostID, feed.Items[2].PostID)
	}
	if feed.Items[0].AuthorUsername != "leo" {
		t.Errorf("author = %q, want leo", feed.Items[0].AuthorUsername)
	}

	again, err := c.ComposeFeed(ctx, Global(), nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range again.Items {
		if again.Items[i].PostID != feed.Items[i].PostID {
			t.Fatalf("order changed between calls at %d", i)
		}
	}
}

func TestComposeFeedCommentCountIsLive(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")
	anna := mustRegister(t, c, "anna")
	post := mustPostAt(t, st, leo, nil, "hello", epoch)
	mustPostAt(t, st, leo, nil, "quiet", epoch.Add(-time.Hour))

	countOf := func() int64 {
		feed, err := c.ComposeFeed(ctx, Global(), nil, 1)
		if err != nil {
			t.Fatal(err)
		}
		for _, item := range feed.Items {
			if item.PostID == post.ID {
				return item.CommentCount
			}
		}
		t.Fatal("post missing from feed")
		return 0
	}

	if n := countOf(); n != 0 {
		t.Fatalf("initial count = %d, want 0", n)
	}
	if _, err := c.AddComment(ctx, anna, post.ID, "nice"); err != nil {
		t.Fatal(err)
	}
	if n := countOf(); n != 1 {
		t.Errorf("after one comment count = %d, want 1", n)
	}
	if _, err := c.AddComment(ctx, leo, post.ID, "thanks"); err != nil {
		t.Fatal(err)
	}
	if n := countOf(); n != 2 {
		t.Errorf("after two comments count = %d, want 2", n)
	}
}

func TestComposeFeedPagination(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")
	for i := range 25 {
		mustPostAt(t, st, leo, nil, fmt.Sprintf("post %d", i), epoch.Add(time.Duration(i)*time.Minute))
	}

	first, err := c.ComposeFeed(ctx, Global(), nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Items) != 10 || !first.Page.HasNext || first.Page.TotalPages != 3 || first.Page.HasPrev {
		t.Errorf("page 1: %d items, page %+v", len(first.Items), first.Page)
	}

	last, err := c.ComposeFeed(ctx, Global(), nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{99, 0, -4} {
		clamped, err := c.ComposeFeed(ctx, Global(), nil, n)
		if err != nil {
			t.Fatalf("page %d: %v", n, err)
		}
		if clamped.Page != last.Page || len(clamped.Items) != len(last.Items) {
			t.Errorf("page %d = %+v (%d items), want %+v (%d items)", n, clamped.Page, len(clamped.Items), last.Page, len(last.Items))
		}
	}
	if len(last.Items) != 5 || last.Items[4].Text != "post 0" {
		t.Errorf("last page holds %d items", len(last.Items))
	}
}

func TestComposeFeedEmpty(t *testing.T) {
	c, _ := newTestCore(t)

	feed, err := c.ComposeFeed(context.Background(), Global(), nil, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Items) != 0 || feed.Page.Number != 1 || feed.Page.TotalPages != 1 {
		t.Errorf("empty feed = %+v", feed)
	}
}

func TestComposeFeedByGroup(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")
	cats := mustGroup(t, c, leo, "cats")
	dogs := mustGroup(t, c, leo, "dogs")

	mustPostAt(t, st, leo, cats, "meow", epoch)
	mustPostAt(t, st, leo, dogs, "woof", epoch)
	mustPostAt(t, st, leo, nil, "plain", epoch)

	feed, err := c.ComposeFeed(ctx, ByGroup("cats"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Items) != 1 || feed.Items[0].Text != "meow" {
		t.Fatalf("group feed = %+v", feed.Items)
	}
	if feed.Items[0].GroupSlug == nil || *feed.Items[0].GroupSlug != "cats" {
		t.Errorf("group slug = %v", feed.Items[0].GroupSlug)
	}
	if feed.Group == nil || feed.Group.Slug != "cats" {
		t.Errorf("feed group = %+v", feed.Group)
	}

	if _, err := c.ComposeFeed(ctx, ByGroup("missing"), nil, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing group: got %v", err)
	}
}

func TestComposeFeedByAuthor(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")
	anna := mustRegister(t, c, "anna")
	bob := mustRegister(t, c, "bob")

	for i := range 7 {
		mustPostAt(t, st, leo, nil, fmt.Sprintf("leo %d", i), epoch.Add(time.Duration(i)*time.Minute))
	}
	mustPostAt(t, st, anna, nil, "anna", epoch)

	for _, follower := range []*auth.User{anna, bob} {
		if err := c.Follow(ctx, follower, "leo"); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Follow(ctx, leo, "bob"); err != nil {
		t.Fatal(err)
	}

	feed, err := c.ComposeFeed(ctx, ByAuthor("leo"), anna, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Items) != 5 || feed.Page.TotalPages != 2 {
		t.Errorf("profile page: %d items, %+v", len(feed.Items), feed.Page)
	}
	for _, item := range feed.Items {
		if item.AuthorUsername != "leo" {
			t.Errorf("foreign post %q in author feed", item.Text)
		}
	}

	tests := []struct {
		name        string
		viewer      *auth.User
		following   bool
		showControl bool
	}{
		{"follower", anna, true, true},
		{"anonymous", nil, false, true},
		{"author", leo, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := c.ComposeFeed(ctx, ByAuthor("leo"), tt.viewer, 1)
			if err != nil {
				t.Fatal(err)
			}
			p := feed.Author
			if p == nil {
				t.Fatal("author profile missing")
			}
			if p.PostsCount != 7 || p.FollowersCount != 2 || p.FollowingCount != 1 {
				t.Errorf("counts = %d posts, %d followers, %d following", p.PostsCount, p.FollowersCount, p.FollowingCount)
			}
			if p.Following != tt.following || p.ShowFollowControl != tt.showControl {
				t.Errorf("following=%v showFollowControl=%v, want %v %v", p.Following, p.ShowFollowControl, tt.following, tt.showControl)
			}
		})
	}

	if _, err := c.ComposeFeed(ctx, ByAuthor("missing-user"), nil, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing author: got %v", err)
	}
}

func TestComposeFeedFollowingOnly(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	a := mustRegister(t, c, "a")
	b := mustRegister(t, c, "b")
	other := mustRegister(t, c, "other")

	mustPostAt(t, st, b, nil, "by b", epoch)
	mustPostAt(t, st, other, nil, "by other", epoch)
	mustPostAt(t, st, a, nil, "by a", epoch)

	if _, err := c.ComposeFeed(ctx, FollowingOnly(), nil, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous following feed: got %v", err)
	}

	texts := func() []string {
		feed, err := c.ComposeFeed(ctx, FollowingOnly(), a, 1)
		if err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, item := range feed.Items {
			out = append(out, item.Text)
		}
		return out
	}

	if got := texts(); len(got) != 0 {
		t.Errorf("before follow: %v", got)
	}

	if err := c.Follow(ctx, a, "b"); err != nil {
		t.Fatal(err)
	}
	if got := texts(); len(got) != 1 || got[0] != "by b" {
		t.Errorf("after follow: %v", got)
	}

	if err := c.Unfollow(ctx, a, "b"); err != nil {
		t.Fatal(err)
	}
	if got := texts(); len(got) != 0 {
		t.Errorf("after unfollow: %v", got)
	}
}

func TestFollowGraph(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	a := mustRegister(t, c, "a")
	b := mustRegister(t, c, "b")

	if err := c.Follow(ctx, nil, "b"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous follow: got %v", err)
	}
	if err := c.Follow(ctx, a, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("follow missing user: got %v", err)
	}

	for range 2 {
		if err := c.Follow(ctx, a, "b"); err != nil {
			t.Fatalf("follow: %v", err)
		}
	}
	if n, _ := st.Follows.CountFollowers(ctx, b.ID); n != 1 {
		t.Errorf("edges after double follow = %d, want 1", n)
	}
	if ok, _ := c.IsFollowing(ctx, a.ID, b.ID); !ok {
		t.Error("IsFollowing = false after follow")
	}

	if err := c.Follow(ctx, a, "a"); err != nil {
		t.Errorf("self follow: %v", err)
	}
	if n, _ := st.Follows.CountFollowing(ctx, a.ID); n != 1 {
		t.Errorf("self follow created an edge: following = %d", n)
	}

	if err := c.Unfollow(ctx, a, "b"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := c.Unfollow(ctx, a, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second unfollow: got %v", err)
	}
	if err := c.Unfollow(ctx, a, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("self unfollow: got %v", err)
	}
}

func TestPostLifecycle(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")
	anna := mustRegister(t, c, "anna")
	mustGroup(t, c, leo, "cats")

	if _, err := c.CreatePost(ctx, nil, PostInput{Text: "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous create: got %v", err)
	}
	if fields := fieldErrors(t, errOnly(c.CreatePost(ctx, leo, PostInput{Text: "   "}))); fields["text"] == "" {
		t.Errorf("blank text fields = %v", fields)
	}
	if fields := fieldErrors(t, errOnly(c.CreatePost(ctx, leo, PostInput{Text: "x", GroupSlug: "nope"}))); fields["group"] == "" {
		t.Errorf("bad group fields = %v", fields)
	}

	image := "posts/a.png"
	item, err := c.CreatePost(ctx, leo, PostInput{Text: "first", GroupSlug: "cats", Image: &image})
	if err != nil {
		t.Fatal(err)
	}
	if item.GroupSlug == nil || *item.GroupSlug != "cats" || item.ImageRef == nil {
		t.Errorf("created item = %+v", item)
	}

	if _, _, err := c.UpdatePost(ctx, anna, item.PostID, PostInput{Text: "hijack"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign update: got %v", err)
	}

	newImage := "posts/b.png"
	updated, replaced, err := c.UpdatePost(ctx, leo, item.PostID, PostInput{Text: "edited", Image: &newImage})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Text != "edited" || updated.GroupSlug != nil {
		t.Errorf("updated item = %+v", updated)
	}
	if replaced == nil || *replaced != image {
		t.Errorf("replaced image = %v, want %s", replaced, image)
	}
	if !updated.CreatedAt.Equal(item.CreatedAt) {
		t.Errorf("created at changed: %v -> %v", item.CreatedAt, updated.CreatedAt)
	}

	if _, err := c.AddComment(ctx, nil, item.PostID, "hi"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous comment: got %v", err)
	}
	if _, err := c.AddComment(ctx, anna, item.PostID+100, "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("comment on missing post: got %v", err)
	}
	for _, text := range []string{"one", "two"} {
		if _, err := c.AddComment(ctx, anna, item.PostID, text); err != nil {
			t.Fatal(err)
		}
	}

	detail, err := c.GetPost(ctx, item.PostID)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Comments) != 2 || detail.Comments[0].Text != "two" || detail.Comments[0].AuthorUsername != "anna" {
		t.Errorf("comments = %+v", detail.Comments)
	}
	if detail.Post.CommentCount != 2 || detail.AuthorPostsCount != 1 {
		t.Errorf("detail = %+v", detail)
	}

	if _, err := c.DeletePost(ctx, anna, item.PostID); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign delete: got %v", err)
	}
	deleted, err := c.DeletePost(ctx, leo, item.PostID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.Image == nil || *deleted.Image != newImage {
		t.Errorf("deleted post image = %v", deleted.Image)
	}
	if _, err := c.GetPost(ctx, item.PostID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted post: got %v", err)
	}
}

func TestDeletePostRemovesComments(t *testing.T) {
	c, st := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")
	post := mustPostAt(t, st, leo, nil, "doomed", epoch)

	for range 3 {
		if _, err := c.AddComment(ctx, leo, post.ID, "c"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.DeletePost(ctx, leo, post.ID); err != nil {
		t.Fatal(err)
	}

	comments, err := st.Comments.ListByPost(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 0 {
		t.Errorf("%d orphan comments remain", len(comments))
	}
}

func TestRegisterAndLogin(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()
	mustRegister(t, c, "leo")

	_, err := c.RegisterUser(ctx, RegisterInput{Username: "leo", Email: "new@example.com", Password: "long enough pw"})
	if fields := fieldErrors(t, err); fields["username"] == "" {
		t.Errorf("duplicate username fields = %v", fields)
	}
	_, err = c.RegisterUser(ctx, RegisterInput{Username: "new", Email: "leo@example.com", Password: "long enough pw"})
	if fields := fieldErrors(t, err); fields["email"] == "" {
		t.Errorf("duplicate email fields = %v", fields)
	}
	_, err = c.RegisterUser(ctx, RegisterInput{Username: "bad name", Email: "nope", Password: "short"})
	fields := fieldErrors(t, err)
	for _, key := range []string{"username", "email", "password"} {
		if fields[key] == "" {
			t.Errorf("missing %s error in %v", key, fields)
		}
	}

	user, err := c.Login(ctx, "leo", "correct horse battery")
	if err != nil || user.Username != "leo" {
		t.Fatalf("login: %v, %v", user, err)
	}
	if _, err := c.Login(ctx, "leo", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := c.Login(ctx, "ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v", err)
	}
}

func TestGroups(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()
	leo := mustRegister(t, c, "leo")

	if _, err := c.CreateGroup(ctx, nil, GroupInput{Title: "Cats"}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous create: got %v", err)
	}

	group, err := c.CreateGroup(ctx, leo, GroupInput{Title: "Black Cats!"})
	if err != nil {
		t.Fatal(err)
	}
	if group.Slug != "black-cats" {
		t.Errorf("derived slug = %q", group.Slug)
	}

	_, err = c.CreateGroup(ctx, leo, GroupInput{Title: "Other", Slug: "black-cats"})
	if fields := fieldErrors(t, err); fields["slug"] == "" {
		t.Errorf("duplicate slug fields = %v", fields)
	}
	_, err = c.CreateGroup(ctx, leo, GroupInput{Title: "Bad", Slug: "Not A Slug"})
	if fields := fieldErrors(t, err); fields["slug"] == "" {
		t.Errorf("bad slug fields = %v", fields)
	}

	groups, err := c.ListGroups(ctx)
	if err != nil || len(groups) != 1 {
		t.Errorf("ListGroups = %v, %v", groups, err)
	}
	if _, err := c.GetGroup(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing group: got %v", err)
	}
}

func errOnly[T any](_ T, err error) error {
	return err
}
