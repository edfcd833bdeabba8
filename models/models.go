package models

import "time"

type Group struct {
	ID          int64  `json:"-"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"-"`
	GroupID   *int64    `json:"-"`
	Text      string    `json:"text"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"-"`
	AuthorID  int64     `json:"-"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile summarises an author for the author-scoped feed.
type Profile struct {
	ID                int64  `json:"-"`
	Username          string `json:"username"`
	Bio               string `json:"bio"`
	PostsCount        int64  `json:"postsCount"`
	FollowersCount    int64  `json:"followersCount"`
	FollowingCount    int64  `json:"followingCount"`
	Following         bool   `json:"following"`
	ShowFollowControl bool   `json:"showFollowControl"`
}
