package core

import (
	"context"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/pagination"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/collectionutils"
	"github.com/siahsang/yatube/models"
)

type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeGroup
	ScopeAuthor
	ScopeFollowing
)

// Scope selects the posts a feed is composed of.
type Scope struct {
	Kind      ScopeKind
	GroupSlug string
	Username  string
}

func Global() Scope { return Scope{Kind: ScopeGlobal} }
func ByGroup(slug string) Scope { return Scope{Kind: ScopeGroup, GroupSlug: slug} }
func ByAuthor(username string) Scope { return Scope{Kind: ScopeAuthor, Username: username} }
func FollowingOnly() Scope { return Scope{Kind: ScopeFollowing} }

type FeedItem struct {
	PostID         int64     `json:"postId"`
	AuthorUsername string    `json:"authorUsername"`
	Text           string    `json:"text"`
	ImageRef       *string   `json:"imageRef,omitempty"`
	GroupSlug      *string   `json:"groupSlug,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	CommentCount   int64     `json:"commentCount"`
}

type FeedPage struct {
	Items []FeedItem      `json:"items"`
	Page  pagination.Page `json:"page"`
	// Group is set for group feeds.
	Group *models.Group `json:"group,omitempty"`
	// Author is set for author feeds.
	Author *models.Profile `json:"author,omitempty"`
}

// ComposeFeed returns one page of the posts in scope, newest first, each
// annotated with its current comment count.
func (c *Core) ComposeFeed(ctx context.Context, scope Scope, viewer *auth.User, pageNumber int) (*FeedPage, error) {
	var (
		filter   store.PostFilter
		pageSize int
		feed     = &FeedPage{}
		author   *auth.User
	)

	switch scope.Kind {
	case ScopeGlobal:
		pageSize = c.pageSizes.Index
	case ScopeGroup:
		group, err := c.store.Groups.GetBySlug(ctx, scope.GroupSlug)
		if err != nil {
			return nil, notFound(err)
		}
		filter.GroupID = group.ID
		pageSize = c.pageSizes.Group
		feed.Group = group
	case ScopeAuthor:
		user, err := c.store.Users.GetByUsername(ctx, scope.Username)
		if err != nil {
			return nil, notFound(err)
		}
		filter.AuthorID = user.ID
		pageSize = c.pageSizes.Profile
		author = user
	case ScopeFollowing:
		if viewer == nil {
			return nil, xerrors.New(ErrUnauthorized)
		}
		filter.FollowedBy = viewer.ID
		pageSize = c.pageSizes.Following
	default:
		return nil, xerrors.Newf("unknown feed scope %d", scope.Kind)
	}

	total, err := c.store.Posts.Count(ctx, filter)
	if err != nil {
		return nil, xerrors.New(err)
	}
	feed.Page = pagination.Compute(total, pageSize, pageNumber)

	posts, err := c.store.Posts.List(ctx, filter, feed.Page.Limit(), feed.Page.Offset())
	if err != nil {
		return nil, xerrors.New(err)
	}

	feed.Items, err = c.annotate(ctx, posts)
	if err != nil {
		return nil, err
	}

	if author != nil {
		feed.Author, err = c.profile(ctx, author, viewer, total)
		if err != nil {
			return nil, err
		}
	}

	return feed, nil
}

// annotate joins authors, groups and comment counts onto posts, keeping
// their order.
func (c *Core) annotate(ctx context.Context, posts []*models.Post) ([]FeedItem, error) {
	if len(posts) == 0 {
		return []FeedItem{}, nil
	}

	authorIDs := collectionutils.Distinct(posts, func(p *models.Post) (int64, bool) { return p.AuthorID, true })
	groupIDs := collectionutils.Distinct(posts, func(p *models.Post) (int64, bool) {
		if p.GroupID == nil {
			return 0, false
		}
		return *p.GroupID, true
	})
	postIDs := collectionutils.Distinct(posts, func(p *models.Post) (int64, bool) { return p.ID, true })

	authors, err := c.store.Users.ListByIDs(ctx, authorIDs)
	if err != nil {
		return nil, xerrors.New(err)
	}
	usernameByID := collectionutils.Associate(authors, func(u *auth.User) (int64, string) { return u.ID, u.Username })

	groups, err := c.store.Groups.ListByIDs(ctx, groupIDs)
	if err != nil {
		return nil, xerrors.New(err)
	}
	slugByID := collectionutils.Associate(groups, func(g *models.Group) (int64, string) { return g.ID, g.Slug })

	commentCounts, err := c.store.Comments.CountByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, xerrors.New(err)
	}

	items := make([]FeedItem, 0, len(posts))
	for _, post := range posts {
		item := FeedItem{
			PostID:         post.ID,
			AuthorUsername: usernameByID[post.AuthorID],
			Text:           post.Text,
			ImageRef:       post.Image,
			CreatedAt:      post.CreatedAt,
			CommentCount:   collectionutils.GetOrDefault(commentCounts, post.ID, 0),
		}
		if post.GroupID != nil {
			if slug, ok := slugByID[*post.GroupID]; ok {
				item.GroupSlug = &slug
			}
		}
		items = append(items, item)
	}

	return items, nil
}
