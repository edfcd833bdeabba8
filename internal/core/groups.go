package core

import (
	"context"
	"errors"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/stringutils"
	"github.com/siahsang/yatube/internal/validator"
	"github.com/siahsang/yatube/models"
)

type GroupInput struct {
	Title       string
	Slug        string
	Description string
}

// CreateGroup adds a group. An empty slug is derived from the title.
func (c *Core) CreateGroup(ctx context.Context, viewer *auth.User, in GroupInput) (*models.Group, error) {
	if viewer == nil {
		return nil, xerrors.New(ErrUnauthorized)
	}

	group := &models.Group{
		Title:       strings.TrimSpace(in.Title),
		Slug:        strings.TrimSpace(in.Slug),
		Description: strings.TrimSpace(in.Description),
	}
	if group.Slug == "" {
		group.Slug = stringutils.Slugify(group.Title)
	}

	v := validator.New()
	v.CheckNotBlank(group.Title, "title", "This field is required.")
	v.Check(len(group.Title) <= 200, "title", "Ensure this value has at most 200 characters.")
	v.Check(validator.IsMatch(group.Slug, validator.SlugRX), "slug", "Enter a valid slug consisting of lowercase letters, numbers or hyphens.")
	v.Check(len(group.Slug) <= 100, "slug", "Ensure this value has at most 100 characters.")
	if !v.IsValid() {
		return nil, newValidationError(v)
	}

	if err := c.store.Groups.Create(ctx, group); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fieldError("slug", "Group with this slug already exists.")
		}
		return nil, xerrors.New(err)
	}
	return group, nil
}

func (c *Core) ListGroups(ctx context.Context) ([]*models.Group, error) {
	groups, err := c.store.Groups.List(ctx)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return groups, nil
}

func (c *Core) GetGroup(ctx context.Context, slug string) (*models.Group, error) {
	group, err := c.store.Groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	return group, nil
}
