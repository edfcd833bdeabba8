package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/utils/databaseutils"
	"github.com/siahsang/yatube/internal/utils/stringutils"
	"github.com/siahsang/yatube/models"
)

const groupColumns = `id, title, slug, description`

type groupStore struct {
	sqlTemplate *databaseutils.SQLTemplate
}

func scanGroup(rows *sql.Rows) (*models.Group, error) {
	var group = &models.Group{}
	if err := rows.Scan(&group.ID, &group.Title, &group.Slug, &group.Description); err != nil {
		return nil, xerrors.New(err)
	}
	return group, nil
}

func (s *groupStore) Create(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO post_groups (title, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	id, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, func(rows *sql.Rows) (int64, error) {
		var id int64
		err := rows.Scan(&id)
		return id, err
	}, group.Title, group.Slug, group.Description)

	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return xerrors.New(store.ErrDuplicate)
		}
		return xerrors.New(err)
	}

	group.ID = id
	return nil
}

func (s *groupStore) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM post_groups WHERE slug = $1`

	group, err := databaseutils.ExecuteSingleQuery(s.sqlTemplate, ctx, query, scanGroup, slug)
	if err != nil {
		return nil, translateError(err)
	}
	return group, nil
}

func (s *groupStore) ListByIDs(ctx context.Context, ids []int64) ([]*models.Group, error) {
	if len(ids) == 0 {
		return []*models.Group{}, nil
	}

	placeholders, args := stringutils.INCluse(ids)
	query := fmt.Sprintf(`SELECT %s FROM post_groups WHERE id IN (%s)`, groupColumns, strings.Join(placeholders, ", "))

	groups, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, query, scanGroup, args...)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return groups, nil
}

func (s *groupStore) List(ctx context.Context) ([]*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM post_groups ORDER BY title`

	groups, err := databaseutils.ExecuteQuery(s.sqlTemplate, ctx, query, scanGroup)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	return groups, nil
}
