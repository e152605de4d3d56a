package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/tkivila/craftshop/internal/domain/content"
)

const getContentByHandleSQL = `SELECT id, content_group, handle, title, paragraphs
	FROM contents WHERE content_group = $1 AND handle = $2`

var _ content.Repository = (*ContentRepository)(nil)

// ContentRepository implements content.Repository backed by PostgreSQL.
type ContentRepository struct {
	db DB
}

// NewContentRepository returns a ContentRepository that uses the given pool.
func NewContentRepository(db DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// GetByHandle returns the content entry for (group, handle).
func (r *ContentRepository) GetByHandle(ctx context.Context, group, handle string) (*content.Entry, error) {
	var e content.Entry
	err := r.db.QueryRow(ctx, getContentByHandleSQL, group, handle).Scan(
		&e.ID, &e.Group, &e.Handle, &e.Title, &e.Paragraphs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrNotFound
		}
		return nil, fmt.Errorf("getting content %s/%s: %w", group, handle, err)
	}
	return &e, nil
}
