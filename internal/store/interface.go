package store

import (
	"context"

	"inkwell/internal/model"
)

// Store is the article repository. Get, Update and Delete return
// ErrInvalidID for ids the database cannot parse.
type Store interface {
	Create(ctx context.Context, article *model.Article) error
	List(ctx context.Context, q ListQuery) ([]model.Article, error)
	Get(ctx context.Context, id string) (*model.Article, error)
	Update(ctx context.Context, id string, patch model.Patch) (*model.Article, error)
	Delete(ctx context.Context, id string) error
}
