package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/suar-net/suar-api/internal/model"
)

// IHistoryRepository is the persistence contract for history records.
// Lookups that find nothing return (nil, nil).
type IHistoryRepository interface {
	Create(ctx context.Context, record *model.HistoryRecord) error
	GetByID(ctx context.Context, id uint) (*model.HistoryRecord, error)
	List(ctx context.Context, filter model.HistoryFilter, page model.PageQuery) ([]model.HistoryRecord, int64, error)
	FindAll(ctx context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	SetFavorite(ctx context.Context, ids []uint, favorite bool) (int64, error)
	CountByCollection(ctx context.Context) ([]model.CollectionCount, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

type IRepository interface {
	History() IHistoryRepository
}

type Repository struct {
	history IHistoryRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		history: NewHistoryRepository(db),
	}
}

func (r *Repository) History() IHistoryRepository {
	return r.history
}
