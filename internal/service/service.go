package service

import (
	"context"

	"github.com/suar-net/suar-api/internal/model"
)

// IExecutorService runs outbound requests and records every attempt.
type IExecutorService interface {
	Execute(ctx context.Context, dto *model.DTORequest) (*model.DTOResponse, error)
}

// IHistoryService covers reads and metadata changes on recorded requests.
type IHistoryService interface {
	List(ctx context.Context, page model.PageQuery) (*model.HistoryPage, error)
	ListByCollection(ctx context.Context, collection string, page model.PageQuery) (*model.HistoryPage, error)
	ListFavorites(ctx context.Context, page model.PageQuery) (*model.HistoryPage, error)
	Search(ctx context.Context, q string, page model.PageQuery) (*model.HistoryPage, error)
	GetByID(ctx context.Context, id uint) (*model.HistoryRecord, error)
	Collections(ctx context.Context) ([]model.CollectionCount, error)
	Stats(ctx context.Context) (*model.Stats, error)
	Export(ctx context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error)

	Update(ctx context.Context, id uint, req model.DTOUpdateRequest) (*model.HistoryRecord, error)
	Delete(ctx context.Context, id uint) error
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	BulkFavorite(ctx context.Context, ids []uint, favorite bool) (int64, error)
}
