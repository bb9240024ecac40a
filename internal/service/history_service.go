package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/suar-net/suar-api/internal/model"
	"github.com/suar-net/suar-api/internal/repository"
)

type historyService struct {
	repo   repository.IHistoryRepository
	logger *logrus.Logger
}

func NewHistoryService(repo repository.IHistoryRepository, logger *logrus.Logger) IHistoryService {
	return &historyService{
		repo:   repo,
		logger: logger,
	}
}

func (s *historyService) List(ctx context.Context, page model.PageQuery) (*model.HistoryPage, error) {
	return s.list(ctx, model.HistoryFilter{}, page)
}

func (s *historyService) ListByCollection(ctx context.Context, collection string, page model.PageQuery) (*model.HistoryPage, error) {
	return s.list(ctx, model.HistoryFilter{Collection: &collection}, page)
}

func (s *historyService) ListFavorites(ctx context.Context, page model.PageQuery) (*model.HistoryPage, error) {
	return s.list(ctx, model.HistoryFilter{FavoritesOnly: true}, page)
}

// Search matches q case-insensitively against name, url and description.
func (s *historyService) Search(ctx context.Context, q string, page model.PageQuery) (*model.HistoryPage, error) {
	if q == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}
	return s.list(ctx, model.HistoryFilter{Search: q}, page)
}

func (s *historyService) list(ctx context.Context, filter model.HistoryFilter, page model.PageQuery) (*model.HistoryPage, error) {
	page = page.Normalize()
	records, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list history: %v", ErrStore, err)
	}
	return &model.HistoryPage{
		Data:       records,
		Pagination: model.NewPagination(page, total),
	}, nil
}

func (s *historyService) GetByID(ctx context.Context, id uint) (*model.HistoryRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get request %d: %v", ErrStore, id, err)
	}
	if record == nil {
		return nil, notFound("request", id)
	}
	return record, nil
}

func (s *historyService) Collections(ctx context.Context) ([]model.CollectionCount, error) {
	collections, err := s.repo.CountByCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count collections: %v", ErrStore, err)
	}
	return collections, nil
}

func (s *historyService) Stats(ctx context.Context) (*model.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compute stats: %v", ErrStore, err)
	}
	return stats, nil
}

// Export returns every record matching filter, newest first. Search is ignored.
func (s *historyService) Export(ctx context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error) {
	filter.Search = ""
	records, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to export history: %v", ErrStore, err)
	}
	return records, nil
}

// Update applies only the fields present in req and returns the stored record.
func (s *historyService) Update(ctx context.Context, id uint, req model.DTOUpdateRequest) (*model.HistoryRecord, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := updateFields(req)
	if len(fields) == 0 {
		return record, nil
	}
	if _, err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("%w: failed to update request %d: %v", ErrStore, id, err)
	}
	return s.GetByID(ctx, id)
}

func updateFields(req model.DTOUpdateRequest) map[string]any {
	fields := make(map[string]any)
	if v, ok := req.Name.Get(); ok {
		fields["name"] = v
	}
	if v, ok := req.Description.Get(); ok {
		fields["description"] = v
	}
	if v, ok := req.IsFavorite.Get(); ok {
		fields["is_favorite"] = v
	}
	if v, ok := req.Collection.Get(); ok {
		fields["collection"] = v
	}
	if v, ok := req.Tags.Get(); ok {
		if v == nil {
			v = []string{}
		}
		fields["tags"] = datatypes.JSONSlice[string](v)
	}
	return fields
}

func (s *historyService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete request %d: %v", ErrStore, id, err)
	}
	if deleted == 0 {
		return notFound("request", id)
	}
	return nil
}

// BulkDelete removes the records that exist among ids and returns how many were removed.
func (s *historyService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: IDs array is required", ErrInvalidInput)
	}
	deleted, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete requests: %v", ErrStore, err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: no requests found with provided IDs", ErrNotFound)
	}
	s.logger.WithField("count", deleted).Info("Bulk deleted requests")
	return deleted, nil
}

// BulkFavorite sets the favorite flag on the records that exist among ids.
func (s *historyService) BulkFavorite(ctx context.Context, ids []uint, favorite bool) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: IDs array is required", ErrInvalidInput)
	}
	updated, err := s.repo.SetFavorite(ctx, ids, favorite)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to update requests: %v", ErrStore, err)
	}
	if updated == 0 {
		return 0, fmt.Errorf("%w: no requests found with provided IDs", ErrNotFound)
	}
	return updated, nil
}
