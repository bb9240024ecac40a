package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/suar-net/suar-api/internal/model"
)

// sortColumns maps API sort keys to columns. Anything else falls back to timestamp.
var sortColumns = map[string]string{
	"id":           "id",
	"timestamp":    "timestamp",
	"method":       "method",
	"url":          "url",
	"status":       "status",
	"responseTime": "response_time",
	"collection":   "collection",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// historyRepository is the gorm implementation of IHistoryRepository.
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository is the constructor for historyRepository.
func NewHistoryRepository(db *gorm.DB) IHistoryRepository {
	return &historyRepository{db: db}
}

// Create inserts a new history record and fills in its ID.
func (r *historyRepository) Create(ctx context.Context, record *model.HistoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *historyRepository) GetByID(ctx context.Context, id uint) (*model.HistoryRecord, error) {
	var record model.HistoryRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List returns one page of records matching filter together with the total match count.
func (r *historyRepository) List(ctx context.Context, filter model.HistoryFilter, page model.PageQuery) ([]model.HistoryRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.HistoryRecord{}).
		Scopes(withFilter(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	records := make([]model.HistoryRecord, 0, page.Limit)
	err := r.db.WithContext(ctx).
		Scopes(withFilter(filter), orderBy(page.SortBy, page.SortOrder)).
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindAll returns every matching record, newest first.
func (r *historyRepository) FindAll(ctx context.Context, filter model.HistoryFilter) ([]model.HistoryRecord, error) {
	records := make([]model.HistoryRecord, 0)
	err := r.db.WithContext(ctx).
		Scopes(withFilter(filter), orderBy("timestamp", "desc")).
		Find(&records).Error
	return records, err
}

func (r *historyRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.HistoryRecord{}).
		Where("id = ?", id).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *historyRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.HistoryRecord{}, id)
	return result.RowsAffected, result.Error
}

// DeleteByIDs removes every record whose id is in ids and reports how many existed.
func (r *historyRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	var matched int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.HistoryRecord{}).Where("id IN ?", ids).Count(&matched).Error; err != nil {
			return err
		}
		if matched == 0 {
			return nil
		}
		return tx.Where("id IN ?", ids).Delete(&model.HistoryRecord{}).Error
	})
	return matched, err
}

// SetFavorite sets is_favorite on every record whose id is in ids and reports how many existed.
func (r *historyRepository) SetFavorite(ctx context.Context, ids []uint, favorite bool) (int64, error) {
	var matched int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.HistoryRecord{}).Where("id IN ?", ids).Count(&matched).Error; err != nil {
			return err
		}
		if matched == 0 {
			return nil
		}
		return tx.Model(&model.HistoryRecord{}).
			Where("id IN ?", ids).
			Update("is_favorite", favorite).Error
	})
	return matched, err
}

func (r *historyRepository) CountByCollection(ctx context.Context) ([]model.CollectionCount, error) {
	out := make([]model.CollectionCount, 0)
	err := r.db.WithContext(ctx).
		Model(&model.HistoryRecord{}).
		Select("collection, COUNT(id) AS count").
		Group("collection").
		Order("collection ASC").
		Scan(&out).Error
	return out, err
}

func (r *historyRepository) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{
		MethodStats: make([]model.MethodCount, 0),
		StatusStats: make([]model.StatusCount, 0),
	}
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.HistoryRecord{}).Count(&stats.TotalRequests).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.HistoryRecord{}).Where("is_favorite = ?", true).Count(&stats.FavoriteRequests).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.HistoryRecord{}).
		Select("method, COUNT(id) AS count").
		Group("method").
		Order("count DESC, method ASC").
		Scan(&stats.MethodStats).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.HistoryRecord{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Order("count DESC, status ASC").
		Scan(&stats.StatusStats).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.HistoryRecord{}).
		Select("COALESCE(AVG(response_time), 0)").
		Row().
		Scan(&stats.AvgResponseTime); err != nil {
		return nil, err
	}
	return stats, nil
}

func withFilter(filter model.HistoryFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Collection != nil {
			db = db.Where("collection = ?", *filter.Collection)
		}
		if filter.FavoritesOnly {
			db = db.Where("is_favorite = ?", true)
		}
		if filter.Search != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
			db = db.Where(
				`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(url) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`,
				pattern, pattern, pattern,
			)
		}
		return db
	}
}

// orderBy sorts by the requested column with id as a tiebreaker so pages stay stable.
func orderBy(sortBy, sortOrder string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column, ok := sortColumns[sortBy]
		if !ok {
			column = "timestamp"
		}
		dir := "DESC"
		if strings.EqualFold(sortOrder, "asc") {
			dir = "ASC"
		}
		db = db.Order(column + " " + dir)
		if column != "id" {
			db = db.Order("id " + dir)
		}
		return db
	}
}
