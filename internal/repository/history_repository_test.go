package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/suar-net/suar-api/internal/model"
	"github.com/suar-net/suar-api/internal/testutil"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) IHistoryRepository {
	t.Helper()
	return NewRepository(testutil.SetupTestDB(t)).History()
}

func newRecord(i int, mutate func(*model.HistoryRecord)) *model.HistoryRecord {
	url := fmt.Sprintf("https://api.example.com/items/%d", i)
	r := &model.HistoryRecord{
		Method:       "GET",
		URL:          url,
		Headers:      datatypes.NewJSONType(map[string]string{"Accept": "application/json"}),
		Response:     datatypes.JSONMap{"status": 200, "statusText": "OK"},
		Status:       200,
		ResponseTime: 100,
		Timestamp:    baseTime.Add(time.Duration(i) * time.Second),
		Collection:   "Default",
		Name:         "GET " + url,
		Tags:         datatypes.JSONSlice[string]{},
	}
	if mutate != nil {
		mutate(r)
	}
	return r
}

func seed(t *testing.T, repo IHistoryRepository, records ...*model.HistoryRecord) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, repo.Create(context.Background(), r))
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	body := `{"name":"widget"}`
	rec := newRecord(1, func(r *model.HistoryRecord) {
		r.Method = "POST"
		r.Body = &body
		r.Tags = datatypes.JSONSlice[string]{"b", "a", "c"}
		r.Response = datatypes.JSONMap{"status": 201, "data": map[string]any{"id": 7}}
	})
	require.NoError(t, repo.Create(ctx, rec))
	require.NotZero(t, rec.ID)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "POST", got.Method)
	assert.Equal(t, body, *got.Body)
	assert.Equal(t, []string{"b", "a", "c"}, []string(got.Tags))
	assert.Equal(t, "application/json", got.Headers.Data()["Accept"])
	// stored JSON numbers come back as json.Number
	assert.Equal(t, json.Number("201"), got.Response["status"])
	assert.True(t, got.Timestamp.Equal(rec.Timestamp))

	missing, err := repo.GetByID(ctx, rec.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListPagination(t *testing.T) {
	repo := newTestRepo(t)
	for i := 1; i <= 45; i++ {
		seed(t, repo, newRecord(i, nil))
	}

	page := model.PageQuery{Page: 2, Limit: 20, SortBy: "id", SortOrder: "asc"}
	records, total, err := repo.List(context.Background(), model.HistoryFilter{}, page)
	require.NoError(t, err)

	assert.Equal(t, int64(45), total)
	require.Len(t, records, 20)
	assert.Equal(t, uint(21), records[0].ID)
	assert.Equal(t, uint(40), records[19].ID)
	assert.Equal(t, int64(3), model.NewPagination(page, total).Pages)
}

func TestListDefaultOrderIsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo, newRecord(1, nil), newRecord(3, nil), newRecord(2, nil))

	records, _, err := repo.List(context.Background(), model.HistoryFilter{}, model.DefaultPageQuery())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "https://api.example.com/items/3", records[0].URL)
	assert.Equal(t, "https://api.example.com/items/1", records[2].URL)
}

func TestListSortByResponseTime(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		newRecord(1, func(r *model.HistoryRecord) { r.ResponseTime = 300 }),
		newRecord(2, func(r *model.HistoryRecord) { r.ResponseTime = 50 }),
		newRecord(3, func(r *model.HistoryRecord) { r.ResponseTime = 120 }),
	)

	page := model.PageQuery{Page: 1, Limit: 10, SortBy: "responseTime", SortOrder: "asc"}
	records, _, err := repo.List(context.Background(), model.HistoryFilter{}, page)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{50, 120, 300}, []int64{records[0].ResponseTime, records[1].ResponseTime, records[2].ResponseTime})
}

func TestListFilters(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		newRecord(1, func(r *model.HistoryRecord) { r.Collection = "Users" }),
		newRecord(2, func(r *model.HistoryRecord) { r.Collection = "users" }),
		newRecord(3, func(r *model.HistoryRecord) { r.Collection = "Users"; r.IsFavorite = true }),
		newRecord(4, func(r *model.HistoryRecord) { r.IsFavorite = true }),
	)
	ctx := context.Background()

	users := "Users"
	records, total, err := repo.List(ctx, model.HistoryFilter{Collection: &users}, model.DefaultPageQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, r := range records {
		assert.Equal(t, "Users", r.Collection)
	}

	_, total, err = repo.List(ctx, model.HistoryFilter{FavoritesOnly: true}, model.DefaultPageQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	exported, err := repo.FindAll(ctx, model.HistoryFilter{Collection: &users, FavoritesOnly: true})
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "https://api.example.com/items/3", exported[0].URL)
}

func TestSearch(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		newRecord(1, func(r *model.HistoryRecord) { r.Name = "Fetch Users" }),
		newRecord(2, func(r *model.HistoryRecord) { r.URL = "https://Payments.example.com/charge" }),
		newRecord(3, func(r *model.HistoryRecord) { r.Description = "creates an ORDER" }),
		newRecord(4, func(r *model.HistoryRecord) { r.Name = "100% coverage" }),
	)
	ctx := context.Background()

	tests := []struct {
		query string
		want  int64
	}{
		{"users", 1},
		{"PAYMENTS", 1},
		{"order", 1},
		{"api.example.com", 4},
		{"100%", 1},
		{"%", 1},
		{"_", 0},
		{"nothing-matches", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, total, err := repo.List(ctx, model.HistoryFilter{Search: tt.query}, model.DefaultPageQuery())
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestUpdateFieldsAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	rec := newRecord(1, nil)
	seed(t, repo, rec)

	n, err := repo.UpdateFields(ctx, rec.ID, map[string]any{"is_favorite": true, "tags": datatypes.JSONSlice[string]{"x"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, []string{"x"}, []string(got.Tags))
	assert.Equal(t, rec.Name, got.Name)

	n, err = repo.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkOperations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a, b, c := newRecord(1, nil), newRecord(2, nil), newRecord(3, nil)
	seed(t, repo, a, b, c)

	n, err := repo.SetFavorite(ctx, []uint{a.ID, b.ID, 999}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, favorites, err := repo.List(ctx, model.HistoryFilter{FavoritesOnly: true}, model.DefaultPageQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(2), favorites)

	n, err = repo.SetFavorite(ctx, []uint{998, 999}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.DeleteByIDs(ctx, []uint{a.ID, c.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	remaining, err := repo.FindAll(ctx, model.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)
}

func TestCountByCollection(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo,
		newRecord(1, func(r *model.HistoryRecord) { r.Collection = "Zeta" }),
		newRecord(2, func(r *model.HistoryRecord) { r.Collection = "Alpha" }),
		newRecord(3, func(r *model.HistoryRecord) { r.Collection = "Zeta" }),
		newRecord(4, nil),
	)

	got, err := repo.CountByCollection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CollectionCount{
		{Collection: "Alpha", Count: 1},
		{Collection: "Default", Count: 1},
		{Collection: "Zeta", Count: 2},
	}, got)
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalRequests)
	assert.Equal(t, 0.0, empty.AvgResponseTime)
	assert.Empty(t, empty.MethodStats)

	seed(t, repo,
		newRecord(1, func(r *model.HistoryRecord) { r.ResponseTime = 100; r.IsFavorite = true }),
		newRecord(2, func(r *model.HistoryRecord) { r.ResponseTime = 300; r.Method = "POST"; r.Status = 0 }),
		newRecord(3, func(r *model.HistoryRecord) { r.ResponseTime = 200 }),
	)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.FavoriteRequests)
	assert.Equal(t, 200.0, stats.AvgResponseTime)
	assert.Equal(t, []model.MethodCount{{Method: "GET", Count: 2}, {Method: "POST", Count: 1}}, stats.MethodStats)
	assert.Equal(t, []model.StatusCount{{Status: 200, Count: 2}, {Status: 0, Count: 1}}, stats.StatusStats)
}
