package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTOUpdateRequestPresence(t *testing.T) {
	var req DTOUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"isFavorite":true,"description":null}`), &req))

	fav, ok := req.IsFavorite.Get()
	assert.True(t, ok)
	assert.True(t, fav)

	desc, ok := req.Description.Get()
	assert.True(t, ok)
	assert.Equal(t, "", desc)

	assert.False(t, req.Name.Set)
	assert.False(t, req.Collection.Set)
	assert.False(t, req.Tags.Set)
	assert.False(t, req.Empty())
}

func TestDTOUpdateRequestEmpty(t *testing.T) {
	var req DTOUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.True(t, req.Empty())
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var req DTOUpdateRequest
	err := json.Unmarshal([]byte(`{"tags":"not-a-list"}`), &req)
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(PageQuery{Page: 2, Limit: 20}, 45)
	assert.Equal(t, int64(3), p.Pages)
	assert.Equal(t, int64(45), p.Total)

	empty := NewPagination(DefaultPageQuery(), 0)
	assert.Equal(t, int64(0), empty.Pages)
}

func TestPageQueryNormalize(t *testing.T) {
	p := PageQuery{}.Normalize()
	assert.Equal(t, DefaultPageQuery(), p)
	assert.Equal(t, 0, p.Offset())

	p = PageQuery{Page: 3, Limit: 500, SortBy: "url", SortOrder: "asc"}.Normalize()
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())

	p = PageQuery{Page: math.MaxInt, Limit: MaxLimit}.Normalize()
	assert.Equal(t, MaxPage, p.Page)
	assert.Equal(t, (MaxPage-1)*MaxLimit, p.Offset())
}
