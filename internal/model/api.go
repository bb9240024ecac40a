package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DTO for an incoming execute request.
type DTORequest struct {
	Method      string            `json:"method" validate:"required,httpmethod"`
	URL         string            `json:"url" validate:"required,url"`
	Headers     map[string]string `json:"headers"`
	Body        json.RawMessage   `json:"body,omitempty"`
	Name        string            `json:"name" validate:"max=255"`
	Description string            `json:"description" validate:"max=1000"`
	Collection  string            `json:"collection" validate:"max=100"`
	Tags        []string          `json:"tags"`
}

// DTO returned after an outbound call completed with any status code.
type DTOResponse struct {
	Success      bool              `json:"success"`
	ID           uint              `json:"id"`
	Response     datatypes.JSONMap `json:"response"`
	ResponseTime int64             `json:"responseTime"`
	Timestamp    time.Time         `json:"timestamp"`
}

// DTOUpdateRequest carries the metadata fields a client may change. Absent
// fields are left untouched.
type DTOUpdateRequest struct {
	Name        Optional[string]   `json:"name"`
	Description Optional[string]   `json:"description"`
	IsFavorite  Optional[bool]     `json:"isFavorite"`
	Collection  Optional[string]   `json:"collection"`
	Tags        Optional[[]string] `json:"tags"`
}

// Empty reports whether no field was supplied.
func (u DTOUpdateRequest) Empty() bool {
	return !u.Name.Set && !u.Description.Set && !u.IsFavorite.Set && !u.Collection.Set && !u.Tags.Set
}

type DTOBulkRequest struct {
	IDs      []uint `json:"ids"`
	Favorite bool   `json:"favorite"`
}

const (
	DefaultPage      = 1
	DefaultLimit     = 20
	MaxLimit         = 100
	MaxPage          = 1000000
	DefaultSortBy    = "timestamp"
	DefaultSortOrder = "desc"
)

// PageQuery holds paging and sorting for list operations.
type PageQuery struct {
	Page      int    `json:"page" validate:"min=1,max=1000000"`
	Limit     int    `json:"limit" validate:"min=1,max=100"`
	SortBy    string `json:"sortBy" validate:"oneof=id timestamp method url status responseTime collection"`
	SortOrder string `json:"sortOrder" validate:"oneof=asc desc"`
}

func DefaultPageQuery() PageQuery {
	return PageQuery{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
	}
}

// Normalize fills unset values with defaults.
func (p PageQuery) Normalize() PageQuery {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}
	if p.SortOrder == "" {
		p.SortOrder = DefaultSortOrder
	}
	return p
}

func (p PageQuery) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(p PageQuery, total int64) Pagination {
	limit := int64(p.Limit)
	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}

// HistoryPage is one page of history records.
type HistoryPage struct {
	Data       []HistoryRecord `json:"data"`
	Pagination Pagination      `json:"pagination"`
}
