package model

import (
	"time"

	"gorm.io/datatypes"
)

// HistoryRecord is one attempt to execute an outbound request, successful or not.
// Only Name, Description, IsFavorite, Collection and Tags change after creation.
type HistoryRecord struct {
	ID           uint                                  `json:"id" gorm:"primaryKey;autoIncrement"`
	Method       string                                `json:"method" gorm:"size:10;not null;index"`
	URL          string                                `json:"url" gorm:"type:text;not null"`
	Headers      datatypes.JSONType[map[string]string] `json:"headers"`
	Body         *string                               `json:"body" gorm:"type:text"`
	Response     datatypes.JSONMap                     `json:"response"`
	Status       int                                   `json:"status" gorm:"not null"`
	ResponseTime int64                                 `json:"responseTime" gorm:"not null"`
	Timestamp    time.Time                             `json:"timestamp" gorm:"not null;index"`
	Collection   string                                `json:"collection" gorm:"size:100;not null;index"`
	Name         string                                `json:"name" gorm:"size:255"`
	Description  string                                `json:"description" gorm:"size:1000"`
	IsFavorite   bool                                  `json:"isFavorite" gorm:"not null;index"`
	Tags         datatypes.JSONSlice[string]           `json:"tags"`
}

func (HistoryRecord) TableName() string {
	return "request_history"
}

// CollectionCount is one row of the collections summary.
type CollectionCount struct {
	Collection string `json:"collection"`
	Count      int64  `json:"count"`
}

type MethodCount struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
}

type StatusCount struct {
	Status int   `json:"status"`
	Count  int64 `json:"count"`
}

// Stats aggregates the whole history table.
type Stats struct {
	TotalRequests    int64         `json:"totalRequests"`
	FavoriteRequests int64         `json:"favoriteRequests"`
	MethodStats      []MethodCount `json:"methodStats"`
	StatusStats      []StatusCount `json:"statusStats"`
	AvgResponseTime  float64       `json:"avgResponseTime"`
}

// HistoryFilter narrows list, search and export queries. Zero value matches everything.
type HistoryFilter struct {
	Collection    *string
	FavoritesOnly bool
	Search        string
}
