package response

import (
	"time"

	"github.com/user/article-crawler/internal/entity"
)

type CrawlAcceptedResponse struct {
	Message   string    `json:"message"`
	MaxPages  int       `json:"max_pages"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// CacheStatusResponse is a DTO for the cache status, mirroring entity.CacheStatus.
type CacheStatusResponse struct {
	TotalArticles int        `json:"total_articles"`
	LastUpdate    *time.Time `json:"last_update"`
	IsUpdating    bool       `json:"is_updating"`
	Error         *string    `json:"error"`
}

type ServiceStatusResponse struct {
	Service     string              `json:"service"`
	CacheStatus CacheStatusResponse `json:"cache_status"`
	Endpoints   map[string]string   `json:"endpoints"`
	Timestamp   time.Time           `json:"timestamp"`
}

type MessageResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type FailedItemResponse struct {
	URL           string    `json:"url"`
	FailureKind   string    `json:"failure_kind"`
	FailureReason string    `json:"failure_reason"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
	AttemptCount  int       `json:"attempt_count"`
}

func NewCacheStatus(s entity.CacheStatus) CacheStatusResponse {
	resp := CacheStatusResponse{
		TotalArticles: s.TotalArticles,
		LastUpdate:    s.LastUpdate,
		IsUpdating:    s.IsUpdating,
	}
	if s.LastError != "" {
		msg := s.LastError
		resp.Error = &msg
	}
	return resp
}

func NewFailedItems(items []*entity.FailedItem) []FailedItemResponse {
	out := make([]FailedItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, FailedItemResponse{
			URL:           it.URL,
			FailureKind:   it.FailureKind,
			FailureReason: it.FailureReason,
			LastAttemptAt: it.LastAttemptAt,
			AttemptCount:  it.AttemptCount,
		})
	}
	return out
}
