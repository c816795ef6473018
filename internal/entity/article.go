package entity

import "time"

// BlockKind classifies a single unit of article content.
type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockImage BlockKind = "image"
	BlockCode  BlockKind = "code"
	BlockVideo BlockKind = "video"
)

// ContentBlock is one typed piece of article content. Blocks appear in document order.
type ContentBlock struct {
	Kind  BlockKind `json:"type"`
	Value string    `json:"value"`
}

// Article is a parsed article page. ID is derived from the canonical URL.
type Article struct {
	ID                     string         `json:"id"`
	Title                  string         `json:"title"`
	PublishDate            string         `json:"date"`
	PublishDateApproximate bool           `json:"date_approximate,omitempty"`
	URL                    string         `json:"url"`
	Content                []ContentBlock `json:"content"`
	Category               string         `json:"category,omitempty"`
	Summary                string         `json:"summary,omitempty"`
	Source                 string         `json:"source,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// ArticleQuery selects a page of cached articles.
type ArticleQuery struct {
	Page     int
	PageSize int
	Search   string
	All      bool
}

// ArticlePage is the result of an ArticleQuery.
type ArticlePage struct {
	Items    []Article `json:"articles"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	HasNext  bool      `json:"has_next"`
	HasPrev  bool      `json:"has_prev"`
}
