package models

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Manga is one catalog entry, backed by a directory under the library root.
// Slug is derived from the directory name and is unique across the catalog.
type Manga struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"manga_id"`
	Title       string     `json:"title"`
	CoverImage  string     `json:"cover_image"`
	FirstPage   string     `json:"first_page"`
	PageCount   int        `json:"page_count"`
	Description string     `json:"description"`
	Artist      string     `json:"artist"`
	Genres      []string   `json:"genres"`
	Tags        []string   `json:"tags"`
	Language    string     `json:"language"`
	Status      string     `json:"status"`
	Views       int        `json:"views"`
	LastViewed  *time.Time `json:"last_viewed,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
