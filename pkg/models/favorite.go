package models

import "time"

type Favorite struct {
	UserID    string    `json:"user_id"`
	MangaSlug string    `json:"manga_id"`
	CreatedAt time.Time `json:"created_at"`
	Manga     *Manga    `json:"manga,omitempty"`
}
