package grpcserver

import (
	"mangashelf/internal/library"
	"mangashelf/pkg/models"
)

// An empty Root means the configured library directory.

type ScanRequest struct {
	Root string `json:"root,omitempty"`
}

type ScanResponse struct {
	Root    string                 `json:"root"`
	Mangas  []library.ScannedManga `json:"mangas"`
	Skipped []library.SkippedDir   `json:"skipped"`
}

type ReconcileRequest struct {
	Root string `json:"root,omitempty"`
}

type ReconcileResponse struct {
	Root       string               `json:"root"`
	Written    int                  `json:"written"`
	Skipped    []library.SkippedDir `json:"skipped"`
	Collisions []string             `json:"collisions,omitempty"`
}

type ResolveRequest struct {
	Root string `json:"root,omitempty"`
	ID   string `json:"id"`
}

type ResolveResponse struct {
	Dir string `json:"dir"`
}

type ListImagesRequest struct {
	Root string `json:"root,omitempty"`
	ID   string `json:"id"`
}

type ListImagesResponse struct {
	Dir        string   `json:"dir"`
	Images     []string `json:"images"`
	TotalPages int      `json:"total_pages"`
}

type ListMangaRequest struct {
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type ListMangaResponse struct {
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Items  []models.Manga `json:"items"`
}

// GetMangaRequest looks up by ID when set, otherwise by Slug.
type GetMangaRequest struct {
	ID   int64  `json:"id,omitempty"`
	Slug string `json:"slug,omitempty"`
}

type GetMangaResponse struct {
	Manga models.Manga `json:"manga"`
}
