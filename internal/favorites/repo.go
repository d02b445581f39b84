package favorites

import (
	"context"
	"database/sql"
	"fmt"

	"mangashelf/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add marks a manga as favorite for a user. Adding twice is a no-op.
func (r *Repo) Add(ctx context.Context, userID, slug string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO favorites (user_id, manga_slug, created_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, manga_slug) DO NOTHING
	`, userID, slug)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, slug string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE user_id = ? AND manga_slug = ?
	`, userID, slug)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Has(ctx context.Context, userID, slug string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM favorites WHERE user_id = ? AND manga_slug = ?
	`, userID, slug).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has favorite: %w", err)
	}
	return n > 0, nil
}

// List returns the user's favorites that still match an active catalog entry,
// newest first. Favorites whose manga disappeared on refresh are kept in the
// table but hidden until the slug comes back.
func (r *Repo) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT f.user_id, f.manga_slug, f.created_at,
		       m.id, m.title, m.cover_image, m.page_count
		FROM favorites f
		JOIN mangas m ON m.slug = f.manga_slug
		WHERE f.user_id = ? AND m.status = ?
		ORDER BY f.created_at DESC, m.title COLLATE NOCASE
	`, userID, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]models.Favorite, 0)
	for rows.Next() {
		var (
			f models.Favorite
			m models.Manga
		)
		if err := rows.Scan(&f.UserID, &f.MangaSlug, &f.CreatedAt,
			&m.ID, &m.Title, &m.CoverImage, &m.PageCount); err != nil {
			return nil, fmt.Errorf("scan favorite row: %w", err)
		}
		m.Slug = f.MangaSlug
		m.Status = models.StatusActive
		f.Manga = &m
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// All returns every stored favorite, including ones without a catalog entry.
func (r *Repo) All(ctx context.Context) ([]models.Favorite, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, manga_slug, created_at
		FROM favorites
		ORDER BY user_id, manga_slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list all favorites: %w", err)
	}
	defer rows.Close()

	var out []models.Favorite
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.UserID, &f.MangaSlug, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
