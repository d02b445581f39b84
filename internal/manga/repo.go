package manga

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mangashelf/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

// StatusAll disables the status filter of a ListQuery.
const StatusAll = "all"

type ListQuery struct {
	Search string // substring match on title
	Status string // defaults to active
	Limit  int    // <= 0 means no limit
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const selectColumns = `
	SELECT id, slug, title, cover_image, first_page, page_count, description, artist,
	       genres, tags, language, status, views, last_viewed, created_at
	FROM mangas
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManga(row rowScanner) (models.Manga, error) {
	var (
		m          models.Manga
		genres     string
		tags       string
		lastViewed sql.NullTime
	)
	if err := row.Scan(
		&m.ID, &m.Slug, &m.Title, &m.CoverImage, &m.FirstPage, &m.PageCount, &m.Description, &m.Artist,
		&genres, &tags, &m.Language, &m.Status, &m.Views, &lastViewed, &m.CreatedAt,
	); err != nil {
		return m, err
	}
	m.Genres = splitList(genres)
	m.Tags = splitList(tags)
	if lastViewed.Valid {
		t := lastViewed.Time
		m.LastViewed = &t
	}
	return m, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Manga, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	m, err := scanManga(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return &m, nil
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (*models.Manga, error) {
	row := r.DB.QueryRowContext(ctx, selectColumns+` WHERE slug = ?`, slug)
	m, err := scanManga(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getBySlug: %w", err)
	}
	return &m, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	where, args := buildWhere(q)
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM mangas`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Manga, error) {
	where, args := buildWhere(q)
	sqlStr := selectColumns + where + ` ORDER BY title COLLATE NOCASE ASC`
	if q.Limit > 0 {
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		sqlStr += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, offset)
	}

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Manga, 0)
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func buildWhere(q ListQuery) (string, []any) {
	status := strings.ToLower(strings.TrimSpace(q.Status))
	if status == "" {
		status = models.StatusActive
	}
	var (
		where []string
		args  []any
	)
	if status != StatusAll {
		where = append(where, "status = ?")
		args = append(args, status)
	}

	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// Total counts every catalog entry regardless of status.
func (r *Repo) Total(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM mangas`).Scan(&total); err != nil {
		return 0, fmt.Errorf("total scan: %w", err)
	}
	return total, nil
}

// ReplaceAll swaps the whole catalog for entries in one transaction. Entries
// sharing a slug collapse to the last one.
func (r *Repo) ReplaceAll(ctx context.Context, entries []models.Manga) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mangas`); err != nil {
		return 0, fmt.Errorf("clear catalog: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mangas (
			slug, title, cover_image, first_page, page_count, description, artist,
			genres, tags, language, status, views, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			cover_image = excluded.cover_image,
			first_page = excluded.first_page,
			page_count = excluded.page_count,
			description = excluded.description,
			artist = excluded.artist,
			genres = excluded.genres,
			tags = excluded.tags,
			language = excluded.language,
			status = excluded.status,
			views = excluded.views,
			created_at = excluded.created_at
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, m := range entries {
		created := m.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		status := m.Status
		if status == "" {
			status = models.StatusActive
		}
		if _, err := stmt.ExecContext(ctx,
			m.Slug, m.Title, m.CoverImage, m.FirstPage, m.PageCount, m.Description, m.Artist,
			strings.Join(m.Genres, ","), strings.Join(m.Tags, ","), m.Language, status, m.Views, created,
		); err != nil {
			return 0, fmt.Errorf("insert %s: %w", m.Slug, err)
		}
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM mangas`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalog: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return n, nil
}

// IncrementViews bumps the view counter and returns the updated entry, or
// nil when id does not exist.
func (r *Repo) IncrementViews(ctx context.Context, id int64, at time.Time) (*models.Manga, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE mangas SET views = views + 1, last_viewed = ? WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
