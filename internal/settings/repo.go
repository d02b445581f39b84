package settings

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mangashelf/internal/library"
	"mangashelf/pkg/models"
)

const (
	KeyMangaDirectory         = "manga_directory"
	mangaDirectoryDescription = "Directory where manga folders are stored"
)

type Repo struct {
	DB *sql.DB
	// DefaultRoot is the library root used until manga_directory is saved.
	DefaultRoot string
}

func NewRepo(db *sql.DB, defaultRoot string) *Repo {
	return &Repo{DB: db, DefaultRoot: defaultRoot}
}

func (r *Repo) Get(ctx context.Context, key string) (*models.Setting, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT key, value, description, updated_at
		FROM settings
		WHERE key = ?
	`, key)

	var s models.Setting
	if err := row.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &s, nil
}

// Set inserts or updates key. An empty description keeps the stored one.
func (r *Repo) Set(ctx context.Context, key, value, description string) error {
	return r.set(ctx, r.DB, key, value, description)
}

// SetMany writes all values in one transaction.
func (r *Repo) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set settings: %w", err)
	}
	defer tx.Rollback()

	for k, v := range values {
		if err := r.set(ctx, tx, k, v, ""); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set settings: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *Repo) set(ctx context.Context, db execer, key, value, description string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value, description, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			description = CASE WHEN excluded.description = '' THEN settings.description ELSE excluded.description END,
			updated_at = CURRENT_TIMESTAMP
	`, key, value, description)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT key, value, description, updated_at
		FROM settings
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := make([]models.Setting, 0)
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// EnsureDefaults stores the default library root when none is saved yet.
func (r *Repo) EnsureDefaults(ctx context.Context) error {
	s, err := r.Get(ctx, KeyMangaDirectory)
	if err != nil {
		return err
	}
	if s != nil {
		return nil
	}
	return r.Set(ctx, KeyMangaDirectory, r.DefaultRoot, mangaDirectoryDescription)
}

// LibraryRoot returns the configured library root, read fresh on every call.
func (r *Repo) LibraryRoot(ctx context.Context) (string, error) {
	s, err := r.Get(ctx, KeyMangaDirectory)
	if err != nil {
		return "", err
	}
	root := r.DefaultRoot
	if s != nil && strings.TrimSpace(s.Value) != "" {
		root = s.Value
	}
	return library.ExpandHome(strings.TrimSpace(root)), nil
}

// SetLibraryRoot saves root as the manga_directory setting.
func (r *Repo) SetLibraryRoot(ctx context.Context, root string) error {
	return r.Set(ctx, KeyMangaDirectory, root, mangaDirectoryDescription)
}
