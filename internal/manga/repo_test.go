package manga

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangashelf/internal/library"
	"mangashelf/pkg/database"
	"mangashelf/pkg/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func entry(slug, title string, pages int) models.Manga {
	return models.Manga{
		Slug:       slug,
		Title:      title,
		CoverImage: "/manga/" + slug + "/1.jpg",
		FirstPage:  "/manga/" + slug + "/1.jpg",
		PageCount:  pages,
		Artist:     "Unknown",
		Genres:     []string{"Manga"},
		Tags:       []string{"Imported", "Original"},
		Language:   "Spanish",
		Status:     models.StatusActive,
	}
}

func TestRepo_ReplaceAll(t *testing.T) {
	repo := NewRepo(setupTestDB(t))
	ctx := context.Background()

	n, err := repo.ReplaceAll(ctx, []models.Manga{entry("one-piece", "One Piece", 3), entry("naruto", "Naruto", 5)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.ReplaceAll(ctx, []models.Manga{entry("bleach", "Bleach", 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "bleach", items[0].Slug)
	assert.Equal(t, []string{"Manga"}, items[0].Genres)
	assert.Equal(t, []string{"Imported", "Original"}, items[0].Tags)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestRepo_ReplaceAll_DuplicateSlugLastWins(t *testing.T) {
	repo := NewRepo(setupTestDB(t))
	ctx := context.Background()

	n, err := repo.ReplaceAll(ctx, []models.Manga{entry("dup", "First", 1), entry("dup", "Second", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m, err := repo.GetBySlug(ctx, "dup")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Second", m.Title)
	assert.Equal(t, 2, m.PageCount)
}

func TestRepo_ReplaceAll_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	_, err := repo.ReplaceAll(ctx, []models.Manga{entry("keep", "Keep", 1)})
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TRIGGER reject_boom BEFORE INSERT ON mangas
		WHEN NEW.slug = 'boom'
		BEGIN SELECT RAISE(ABORT, 'boom rejected'); END;
	`)
	require.NoError(t, err)

	_, err = repo.ReplaceAll(ctx, []models.Manga{entry("fresh", "Fresh", 1), entry("boom", "Boom", 1)})
	require.Error(t, err)

	items, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "keep", items[0].Slug)
}

func TestRepo_ListAndCount(t *testing.T) {
	repo := NewRepo(setupTestDB(t))
	ctx := context.Background()

	hidden := entry("hidden", "Hidden Piece", 1)
	hidden.Status = models.StatusInactive
	_, err := repo.ReplaceAll(ctx, []models.Manga{
		entry("one-piece", "One Piece", 3),
		entry("naruto", "Naruto", 2),
		entry("berserk", "berserk", 4),
		hidden,
	})
	require.NoError(t, err)

	items, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	var titles []string
	for _, m := range items {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"berserk", "Naruto", "One Piece"}, titles)

	items, err = repo.List(ctx, ListQuery{Search: "PIECE"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "one-piece", items[0].Slug)

	total, err := repo.Count(ctx, ListQuery{Search: "piece"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	total, err = repo.Count(ctx, ListQuery{Status: models.StatusInactive})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	items, err = repo.List(ctx, ListQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Naruto", items[0].Title)

	total, err = repo.Count(ctx, ListQuery{Status: StatusAll, Search: "piece"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	all, err := repo.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, all)
}

func TestRepo_GetByID_Missing(t *testing.T) {
	repo := NewRepo(setupTestDB(t))

	m, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRepo_IncrementViews(t *testing.T) {
	repo := NewRepo(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.ReplaceAll(ctx, []models.Manga{entry("one-piece", "One Piece", 3)})
	require.NoError(t, err)
	m, err := repo.GetBySlug(ctx, "one-piece")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Nil(t, m.LastViewed)

	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	updated, err := repo.IncrementViews(ctx, m.ID, at)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 1, updated.Views)
	require.NotNil(t, updated.LastViewed)
	assert.True(t, at.Equal(*updated.LastViewed))

	updated, err = repo.IncrementViews(ctx, m.ID, at)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Views)

	missing, err := repo.IncrementViews(ctx, 999, at)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReconcile_WithRepo(t *testing.T) {
	repo := NewRepo(setupTestDB(t))
	ctx := context.Background()
	root := t.TempDir()
	for name, files := range map[string][]string{
		"One Piece":      {"2.png", "10.png", "1.png"},
		"Naruto Special": {"2.png", "10.png", "1.png"},
		"No Pages":       nil,
	} {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
		}
	}

	res, err := library.NewReconciler(repo).Reconcile(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)

	items, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, m := range items {
		assert.Equal(t, 3, m.PageCount)
		assert.Equal(t, "/manga/"+m.Slug+"/1.png", m.CoverImage)
	}

	// an unreadable root must leave the catalog exactly as it was
	_, err = library.NewReconciler(repo).Reconcile(ctx, filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, library.ErrInvalidConfiguration)

	after, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, items, after)
}
