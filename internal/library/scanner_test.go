package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImage(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "b.Png", "c.gif", "d.webp", "e.BMP"} {
		assert.True(t, IsImage(name), name)
	}
	for _, name := range []string{"notes.txt", "jpg", "archive.cbz", "cover.jpg.bak", ""} {
		assert.False(t, IsImage(name), name)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	pages := []string{"2.png", "10.png", "1.png"}
	makeDir(t, root, "One Piece", pages...)
	makeDir(t, root, "Naruto Special", pages...)
	makeDir(t, root, "Empty")
	makeDir(t, root, "Docs Only", "readme.txt", "info.nfo")
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.jpg"), []byte("x"), 0o644))

	res, err := Scan(root)
	require.NoError(t, err)

	require.Len(t, res.Mangas, 2)
	slugs := []string{res.Mangas[0].Slug, res.Mangas[1].Slug}
	assert.ElementsMatch(t, []string{"one-piece", "naruto-special"}, slugs)
	for _, m := range res.Mangas {
		assert.Equal(t, 3, m.PageCount)
		assert.Equal(t, []string{"1.png", "2.png", "10.png"}, m.Images)
		assert.Equal(t, "1.png", m.Cover())
		assert.Equal(t, filepath.Join(root, m.Title), m.Dir)
	}

	var skipped []string
	for _, s := range res.Skipped {
		skipped = append(skipped, s.Name)
		assert.Equal(t, "no images", s.Reason)
	}
	assert.ElementsMatch(t, []string{"Empty", "Docs Only"}, skipped)
}

func TestScan_IgnoresSubdirectoriesNamedLikeImages(t *testing.T) {
	root := t.TempDir()
	dir := makeDir(t, root, "Series", "01.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "extras.png"), 0o755))

	res, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, res.Mangas, 1)
	assert.Equal(t, []string{"01.jpg"}, res.Mangas[0].Images)
}

func TestScan_FollowsSymlinkedDirectories(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	target := makeDir(t, elsewhere, "Linked", "1.jpg")
	if err := os.Symlink(target, filepath.Join(root, "Linked Series")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, res.Mangas, 1)
	assert.Equal(t, "linked-series", res.Mangas[0].Slug)
}

func TestScan_InvalidRoot(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Scan(filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("file", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(f, nil, 0o644))
		_, err := Scan(f)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestScan_UnreadableSubdirectoryIsSkipped(t *testing.T) {
	skipIfRoot(t)
	root := t.TempDir()
	makeDir(t, root, "Good", "1.jpg")
	locked := makeDir(t, root, "Locked", "1.jpg")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, res.Mangas, 1)
	assert.Equal(t, "good", res.Mangas[0].Slug)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "Locked", res.Skipped[0].Name)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrPermissionDenied)
}

func TestListImages(t *testing.T) {
	dir := makeDir(t, t.TempDir(), "Series", "page10.jpg", "page2.JPG", "page1.webp", "notes.txt")

	images, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"page1.webp", "page2.JPG", "page10.jpg"}, images)
}

func TestListImages_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		_, err := ListImages(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("permission denied", func(t *testing.T) {
		skipIfRoot(t)
		dir := makeDir(t, t.TempDir(), "Locked", "1.jpg")
		require.NoError(t, os.Chmod(dir, 0o000))
		t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

		_, err := ListImages(dir)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestListImages_SkipsLinksThatAreNotFiles(t *testing.T) {
	root := t.TempDir()
	dir := makeDir(t, root, "One Piece", "1.jpg", "2.jpg")
	extras := makeDir(t, root, "extras", "bonus.jpg")
	if err := os.Symlink(extras, filepath.Join(dir, "0.jpg")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.jpg"), filepath.Join(dir, "00.jpg")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "2.jpg"), filepath.Join(dir, "3.jpg")))

	images, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.jpg", "2.jpg", "3.jpg"}, images)

	res, err := Scan(root)
	require.NoError(t, err)
	var series ScannedManga
	for _, m := range res.Mangas {
		if m.Slug == "one-piece" {
			series = m
		}
	}
	assert.Equal(t, "1.jpg", series.Cover())
	assert.Equal(t, 3, series.PageCount)

	for _, name := range series.Images {
		_, err := ResolveFile(root, "one-piece", name)
		assert.NoError(t, err, name)
	}
}
