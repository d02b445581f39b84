package library

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"mangashelf/pkg/models"
)

const (
	DefaultArtist   = "Unknown"
	DefaultLanguage = "Spanish"
	DefaultTags     = "Imported,Original"
)

// CatalogStore persists catalog entries. ReplaceAll must be atomic: after an
// error the previous entries are still in place.
type CatalogStore interface {
	ReplaceAll(ctx context.Context, entries []models.Manga) (int, error)
}

type Reconciler struct {
	Store CatalogStore
	Now   func() time.Time
}

func NewReconciler(store CatalogStore) *Reconciler {
	return &Reconciler{Store: store, Now: time.Now}
}

type ReconcileResult struct {
	Root       string         `json:"root"`
	Written    int            `json:"written"`
	Entries    []models.Manga `json:"entries"`
	Skipped    []SkippedDir   `json:"skipped"`
	Collisions []string       `json:"collisions,omitempty"`
}

// Reconcile rescans root and replaces the whole catalog with what it finds.
// A root that cannot be read aborts before the store is touched.
func (r *Reconciler) Reconcile(ctx context.Context, root string) (*ReconcileResult, error) {
	scan, err := Scan(root)
	if err != nil {
		return nil, err
	}
	for _, s := range scan.Skipped {
		log.Printf("[library] skipped %q: %s", s.Name, s.Reason)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	entries, collisions := Entries(scan, now().UTC())
	for _, slug := range collisions {
		log.Printf("[library] slug collision on %q, keeping the last directory", slug)
	}

	written, err := r.Store.ReplaceAll(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("replace catalog: %w", err)
	}

	return &ReconcileResult{
		Root:       root,
		Written:    written,
		Entries:    entries,
		Skipped:    scan.Skipped,
		Collisions: collisions,
	}, nil
}

// Entries builds catalog rows from a scan. When two directories share a slug
// the later one replaces the earlier in place; the slug is reported once.
func Entries(scan *ScanResult, now time.Time) ([]models.Manga, []string) {
	out := make([]models.Manga, 0, len(scan.Mangas))
	index := make(map[string]int, len(scan.Mangas))
	var collisions []string

	for _, m := range scan.Mangas {
		e := entryFor(m, now)
		if i, ok := index[e.Slug]; ok {
			out[i] = e
			collisions = appendIfMissing(collisions, e.Slug)
			continue
		}
		index[e.Slug] = len(out)
		out = append(out, e)
	}
	return out, collisions
}

func entryFor(m ScannedManga, now time.Time) models.Manga {
	page := PageURL(m.Slug, m.Cover())
	return models.Manga{
		Slug:        m.Slug,
		Title:       m.Title,
		CoverImage:  page,
		FirstPage:   page,
		PageCount:   m.PageCount,
		Description: fmt.Sprintf("%d pages. %s", m.PageCount, m.Title),
		Artist:      DefaultArtist,
		Genres:      []string{guessGenre(m.Title)},
		Tags:        strings.Split(DefaultTags, ","),
		Language:    DefaultLanguage,
		Status:      models.StatusActive,
		CreatedAt:   now,
	}
}

// PageURL is the reader URL for one page of a manga.
func PageURL(slug, filename string) string {
	return "/manga/" + url.PathEscape(slug) + "/" + url.PathEscape(filename)
}

func guessGenre(title string) string {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "hentai", "ecchi", "adult"):
		return "Adult"
	case containsAny(t, "romance", "amor"):
		return "Romance"
	default:
		return "Manga"
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func appendIfMissing(slice []string, v string) []string {
	for _, x := range slice {
		if x == v {
			return slice
		}
	}
	return append(slice, v)
}
