package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mangashelf/internal/favorites"
	"mangashelf/internal/manga"
	"mangashelf/pkg/database"
	"mangashelf/pkg/models"
	"mangashelf/pkg/utils"
)

func main() {
	var (
		catalogOut   = flag.String("out", "data/catalog.csv", "output CSV path for the catalog")
		favoritesOut = flag.String("favorites", "data/favorites.csv", "output CSV path for favorites (empty to skip)")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	db := database.MustOpen(cfg.Database)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	items, err := manga.NewRepo(db).List(ctx, manga.ListQuery{Status: manga.StatusAll})
	if err != nil {
		log.Fatalf("list catalog failed: %v", err)
	}
	if err := writeFile(*catalogOut, func(w io.Writer) error { return writeCatalog(w, items) }); err != nil {
		log.Fatalf("export catalog failed: %v", err)
	}
	log.Printf("exported %d catalog entries to %s", len(items), *catalogOut)

	if *favoritesOut == "" {
		return
	}
	favs, err := favorites.NewRepo(db).All(ctx)
	if err != nil {
		log.Fatalf("list favorites failed: %v", err)
	}
	if err := writeFile(*favoritesOut, func(w io.Writer) error { return writeFavorites(w, favs) }); err != nil {
		log.Fatalf("export favorites failed: %v", err)
	}
	log.Printf("exported %d favorites to %s", len(favs), *favoritesOut)
}

func writeFile(outPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var catalogHeader = []string{
	"id", "manga_id", "title", "page_count", "cover_image", "first_page", "description",
	"artist", "genres", "tags", "language", "status", "views", "last_viewed", "created_at",
}

func writeCatalog(out io.Writer, items []models.Manga) error {
	w := csv.NewWriter(out)
	if err := w.Write(catalogHeader); err != nil {
		return err
	}
	for _, m := range items {
		lastViewed := ""
		if m.LastViewed != nil {
			lastViewed = m.LastViewed.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{
			strconv.FormatInt(m.ID, 10),
			m.Slug,
			m.Title,
			strconv.Itoa(m.PageCount),
			m.CoverImage,
			m.FirstPage,
			m.Description,
			m.Artist,
			strings.Join(m.Genres, ","),
			strings.Join(m.Tags, ","),
			m.Language,
			m.Status,
			strconv.Itoa(m.Views),
			lastViewed,
			m.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFavorites(out io.Writer, favs []models.Favorite) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"user_id", "manga_id", "created_at"}); err != nil {
		return err
	}
	for _, f := range favs {
		if err := w.Write([]string{f.UserID, f.MangaSlug, f.CreatedAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
