package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"mangashelf/internal/favorites"
	"mangashelf/internal/grpcserver"
	"mangashelf/internal/library"
	"mangashelf/internal/manga"
	"mangashelf/internal/settings"
	"mangashelf/pkg/database"
	"mangashelf/pkg/utils"
)

func main() {
	var (
		rootFlag  = flag.String("root", "", "library directory; when set and the refresh succeeds it becomes the saved manga_directory setting")
		remote    = flag.String("remote", "", "address of a running grpc-server to trigger instead of refreshing locally")
		favsIn    = flag.String("favorites", "", "optional CSV of favorites to restore (user_id,manga_id[,created_at])")
		timeoutIn = flag.Duration("timeout", 5*time.Minute, "overall time limit")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutIn)
	defer cancel()

	if *remote != "" {
		if err := refreshRemote(ctx, *remote, *rootFlag); err != nil {
			log.Fatalf("remote refresh failed: %v", err)
		}
		return
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	db := database.MustOpen(cfg.Database)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	settingsRepo := settings.NewRepo(db, cfg.Library.DefaultDirectory)
	res, err := refreshLocal(ctx, settingsRepo, manga.NewRepo(db), *rootFlag)
	if err != nil {
		log.Fatalf("refresh failed: %v", err)
	}
	report(os.Stdout, res)

	if *favsIn != "" {
		n, err := importFavorites(ctx, favorites.NewRepo(db), *favsIn)
		if err != nil {
			log.Fatalf("import favorites failed: %v", err)
		}
		log.Printf("restored %d favorites from %s", n, *favsIn)
	}
}

// refreshLocal rebuilds the catalog from root, or from the saved library root
// when root is empty. An explicit root is saved once the refresh succeeds so
// the HTTP server serves pages from the directory the catalog came from.
func refreshLocal(ctx context.Context, roots *settings.Repo, catalog *manga.Repo, root string) (*library.ReconcileResult, error) {
	override := strings.TrimSpace(root) != ""
	if !override {
		var err error
		if root, err = roots.LibraryRoot(ctx); err != nil {
			return nil, fmt.Errorf("read library root: %w", err)
		}
	}
	root, err := library.ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	res, err := library.NewReconciler(catalog).Reconcile(ctx, root)
	if err != nil {
		return nil, err
	}
	if override {
		if err := roots.SetLibraryRoot(ctx, root); err != nil {
			return nil, fmt.Errorf("save library root: %w", err)
		}
		log.Printf("[refresh] library root set to %s", root)
	}
	return res, nil
}

func report(w io.Writer, res *library.ReconcileResult) {
	fmt.Fprintf(w, "Library: %s\n", res.Root)
	for _, m := range res.Entries {
		fmt.Fprintf(w, "  + %s (%s): %d pages\n", m.Title, m.Slug, m.PageCount)
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  - %s: %s\n", s.Name, s.Reason)
	}
	for _, slug := range res.Collisions {
		fmt.Fprintf(w, "  ! slug %s is shared by several folders, the last one was kept\n", slug)
	}
	fmt.Fprintf(w, "Imported %d mangas, skipped %d folders\n", res.Written, len(res.Skipped))
}

func refreshRemote(ctx context.Context, addr, root string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := grpcserver.NewClient(conn).Reconcile(ctx, &grpcserver.ReconcileRequest{Root: root})
	if err != nil {
		return err
	}
	report(os.Stdout, &library.ReconcileResult{
		Root:       res.Root,
		Written:    res.Written,
		Skipped:    res.Skipped,
		Collisions: res.Collisions,
	})
	return nil
}

// importFavorites restores rows written by export-catalog. Rows for unknown
// users are skipped.
func importFavorites(ctx context.Context, repo *favorites.Repo, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}

		userID := valueAt(header, row, "user_id")
		slug := valueAt(header, row, "manga_id")
		if userID == "" || slug == "" {
			continue
		}
		if err := repo.Add(ctx, userID, slug); err != nil {
			log.Printf("skip favorite %s/%s: %v", userID, slug, err)
			continue
		}
		n++
	}
	return n, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
