package library

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading ~ with the current user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// ValidateRoot checks that p can serve as the library root and returns it
// trimmed and with ~ expanded. Every failure is ErrInvalidConfiguration.
func ValidateRoot(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", invalidRoot(p, "directory must not be empty")
	}
	p = ExpandHome(p)

	st, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", invalidRoot(p, "directory does not exist")
		}
		return "", &Error{Op: "root", Path: p, Kind: ErrInvalidConfiguration, Err: err}
	}
	if !st.IsDir() {
		return "", invalidRoot(p, "not a directory")
	}

	f, err := os.Open(p)
	if err != nil {
		return "", invalidRoot(p, "no read permission")
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", invalidRoot(p, "no read permission")
	}
	return p, nil
}

// RootStats summarises a candidate library root.
type RootStats struct {
	Directory    string `json:"directory"`
	MangaFolders int    `json:"manga_folders"`
	ImageCount   int    `json:"image_count"`
}

// Inspect validates root and counts its subdirectories and the images in
// them. Unreadable subdirectories count as folders with no images.
func Inspect(root string) (RootStats, error) {
	root, err := ValidateRoot(root)
	if err != nil {
		return RootStats{}, err
	}
	entries, err := readRoot(root)
	if err != nil {
		return RootStats{}, err
	}

	stats := RootStats{Directory: root}
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		if !isDirEntry(dir, e) {
			continue
		}
		stats.MangaFolders++
		if images, err := ListImages(dir); err == nil {
			stats.ImageCount += len(images)
		}
	}
	return stats, nil
}
