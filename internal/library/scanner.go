// Package library turns a directory of manga folders into catalog entries
// and maps catalog identifiers back to folders on disk.
package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ImageExtensions is the set of file extensions treated as manga pages.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

func IsImage(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ScannedManga is one qualifying subdirectory of the library root.
type ScannedManga struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Dir       string   `json:"dir"`
	Images    []string `json:"images"`
	PageCount int      `json:"page_count"`
}

// Cover is the first page in natural order.
func (m ScannedManga) Cover() string {
	if len(m.Images) == 0 {
		return ""
	}
	return m.Images[0]
}

// SkippedDir is a subdirectory left out of a scan.
type SkippedDir struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

type ScanResult struct {
	Root    string         `json:"root"`
	Mangas  []ScannedManga `json:"mangas"`
	Skipped []SkippedDir   `json:"skipped"`
}

// Scan lists the immediate subdirectories of root and collects the images in
// each. Directories without images, or that cannot be read, are recorded in
// Skipped and do not stop the scan. Only an unusable root is an error.
func Scan(root string) (*ScanResult, error) {
	entries, err := readRoot(root)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{Root: root, Mangas: []ScannedManga{}}
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		if !isDirEntry(dir, e) {
			continue
		}

		images, err := ListImages(dir)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedDir{Name: e.Name(), Reason: err.Error(), Err: err})
			continue
		}
		if len(images) == 0 {
			res.Skipped = append(res.Skipped, SkippedDir{Name: e.Name(), Reason: "no images"})
			continue
		}

		res.Mangas = append(res.Mangas, ScannedManga{
			Slug:      Slug(e.Name()),
			Title:     e.Name(),
			Dir:       dir,
			Images:    images,
			PageCount: len(images),
		})
	}
	return res, nil
}

// ListImages returns the image files directly inside dir in natural order.
// A missing directory is ErrNotFound, an unreadable one ErrPermissionDenied.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, classify("list images", dir, err)
	}

	images := make([]string, 0, len(entries))
	for _, e := range entries {
		if !IsImage(e.Name()) || !isFileEntry(filepath.Join(dir, e.Name()), e) {
			continue
		}
		images = append(images, e.Name())
	}
	return slices.Collect(Sequence(images)), nil
}

// readRoot lists root, reporting any failure as ErrInvalidConfiguration.
func readRoot(root string) ([]fs.DirEntry, error) {
	st, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, invalidRoot(root, "directory does not exist")
		}
		return nil, &Error{Op: "root", Path: root, Kind: ErrInvalidConfiguration, Err: err}
	}
	if !st.IsDir() {
		return nil, invalidRoot(root, "not a directory")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &Error{Op: "root", Path: root, Kind: ErrInvalidConfiguration, Err: err}
	}
	return entries, nil
}

// isDirEntry follows symlinks, which DirEntry.IsDir does not.
func isDirEntry(path string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// isFileEntry reports whether e is a regular file, following symlinks.
// Dangling links and links to directories are not pages.
func isFileEntry(path string, e fs.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
