package library

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve finds the directory for a catalog identifier. The identifier is
// first tried as a literal folder name; failing that, every folder's slug is
// derived and the first match wins, so renamed folders whose slug did not
// change keep resolving.
func Resolve(root, id string) (string, error) {
	if isPlainName(id) {
		dir := filepath.Join(root, id)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir, nil
		}
	}

	entries, err := readRoot(root)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		if isDirEntry(dir, e) && Slug(e.Name()) == id {
			return dir, nil
		}
	}
	return "", &Error{Op: "resolve", Path: id, Kind: ErrNotFound}
}

// ResolveFile resolves id and returns the path of name inside it. name must
// be a bare file name of an existing regular file.
func ResolveFile(root, id, name string) (string, error) {
	dir, err := Resolve(root, id)
	if err != nil {
		return "", err
	}
	if !isPlainName(name) {
		return "", &Error{Op: "resolve file", Path: name, Kind: ErrNotFound}
	}
	p := filepath.Join(dir, name)
	st, err := os.Stat(p)
	if err != nil {
		return "", classify("resolve file", p, err)
	}
	if !st.Mode().IsRegular() {
		return "", &Error{Op: "resolve file", Path: p, Kind: ErrNotFound}
	}
	return p, nil
}

// isPlainName reports whether s is a single path element that cannot climb
// out of its parent.
func isPlainName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}
