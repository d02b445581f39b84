package library

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrTransientIO          = errors.New("transient io error")
)

// Error records a failed filesystem operation together with its kind.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify wraps a filesystem error with the kind it maps to.
func classify(op, path string, err error) *Error {
	kind := ErrTransientIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ErrPermissionDenied
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func invalidRoot(path, reason string) *Error {
	return &Error{Op: "root", Path: path, Kind: ErrInvalidConfiguration, Err: errors.New(reason)}
}

// Reason returns the underlying cause of a library error without the
// operation and path prefix, suitable for showing to a user.
func Reason(err error) string {
	var le *Error
	if errors.As(err, &le) {
		if le.Err != nil {
			return le.Err.Error()
		}
		return le.Kind.Error()
	}
	return err.Error()
}
