package compose

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Kind classifies a composition failure.
type Kind int

const (
	KindIOFailure Kind = iota
	KindPathNotFound
	KindInvalidBitmap
)

func (k Kind) String() string {
	switch k {
	case KindPathNotFound:
		return "path_not_found"
	case KindInvalidBitmap:
		return "invalid_bitmap"
	default:
		return "io_failure"
	}
}

// Error is returned by Composite.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("compose %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("compose %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var composeErr *Error
	if errors.As(err, &composeErr) {
		return composeErr.Kind, true
	}
	return 0, false
}

func classify(path string, err error) *Error {
	kind := KindIOFailure
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		kind = KindPathNotFound
	}
	return &Error{Kind: kind, Path: path, Err: err}
}
