package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks failures the caller can fix by changing the
	// request.
	ErrInvalidRequest      = errors.New("invalid request")
	ErrFileSourcesDisabled = errors.New("file sources are disabled on this server")
	ErrOutsideDataDir      = errors.New("outside the data directory")
	ErrTooManyImages       = errors.New("too many images")
)

// fileSourceError reports a file source the data directory cannot serve.
// Only the requested name is shown, never the server-side path.
type fileSourceError struct {
	name string
	err  error
}

func (e *fileSourceError) Error() string {
	return fmt.Sprintf("file %q: %v", e.name, e.err)
}

func (e *fileSourceError) Unwrap() []error {
	return []error{ErrInvalidRequest, e.err}
}

// limitError reports an image count above the server's cap.
type limitError struct {
	point int
	field string
	got   int
	max   int
}

func (e *limitError) Error() string {
	return fmt.Sprintf("point %d: %s %d exceeds the limit of %d", e.point, e.field, e.got, e.max)
}

func (e *limitError) Unwrap() []error {
	return []error{ErrInvalidRequest, ErrTooManyImages}
}
