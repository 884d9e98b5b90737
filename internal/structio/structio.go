// Package structio reads and writes atomic configurations.
package structio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/pespath/internal/atoms"
)

var (
	ErrUnknownFormat = errors.New("unknown structure format")
	ErrUnsupported   = errors.New("operation not supported for format")
	ErrNoFrames      = errors.New("no frames")
	ErrMalformed     = errors.New("malformed structure data")
)

// Format names an on-disk structure encoding.
type Format string

const (
	FormatXYZ  Format = "xyz"
	FormatJSON Format = "json"
	FormatPDB  Format = "pdb"
)

var extensions = map[string]Format{
	".xyz":    FormatXYZ,
	".extxyz": FormatXYZ,
	".json":   FormatJSON,
	".pdb":    FormatPDB,
}

// Formats lists every known format.
func Formats() []Format {
	return []Format{FormatXYZ, FormatJSON, FormatPDB}
}

// ParseFormat validates a format name. "extxyz" is accepted as xyz.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXYZ, FormatJSON, FormatPDB:
		return f, nil
	case "extxyz":
		return FormatXYZ, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// InferFormat picks the format from the file extension.
func InferFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: cannot infer from %q", ErrUnknownFormat, filepath.Base(path))
}

func resolveFormat(path, format string) (Format, error) {
	if strings.TrimSpace(format) == "" {
		return InferFormat(path)
	}
	return ParseFormat(format)
}

// ParseError locates a decoding failure.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

// Reader loads one configuration from storage. An empty format means the
// format is inferred from the path.
type Reader interface {
	Read(path, format string) (*atoms.Atoms, error)
}

// FileReader reads from the local filesystem.
type FileReader struct{}

func (FileReader) Read(path, format string) (*atoms.Atoms, error) {
	return Read(path, format)
}

// Read returns the last frame stored in path.
func Read(path, format string) (*atoms.Atoms, error) {
	frames, err := ReadAll(path, format)
	if err != nil {
		return nil, err
	}
	return frames[len(frames)-1], nil
}

// ReadAll returns every frame stored in path.
func ReadAll(path, format string) ([]*atoms.Atoms, error) {
	f, err := resolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	frames, err := Decode(file, f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
			return nil, pe
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}

// Decode parses every frame from r.
func Decode(r io.Reader, format Format) ([]*atoms.Atoms, error) {
	var (
		frames []*atoms.Atoms
		err    error
	)
	switch format {
	case FormatXYZ:
		frames, err = decodeXYZ(r)
	case FormatJSON:
		frames, err = decodeJSON(r)
	case FormatPDB:
		return nil, fmt.Errorf("%w: reading %s", ErrUnsupported, format)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	return frames, nil
}

// Write stores frames at path, creating parent directories as needed. An empty
// format is inferred from the path.
func Write(path string, frames []*atoms.Atoms, format string) error {
	f, err := resolveFormat(path, format)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return ErrNoFrames
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := Encode(w, frames, f); err != nil {
		_ = file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Encode serialises frames to w.
func Encode(w io.Writer, frames []*atoms.Atoms, format Format) error {
	switch format {
	case FormatXYZ:
		return encodeXYZ(w, frames)
	case FormatJSON:
		return encodeJSON(w, frames)
	case FormatPDB:
		return encodePDB(w, frames)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType is the HTTP media type used when serving a format.
func ContentType(f Format) string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatPDB:
		return "chemical/x-pdb"
	default:
		return "chemical/x-xyz"
	}
}
