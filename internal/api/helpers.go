package api

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/pespath/internal/jobfile"
	"github.com/samcharles93/pespath/internal/pes"
	"github.com/samcharles93/pespath/internal/structio"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// dataDirResolver confines file sources to dir, following symlinks before
// the containment check. dir must already be absolute and resolved. With no
// dir, file sources are rejected.
func dataDirResolver(dir string) func(string) (string, error) {
	return func(name string) (string, error) {
		if dir == "" {
			return "", &fileSourceError{name: name, err: ErrFileSourcesDisabled}
		}
		if filepath.IsAbs(name) {
			return "", &fileSourceError{name: name, err: errors.New("must be relative to the data directory")}
		}
		full := filepath.Join(dir, name)
		if !within(dir, full) {
			return "", &fileSourceError{name: name, err: ErrOutsideDataDir}
		}
		resolved, err := filepath.EvalSymlinks(full)
		if err != nil {
			var pe *fs.PathError
			if errors.As(err, &pe) {
				err = pe.Err
			}
			return "", &fileSourceError{name: name, err: err}
		}
		if !within(dir, resolved) {
			return "", &fileSourceError{name: name, err: ErrOutsideDataDir}
		}
		return resolved, nil
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// checkImageLimits caps every per-point count that multiplies the frames a
// request produces.
func checkImageLimits(points []jobfile.Point, limit int) error {
	for i, p := range points {
		if p.Dupl != nil && *p.Dupl > limit {
			return &limitError{point: i, field: "dupl", got: *p.Dupl, max: limit}
		}
		if p.Interp == nil {
			continue
		}
		if p.Interp.NEBImages > limit {
			return &limitError{point: i, field: "n_neb_images", got: p.Interp.NEBImages, max: limit}
		}
		if p.Interp.InterpImages > limit {
			return &limitError{point: i, field: "n_interp_images", got: p.Interp.InterpImages, max: limit}
		}
	}
	return nil
}

func framesOf(frames pes.Frames) []structio.Frame {
	out := make([]structio.Frame, len(frames))
	for i, a := range frames {
		out[i] = structio.FrameOf(a)
	}
	return out
}
