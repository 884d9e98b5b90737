package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/pespath/internal/geom"
	"github.com/samcharles93/pespath/internal/jobfile"
	"github.com/samcharles93/pespath/internal/logger"
	"github.com/samcharles93/pespath/internal/neb"
	"github.com/samcharles93/pespath/internal/pes"
	"github.com/samcharles93/pespath/internal/structio"
	"github.com/samcharles93/pespath/internal/webui"
)

// DefaultMaxImages caps dupl and both image counts of a request point.
const DefaultMaxImages = 100

type Server struct {
	store     *PathStore
	reader    structio.Reader
	dataDir   string
	maxImages int
	log       logger.Logger
	clock     func() time.Time
}

type Config struct {
	// DataDir holds the structure files requests may name. Empty disables
	// file sources.
	DataDir string
	Reader  structio.Reader
	// MaxImages defaults to DefaultMaxImages.
	MaxImages int
	// Logger is handed to handlers through the request context.
	Logger logger.Logger
}

func NewServer(store *PathStore, cfg Config) *Server {
	if store == nil {
		store = NewPathStore()
	}
	reader := cfg.Reader
	if reader == nil {
		reader = structio.FileReader{}
	}
	dataDir := cfg.DataDir
	if dataDir != "" {
		if abs, err := filepath.Abs(dataDir); err == nil {
			dataDir = abs
		}
		if resolved, err := filepath.EvalSymlinks(dataDir); err == nil {
			dataDir = resolved
		}
	}
	maxImages := cfg.MaxImages
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		store:     store,
		reader:    reader,
		dataDir:   dataDir,
		maxImages: maxImages,
		log:       log,
		clock:     time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(s.withLogger)

	e.GET("/healthz", s.handleHealth)

	e.POST("/v1/paths", s.handleCreatePath)
	e.GET("/v1/paths/:id", s.handleGetPath)
	e.DELETE("/v1/paths/:id", s.handleDeletePath)
	e.GET("/v1/paths/:id/download", s.handleDownloadPath)

	// Path viewer
	e.GET("/*", echo.WrapHandler(webui.Handler()))
}

func (s *Server) withLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		req := c.Request()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context(), s.log)))
		return next(c)
	}
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Paths: s.store.Len()})
}

func (s *Server) handleCreatePath(c *echo.Context) error {
	req, err := decodeJSON[CreatePathRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	job := &jobfile.Job{Flatten: true, Points: req.Points}
	if req.Flatten != nil {
		job.Flatten = *req.Flatten
	}
	if err := job.Validate(); err != nil {
		return writeBadRequest(c, err.Error())
	}
	if err := checkImageLimits(job.Points, s.maxImages); err != nil {
		return writeBadRequest(c, err.Error())
	}

	specs := make([]pes.PointSpec, len(job.Points))
	resolve := dataDirResolver(s.dataDir)
	for i, p := range job.Points {
		spec, err := p.Spec(resolve)
		if err != nil {
			return writeBadRequest(c, fmt.Sprintf("point %d: %v", i, err))
		}
		specs[i] = spec
	}

	ctx := c.Request().Context()
	path, err := pes.InterpPES(ctx, s.reader, specs)
	if err != nil {
		if isClientError(err) {
			return writeBadRequest(c, err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}

	resp := PathResponse{
		ID:         newPathID(),
		Object:     "path",
		CreatedAt:  s.clock().Unix(),
		Flatten:    job.Flatten,
		Lengths:    path.Lengths(),
		FrameCount: path.Len(),
	}
	s.store.Save(resp, path)
	logger.FromContext(ctx).Info("path created", "id", resp.ID, "points", len(specs), "frames", resp.FrameCount)

	return c.JSON(http.StatusOK, withFrames(resp, path))
}

func (s *Server) handleGetPath(c *echo.Context) error {
	rec, ok := s.lookup(c)
	if !ok {
		return writeNotFound(c, "path not found")
	}
	return c.JSON(http.StatusOK, withFrames(rec.Response, rec.Path))
}

func (s *Server) handleDeletePath(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "path not found")
	}
	return c.JSON(http.StatusOK, DeletePathResponse{
		ID:      id,
		Object:  "path",
		Deleted: true,
	})
}

// handleDownloadPath serves the flattened path encoded as a structure file.
func (s *Server) handleDownloadPath(c *echo.Context) error {
	rec, ok := s.lookup(c)
	if !ok {
		return writeNotFound(c, "path not found")
	}
	format := structio.FormatXYZ
	if q := c.QueryParam("format"); q != "" {
		f, err := structio.ParseFormat(q)
		if err != nil {
			return writeBadRequest(c, err.Error())
		}
		format = f
	}

	var buf bytes.Buffer
	if err := structio.Encode(&buf, rec.Path.Flatten(), format); err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, structio.ContentType(format))
	res.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Response.ID+"."+string(format)))
	res.WriteHeader(http.StatusOK)
	_, err := res.Write(buf.Bytes())
	return err
}

func (s *Server) lookup(c *echo.Context) (*pathRecord, bool) {
	id := c.Param("id")
	if id == "" {
		return nil, false
	}
	return s.store.Get(id)
}

func withFrames(resp PathResponse, path pes.Path) PathResponse {
	if resp.Flatten {
		resp.Frames = framesOf(path.Flatten())
		return resp
	}
	resp.Sequences = make([][]structio.Frame, len(path.Sequences))
	for i, seq := range path.Sequences {
		resp.Sequences[i] = framesOf(seq)
	}
	return resp
}

// isClientError reports failures caused by the request rather than the server.
func isClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		os.ErrNotExist,
		structio.ErrMalformed,
		structio.ErrUnknownFormat,
		structio.ErrUnsupported,
		structio.ErrNoFrames,
		pes.ErrNoPredecessor,
		pes.ErrNegativeImages,
		neb.ErrImageMismatch,
		geom.ErrAtomCountMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
