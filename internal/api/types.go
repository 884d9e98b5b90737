package api

import (
	"github.com/samcharles93/pespath/internal/jobfile"
	"github.com/samcharles93/pespath/internal/structio"
)

// CreatePathRequest is the body of POST /v1/paths. Points use the job file
// schema; flatten defaults to true.
type CreatePathRequest struct {
	Flatten *bool           `json:"flatten,omitempty"`
	Points  []jobfile.Point `json:"points"`
}

type PathResponse struct {
	ID         string             `json:"id"`
	Object     string             `json:"object"`
	CreatedAt  int64              `json:"created_at"`
	Flatten    bool               `json:"flatten"`
	Lengths    []int              `json:"lengths"`
	FrameCount int                `json:"frame_count"`
	Frames     []structio.Frame   `json:"frames,omitempty"`
	Sequences  [][]structio.Frame `json:"sequences,omitempty"`
}

type DeletePathResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Paths  int    `json:"paths"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}
