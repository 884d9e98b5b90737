package structio

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is the JSON shape of one configuration.
type Frame struct {
	Symbols   []string          `json:"symbols"`
	Positions [][3]float64      `json:"positions"`
	Energy    *float64          `json:"energy,omitempty"`
	Info      map[string]string `json:"info,omitempty"`
}

type document struct {
	Frames []Frame `json:"frames"`
}

// FrameOf converts a configuration to its JSON shape.
func FrameOf(a *atoms.Atoms) Frame {
	f := Frame{
		Symbols:   a.Symbols,
		Positions: make([][3]float64, len(a.Positions)),
		Energy:    a.Energy,
		Info:      a.Info,
	}
	for i, p := range a.Positions {
		f.Positions[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return f
}

// Atoms converts the JSON shape back to a configuration.
func (f Frame) Atoms() (*atoms.Atoms, error) {
	pos := make([]r3.Vec, len(f.Positions))
	for i, p := range f.Positions {
		pos[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	a, err := atoms.New(f.Symbols, pos)
	if err != nil {
		return nil, err
	}
	if f.Energy != nil {
		e := *f.Energy
		a.Energy = &e
	}
	a.Info = f.Info
	return a, nil
}

func decodeJSON(r io.Reader) ([]*atoms.Atoms, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make([]*atoms.Atoms, 0, len(doc.Frames))
	for i, f := range doc.Frames {
		a, err := f.Atoms()
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d: %v", ErrMalformed, i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func encodeJSON(w io.Writer, frames []*atoms.Atoms) error {
	doc := document{Frames: make([]Frame, len(frames))}
	for i, a := range frames {
		doc.Frames[i] = FrameOf(a)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
