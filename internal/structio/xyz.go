package structio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/samcharles93/pespath/internal/atoms"
	"gonum.org/v1/gonum/spatial/r3"
)

const energyKey = "energy"

// decodeXYZ reads concatenated xyz frames. The comment line may carry
// key=value pairs; "energy" fills the energy slot and the rest go to Info.
func decodeXYZ(r io.Reader) ([]*atoms.Atoms, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return sc.Text(), true
	}

	var frames []*atoms.Atoms
	for {
		header, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(header) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil || n < 0 {
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected atom count, got %q", header)}
		}
		comment, ok := next()
		if !ok {
			return nil, &ParseError{Line: line, Msg: "missing comment line"}
		}

		symbols := make([]string, 0, n)
		positions := make([]r3.Vec, 0, n)
		for i := 0; i < n; i++ {
			text, ok := next()
			if !ok {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected %d atoms, found %d", n, i)}
			}
			fields := strings.Fields(text)
			if len(fields) < 4 {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("expected symbol and 3 coordinates, got %q", text)}
			}
			var xyz [3]float64
			for k := 0; k < 3; k++ {
				v, err := strconv.ParseFloat(fields[k+1], 64)
				if err != nil {
					return nil, &ParseError{Line: line, Msg: fmt.Sprintf("bad coordinate %q", fields[k+1])}
				}
				xyz[k] = v
			}
			symbols = append(symbols, fields[0])
			positions = append(positions, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		}

		a := &atoms.Atoms{Symbols: symbols, Positions: positions}
		info := parseComment(comment)
		if v, ok := info[energyKey]; ok {
			if e, err := strconv.ParseFloat(v, 64); err == nil {
				a.Energy = &e
				delete(info, energyKey)
			}
		}
		if len(info) > 0 {
			a.Info = info
		}
		frames = append(frames, a)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// parseComment extracts key=value pairs; values may be double-quoted. A
// comment without any pair is kept whole under "comment".
func parseComment(s string) map[string]string {
	out := make(map[string]string)
	rest := strings.TrimSpace(s)
	found := false
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		sp := strings.IndexAny(rest, " \t")
		if eq <= 0 || (sp >= 0 && sp < eq) {
			if sp < 0 {
				break
			}
			rest = strings.TrimSpace(rest[sp:])
			continue
		}
		key := rest[:eq]
		rest = rest[eq+1:]
		var val string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				val, rest = rest[1:], ""
			} else {
				val, rest = rest[1:end+1], rest[end+2:]
			}
		} else if i := strings.IndexAny(rest, " \t"); i >= 0 {
			val, rest = rest[:i], rest[i:]
		} else {
			val, rest = rest, ""
		}
		out[key] = val
		found = true
		rest = strings.TrimSpace(rest)
	}
	if !found && strings.TrimSpace(s) != "" {
		out["comment"] = strings.TrimSpace(s)
	}
	return out
}

func encodeXYZ(w io.Writer, frames []*atoms.Atoms) error {
	for _, a := range frames {
		if _, err := fmt.Fprintf(w, "%d\n%s\n", a.Len(), formatComment(a)); err != nil {
			return err
		}
		for i, s := range a.Symbols {
			p := a.Positions[i]
			if _, err := fmt.Fprintf(w, "%-2s %15.8f %15.8f %15.8f\n", s, p.X, p.Y, p.Z); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatComment(a *atoms.Atoms) string {
	var parts []string
	if a.Energy != nil {
		parts = append(parts, energyKey+"="+strconv.FormatFloat(*a.Energy, 'g', -1, 64))
	}
	keys := make([]string, 0, len(a.Info))
	for k := range a.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := a.Info[k]
		if strings.ContainsAny(v, " \t") || v == "" {
			v = `"` + v + `"`
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}
