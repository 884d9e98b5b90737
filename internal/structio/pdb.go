package structio

import (
	"fmt"
	"io"
	"strings"

	"github.com/samcharles93/pespath/internal/atoms"
)

// encodePDB writes one MODEL record per frame, which most molecular viewers
// play back as an animation.
func encodePDB(w io.Writer, frames []*atoms.Atoms) error {
	for m, a := range frames {
		if _, err := fmt.Fprintf(w, "MODEL     %4d\n", m+1); err != nil {
			return err
		}
		for i, s := range a.Symbols {
			p := a.Positions[i]
			name := strings.ToUpper(s)
			if len(name) > 4 {
				name = name[:4]
			}
			if _, err := fmt.Fprintf(w, "HETATM%5d %-4s MOL     1    %8.3f%8.3f%8.3f  1.00  0.00          %2s\n",
				(i+1)%100000, name, p.X, p.Y, p.Z, elementField(s)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "ENDMDL\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "END\n")
	return err
}

func elementField(s string) string {
	s = strings.ToUpper(s)
	if len(s) > 2 {
		s = s[:2]
	}
	return s
}
