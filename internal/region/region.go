// Public domain.

// Package region writes DS9 region files.
package region

import (
	"bufio"
	"io"
	"math"
	"strconv"
)

const header = `# Region file format: DS9 version 4.0
global color=green font="helvetica 10 normal" select=1 highlite=1 edit=1 move=1 delete=1 include=1 fixed=0 source
fk5
`

// Shape is an elliptical source outline, all values in degrees.
type Shape struct {
	RA, Dec  float64
	Maj, Min float64
	PA       float64
}

// Write writes a region file with one primitive per shape.
//
// Shapes with a finite major axis are ellipses, rotated by PA+90.  Others
// are drawn as a fixed 5" box.  Values are written as given, in shortest
// round-trip form.
func Write(w io.Writer, shapes []Shape) error {
	b := bufio.NewWriter(w)
	b.WriteString(header)
	for _, s := range shapes {
		if !math.IsNaN(s.Maj) && !math.IsInf(s.Maj, 0) {
			b.WriteString("ellipse(")
			b.WriteString(num(s.RA) + "," + num(s.Dec) + ",")
			b.WriteString(num(s.Maj) + "," + num(s.Min) + ",")
			b.WriteString(num(s.PA+90) + ")\n")
		} else {
			b.WriteString("box(" + num(s.RA) + "," + num(s.Dec) + `,5.0",5.0",0.0)` + "\n")
		}
	}
	return b.Flush()
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
