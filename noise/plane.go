// Public domain.

package noise

import (
	"math"
	"slices"
)

// Plane is a two dimensional image, row major with NX pixels per row.
type Plane struct {
	NX, NY int
	Pix    []float64
}

// At returns the pixel at column x, row y.
func (p Plane) At(x, y int) float64 {
	return p.Pix[y*p.NX+x]
}

// Window returns the pixels of columns [x0, x1) and rows [y0, y1),
// limits clamped to the plane.
func (p Plane) Window(x0, x1, y0, y1 int) []float64 {
	x0, x1 = clamp(x0, p.NX), clamp(x1, p.NX)
	y0, y1 = clamp(y0, p.NY), clamp(y1, p.NY)
	if x1 <= x0 || y1 <= y0 {
		return nil
	}
	w := make([]float64, 0, (x1-x0)*(y1-y0))
	for y := y0; y < y1; y++ {
		w = append(w, p.Pix[y*p.NX+x0:y*p.NX+x1]...)
	}
	return w
}

// Center returns the central box×box window, box limited to the size of
// the plane.
func (p Plane) Center(box int) []float64 {
	box = min(box, p.NX, p.NY)
	x0 := p.NX/2 - box/2
	y0 := p.NY/2 - box/2
	return p.Window(x0, x0+box, y0, y0+box)
}

func clamp(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i > n:
		return n
	}
	return i
}

// Finite returns the finite values of x in a new slice.
func Finite(x []float64) []float64 {
	f := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			f = append(f, v)
		}
	}
	return f
}

// Median returns the median of x, the mean of the middle pair when len(x)
// is even.  NaN for empty x.  x is not modified.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	s := slices.Clone(x)
	slices.Sort(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return s[n/2-1]/2 + s[n/2]/2
}
