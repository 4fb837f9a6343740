// Public domain.

// Package astro, sky geometry generally useful in catalog work.
package astro

import (
	"math"

	"github.com/soniakeys/unit"
)

// Pos is a sky position, equatorial coordinates.
//
// RA is kept in [0, 2π), Dec in [-π/2, π/2].  Both are radians underneath.
type Pos struct {
	RA  unit.RA
	Dec unit.Angle
}

// PosFromDeg constructs a Pos from right ascension and declination in degrees.
func PosFromDeg(ra, dec float64) Pos {
	return Pos{unit.RAFromDeg(ra), unit.AngleFromDeg(dec)}
}

// Deg returns the position in degrees.
func (p Pos) Deg() (ra, dec float64) {
	return p.RA.Deg(), p.Dec.Deg()
}

// Finite reports whether both coordinates are finite numbers.
func (p Pos) Finite() bool {
	r, d := p.RA.Rad(), p.Dec.Rad()
	return !math.IsNaN(r) && !math.IsInf(r, 0) &&
		!math.IsNaN(d) && !math.IsInf(d, 0)
}

// Sepn computes the angular separation between two positions.
//
// Spherical law of cosines.  When the two positions are the same or nearly
// so, rounding can put the cosine slightly above 1 and acos returns NaN.
// That case is a separation of zero, not an error.
func Sepn(a, b Pos) unit.Angle {
	if a == b {
		return 0
	}
	s1, c1 := math.Sincos(a.Dec.Rad())
	s2, c2 := math.Sincos(b.Dec.Rad())
	c := s1*s2 + c1*c2*math.Cos(a.RA.Rad()-b.RA.Rad())
	if c < -1 {
		return math.Pi
	}
	d := math.Acos(c)
	if math.IsNaN(d) {
		return 0
	}
	return unit.Angle(d)
}

// SepnS computes separations from each position of ps to p.
func SepnS(ps []Pos, p Pos) []unit.Angle {
	s := make([]unit.Angle, len(ps))
	for i, q := range ps {
		s[i] = Sepn(q, p)
	}
	return s
}

// MinSepn returns the smallest separation from any of ps to p.
//
// +Inf for an empty ps.
func MinSepn(ps []Pos, p Pos) unit.Angle {
	min := unit.Angle(math.Inf(1))
	for _, q := range ps {
		if d := Sepn(q, p); d < min {
			min = d
		}
	}
	return min
}

// Within returns the positions of ps strictly closer to p than r.
func Within(ps []Pos, p Pos, r unit.Angle) []Pos {
	var w []Pos
	for _, q := range ps {
		if Sepn(q, p) < r {
			w = append(w, q)
		}
	}
	return w
}
