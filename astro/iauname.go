// Public domain.

package astro

import (
	"fmt"
	"math"
)

// IAUName formats a position-encoded source name.
//
// The name is prefix + HHMMSS.ss + sDDMMSS.ss with no separators, seconds
// rounded to hundredths, and then the final character dropped.  That last
// truncation keeps names within the 24 byte Source_Name column and matches
// names already published.
func IAUName(prefix string, p Pos) string {
	s := prefix + hmsString(p.RA.Rad()*12/math.Pi) + dmsString(p.Dec.Deg())
	return s[:len(s)-1]
}

// hmsString formats hours as HHMMSS.ss.
//
// rounding happens on whole centiseconds so that carries propagate
// into minutes and hours.  24h wraps to 0.
func hmsString(h float64) string {
	cs := int64(math.Floor(h*3600*100 + .5))
	cs %= 24 * 3600 * 100
	if cs < 0 {
		cs += 24 * 3600 * 100
	}
	hh, mm, ss := split(cs)
	return fmt.Sprintf("%02d%02d%05.2f", hh, mm, ss)
}

// dmsString formats signed degrees as sDDMMSS.ss, sign always present.
func dmsString(d float64) string {
	sign := byte('+')
	if math.Signbit(d) {
		sign = '-'
		d = -d
	}
	cs := int64(math.Floor(d*3600*100 + .5))
	if cs == 0 {
		sign = '+'
	}
	dd, mm, ss := split(cs)
	return fmt.Sprintf("%c%02d%02d%05.2f", sign, dd, mm, ss)
}

// split breaks centiseconds into whole units, minutes and seconds.
func split(cs int64) (u, m int64, s float64) {
	u = cs / 360000
	cs -= u * 360000
	m = cs / 6000
	cs -= m * 6000
	return u, m, float64(cs) / 100
}
