// Public domain.

package noise

import (
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/soniakeys/mosaiccat/internal/errors"
)

// Defaults for iterative clipping.
const (
	NIter        = 20
	LenientNIter = 25
	Eps          = 1e-6
	SampleSize   = 500000
	Box          = 1000
)

// ClipRMS is the strict clipped rms.
//
// Starting from an assumed previous rms of 1, it repeatedly takes the
// population standard deviation of x and keeps only values within 5σ of
// zero.  It returns σ as soon as the relative change from the previous
// iteration is below eps.  Failure to converge in niter iterations is a
// *errors.ConvergenceError.
func ClipRMS(x []float64, niter int, eps float64) (float64, error) {
	rms, ok, err := clip(x, niter, eps)
	if !ok {
		return rms, err
	}
	return rms, nil
}

// ClipRMSLenient runs the same iteration as ClipRMS but returns the last
// estimate with converged false rather than failing.
func ClipRMSLenient(x []float64, niter int, eps float64) (rms float64, converged bool) {
	rms, converged, _ = clip(x, niter, eps)
	return
}

func clip(x []float64, niter int, eps float64) (float64, bool, error) {
	old := 1.
	rms := math.NaN()
	delta := math.NaN()
	s := x
	for i := 0; i < niter; i++ {
		if len(s) == 0 {
			return rms, false, &errors.ConvergenceError{
				Op: "clip rms", Iter: i, Last: rms, Delta: delta}
		}
		rms = stat.PopStdDev(s, nil)
		delta = math.Abs(old-rms) / rms
		if delta < eps {
			return rms, true, nil
		}
		lim := 5 * rms
		k := make([]float64, 0, len(s))
		for _, v := range s {
			if math.Abs(v) < lim {
				k = append(k, v)
			}
		}
		s = k
		old = rms
	}
	return rms, false, &errors.ConvergenceError{
		Op: "clip rms", Iter: niter, Last: rms, Delta: delta}
}

// ImageRMS is the background rms of an image.
//
// The central box×box window is taken, NaN pixels dropped, and the strict
// clip applied.
func ImageRMS(p Plane, box, niter int, eps float64) (float64, error) {
	return ClipRMS(Finite(p.Center(box)), niter, eps)
}

// Clipper holds parameters for lenient clipping of large arrays.
type Clipper struct {
	NIter      int
	Eps        float64
	SampleSize int
	Rand       *xrand.Rand
}

// NewClipper returns a Clipper with default parameters.
func NewClipper(rnd *xrand.Rand) *Clipper {
	return &Clipper{
		NIter:      LenientNIter,
		Eps:        Eps,
		SampleSize: SampleSize,
		Rand:       rnd,
	}
}

// ArrayRMS is the lenient clipped rms of a possibly large array.
//
// Non-finite values are dropped.  Arrays longer than SampleSize are first
// reduced to a random sample of SampleSize values drawn without
// replacement.  converged reports whether the iteration settled.
func (c *Clipper) ArrayRMS(x []float64) (rms float64, converged bool) {
	s := Finite(x)
	if c.SampleSize > 0 && len(s) > c.SampleSize {
		s = Sample(c.Rand, s, c.SampleSize)
	}
	return ClipRMSLenient(s, c.NIter, c.Eps)
}

// Sample returns n values of x chosen at random without replacement.
//
// x is permuted in place up to n.  n >= len(x) returns all of x.
func Sample(rnd *xrand.Rand, x []float64, n int) []float64 {
	if n >= len(x) {
		return x
	}
	for i := 0; i < n; i++ {
		j := i + rnd.Intn(len(x)-i)
		x[i], x[j] = x[j], x[i]
	}
	return x[:n]
}
