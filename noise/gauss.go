// Public domain.

package noise

import (
	"fmt"
	"math"
	"slices"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Defaults for histogram fitting.
const (
	Bins          = 100
	FitIterations = 1000
	NoiseSample   = 10000
	NoiseClip     = 50

	// a fit whose gradient has fallen by this factor from the starting
	// point is at its minimum, even if the line search gave up there
	GradientReduction = 1e-4
)

// GaussFit is the result of fitting a Gaussian to a histogram.
//
// Params are offset, amplitude, center and width with center and width in
// units of bins.  Width is the fitted width in units of the sample.
type GaussFit struct {
	Width     float64
	Params    [4]float64
	Converged bool
	Status    string
}

// FitGaussianWidth fits c0 + c1 exp(-(t-c2)²/(2 c3²)) to a histogram of x.
//
// x is binned into bins equal width bins spanning its range, t is the bin
// index.  The fit is seeded with offset 0, the peak count and its bin, and
// the standard deviation of x in bins.  maxIter limits optimizer
// iterations, 0 for FitIterations.  An optimizer that stops short returns
// the best parameters found with Converged false; errors are only for
// samples that cannot be binned.
func FitGaussianWidth(x []float64, bins, maxIter int) (GaussFit, error) {
	if len(x) == 0 {
		return GaussFit{}, fmt.Errorf("gaussian fit: empty sample")
	}
	if bins < 1 {
		return GaussFit{}, fmt.Errorf("gaussian fit: %d bins", bins)
	}
	if maxIter <= 0 {
		maxIter = FitIterations
	}
	s := slices.Clone(x)
	slices.Sort(s)
	lo, hi := s[0], s[len(s)-1]
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return GaussFit{}, fmt.Errorf("gaussian fit: non-finite sample")
	}
	if lo == hi {
		lo -= .5
		hi += .5
	}
	div := floats.Span(make([]float64, bins+1), lo, hi)
	binWidth := div[1] - div[0]
	// stat.Histogram wants the last divider strictly above the maximum
	div[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, div, s, nil)

	peak := floats.MaxIdx(counts)
	init := []float64{0, counts[peak], float64(peak),
		stat.PopStdDev(s, nil) / binWidth}

	p := optimize.Problem{
		Func: func(c []float64) float64 {
			var ss float64
			for t, y := range counts {
				r := y - gauss(c, float64(t))
				ss += r * r
			}
			return ss
		},
		Grad: func(g, c []float64) {
			for i := range g {
				g[i] = 0
			}
			for t, y := range counts {
				ft := float64(t)
				d := ft - c[2]
				e := math.Exp(-d * d / (2 * c[3] * c[3]))
				r := -2 * (y - c[0] - c[1]*e)
				g[0] += r
				g[1] += r * e
				g[2] += r * c[1] * e * d / (c[3] * c[3])
				g[3] += r * c[1] * e * d * d / (c[3] * c[3] * c[3])
			}
		},
	}
	x0 := slices.Clone(init)
	res, err := optimize.Minimize(p, init, &optimize.Settings{
		MajorIterations: maxIter,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-10, Relative: 1e-10, Iterations: 5},
	}, &optimize.BFGS{})
	if res == nil {
		// problem rejected before any evaluation
		return GaussFit{}, fmt.Errorf("gaussian fit: %w", err)
	}
	f := GaussFit{
		Converged: err == nil && !res.Status.Early(),
		Status:    res.Status.String(),
	}
	if !f.Converged && res.Status == optimize.Failure {
		// line search failure at a stationary point
		g0 := make([]float64, len(x0))
		g1 := make([]float64, len(x0))
		p.Grad(g0, x0)
		p.Grad(g1, res.X)
		f.Converged = floats.Norm(g1, 2) <= GradientReduction*floats.Norm(g0, 2)
	}
	copy(f.Params[:], res.X)
	f.Width = math.Abs(f.Params[3]) * binWidth
	return f, nil
}

func gauss(c []float64, t float64) float64 {
	d := t - c[2]
	return c[0] + c[1]*math.Exp(-d*d/(2*c[3]*c[3]))
}

// ImageNoise estimates the noise of an image from a Gaussian fit.
//
// n pixels are drawn at random (NoiseSample for n <= 0), those not within
// NoiseClip·estNoise of zero are dropped, and the rest histogrammed into
// bins bins.
func ImageNoise(p Plane, estNoise float64, n, bins int, rnd *xrand.Rand) (GaussFit, error) {
	if n <= 0 {
		n = NoiseSample
	}
	s := Sample(rnd, slices.Clone(p.Pix), n)
	lim := NoiseClip * estNoise
	k := s[:0]
	for _, v := range s {
		if math.Abs(v) < lim {
			k = append(k, v)
		}
	}
	return FitGaussianWidth(k, bins, 0)
}
