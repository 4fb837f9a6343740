// Public domain.

package noise_test

import (
	"math"
	"testing"

	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/noise"
)

func normal(seed uint64, n int, sigma float64) []float64 {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(seed)
	x := make([]float64, n)
	for i := range x {
		x[i] = rnd.NormFloat64() * sigma
	}
	return x
}

func TestClipRMSGaussian(t *testing.T) {
	for _, sigma := range []float64{.003, 2, 150} {
		rms, err := noise.ClipRMS(normal(3, 100000, sigma), noise.NIter, noise.Eps)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(rms-sigma)/sigma > .01 {
			t.Errorf("σ %g: rms %g", sigma, rms)
		}
	}
}

func TestClipRMSContaminated(t *testing.T) {
	x := normal(5, 100000, 1)
	// 1% of the sample far out
	for i := 0; i < len(x)/100; i++ {
		x[i] = 100
	}
	rms, err := noise.ClipRMS(x, noise.NIter, noise.Eps)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rms-1) > .05 {
		t.Fatal("rms", rms)
	}
}

func TestClipRMSNoConvergence(t *testing.T) {
	x := normal(7, 1000, 2)
	_, err := noise.ClipRMS(x, 1, noise.Eps)
	if !errors.Is(err, errors.ErrConvergence) {
		t.Fatal("want convergence error, got", err)
	}
	var ce *errors.ConvergenceError
	if !errors.As(err, &ce) || ce.Iter != 1 {
		t.Fatal(err)
	}
	rms, ok := noise.ClipRMSLenient(x, 1, noise.Eps)
	if ok {
		t.Fatal("lenient clip reported convergence")
	}
	if math.Abs(rms-2) > .2 {
		t.Fatal("lenient rms", rms)
	}
	if _, err := noise.ClipRMS(nil, noise.NIter, noise.Eps); err == nil {
		t.Fatal("empty sample converged")
	}
}

func TestImageRMS(t *testing.T) {
	p := noise.Plane{NX: 300, NY: 200, Pix: normal(9, 300*200, 1.5)}
	p.Pix[5] = math.NaN()
	p.Pix[100*300+150] = math.NaN()
	rms, err := noise.ImageRMS(p, noise.Box, noise.NIter, noise.Eps)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rms-1.5) > .03 {
		t.Fatal(rms)
	}
}

func TestArrayRMS(t *testing.T) {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(11)
	c := noise.NewClipper(rnd)
	c.SampleSize = 5000
	x := normal(13, 50000, 4)
	x[0] = math.Inf(1)
	rms, ok := c.ArrayRMS(x)
	if !ok {
		t.Fatal("no convergence")
	}
	if math.Abs(rms-4) > .2 {
		t.Fatal(rms)
	}
}

func TestSample(t *testing.T) {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(17)
	x := make([]float64, 100)
	for i := range x {
		x[i] = float64(i)
	}
	s := noise.Sample(rnd, x, 10)
	if len(s) != 10 {
		t.Fatal(len(s))
	}
	seen := map[float64]bool{}
	for _, v := range s {
		if seen[v] {
			t.Fatal("duplicate", v)
		}
		seen[v] = true
	}
	if len(noise.Sample(rnd, x[:5], 10)) != 5 {
		t.Fatal("short sample")
	}
}
