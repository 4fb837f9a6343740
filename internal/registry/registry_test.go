// Public domain.

package registry_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/mosaiccat/astro"
	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/internal/registry"
	"github.com/soniakeys/mosaiccat/noise"
)

// images is an in-memory registry.ImageReader.
type images struct {
	centers map[string]astro.Pos
	planes  map[string]noise.Plane
	reads   int
}

func (im *images) Center(path string) (astro.Pos, error) {
	c, ok := im.centers[path]
	if !ok {
		return astro.Pos{}, &errors.HeaderError{Path: path, Keyword: "CRVAL1"}
	}
	return c, nil
}

func (im *images) Plane(path string) (noise.Plane, error) {
	im.reads++
	p, ok := im.planes[path]
	if !ok {
		return noise.Plane{}, os.ErrNotExist
	}
	// callers may modify the pixels
	p.Pix = append([]float64{}, p.Pix...)
	return p, nil
}

func (im *images) Exists(path string) bool {
	_, ok := im.centers[path]
	return ok
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "P1", "mosaic.cat.fits"))
	touch(t, filepath.Join(root, "P1", "mosaic-blanked_pybdsm", "run1",
		"catalogues", "mosaic-blanked.pybdsm.gaul.FITS"))
	touch(t, filepath.Join(root, "P2", "mosaic.cat.fits"))
	touch(t, filepath.Join(root, "P2", "mosaic.fits"))

	ps, err := registry.Discover([]string{
		filepath.Join(root, "P1"), filepath.Join(root, "P2"),
		filepath.Join(root, "none")}, "")
	require.NoError(t, err)
	require.Len(t, ps, 2)

	assert.Equal(t, "P1", ps[0].ID)
	assert.Equal(t, filepath.Join(root, "P1", "mosaic.cat.fits"), ps[0].Catalog)
	assert.Equal(t, filepath.Join(root, "P1", "mosaic-blanked.fits"), ps[0].Image)
	assert.Equal(t, filepath.Join(root, "P1", "mosaic-blanked_pybdsm", "run1",
		"catalogues", "mosaic-blanked.pybdsm.gaul.FITS"), ps[0].Components)

	assert.Equal(t, "P2", ps[1].ID)
	assert.Empty(t, ps[1].Components)
}

// mapPlane is a 10×10 map with value v in the central window [3, 7) and
// 100 elsewhere.
func mapPlane(v float64) noise.Plane {
	p := noise.Plane{NX: 10, NY: 10, Pix: make([]float64, 100)}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x >= 3 && x < 7 && y >= 3 && y < 7 {
				p.Pix[y*10+x] = v
			} else {
				p.Pix[y*10+x] = 100
			}
		}
	}
	return p
}

func testRegistry(t *testing.T) (*registry.Registry, *images) {
	im := &images{
		centers: map[string]astro.Pos{
			"A/mosaic-blanked.fits": astro.PosFromDeg(180, 50),
			"B/mosaic-blanked.fits": astro.PosFromDeg(183, 50),
			"C/mosaic-blanked.fits": astro.PosFromDeg(200, 50),
			"a1/astromap.fits":      astro.PosFromDeg(180.5, 50),
			"a2/astromap.fits":      astro.PosFromDeg(180.1, 50),
			"c/astromap.fits":       astro.PosFromDeg(200, 50),
		},
		planes: map[string]noise.Plane{
			"a1/astromap.fits": mapPlane(9),
			"a2/astromap.fits": mapPlane(0.4),
		},
	}
	ps := []registry.Pointing{
		{ID: "A", Image: "A/mosaic-blanked.fits"},
		{ID: "B", Image: "B/mosaic-blanked.fits"},
		{ID: "C", Image: "C/mosaic-blanked.fits"},
	}
	r, err := registry.New(context.Background(), im, ps,
		[]string{"a1", "a2", "b", "c"}, registry.Options{})
	require.NoError(t, err)
	return r, im
}

func TestNew(t *testing.T) {
	r, _ := testRegistry(t)
	require.Len(t, r.Pointings, 3)
	ra, dec := r.Pointings[1].Center.Deg()
	assert.InDelta(t, 183, ra, 1e-9)
	assert.InDelta(t, 50, dec, 1e-9)
	assert.Len(t, r.Centers(), 3)
}

func TestNewMissingHeader(t *testing.T) {
	im := &images{}
	_, err := registry.New(context.Background(), im,
		[]registry.Pointing{{ID: "X", Image: "X/mosaic-blanked.fits"}},
		nil, registry.Options{})
	assert.True(t, errors.Is(err, errors.ErrMissingHeader))
}

func TestNewCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := registry.New(ctx, &images{},
		[]registry.Pointing{{ID: "X"}}, nil, registry.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNeighbours(t *testing.T) {
	r, _ := testRegistry(t)
	n := r.Neighbours(r.Pointings[0], registry.NeighbourRadius)
	// A and B, not C 20° away
	require.Len(t, n, 2)
	q := astro.PosFromDeg(182, 50)
	d := registry.NearestDistance(n, q)
	assert.Equal(t, astro.Sepn(r.Pointings[1].Center, q), d)

	// C has no neighbour but itself
	assert.Len(t, r.Neighbours(r.Pointings[2], registry.NeighbourRadius), 1)
	assert.Len(t, r.Neighbours(r.Pointings[2], unit.AngleFromDeg(30)), 3)
}

func TestMedianAstrometricError(t *testing.T) {
	r, im := testRegistry(t)

	// a2 is closer than a1, both within tolerance
	med, err := r.MedianAstrometricError(r.Pointings[0].Center)
	require.NoError(t, err)
	assert.Equal(t, 0.4, med)
	_, err = r.MedianAstrometricError(r.Pointings[0].Center)
	require.NoError(t, err)
	assert.Equal(t, 1, im.reads, "median not cached")

	// B is 3° from any map
	_, err = r.MedianAstrometricError(r.Pointings[1].Center)
	assert.True(t, errors.Is(err, errors.ErrNoCalibration))

	// c has a position but no readable plane
	_, err = r.MedianAstrometricError(r.Pointings[2].Center)
	assert.True(t, errors.Is(err, errors.ErrNoCalibration))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMedianNonFinite(t *testing.T) {
	p := mapPlane(2)
	// half the window NaN
	for y := 3; y < 5; y++ {
		for x := 3; x < 7; x++ {
			p.Pix[y*10+x] = math.NaN()
		}
	}
	im := &images{
		centers: map[string]astro.Pos{
			"P/i.fits":        astro.PosFromDeg(10, 10),
			"m/astromap.fits": astro.PosFromDeg(10, 10.2),
		},
		planes: map[string]noise.Plane{"m/astromap.fits": p},
	}
	r, err := registry.New(context.Background(), im,
		[]registry.Pointing{{ID: "P", Image: "P/i.fits"}},
		[]string{"m"}, registry.Options{})
	require.NoError(t, err)
	med, err := r.MedianAstrometricError(r.Pointings[0].Center)
	require.NoError(t, err)
	// eight zeros, eight twos
	assert.Equal(t, 1., med)
}

func TestMedianInfinite(t *testing.T) {
	for _, inf := range []float64{math.Inf(1), math.Inf(-1)} {
		p := noise.Plane{NX: 10, NY: 10, Pix: make([]float64, 100)}
		for i := range p.Pix {
			p.Pix[i] = 1
		}
		// 9 of the 16 window pixels
		n := 0
		for y := 3; y < 7 && n < 9; y++ {
			for x := 3; x < 7 && n < 9; x++ {
				p.Pix[y*10+x] = inf
				n++
			}
		}
		im := &images{
			centers: map[string]astro.Pos{
				"P/i.fits":        astro.PosFromDeg(10, 10),
				"m/astromap.fits": astro.PosFromDeg(10, 10.2),
			},
			planes: map[string]noise.Plane{"m/astromap.fits": p},
		}
		r, err := registry.New(context.Background(), im,
			[]registry.Pointing{{ID: "P", Image: "P/i.fits"}},
			[]string{"m"}, registry.Options{})
		require.NoError(t, err)
		med, err := r.MedianAstrometricError(r.Pointings[0].Center)
		require.NoError(t, err)
		// nine zeros, seven ones
		assert.Equal(t, 0., med, "%v pixels", inf)
	}
}

func TestAstrometricError(t *testing.T) {
	r, _ := testRegistry(t)
	e, fb := r.AstrometricError(r.Pointings[0].Center)
	assert.False(t, fb)
	assert.Equal(t, 0.4, e)
	e, fb = r.AstrometricError(r.Pointings[1].Center)
	assert.True(t, fb)
	assert.Equal(t, registry.DefaultAstrometricError, e)
}

func TestMapTolerance(t *testing.T) {
	im := &images{
		centers: map[string]astro.Pos{
			"P/i.fits":        astro.PosFromDeg(0, 0),
			"m/astromap.fits": astro.PosFromDeg(0, .7),
		},
		planes: map[string]noise.Plane{"m/astromap.fits": mapPlane(3)},
	}
	ps := []registry.Pointing{{ID: "P", Image: "P/i.fits"}}
	r, err := registry.New(context.Background(), im, ps, []string{"m"},
		registry.Options{})
	require.NoError(t, err)
	_, err = r.MedianAstrometricError(r.Pointings[0].Center)
	assert.Error(t, err, "map outside default tolerance used")

	r, err = registry.New(context.Background(), im, ps, []string{"m"},
		registry.Options{MapTolerance: unit.AngleFromDeg(1), DefaultAstrometricError: 2})
	require.NoError(t, err)
	med, err := r.MedianAstrometricError(r.Pointings[0].Center)
	require.NoError(t, err)
	assert.Equal(t, 3., med)
}
