// Public domain.

// Package registry holds the pointings of a run and the astrometric error
// maps that calibrate them.
//
// A Registry is built once and is read-only afterwards.
package registry

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/mosaiccat/astro"
	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/noise"
)

// File names below mosaic and pointing directories.
const (
	DefaultCatalogGlob = "*cat.fits"
	ComponentGlob      = "mosaic-blanked_pybdsm/*/catalogues/mosaic-blanked.pybdsm.gaul.FITS"
	AstroMapFile       = "astromap.fits"
)

// Defaults.
var (
	NeighbourRadius = unit.AngleFromDeg(5)
	MapTolerance    = unit.AngleFromDeg(.6)
)

// DefaultAstrometricError substitutes for a missing calibration, arcsec.
const DefaultAstrometricError = 5.

// Pointing is one mosaic, its catalogs and its sky center.
type Pointing struct {
	ID         string    // name of the mosaic directory
	Center     astro.Pos // filled in by New
	Catalog    string    // source list
	Components string    // component list, empty if none was found
	Image      string    // image carrying the pointing center
}

// ImageReader reads the image files a registry needs.
type ImageReader interface {
	Center(path string) (astro.Pos, error)
	Plane(path string) (noise.Plane, error)
	Exists(path string) bool
}

// Discover finds the pointings under the mosaic directories.
//
// Each file matching glob in a mosaic directory is a source list.  The
// image is the catalog path with ".cat.fits" replaced by "-blanked.fits".
// The component list is the first match of ComponentGlob below the same
// directory.
func Discover(mosaicDirs []string, glob string) ([]Pointing, error) {
	if glob == "" {
		glob = DefaultCatalogGlob
	}
	var ps []Pointing
	for _, d := range mosaicDirs {
		cats, err := filepath.Glob(filepath.Join(d, glob))
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", d, err)
		}
		for _, c := range cats {
			dir := filepath.Dir(c)
			p := Pointing{
				ID:      filepath.Base(dir),
				Catalog: c,
				Image:   strings.TrimSuffix(c, ".cat.fits") + "-blanked.fits",
			}
			g, err := filepath.Glob(filepath.Join(dir, ComponentGlob))
			if err != nil {
				return nil, fmt.Errorf("discover %s: %w", d, err)
			}
			if len(g) > 0 {
				p.Components = g[0]
			}
			ps = append(ps, p)
		}
	}
	return ps, nil
}

type astroMap struct {
	path   string
	center astro.Pos
}

// Options configure a Registry.  Zero values select the package defaults.
type Options struct {
	MapTolerance            unit.Angle
	DefaultAstrometricError float64 // arcsec
	Log                     *zerolog.Logger
}

// Registry answers proximity and calibration queries about pointings.
type Registry struct {
	Pointings []Pointing

	centers []astro.Pos
	maps    []astroMap
	imgs    ImageReader
	opt     Options
	log     zerolog.Logger
	medians *cache.Cache
}

// New reads the center of each pointing and of each astrometric error
// map.
//
// A pointing image without a usable center is fatal.  Pointing directories
// without an astrometric map are skipped, as are maps whose header cannot
// be read.
func New(ctx context.Context, imgs ImageReader, pointings []Pointing, astroDirs []string, opt Options) (*Registry, error) {
	if opt.MapTolerance == 0 {
		opt.MapTolerance = MapTolerance
	}
	if opt.DefaultAstrometricError == 0 {
		opt.DefaultAstrometricError = DefaultAstrometricError
	}
	r := &Registry{
		Pointings: make([]Pointing, len(pointings)),
		centers:   make([]astro.Pos, len(pointings)),
		imgs:      imgs,
		opt:       opt,
		log:       zerolog.Nop(),
		medians:   cache.New(cache.NoExpiration, 0),
	}
	if opt.Log != nil {
		r.log = *opt.Log
	}
	copy(r.Pointings, pointings)
	for i := range r.Pointings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := &r.Pointings[i]
		c, err := imgs.Center(p.Image)
		if err != nil {
			return nil, fmt.Errorf("pointing %s: %w", p.ID, err)
		}
		if !c.Finite() {
			return nil, &errors.HeaderError{Path: p.Image, Keyword: "CRVAL1/CRVAL2",
				Err: errors.New("not finite")}
		}
		p.Center = c
		r.centers[i] = c
	}
	for _, d := range astroDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(d, AstroMapFile)
		if !imgs.Exists(path) {
			continue
		}
		c, err := imgs.Center(path)
		if err != nil || !c.Finite() {
			r.log.Warn().Err(err).Str("map", path).Msg("astrometric map without position skipped")
			continue
		}
		r.maps = append(r.maps, astroMap{path, c})
	}
	r.log.Debug().Int("pointings", len(r.Pointings)).Int("maps", len(r.maps)).
		Msg("registry built")
	return r, nil
}

// Centers returns the centers of all pointings in registry order.
func (r *Registry) Centers() []astro.Pos {
	return r.centers
}

// Neighbours returns the pointing centers strictly within radius of p's
// center, p's own center included.
func (r *Registry) Neighbours(p Pointing, radius unit.Angle) []astro.Pos {
	return astro.Within(r.centers, p.Center, radius)
}

// NearestDistance returns the smallest separation between q and any of
// cands.
func NearestDistance(cands []astro.Pos, q astro.Pos) unit.Angle {
	return astro.MinSepn(cands, q)
}

// nearestMap returns the map closest to center, if it is strictly within
// tolerance.
func (r *Registry) nearestMap(center astro.Pos) (astroMap, bool) {
	best := -1
	var bestSep unit.Angle
	for i, m := range r.maps {
		s := astro.Sepn(m.center, center)
		if s < r.opt.MapTolerance && (best < 0 || s < bestSep) {
			best, bestSep = i, s
		}
	}
	if best < 0 {
		return astroMap{}, false
	}
	return r.maps[best], true
}

// MedianAstrometricError returns the median of the central window of the
// astrometric error map nearest center, arcsec.
//
// The window spans n/2-n/5 to n/2+n/5 on both axes.  Non-finite pixels
// count as 0.  When no map
// lies within tolerance, or the map cannot be used, the error is a
// *errors.CalibrationError.  Medians are computed once per map.
func (r *Registry) MedianAstrometricError(center astro.Pos) (float64, error) {
	ra, dec := center.Deg()
	m, ok := r.nearestMap(center)
	if !ok {
		return 0, &errors.CalibrationError{RA: ra, Dec: dec}
	}
	if v, ok := r.medians.Get(m.path); ok {
		return v.(float64), nil
	}
	p, err := r.imgs.Plane(m.path)
	if err != nil {
		return 0, &errors.CalibrationError{RA: ra, Dec: dec, Path: m.path, Err: err}
	}
	w := p.Window(p.NX/2-p.NX/5, p.NX/2+p.NX/5, p.NY/2-p.NY/5, p.NY/2+p.NY/5)
	if len(w) == 0 {
		return 0, &errors.CalibrationError{RA: ra, Dec: dec, Path: m.path,
			Err: errors.New("empty window")}
	}
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			w[i] = 0
		}
	}
	med := noise.Median(w)
	r.medians.Set(m.path, med, cache.NoExpiration)
	return med, nil
}

// AstrometricError returns the astrometric error to combine with catalog
// position errors for a pointing, arcsec.
//
// The map median is used when there is one.  Otherwise the configured
// default is used, fallback is true, and a warning is logged.
func (r *Registry) AstrometricError(center astro.Pos) (arcsec float64, fallback bool) {
	med, err := r.MedianAstrometricError(center)
	if err == nil {
		return med, false
	}
	r.log.Warn().Err(err).Float64("default_arcsec", r.opt.DefaultAstrometricError).
		Msg("using default astrometric error")
	return r.opt.DefaultAstrometricError, true
}
