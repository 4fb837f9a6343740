// Public domain.

// Package colbuild turns kept catalog sources into output rows.
package colbuild

import (
	"math"

	"github.com/soniakeys/mosaiccat/astro"
	"github.com/soniakeys/mosaiccat/internal/assign"
	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/internal/region"
)

// Defaults.
const (
	Prefix    = "ILTJ"
	FluxScale = .2
)

// Builder builds output rows.
type Builder struct {
	Prefix    string  // survey prefix of source names
	FluxScale float64 // fractional flux scale error
}

// New returns a Builder with default settings.
func New() *Builder {
	return &Builder{Prefix: Prefix, FluxScale: FluxScale}
}

// quad combines independent errors.
func quad(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}

// Build returns output rows for the kept sources of one pointing.
//
// Source lists are named by their own positions.  Component lists are
// named by the position of the parent source, looked up by Source_id in
// parents.  astromErr, arcsec, is combined in quadrature with the
// catalog position errors, and the flux scale error with the catalog flux
// errors.  A row that cannot be named is an *errors.RowError.
func (b *Builder) Build(kind catalog.Kind, pointingID string, srcs []catalog.Source,
	kept *assign.KeptSet, parents map[int64]astro.Pos, astromErr float64) ([]catalog.Row, error) {
	rows := make([]catalog.Row, 0, kept.Len())
	ae := catalog.ArcsecToDeg(astromErr)
	for _, i := range kept.Indices {
		s := &srcs[i]
		pos := s.Pos()
		if kind == catalog.ComponentList {
			var ok bool
			if pos, ok = parents[s.SourceID]; !ok {
				return nil, &errors.RowError{Pointing: pointingID, Index: i,
					Message: "no parent source"}
			}
		}
		if !pos.Finite() {
			return nil, &errors.RowError{Pointing: pointingID, Index: i,
				Message: "position not finite"}
		}
		r := catalog.Row{
			SourceName: astro.IAUName(b.Prefix, pos),
			RA:         s.RA,
			ERA:        catalog.DegToArcsec(s.ERA),
			ERATot:     catalog.DegToArcsec(quad(s.ERA, ae)),
			Dec:        s.Dec,
			EDec:       catalog.DegToArcsec(s.EDec),
			EDecTot:    catalog.DegToArcsec(quad(s.EDec, ae)),

			PeakFlux:      catalog.ToMilli(s.PeakFlux),
			EPeakFlux:     catalog.ToMilli(s.EPeakFlux),
			EPeakFluxTot:  catalog.ToMilli(quad(s.EPeakFlux, b.FluxScale*s.PeakFlux)),
			TotalFlux:     catalog.ToMilli(s.TotalFlux),
			ETotalFlux:    catalog.ToMilli(s.ETotalFlux),
			ETotalFluxTot: catalog.ToMilli(quad(s.ETotalFlux, b.FluxScale*s.TotalFlux)),

			Maj:    catalog.DegToArcsec(s.Maj),
			EMaj:   catalog.DegToArcsec(s.EMaj),
			Min:    catalog.DegToArcsec(s.Min),
			EMin:   catalog.DegToArcsec(s.EMin),
			DCMaj:  catalog.DegToArcsec(s.DCMaj),
			EDCMaj: catalog.DegToArcsec(s.EDCMaj),
			DCMin:  catalog.DegToArcsec(s.DCMin),
			EDCMin: catalog.DegToArcsec(s.EDCMin),
			PA:     s.PA,
			EPA:    s.EPA,
			DCPA:   s.DCPA,
			EDCPA:  s.EDCPA,

			IslRMS:   catalog.ToMilli(s.IslRMS),
			SCode:    s.SCode,
			MosaicID: pointingID,
			IslID:    s.IslID,
		}
		if kind == catalog.ComponentList {
			r.GausID = s.GausID
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Parents maps Source_id to position for the sources of a source list.
func Parents(srcs []catalog.Source) map[int64]astro.Pos {
	m := make(map[int64]astro.Pos, len(srcs))
	for i := range srcs {
		m[srcs[i].SourceID] = srcs[i].Pos()
	}
	return m
}

// Shapes returns region shapes for the kept sources, in catalog units.
func Shapes(srcs []catalog.Source, kept *assign.KeptSet) []region.Shape {
	sh := make([]region.Shape, len(kept.Indices))
	for j, i := range kept.Indices {
		s := &srcs[i]
		sh[j] = region.Shape{RA: s.RA, Dec: s.Dec, Maj: s.Maj, Min: s.Min, PA: s.PA}
	}
	return sh
}
