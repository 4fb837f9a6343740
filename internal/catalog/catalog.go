// Public domain.

// Package catalog defines the records read from detection catalogs and
// written to merged catalogs.
package catalog

import (
	"fmt"

	"github.com/soniakeys/mosaiccat/astro"
)

// Kind distinguishes the two catalog types.
type Kind int

const (
	SourceList    Kind = iota // srl, one row per source
	ComponentList             // gaus, one row per fitted Gaussian
)

var kindNames = [...]string{"srl", "gaus"}

// String returns the file suffix used for the kind, "srl" or "gaus".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of String.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown catalog kind %q", s)
}

// Kinds lists all kinds in processing order.
var Kinds = []Kind{SourceList, ComponentList}

// Source is one row of a detection catalog, in catalog units: degrees for
// positions, shapes and their errors, Jy (or Jy/beam) for fluxes.
type Source struct {
	RA, ERA               float64
	Dec, EDec             float64
	TotalFlux, ETotalFlux float64
	PeakFlux, EPeakFlux   float64
	Maj, EMaj, Min, EMin  float64
	DCMaj, EDCMaj         float64
	DCMin, EDCMin         float64
	PA, EPA, DCPA, EDCPA  float64
	IslRMS                float64
	SCode                 string
	IslID, SourceID       int64
	GausID                int64 // component catalogs only
}

// Pos returns the source position.
func (s *Source) Pos() astro.Pos {
	return astro.PosFromDeg(s.RA, s.Dec)
}

// Row is one row of an output catalog, in output units: degrees for
// positions and position angles, arcseconds for errors and axes, mJy (or
// mJy/beam) for fluxes.
type Row struct {
	SourceName                           string
	RA, ERA, ERATot                      float64
	Dec, EDec, EDecTot                   float64
	PeakFlux, EPeakFlux, EPeakFluxTot    float64
	TotalFlux, ETotalFlux, ETotalFluxTot float64
	Maj, EMaj, Min, EMin                 float64
	DCMaj, EDCMaj, DCMin, EDCMin         float64
	PA, EPA, DCPA, EDCPA                 float64
	IslRMS                               float64
	SCode                                string
	MosaicID                             string
	IslID                                int64
	GausID                               int64 // component catalogs only
}
