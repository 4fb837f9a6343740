// Public domain.

// Package assign decides which pointing owns each catalog source.
package assign

import (
	"math"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/mosaiccat/astro"
	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/registry"
)

// Neighbourhood returns the pointing centers near a pointing.
// *registry.Registry implements it.
type Neighbourhood interface {
	Neighbours(p registry.Pointing, radius unit.Angle) []astro.Pos
}

// Extent is the resolved/unresolved classification of a source.
type Extent byte

const (
	Unresolved Extent = 'U'
	Resolved   Extent = 'R'
)

func (e Extent) String() string { return string(rune(e)) }

// Classify flags a source as resolved when its integrated to peak flux
// ratio exceeds 1.483 + 1000.4/snr^3.94, snr being peak flux over island
// rms.
func Classify(s *catalog.Source) Extent {
	ratio := s.TotalFlux / s.PeakFlux
	snr := s.PeakFlux / s.IslRMS
	if ratio > 1.483+1000.4/math.Pow(snr, 3.94) {
		return Resolved
	}
	return Unresolved
}

// AllowList is a set of source ids.
type AllowList map[int64]struct{}

// NewAllowList returns an AllowList of ids.  The result is non-nil even
// for no ids.
func NewAllowList(ids []int64) AllowList {
	a := make(AllowList, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

// KeptSet is the result of assigning one catalog.
//
// Indices are the kept rows in catalog order.  SourceIDs and Extent are
// parallel to Indices.  Extent is informational; nothing downstream uses it.
type KeptSet struct {
	Indices   []int
	Total     int
	SourceIDs []int64
	Extent    []Extent
}

// Len is the number of kept rows.
func (k *KeptSet) Len() int { return len(k.Indices) }

// Assigner filters catalogs of one run.
type Assigner struct {
	Registry        Neighbourhood
	NeighbourRadius unit.Angle
}

// Assign returns the rows of srcs that pointing p keeps.
//
// With a nil allow list a source is kept unless some pointing near p is
// strictly closer to it than p is.  The nearby pointings include p itself,
// so a source equidistant from p and another pointing is kept by both.
// With a non-nil allow list a source is kept iff its Source_id is listed.
func (a *Assigner) Assign(p registry.Pointing, srcs []catalog.Source, allow AllowList) *KeptSet {
	k := &KeptSet{Total: len(srcs)}
	var near []astro.Pos
	if allow == nil {
		r := a.NeighbourRadius
		if r == 0 {
			r = registry.NeighbourRadius
		}
		near = a.Registry.Neighbours(p, r)
	}
	for i := range srcs {
		s := &srcs[i]
		if allow == nil {
			pos := s.Pos()
			if registry.NearestDistance(near, pos) < astro.Sepn(p.Center, pos) {
				continue
			}
		} else if _, ok := allow[s.SourceID]; !ok {
			continue
		}
		k.Indices = append(k.Indices, i)
		k.SourceIDs = append(k.SourceIDs, s.SourceID)
		k.Extent = append(k.Extent, Classify(s))
	}
	return k
}
