// Public domain.

package pipeline

import (
	"io"
	"path/filepath"

	"github.com/soniakeys/mosaiccat/astro"
	"github.com/soniakeys/mosaiccat/internal/assign"
	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/colbuild"
	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/internal/merge"
	"github.com/soniakeys/mosaiccat/internal/region"
	"github.com/soniakeys/mosaiccat/internal/registry"
	"github.com/soniakeys/mosaiccat/noise"
)

type worker struct {
	rc  *RunContext
	reg *registry.Registry
	asg *assign.Assigner
	bld *colbuild.Builder
}

// outputs are the per-pointing output files of one kind.
type outputs struct {
	table, region string
}

func (w *worker) outputs(p registry.Pointing, k catalog.Kind) outputs {
	base := filepath.Join(w.rc.OutDir, p.ID+"cat."+k.String())
	return outputs{table: base + ".fits", region: base + ".reg"}
}

// kinds returns the catalog kinds produced for p.
func (w *worker) kinds(p registry.Pointing) []catalog.Kind {
	if w.rc.Config.Components && p.Components != "" {
		return catalog.Kinds
	}
	return catalog.Kinds[:1]
}

// pointing produces the output catalogs of one pointing and returns them
// for merging.
//
// When every output already exists the tables are read back unchanged.
// Otherwise the source list is filtered and rebuilt, outputs that are
// missing are written, and outputs that exist are read back for the
// merge.
func (w *worker) pointing(p registry.Pointing) (PointingReport, map[catalog.Kind]merge.Table, error) {
	log := w.rc.Log.With().Str("pointing", p.ID).Logger()
	st := w.rc.Store
	kinds := w.kinds(p)
	ra, dec := p.Center.Deg()
	rep := PointingReport{
		ID:       p.ID,
		RA:       ra,
		Dec:      dec,
		Catalogs: map[string]CatalogReport{},
	}
	tables := make(map[catalog.Kind]merge.Table, len(kinds))

	done := true
	for _, k := range kinds {
		o := w.outputs(p, k)
		if !st.Exists(o.table) || !st.Exists(o.region) {
			done = false
		}
	}
	if done {
		for _, k := range kinds {
			t, err := st.ReadTable(w.outputs(p, k).table)
			if err != nil {
				return rep, nil, err
			}
			if t.Kind != k {
				return rep, nil, &errors.SchemaError{Want: k.String(), Got: t.Kind.String()}
			}
			tables[k] = t
			rep.Catalogs[k.String()] = CatalogReport{Kept: t.Len()}
		}
		rep.Reused = true
		log.Info().Msg("outputs exist, reused")
		return rep, tables, nil
	}

	srcs, err := st.ReadSources(p.Catalog, catalog.SourceList)
	if err != nil {
		return rep, nil, err
	}
	astromErr, fallback := w.reg.AstrometricError(p.Center)
	if fallback {
		w.rc.Metrics.RecordFallback()
	}
	rep.AstrometricError = astromErr
	rep.AstrometricFallback = fallback
	if w.rc.Config.ImageStats {
		w.imageStats(p, &rep)
	}

	kept := w.asg.Assign(p, srcs, nil)
	if err := w.write(p, catalog.SourceList, srcs, kept, nil, astromErr, tables); err != nil {
		return rep, nil, err
	}
	w.rc.Metrics.RecordPointing(catalog.SourceList.String(), kept.Total, kept.Len())
	rep.Catalogs[catalog.SourceList.String()] = CatalogReport{Kept: kept.Len(), Total: kept.Total}
	log.Info().Int("kept", kept.Len()).Int("total", kept.Total).
		Float64("astrometric_error", astromErr).Msg("source list")

	if len(kinds) > 1 {
		comps, err := st.ReadSources(p.Components, catalog.ComponentList)
		if err != nil {
			return rep, nil, err
		}
		gkept := w.asg.Assign(p, comps, assign.NewAllowList(kept.SourceIDs))
		if err := w.write(p, catalog.ComponentList, comps, gkept,
			colbuild.Parents(srcs), astromErr, tables); err != nil {
			return rep, nil, err
		}
		w.rc.Metrics.RecordPointing(catalog.ComponentList.String(), gkept.Total, gkept.Len())
		rep.Catalogs[catalog.ComponentList.String()] = CatalogReport{Kept: gkept.Len(), Total: gkept.Total}
		log.Info().Int("kept", gkept.Len()).Int("total", gkept.Total).Msg("component list")
	}
	return rep, tables, nil
}

// write builds the rows of one catalog and writes its missing outputs.
// The table for the merge is put in tables.
func (w *worker) write(p registry.Pointing, k catalog.Kind, srcs []catalog.Source,
	kept *assign.KeptSet, parents map[int64]astro.Pos, astromErr float64,
	tables map[catalog.Kind]merge.Table) error {
	st := w.rc.Store
	o := w.outputs(p, k)
	if st.Exists(o.table) {
		t, err := st.ReadTable(o.table)
		if err != nil {
			return err
		}
		tables[k] = t
	} else {
		rows, err := w.bld.Build(k, p.ID, srcs, kept, parents, astromErr)
		if err != nil {
			return err
		}
		t := merge.Table{Kind: k, Rows: rows}
		if err := st.WriteTable(o.table, p.ID+"cat", t); err != nil {
			return err
		}
		tables[k] = t
	}
	if !st.Exists(o.region) {
		shapes := colbuild.Shapes(srcs, kept)
		if err := st.WriteFile(o.region, func(f io.Writer) error {
			return region.Write(f, shapes)
		}); err != nil {
			return err
		}
	}
	return nil
}

// imageStats measures the background of the pointing image.  Failures
// are logged and leave the report fields zero.
func (w *worker) imageStats(p registry.Pointing, rep *PointingReport) {
	log := w.rc.Log.With().Str("pointing", p.ID).Str("image", p.Image).Logger()
	pl, err := w.rc.Store.Plane(p.Image)
	if err != nil {
		log.Warn().Err(err).Msg("image statistics skipped")
		return
	}
	c := w.rc.Config.Clip
	rms, err := noise.ImageRMS(pl, noise.Box, c.NIter, c.Eps)
	if err != nil {
		cl := &noise.Clipper{NIter: c.LenientNIter, Eps: c.Eps, SampleSize: c.SampleSize, Rand: w.rc.Rand}
		var conv bool
		rms, conv = cl.ArrayRMS(pl.Pix)
		log.Warn().Err(err).Bool("lenient_converged", conv).Float64("rms", rms).
			Msg("central rms did not converge, using whole image")
	}
	rep.ImageRMS = rms
	fit, err := noise.ImageNoise(pl, rms, noise.NoiseSample, w.rc.Config.HistBins, w.rc.Rand)
	if err != nil {
		log.Warn().Err(err).Msg("image noise fit skipped")
		return
	}
	if !fit.Converged {
		log.Warn().Str("status", fit.Status).Msg("image noise fit did not converge")
	}
	rep.ImageNoise = fit.Width
}
