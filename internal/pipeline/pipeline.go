// Public domain.

// Package pipeline runs a catalog merge: it builds the pointing registry,
// filters and rewrites the catalog of each pointing, and merges the
// results into master catalogs.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/soniakeys/mosaiccat/internal/assign"
	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/colbuild"
	"github.com/soniakeys/mosaiccat/internal/config"
	"github.com/soniakeys/mosaiccat/internal/merge"
	"github.com/soniakeys/mosaiccat/internal/metrics"
	"github.com/soniakeys/mosaiccat/internal/registry"
)

// Store reads and writes the files of a run.
//
// fitscat.Store implements it on the file system.
type Store interface {
	registry.ImageReader
	ReadSources(path string, kind catalog.Kind) ([]catalog.Source, error)
	ReadTable(path string) (merge.Table, error)
	WriteTable(path, name string, t merge.Table) error
	WriteFile(path string, write func(io.Writer) error) error
}

// RunContext is everything a run needs.  Relative directories in Config
// are taken relative to WorkDir; the process working directory is never
// changed.
type RunContext struct {
	Config  *config.Config
	WorkDir string
	OutDir  string
	RunID   uuid.UUID
	Log     zerolog.Logger
	Store   Store
	Metrics *metrics.Metrics
	Rand    *xrand.Rand
	Seed    uint64    // seed of Rand, recorded in the manifest
	Out     io.Writer // progress reports, nil for none
}

// NewRunContext returns a RunContext for cfg with a fresh run id.
//
// A zero cfg.Seed seeds Rand from the clock, otherwise processing order
// and subsampling repeat from run to run.
func NewRunContext(cfg *config.Config, workDir string, store Store, m *metrics.Metrics, log zerolog.Logger) *RunContext {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(seed)
	id := uuid.New()
	return &RunContext{
		Config:  cfg,
		WorkDir: workDir,
		OutDir:  resolve(workDir, cfg.OutDir),
		RunID:   id,
		Log:     log.With().Str("run_id", id.String()).Logger(),
		Store:   store,
		Metrics: m,
		Rand:    rnd,
		Seed:    seed,
		Out:     os.Stdout,
	}
}

func resolve(workDir, path string) string {
	if workDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}

func resolveAll(workDir string, paths []string) []string {
	r := make([]string, len(paths))
	for i, p := range paths {
		r[i] = resolve(workDir, p)
	}
	return r
}

// Result summarizes a completed run.
type Result struct {
	Manifest *Manifest
	Master   map[catalog.Kind]string // path of each master catalog
}

// Run performs one catalog merge.
//
// Pointings are processed one at a time in a shuffled order.  ctx is
// checked between pointings; cancellation returns an error wrapping
// ctx.Err() and leaves only whole output files behind.
func Run(ctx context.Context, rc *RunContext) (*Result, error) {
	cfg := rc.Config
	if rc.Metrics == nil {
		rc.Metrics = metrics.NewDiscard()
	}
	if rc.Rand == nil {
		rc.Rand = xrand.New(&xrand.PCGSource{})
		rc.Rand.Seed(rc.Seed)
	}
	out := rc.Out
	if out == nil {
		out = io.Discard
	}
	pr := message.NewPrinter(language.English)

	pointings, err := registry.Discover(resolveAll(rc.WorkDir, cfg.MosaicDirs), cfg.CatalogGlob)
	if err != nil {
		return nil, err
	}
	if len(pointings) == 0 {
		return nil, fmt.Errorf("no catalogs matching %q in %v", cfg.CatalogGlob, cfg.MosaicDirs)
	}
	reg, err := registry.New(ctx, rc.Store, pointings, resolveAll(rc.WorkDir, cfg.PointingDirs),
		registry.Options{
			MapTolerance:            unit.AngleFromDeg(cfg.AstromapToleranceDeg),
			DefaultAstrometricError: cfg.AstromapDefaultArcsec,
			Log:                     &rc.Log,
		})
	if err != nil {
		return nil, err
	}

	order := make([]int, len(reg.Pointings))
	for i := range order {
		order[i] = i
	}
	rc.Rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	w := &worker{
		rc:  rc,
		reg: reg,
		asg: &assign.Assigner{
			Registry:        reg,
			NeighbourRadius: unit.AngleFromDeg(cfg.NeighbourRadiusDeg),
		},
		bld: &colbuild.Builder{Prefix: cfg.SurveyPrefix, FluxScale: cfg.FluxScaleError},
	}
	man := &Manifest{
		RunID:   rc.RunID.String(),
		Release: cfg.Release,
		Seed:    rc.Seed,
		Started: time.Now().UTC(),
	}
	tables := map[catalog.Kind][]merge.Table{}
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stopped before pointing %s: %w", reg.Pointings[i].ID, err)
		}
		p := reg.Pointings[i]
		t0 := time.Now()
		rep, pt, err := w.pointing(p)
		if err != nil {
			return nil, fmt.Errorf("pointing %s: %w", p.ID, err)
		}
		dt := time.Since(t0).Seconds()
		if rep.Reused {
			rc.Metrics.RecordReused()
		} else {
			rc.Metrics.RecordBuilt(dt)
		}
		for _, k := range catalog.Kinds {
			if t, ok := pt[k]; ok {
				tables[k] = append(tables[k], t)
			}
		}
		srl := rep.Catalogs[catalog.SourceList.String()]
		if rep.Reused {
			pr.Fprintf(out, "%s: reused %d sources\n", p.ID, srl.Kept)
		} else {
			pr.Fprintf(out, "%s: kept %d of %d sources (%.2fs)\n", p.ID, srl.Kept, srl.Total, dt)
		}
		man.Order = append(man.Order, p.ID)
		man.Pointings = append(man.Pointings, rep)
	}

	res := &Result{Manifest: man, Master: map[catalog.Kind]string{}}
	man.Master = map[string]int{}
	for _, k := range catalog.Kinds {
		ts, ok := tables[k]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stopped before merge: %w", err)
		}
		m, err := merge.Concat(ts)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(rc.OutDir, cfg.Release+"."+k.String()+".fits")
		if err := rc.Store.WriteTable(path, cfg.Release, m); err != nil {
			return nil, err
		}
		rc.Metrics.SetMasterRows(k.String(), m.Len())
		man.Master[k.String()] = m.Len()
		res.Master[k] = path
		rc.Log.Info().Str("catalog", k.String()).Int("rows", m.Len()).Str("path", path).
			Msg("master catalog written")
		pr.Fprintf(out, "%s: %d rows\n", filepath.Base(path), m.Len())
	}
	man.Finished = time.Now().UTC()
	if err := WriteManifest(rc.Store, filepath.Join(rc.OutDir, cfg.Release+".manifest.yaml"), man); err != nil {
		return nil, err
	}
	if cfg.MetricsFile != "" {
		if err := rc.Metrics.WriteTextfile(resolve(rc.WorkDir, cfg.MetricsFile)); err != nil {
			return nil, err
		}
	}
	return res, nil
}
