// Public domain.

package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/soniakeys/exit"
	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/soniakeys/mosaiccat/astro"
	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/fitscat"
	"github.com/soniakeys/mosaiccat/internal/merge"
)

const versionString = "catcheck version 0.1"

func main() {
	defer exit.Handler()
	if err := newCommand().Execute(); err != nil {
		exit.Log(err)
	}
}

func newCommand() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:           "catcheck [options] <catalog.fits> [radius]",
		Short:         "Report duplicate sources in a master catalog",
		Version:       versionString,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			radius := 1.
			if len(args) == 2 {
				var err error
				if radius, err = strconv.ParseFloat(args[1], 64); err != nil {
					return fmt.Errorf("bad radius: %w", err)
				}
			}
			var s fitscat.Store
			t, err := s.ReadTable(args[0])
			if err != nil {
				return err
			}
			r := check(t, unit.AngleFromSec(radius))
			r.write(cmd.OutOrStdout(), args[0], radius, list)
			return nil
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\nPublic domain.\n")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list duplicate pairs")
	return cmd
}

type pair struct{ i, j int }

type report struct {
	rows     []catalog.Row
	kind     catalog.Kind
	perMos   map[string]int
	repeated int // names occurring more than once
	pairs    []pair
}

// check finds rows of different mosaics closer than r.
//
// Rows are swept in order of declination so that only rows within r in
// declination are compared.
func check(t merge.Table, r unit.Angle) *report {
	rep := &report{rows: t.Rows, kind: t.Kind, perMos: map[string]int{}}
	// component lists repeat a source's name for each of its components,
	// so there a name is repeated only if it occurs in more than one mosaic
	names := map[string]int{}
	mosaics := map[string]map[string]bool{}
	for _, row := range t.Rows {
		rep.perMos[row.MosaicID]++
		if t.Kind != catalog.ComponentList {
			names[row.SourceName]++
			continue
		}
		m := mosaics[row.SourceName]
		if m == nil {
			m = map[string]bool{}
			mosaics[row.SourceName] = m
		}
		if !m[row.MosaicID] {
			m[row.MosaicID] = true
			names[row.SourceName]++
		}
	}
	for _, n := range names {
		if n > 1 {
			rep.repeated++
		}
	}

	pos := make([]astro.Pos, len(t.Rows))
	idx := make([]int, len(t.Rows))
	for i, row := range t.Rows {
		pos[i] = astro.PosFromDeg(row.RA, row.Dec)
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		switch {
		case pos[a].Dec < pos[b].Dec:
			return -1
		case pos[a].Dec > pos[b].Dec:
			return 1
		}
		return a - b
	})
	for n, i := range idx {
		for _, j := range idx[n+1:] {
			if pos[j].Dec-pos[i].Dec >= r {
				break
			}
			if t.Rows[i].MosaicID == t.Rows[j].MosaicID {
				continue
			}
			if astro.Sepn(pos[i], pos[j]) < r {
				rep.pairs = append(rep.pairs, pair{min(i, j), max(i, j)})
			}
		}
	}
	slices.SortFunc(rep.pairs, func(a, b pair) int {
		if a.i != b.i {
			return a.i - b.i
		}
		return a.j - b.j
	})
	return rep
}

func (r *report) write(w io.Writer, path string, radius float64, list bool) {
	p := message.NewPrinter(language.English)
	p.Fprintln(w, "Catalog:          ", path)
	p.Fprintln(w, "Kind:             ", r.kind)
	p.Fprintf(w, "Rows:              %d\n", len(r.rows))
	ids := make([]string, 0, len(r.perMos))
	for id := range r.perMos {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		p.Fprintf(w, "  %-16s %9d\n", id, r.perMos[id])
	}
	p.Fprintf(w, "Repeated names:    %d\n", r.repeated)
	p.Fprintf(w, "Pairs within %g\": %d\n", radius, len(r.pairs))
	if list {
		for _, pr := range r.pairs {
			a, b := &r.rows[pr.i], &r.rows[pr.j]
			sep := astro.Sepn(astro.PosFromDeg(a.RA, a.Dec), astro.PosFromDeg(b.RA, b.Dec))
			p.Fprintf(w, "  %s %s  %s %s  %.2f\"\n",
				a.SourceName, a.MosaicID, b.SourceName, b.MosaicID, sep.Deg()*3600)
		}
	}
}
