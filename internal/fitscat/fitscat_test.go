// Public domain.

package fitscat_test

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/internal/fitscat"
	"github.com/soniakeys/mosaiccat/internal/merge"
)

func rows(k catalog.Kind) merge.Table {
	return merge.Table{Kind: k, Rows: []catalog.Row{
		{SourceName: "ILTJ103015.24+452005.5", RA: 157.56, ERA: .5, ERATot: 5.02,
			Dec: 45.33, PeakFlux: 12.5, Maj: 7.5, PA: 33, SCode: "S",
			MosaicID: "P22Hetdex04", IslID: 41, GausID: 3},
		{SourceName: "ILTJ103016.00+452000.0", RA: 157.57, Dec: 45.34,
			Maj: math.NaN(), SCode: "M", MosaicID: "P22Hetdex04", IslID: 42, GausID: 4},
	}}
}

func TestTableRoundTrip(t *testing.T) {
	var s fitscat.Store
	dir := t.TempDir()
	for _, k := range catalog.Kinds {
		in := rows(k)
		if k == catalog.SourceList {
			for i := range in.Rows {
				in.Rows[i].GausID = 0
			}
		}
		path := filepath.Join(dir, "P1cat."+k.String()+".fits")
		require.NoError(t, s.WriteTable(path, "P1cat", in))
		assert.True(t, s.Exists(path))

		got, err := s.ReadTable(path)
		require.NoError(t, err)
		assert.Equal(t, k, got.Kind)
		require.Equal(t, 2, got.Len())
		assert.True(t, math.IsNaN(got.Rows[1].Maj))
		got.Rows[1].Maj, in.Rows[1].Maj = 0, 0
		assert.Equal(t, in.Rows, got.Rows)
	}
	// only the finished files remain
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, ents, 2)
}

func TestWriteTableRepeatable(t *testing.T) {
	var s fitscat.Store
	dir := t.TempDir()
	for _, k := range catalog.Kinds {
		in := rows(k)
		var files [][]byte
		for _, run := range []string{"a", "b"} {
			path := filepath.Join(dir, run+"."+k.String()+".fits")
			require.NoError(t, s.WriteTable(path, "P1cat", in))
			b, err := os.ReadFile(path)
			require.NoError(t, err)
			files = append(files, b)
		}
		assert.NotEmpty(t, files[0])
		assert.True(t, bytes.Equal(files[0], files[1]), "%s files differ", k)
	}
}

func TestWriteTableNoDir(t *testing.T) {
	var s fitscat.Store
	path := filepath.Join(t.TempDir(), "missing", "x.srl.fits")
	assert.Error(t, s.WriteTable(path, "x", rows(catalog.SourceList)))
	assert.False(t, s.Exists(path))
}

func TestWriteFileFailure(t *testing.T) {
	var s fitscat.Store
	dir := t.TempDir()
	path := filepath.Join(dir, "x.srl.reg")
	err := s.WriteFile(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return errors.New("interrupted")
	})
	assert.ErrorContains(t, err, "interrupted")
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, ents)

	require.NoError(t, s.WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "whole")
		return err
	}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "whole", string(b))
}

func TestReadTableErrors(t *testing.T) {
	var s fitscat.Store
	_, err := s.ReadTable(filepath.Join(t.TempDir(), "none.fits"))
	assert.True(t, errors.Is(err, errors.ErrBadTable))
}

// writeDetections writes a detection catalog as the source finder does,
// with an extra column that is not read.
func writeDetections(t *testing.T, path string, n int) {
	t.Helper()
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()
	f, err := fitsio.Create(w)
	require.NoError(t, err)
	defer f.Close()
	phdu, err := fitsio.NewPrimaryHDU(nil)
	require.NoError(t, err)
	require.NoError(t, f.Write(phdu))

	names := catalog.SourceColumns(catalog.SourceList)
	var cols []fitsio.Column
	for _, nm := range names {
		format := "D"
		switch nm {
		case "S_Code":
			format = "1A"
		case "Isl_id", "Source_id":
			format = "K"
		}
		cols = append(cols, fitsio.Column{Name: nm, Format: format})
	}
	cols = append(cols, fitsio.Column{Name: "Resid_Isl_rms", Format: "D"})
	tbl, err := fitsio.NewTable("srl", cols, fitsio.BINARY_TBL)
	require.NoError(t, err)
	defer tbl.Close()
	for i := 0; i < n; i++ {
		var vals []interface{}
		for _, nm := range names {
			switch nm {
			case "S_Code":
				s := "S"
				vals = append(vals, &s)
			case "Isl_id", "Source_id":
				id := int64(i)
				vals = append(vals, &id)
			case "RA":
				v := 150 + float64(i)
				vals = append(vals, &v)
			default:
				v := .5
				vals = append(vals, &v)
			}
		}
		extra := 1.
		vals = append(vals, &extra)
		require.NoError(t, tbl.Write(vals...))
	}
	require.NoError(t, f.Write(tbl))
}

func TestReadSources(t *testing.T) {
	var s fitscat.Store
	path := filepath.Join(t.TempDir(), "mosaic.cat.fits")
	writeDetections(t, path, 4)

	srcs, err := s.ReadSources(path, catalog.SourceList)
	require.NoError(t, err)
	require.Len(t, srcs, 4)
	assert.Equal(t, 152., srcs[2].RA)
	assert.Equal(t, int64(2), srcs[2].SourceID)
	assert.Equal(t, "S", srcs[2].SCode)
	assert.Equal(t, .5, srcs[2].Maj)

	part, err := s.ReadSourceRange(path, catalog.SourceList, 1, 3)
	require.NoError(t, err)
	require.Len(t, part, 2)
	assert.Equal(t, int64(1), part[0].SourceID)

	// a source list has no Gaus_id
	_, err = s.ReadSources(path, catalog.ComponentList)
	var te *errors.TableError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Gaus_id", te.Column)
	assert.Equal(t, path, te.Path)
}

func writeImage(t *testing.T, path string, cards []fitsio.Card, nx, ny int) {
	t.Helper()
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()
	f, err := fitsio.Create(w)
	require.NoError(t, err)
	defer f.Close()
	hdr := fitsio.NewHeader(cards, fitsio.IMAGE_HDU, -32, []int{nx, ny, 1, 1})
	img, err := fitsio.NewPrimaryHDU(hdr)
	require.NoError(t, err)
	pix := make([]float32, nx*ny)
	for i := range pix {
		pix[i] = float32(i)
	}
	require.NoError(t, img.Write(&pix))
	require.NoError(t, f.Write(img))
}

func TestCenterPlane(t *testing.T) {
	var s fitscat.Store
	dir := t.TempDir()
	path := filepath.Join(dir, "mosaic-blanked.fits")
	writeImage(t, path, []fitsio.Card{
		{Name: "CRVAL1", Value: 210.5},
		{Name: "CRVAL2", Value: 47.25},
	}, 5, 4)

	c, err := s.Center(path)
	require.NoError(t, err)
	ra, dec := c.Deg()
	assert.InDelta(t, 210.5, ra, 1e-9)
	assert.InDelta(t, 47.25, dec, 1e-9)

	p, err := s.Plane(path)
	require.NoError(t, err)
	assert.Equal(t, 5, p.NX)
	assert.Equal(t, 4, p.NY)
	assert.Equal(t, 7., p.At(2, 1))

	bad := filepath.Join(dir, "nocenter.fits")
	writeImage(t, bad, []fitsio.Card{{Name: "CRVAL1", Value: 1.}}, 2, 2)
	_, err = s.Center(bad)
	var he *errors.HeaderError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "CRVAL2", he.Keyword)
}
