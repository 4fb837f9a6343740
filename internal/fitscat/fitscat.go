// Public domain.

// Package fitscat reads and writes the FITS files of a catalog merge:
// detection catalogs, output catalogs, and the headers and pixels of
// images.
package fitscat

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/astrogo/fitsio"
	"github.com/spf13/cast"

	"github.com/soniakeys/mosaiccat/astro"
	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/internal/merge"
	"github.com/soniakeys/mosaiccat/noise"
)

// Store is the file system holding FITS files.  The zero value is ready
// to use.
type Store struct{}

// Exists reports whether path names an existing file.
func (Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// open opens a FITS file.  The returned func closes it.
func open(path string) (*fitsio.File, func(), error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := fitsio.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, func() { f.Close(); r.Close() }, nil
}

// table returns the binary table in the first extension.
func table(path string, f *fitsio.File) (*fitsio.Table, error) {
	if len(f.HDUs()) < 2 {
		return nil, &errors.TableError{Path: path, Err: errors.New("no table extension")}
	}
	t, ok := f.HDU(1).(*fitsio.Table)
	if !ok {
		return nil, &errors.TableError{Path: path, Err: errors.New("extension 1 is not a table")}
	}
	return t, nil
}

func withPath(err error, path string) error {
	var te *errors.TableError
	if errors.As(err, &te) && te.Path == "" {
		te.Path = path
	}
	return err
}

// ReadSources reads all rows of a detection catalog.
func (s Store) ReadSources(path string, kind catalog.Kind) ([]catalog.Source, error) {
	return s.ReadSourceRange(path, kind, 0, -1)
}

// ReadSourceRange reads rows [beg, end) of a detection catalog.  end < 0
// reads to the last row.
//
// Columns other than catalog.SourceColumns(kind) are ignored.  A missing
// or unconvertible column is a *errors.TableError.
func (Store) ReadSourceRange(path string, kind catalog.Kind, beg, end int64) ([]catalog.Source, error) {
	f, done, err := open(path)
	if err != nil {
		return nil, &errors.TableError{Path: path, Err: err}
	}
	defer done()
	t, err := table(path, f)
	if err != nil {
		return nil, err
	}
	if end < 0 || end > t.NumRows() {
		end = t.NumRows()
	}
	if beg > end {
		beg = end
	}
	rows, err := t.Read(beg, end)
	if err != nil {
		return nil, &errors.TableError{Path: path, Err: err}
	}
	defer rows.Close()
	srcs := make([]catalog.Source, 0, end-beg)
	for rows.Next() {
		m := map[string]interface{}{}
		if err := rows.Scan(&m); err != nil {
			return nil, &errors.TableError{Path: path, Err: err}
		}
		src, err := catalog.SourceFromValues(kind, m)
		if err != nil {
			return nil, withPath(err, path)
		}
		srcs = append(srcs, src)
	}
	if err := rows.Err(); err != nil {
		return nil, &errors.TableError{Path: path, Err: err}
	}
	return srcs, nil
}

// ReadTable reads an output catalog.  The kind is taken from the
// presence of a Gaus_id column.
func (Store) ReadTable(path string) (merge.Table, error) {
	f, done, err := open(path)
	if err != nil {
		return merge.Table{}, &errors.TableError{Path: path, Err: err}
	}
	defer done()
	t, err := table(path, f)
	if err != nil {
		return merge.Table{}, err
	}
	mt := merge.Table{Kind: catalog.SourceList}
	for _, c := range t.Cols() {
		if c.Name == "Gaus_id" {
			mt.Kind = catalog.ComponentList
		}
	}
	rows, err := t.Read(0, t.NumRows())
	if err != nil {
		return merge.Table{}, &errors.TableError{Path: path, Err: err}
	}
	defer rows.Close()
	mt.Rows = make([]catalog.Row, 0, t.NumRows())
	for rows.Next() {
		m := map[string]interface{}{}
		if err := rows.Scan(&m); err != nil {
			return merge.Table{}, &errors.TableError{Path: path, Err: err}
		}
		r, err := catalog.RowFromValues(mt.Kind, m)
		if err != nil {
			return merge.Table{}, withPath(err, path)
		}
		mt.Rows = append(mt.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return merge.Table{}, &errors.TableError{Path: path, Err: err}
	}
	return mt, nil
}

// WriteTable writes an output catalog.
//
// The primary header carries a NAME card; the first extension is a binary
// table with the catalog.Schema columns.
func (s Store) WriteTable(path, name string, t merge.Table) error {
	return s.WriteFile(path, func(w io.Writer) error {
		return writeTable(w, name, t)
	})
}

// WriteFile writes path with the content write produces.
//
// The file is written under a temporary name in the same directory and
// renamed into place when complete, so path is either absent or whole.
func (Store) WriteFile(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func writeTable(w io.Writer, name string, t merge.Table) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()
	hdr := fitsio.NewHeader([]fitsio.Card{{Name: "NAME", Value: name}},
		fitsio.IMAGE_HDU, 8, []int{})
	phdu, err := fitsio.NewPrimaryHDU(hdr)
	if err != nil {
		return err
	}
	if err := f.Write(phdu); err != nil {
		return err
	}
	schema := catalog.Schema(t.Kind)
	cols := make([]fitsio.Column, len(schema))
	for i, c := range schema {
		cols[i] = fitsio.Column{Name: c.Name, Format: c.Format, Unit: c.Unit}
	}
	tbl, err := fitsio.NewTable(t.Kind.String(), cols, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer tbl.Close()
	for i := range t.Rows {
		if err := tbl.Write(pointers(t.Rows[i].Values(t.Kind))...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return f.Write(tbl)
}

// pointers returns pointers to copies of the values, as fitsio writes
// rows from pointers.
func pointers(vals []interface{}) []interface{} {
	p := make([]interface{}, len(vals))
	for i, v := range vals {
		switch v := v.(type) {
		case float64:
			p[i] = &v
		case int64:
			p[i] = &v
		case string:
			p[i] = &v
		default:
			panic(fmt.Sprintf("fitscat: unexpected column type %T", v))
		}
	}
	return p
}

// Center returns the sky position in the CRVAL1 and CRVAL2 cards of the
// primary header, degrees.
func (Store) Center(path string) (astro.Pos, error) {
	f, done, err := open(path)
	if err != nil {
		return astro.Pos{}, &errors.HeaderError{Path: path, Keyword: "CRVAL1", Err: err}
	}
	defer done()
	hdr := f.HDU(0).Header()
	var v [2]float64
	for i, k := range []string{"CRVAL1", "CRVAL2"} {
		c := hdr.Get(k)
		if c == nil {
			return astro.Pos{}, &errors.HeaderError{Path: path, Keyword: k}
		}
		if v[i], err = cast.ToFloat64E(c.Value); err != nil {
			return astro.Pos{}, &errors.HeaderError{Path: path, Keyword: k, Err: err}
		}
	}
	return astro.PosFromDeg(v[0], v[1]), nil
}

// Plane reads the first plane of the primary image.
//
// NAXIS1 and NAXIS2 are the plane dimensions.  Further axes, typically
// degenerate frequency and Stokes axes, select the first plane.
func (Store) Plane(path string) (noise.Plane, error) {
	f, done, err := open(path)
	if err != nil {
		return noise.Plane{}, err
	}
	defer done()
	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return noise.Plane{}, fmt.Errorf("%s: primary HDU is not an image", path)
	}
	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 2 {
		return noise.Plane{}, fmt.Errorf("%s: image has %d axes", path, len(axes))
	}
	pix, err := readPixels(img, hdr.Bitpix())
	if err != nil {
		return noise.Plane{}, fmt.Errorf("%s: %w", path, err)
	}
	n := axes[0] * axes[1]
	if len(pix) < n {
		return noise.Plane{}, fmt.Errorf("%s: %d pixels for %d×%d image",
			path, len(pix), axes[0], axes[1])
	}
	return noise.Plane{NX: axes[0], NY: axes[1], Pix: pix[:n]}, nil
}

func readPixels(img fitsio.Image, bitpix int) ([]float64, error) {
	switch bitpix {
	case 8:
		var d []uint8
		err := img.Read(&d)
		return widen(d), err
	case 16:
		var d []int16
		err := img.Read(&d)
		return widen(d), err
	case 32:
		var d []int32
		err := img.Read(&d)
		return widen(d), err
	case 64:
		var d []int64
		err := img.Read(&d)
		return widen(d), err
	case -32:
		var d []float32
		err := img.Read(&d)
		return widen(d), err
	case -64:
		var d []float64
		err := img.Read(&d)
		return d, err
	}
	return nil, fmt.Errorf("unsupported BITPIX %d", bitpix)
}

func widen[T uint8 | int16 | int32 | int64 | float32](d []T) []float64 {
	w := make([]float64, len(d))
	for i, v := range d {
		w[i] = float64(v)
	}
	return w
}
