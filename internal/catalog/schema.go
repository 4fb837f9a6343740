// Public domain.

package catalog

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/soniakeys/mosaiccat/internal/errors"
)

// Column describes one column of an output table.  Format is a FITS
// binary table format code.
type Column struct {
	Name   string
	Format string
	Unit   string
}

// rowField binds a Column to its Row field.
type rowField struct {
	Column
	get func(*Row) interface{}
	set func(*Row, interface{}) error
}

func f64(name, unit string, p func(*Row) *float64) rowField {
	return rowField{Column{name, "D", unit},
		func(r *Row) interface{} { return *p(r) },
		func(r *Row, v interface{}) (err error) {
			*p(r), err = cast.ToFloat64E(v)
			return
		}}
}

func str(name, format string, p func(*Row) *string) rowField {
	return rowField{Column{name, format, ""},
		func(r *Row) interface{} { return *p(r) },
		func(r *Row, v interface{}) (err error) {
			*p(r), err = toString(v)
			return
		}}
}

func i64(name string, p func(*Row) *int64) rowField {
	return rowField{Column{name, "K", ""},
		func(r *Row) interface{} { return *p(r) },
		func(r *Row, v interface{}) (err error) {
			*p(r), err = cast.ToInt64E(v)
			return
		}}
}

// toString drops the trailing blank and NUL padding of fixed width
// strings.
func toString(v interface{}) (string, error) {
	s, err := cast.ToStringE(v)
	return strings.TrimRight(s, " \x00"), err
}

const (
	deg     = "deg"
	arcsec  = "arcsec"
	mJy     = "mJy"
	mJyBeam = "beam-1 mJy"
)

// srlFields is the source list layout.  Order is significant.
var srlFields = []rowField{
	str("Source_Name", "24A", func(r *Row) *string { return &r.SourceName }),
	f64("RA", deg, func(r *Row) *float64 { return &r.RA }),
	f64("E_RA", arcsec, func(r *Row) *float64 { return &r.ERA }),
	f64("E_RA_tot", arcsec, func(r *Row) *float64 { return &r.ERATot }),
	f64("DEC", deg, func(r *Row) *float64 { return &r.Dec }),
	f64("E_DEC", arcsec, func(r *Row) *float64 { return &r.EDec }),
	f64("E_DEC_tot", arcsec, func(r *Row) *float64 { return &r.EDecTot }),
	f64("Peak_flux", mJyBeam, func(r *Row) *float64 { return &r.PeakFlux }),
	f64("E_Peak_flux", mJyBeam, func(r *Row) *float64 { return &r.EPeakFlux }),
	f64("E_Peak_flux_tot", mJyBeam, func(r *Row) *float64 { return &r.EPeakFluxTot }),
	f64("Total_flux", mJy, func(r *Row) *float64 { return &r.TotalFlux }),
	f64("E_Total_flux", mJy, func(r *Row) *float64 { return &r.ETotalFlux }),
	f64("E_Total_flux_tot", mJy, func(r *Row) *float64 { return &r.ETotalFluxTot }),
	f64("Maj", arcsec, func(r *Row) *float64 { return &r.Maj }),
	f64("E_Maj", arcsec, func(r *Row) *float64 { return &r.EMaj }),
	f64("Min", arcsec, func(r *Row) *float64 { return &r.Min }),
	f64("E_Min", arcsec, func(r *Row) *float64 { return &r.EMin }),
	f64("DC_Maj", arcsec, func(r *Row) *float64 { return &r.DCMaj }),
	f64("E_DC_Maj", arcsec, func(r *Row) *float64 { return &r.EDCMaj }),
	f64("DC_Min", arcsec, func(r *Row) *float64 { return &r.DCMin }),
	f64("E_DC_Min", arcsec, func(r *Row) *float64 { return &r.EDCMin }),
	f64("PA", deg, func(r *Row) *float64 { return &r.PA }),
	f64("E_PA", deg, func(r *Row) *float64 { return &r.EPA }),
	f64("DC_PA", deg, func(r *Row) *float64 { return &r.DCPA }),
	f64("E_DC_PA", deg, func(r *Row) *float64 { return &r.EDCPA }),
	f64("Isl_rms", mJyBeam, func(r *Row) *float64 { return &r.IslRMS }),
	str("S_Code", "1A", func(r *Row) *string { return &r.SCode }),
	str("Mosaic_ID", "16A", func(r *Row) *string { return &r.MosaicID }),
	i64("Isl_id", func(r *Row) *int64 { return &r.IslID }),
}

var gausFields = append(srlFields[:len(srlFields):len(srlFields)],
	i64("Gaus_id", func(r *Row) *int64 { return &r.GausID }))

func fields(k Kind) []rowField {
	if k == ComponentList {
		return gausFields
	}
	return srlFields
}

// Schema returns the output columns for a catalog kind in table order.
func Schema(k Kind) []Column {
	f := fields(k)
	c := make([]Column, len(f))
	for i := range f {
		c[i] = f[i].Column
	}
	return c
}

// Values returns the row's column values in Schema(k) order.  Values are
// float64, int64 or string.
func (r *Row) Values(k Kind) []interface{} {
	f := fields(k)
	v := make([]interface{}, len(f))
	for i := range f {
		v[i] = f[i].get(r)
	}
	return v
}

// RowFromValues builds a Row from column values keyed by name.  Every
// column of Schema(k) must be present.
func RowFromValues(k Kind, m map[string]interface{}) (Row, error) {
	var r Row
	for _, f := range fields(k) {
		v, ok := m[f.Name]
		if !ok {
			return Row{}, &errors.TableError{Column: f.Name, Err: errors.New("missing")}
		}
		if err := f.set(&r, v); err != nil {
			return Row{}, &errors.TableError{Column: f.Name, Err: err}
		}
	}
	return r, nil
}

// sourceField binds an input column name to its Source field.
type sourceField struct {
	name string
	set  func(*Source, interface{}) error
}

func sf64(name string, p func(*Source) *float64) sourceField {
	return sourceField{name, func(s *Source, v interface{}) (err error) {
		*p(s), err = cast.ToFloat64E(v)
		return
	}}
}

func si64(name string, p func(*Source) *int64) sourceField {
	return sourceField{name, func(s *Source, v interface{}) (err error) {
		*p(s), err = cast.ToInt64E(v)
		return
	}}
}

var sourceFields = []sourceField{
	sf64("RA", func(s *Source) *float64 { return &s.RA }),
	sf64("E_RA", func(s *Source) *float64 { return &s.ERA }),
	sf64("DEC", func(s *Source) *float64 { return &s.Dec }),
	sf64("E_DEC", func(s *Source) *float64 { return &s.EDec }),
	sf64("Total_flux", func(s *Source) *float64 { return &s.TotalFlux }),
	sf64("E_Total_flux", func(s *Source) *float64 { return &s.ETotalFlux }),
	sf64("Peak_flux", func(s *Source) *float64 { return &s.PeakFlux }),
	sf64("E_Peak_flux", func(s *Source) *float64 { return &s.EPeakFlux }),
	sf64("Maj", func(s *Source) *float64 { return &s.Maj }),
	sf64("E_Maj", func(s *Source) *float64 { return &s.EMaj }),
	sf64("Min", func(s *Source) *float64 { return &s.Min }),
	sf64("E_Min", func(s *Source) *float64 { return &s.EMin }),
	sf64("DC_Maj", func(s *Source) *float64 { return &s.DCMaj }),
	sf64("E_DC_Maj", func(s *Source) *float64 { return &s.EDCMaj }),
	sf64("DC_Min", func(s *Source) *float64 { return &s.DCMin }),
	sf64("E_DC_Min", func(s *Source) *float64 { return &s.EDCMin }),
	sf64("PA", func(s *Source) *float64 { return &s.PA }),
	sf64("E_PA", func(s *Source) *float64 { return &s.EPA }),
	sf64("DC_PA", func(s *Source) *float64 { return &s.DCPA }),
	sf64("E_DC_PA", func(s *Source) *float64 { return &s.EDCPA }),
	sf64("Isl_rms", func(s *Source) *float64 { return &s.IslRMS }),
	{"S_Code", func(s *Source, v interface{}) (err error) {
		s.SCode, err = toString(v)
		return
	}},
	si64("Isl_id", func(s *Source) *int64 { return &s.IslID }),
	si64("Source_id", func(s *Source) *int64 { return &s.SourceID }),
}

var gausID = si64("Gaus_id", func(s *Source) *int64 { return &s.GausID })

// SourceColumns lists the input columns read for a catalog kind.
func SourceColumns(k Kind) []string {
	n := make([]string, 0, len(sourceFields)+1)
	for _, f := range sourceFields {
		n = append(n, f.name)
	}
	if k == ComponentList {
		n = append(n, gausID.name)
	}
	return n
}

// SourceFromValues builds a Source from input column values keyed by
// name.  Columns of SourceColumns(k) are required, others are ignored.
func SourceFromValues(k Kind, m map[string]interface{}) (Source, error) {
	var s Source
	fs := sourceFields
	if k == ComponentList {
		fs = append(fs[:len(fs):len(fs)], gausID)
	}
	for _, f := range fs {
		v, ok := m[f.name]
		if !ok {
			return Source{}, &errors.TableError{Column: f.name, Err: errors.New("missing")}
		}
		if err := f.set(&s, v); err != nil {
			return Source{}, &errors.TableError{Column: f.name, Err: err}
		}
	}
	return s, nil
}
