// Public domain.

// Package errors provides the typed errors of a catalog merge run.
//
// Each type satisfies errors.Is against one of the sentinels so callers can
// decide on a failure policy without knowing the concrete type.  The
// standard library helpers are re-exported for convenience.
package errors

import (
	"errors"
	"fmt"
)

var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Sentinels.
var (
	// iterative estimate did not settle within its iteration budget
	ErrConvergence = errors.New("did not converge")

	// no astrometric error map covers a position
	ErrNoCalibration = errors.New("no calibration data")

	// a required image header keyword is absent or unusable
	ErrMissingHeader = errors.New("missing header keyword")

	// a catalog table is malformed or unreadable
	ErrBadTable = errors.New("bad table")

	// a row cannot be given an identity or measurement
	ErrBadRow = errors.New("bad row")

	// tables with different schemas
	ErrSchemaMismatch = errors.New("schema mismatch")

	// invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConvergenceError reports an iterative estimate that ran out of
// iterations.  Last is the final estimate computed.
type ConvergenceError struct {
	Op    string
	Iter  int
	Last  float64
	Delta float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: no convergence after %d iterations (last %g, relative change %g)",
		e.Op, e.Iter, e.Last, e.Delta)
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrConvergence }

// CalibrationError reports that no astrometric error map could be used for
// a pointing.  It is absorbed by substituting a default.
type CalibrationError struct {
	RA, Dec float64 // degrees
	Path    string  // map tried, if any
	Err     error
}

func (e *CalibrationError) Error() string {
	s := fmt.Sprintf("no astrometric map for %.4f %+.4f", e.RA, e.Dec)
	if e.Path > "" {
		s += " (" + e.Path + ")"
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *CalibrationError) Is(target error) bool { return target == ErrNoCalibration }
func (e *CalibrationError) Unwrap() error        { return e.Err }

// HeaderError reports an image header lacking a keyword.
type HeaderError struct {
	Path    string
	Keyword string
	Err     error
}

func (e *HeaderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: header %s: %v", e.Path, e.Keyword, e.Err)
	}
	return fmt.Sprintf("%s: header %s missing", e.Path, e.Keyword)
}

func (e *HeaderError) Is(target error) bool { return target == ErrMissingHeader }
func (e *HeaderError) Unwrap() error        { return e.Err }

// TableError reports a malformed or unreadable table.
type TableError struct {
	Path   string
	Column string
	Err    error
}

func (e *TableError) Error() string {
	s := e.Path
	if e.Column > "" {
		s += ": column " + e.Column
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *TableError) Is(target error) bool { return target == ErrBadTable }
func (e *TableError) Unwrap() error        { return e.Err }

// RowError reports a row whose identity or core measurement is undefined.
type RowError struct {
	Pointing string
	Index    int
	Message  string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("pointing %s row %d: %s", e.Pointing, e.Index, e.Message)
}

func (e *RowError) Is(target error) bool { return target == ErrBadRow }

// SchemaError reports tables that cannot be concatenated.
type SchemaError struct {
	Want, Got string
	Index     int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %d: schema %s, want %s", e.Index, e.Got, e.Want)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key     string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%v: %s", e.Key, e.Value, e.Message)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }
