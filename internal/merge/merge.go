// Public domain.

// Package merge concatenates per-pointing output catalogs.
package merge

import (
	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/errors"
)

// Table is an output catalog held in memory.
type Table struct {
	Kind catalog.Kind
	Rows []catalog.Row
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ErrEmpty is returned when there is nothing to concatenate.
var ErrEmpty = errors.New("no tables to merge")

// Concat appends the rows of tables in order.
//
// All tables must be of the same kind.  Rows are copied unchanged and the
// result has exactly the sum of the input row counts.
func Concat(tables []Table) (Table, error) {
	if len(tables) == 0 {
		return Table{}, ErrEmpty
	}
	k := tables[0].Kind
	n := 0
	for i := range tables {
		if tables[i].Kind != k {
			return Table{}, &errors.SchemaError{
				Want: k.String(), Got: tables[i].Kind.String(), Index: i}
		}
		n += len(tables[i].Rows)
	}
	m := Table{Kind: k, Rows: make([]catalog.Row, 0, n)}
	for i := range tables {
		m.Rows = append(m.Rows, tables[i].Rows...)
	}
	return m, nil
}
