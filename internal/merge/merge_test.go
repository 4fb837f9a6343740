// Public domain.

package merge_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/mosaiccat/internal/catalog"
	"github.com/soniakeys/mosaiccat/internal/errors"
	"github.com/soniakeys/mosaiccat/internal/merge"
)

func table(k catalog.Kind, id string, n int) merge.Table {
	t := merge.Table{Kind: k}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, catalog.Row{
			SourceName: fmt.Sprintf("%s-%d", id, i),
			MosaicID:   id,
			RA:         float64(i),
			IslID:      int64(i),
		})
	}
	return t
}

func TestConcat(t *testing.T) {
	in := []merge.Table{
		table(catalog.SourceList, "P1", 3),
		table(catalog.SourceList, "P2", 0),
		table(catalog.SourceList, "P3", 2),
	}
	m, err := merge.Concat(in)
	require.NoError(t, err)
	assert.Equal(t, catalog.SourceList, m.Kind)
	require.Equal(t, 5, m.Len())

	// concatenation order, rows unchanged
	var want []catalog.Row
	for _, tb := range in {
		want = append(want, tb.Rows...)
	}
	assert.Equal(t, want, m.Rows)

	// inputs not aliased
	m.Rows[0].RA = 99
	assert.Equal(t, 0., in[0].Rows[0].RA)
}

func TestConcatDeterministic(t *testing.T) {
	in := []merge.Table{
		table(catalog.ComponentList, "A", 2),
		table(catalog.ComponentList, "B", 4),
	}
	m1, err := merge.Concat(in)
	require.NoError(t, err)
	m2, err := merge.Concat(in)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)

	// reversed order gives the same rows in the reversed block order
	r, err := merge.Concat([]merge.Table{in[1], in[0]})
	require.NoError(t, err)
	assert.Equal(t, m1.Len(), r.Len())
	assert.Equal(t, in[1].Rows, r.Rows[:4])
}

func TestConcatErrors(t *testing.T) {
	_, err := merge.Concat(nil)
	assert.ErrorIs(t, err, merge.ErrEmpty)

	_, err = merge.Concat([]merge.Table{
		table(catalog.SourceList, "P1", 1),
		table(catalog.ComponentList, "P1", 1),
	})
	var se *errors.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Index)
	assert.Equal(t, "srl", se.Want)
}
