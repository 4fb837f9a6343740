// Public domain.

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordPointing("srl", 10, 7)
	m.RecordPointing("srl", 5, 5)
	m.RecordPointing("gaus", 20, 11)
	m.RecordBuilt(.5)
	m.RecordBuilt(1)
	m.RecordReused()
	m.RecordFallback()
	m.SetMasterRows("srl", 12)

	assert.Equal(t, 15., testutil.ToFloat64(m.sourcesTotal.WithLabelValues("srl")))
	assert.Equal(t, 12., testutil.ToFloat64(m.sourcesKeptTotal.WithLabelValues("srl")))
	assert.Equal(t, 11., testutil.ToFloat64(m.sourcesKeptTotal.WithLabelValues("gaus")))
	assert.Equal(t, 2., testutil.ToFloat64(m.pointingsTotal.WithLabelValues("built")))
	assert.Equal(t, 1., testutil.ToFloat64(m.pointingsTotal.WithLabelValues("reused")))
	assert.Equal(t, 1., testutil.ToFloat64(m.astrometryFallback))
	assert.Equal(t, 12., testutil.ToFloat64(m.masterRows.WithLabelValues("srl")))
}

func TestDuplicateRegistration(t *testing.T) {
	r := prometheus.NewRegistry()
	_, err := New(r)
	require.NoError(t, err)
	_, err = New(r)
	assert.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	m := NewDiscard()
	m.RecordPointing("srl", 3, 2)
	path := filepath.Join(t.TempDir(), "mosaiccat.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `mosaiccat_sources_kept_total{catalog="srl"} 2`)
}
