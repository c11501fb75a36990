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

func TestExtractionCalls_ByResult(t *testing.T) {
	before := testutil.ToFloat64(ExtractionCalls.WithLabelValues(ResultTimeout))
	ExtractionCalls.WithLabelValues(ResultTimeout).Inc()
	ExtractionCalls.WithLabelValues(ResultTimeout).Inc()
	assert.Equal(t, before+2, testutil.ToFloat64(ExtractionCalls.WithLabelValues(ResultTimeout)))
}

func TestWriteFile(t *testing.T) {
	TriplesDiscarded.Add(3)
	ContradictionEdges.Add(2)

	path := filepath.Join(t.TempDir(), "textfile", "astarml.prom")
	require.NoError(t, WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# TYPE astarml_triples_discarded_total counter")
	assert.Contains(t, text, "astarml_contradiction_edges_total")
	assert.Contains(t, text, "astarml_graph_build_duration_seconds_bucket")
}

func TestWriteFile_CustomGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "astarml_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(4)

	path := filepath.Join(t.TempDir(), "m.prom")
	require.NoError(t, writeFile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "astarml_test_total 4")
	assert.NotContains(t, string(data), "astarml_triples_discarded_total")
}
