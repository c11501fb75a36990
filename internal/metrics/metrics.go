package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction call results
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

var (
	// ExtractionCalls counts extraction calls by result
	ExtractionCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astarml_extraction_calls_total",
		Help: "Extraction calls by result",
	}, []string{"result"})

	// TriplesDiscarded counts triples dropped for an empty key, value or sentence
	TriplesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "astarml_triples_discarded_total",
		Help: "Malformed triples discarded during graph build",
	})

	// BuildDuration observes whole graph builds, extraction included
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "astarml_graph_build_duration_seconds",
		Help:    "Claim graph build duration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// GraphClaims observes claim nodes per built graph
	GraphClaims = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "astarml_graph_claims",
		Help:    "Claim nodes per graph",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
	})

	// ContradictionEdges counts directed contradiction edges added
	ContradictionEdges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "astarml_contradiction_edges_total",
		Help: "Directed contradiction edges added",
	})
)

// WriteFile writes every registered collector to path in the text exposition
// format, for node_exporter's textfile collector or a CI artifact.
func WriteFile(path string) error {
	return writeFile(path, prometheus.DefaultGatherer)
}

func writeFile(path string, g prometheus.Gatherer) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
