package claimgraph

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdu3/AstarML/internal/canon"
	"github.com/pdu3/AstarML/internal/extract"
	"github.com/pdu3/AstarML/internal/metrics"
	"github.com/pdu3/AstarML/internal/model"
	"github.com/pdu3/AstarML/internal/score"
)

// tableExtractor answers from a passage -> triples table
func tableExtractor(table map[string][]model.Triple) extract.Extractor {
	return extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		triples, ok := table[text]
		if !ok {
			return nil, extract.ErrUnavailable
		}
		return triples, nil
	})
}

func claim(key, val string) []model.Triple {
	return []model.Triple{{Key: key, Value: val, Sentence: key + " is " + val + "."}}
}

func build(t *testing.T, ext extract.Extractor, evidence []model.Evidence, opts ...Option) *Graph {
	t.Helper()
	return NewBuilder(ext, score.Default(), opts...).Build(context.Background(), evidence, canon.DefaultThreshold)
}

func TestBuild_TimeoutScenario(t *testing.T) {
	evidence := []model.Evidence{
		{ID: "E1", Source: "docs", Score: 0.9, Text: "e1"},
		{ID: "E2", Source: "forums", Score: 0.4, Text: "e2"},
	}
	ext := tableExtractor(map[string][]model.Triple{
		"e1": claim("timeout", "60s"),
		"e2": claim("timeout", "120s"),
	})

	g := build(t, ext, evidence)

	claims := g.Claims()
	require.Len(t, claims, 2)
	assert.Equal(t, []string{"timeout"}, g.Keys())
	assert.True(t, g.HasContradiction("timeout=60s", "timeout=120s"))
	assert.True(t, g.HasContradiction("timeout=120s", "timeout=60s"))

	decisions := g.Decide("timeout", 1, 0.7)
	require.Len(t, decisions, 1)
	d := decisions[0]
	assert.Equal(t, "timeout=60s", d.ClaimID)
	assert.Equal(t, "60s", d.Value)
	require.Len(t, d.Supports, 1)
	assert.Equal(t, "docs::E1", d.Supports[0].Evidence)
	require.Len(t, d.Contradicts, 1)
	assert.Equal(t, "timeout=120s", d.Contradicts[0].Claim)
	assert.Equal(t, "forums::E2", d.Contradicts[0].Evidence)

	s := score.Default()
	w1 := s.Weight(map[string]string{"source": "docs"}, 0.9)
	w2 := s.Weight(map[string]string{"source": "forums"}, 0.4)
	assert.InDelta(t, w1-0.7*w2, d.Consensus, 1e-9)
	assert.InDelta(t, w2-0.7*w1, g.ConsensusScore("timeout=120s", 0.7), 1e-9)
}

func TestBuild_BatchSizeKeysCluster(t *testing.T) {
	evidence := []model.Evidence{
		{ID: "a", Source: "docs", Text: "a"},
		{ID: "b", Source: "blogs", Text: "b"},
	}
	ext := tableExtractor(map[string][]model.Triple{
		"a": claim("param.batch_size", "32"),
		"b": claim("batch size", "32"),
	})

	g := build(t, ext, evidence)

	require.Len(t, g.Claims(), 1)
	assert.Equal(t, ClaimNode{Key: "batch size", Value: "32"}, g.Claims()[0])
	assert.Len(t, g.Supports("batch size=32"), 2)
	assert.Empty(t, g.Contradicts("batch size=32"))
}

func TestBuild_AllExtractionsFail(t *testing.T) {
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		return nil, fmt.Errorf("%w: backend down", extract.ErrUnavailable)
	})
	evidence := []model.Evidence{{ID: "1", Text: "x"}, {ID: "2", Text: "y"}}

	g := build(t, ext, evidence)

	stats := g.Stats()
	assert.Equal(t, 0, stats.EvidenceNodes)
	assert.Equal(t, 0, stats.ClaimNodes)
	assert.Equal(t, 2, stats.ExtractionFailures)

	d := g.Decide("timeout", 2, 0.7)
	require.NotNil(t, d)
	assert.Empty(t, d)
}

func TestBuild_BlankPassageIsNotAFailure(t *testing.T) {
	evidence := []model.Evidence{
		{ID: "blank", Source: "docs", Text: "   "},
		{ID: "e1", Source: "docs", Score: 0.9, Text: "Set timeout = 60s for runners."},
	}
	successBefore := testutil.ToFloat64(metrics.ExtractionCalls.WithLabelValues(metrics.ResultSuccess))
	errorBefore := testutil.ToFloat64(metrics.ExtractionCalls.WithLabelValues(metrics.ResultError))

	g := build(t, extract.NewClaimExtractor(), evidence)

	stats := g.Stats()
	assert.Equal(t, 0, stats.ExtractionFailures)
	assert.Equal(t, 1, stats.ClaimNodes)
	assert.Equal(t, successBefore+2, testutil.ToFloat64(metrics.ExtractionCalls.WithLabelValues(metrics.ResultSuccess)))
	assert.Equal(t, errorBefore, testutil.ToFloat64(metrics.ExtractionCalls.WithLabelValues(metrics.ResultError)))
}

func TestBuild_RecordsMetrics(t *testing.T) {
	evidence := []model.Evidence{
		{ID: "E1", Source: "docs", Text: "e1"},
		{ID: "E2", Source: "forums", Text: "e2"},
		{ID: "E3", Source: "blogs", Text: "unknown"},
	}
	ext := tableExtractor(map[string][]model.Triple{
		"e1": append(claim("timeout", "60s"), model.Triple{Key: "", Value: "x", Sentence: "x"}),
		"e2": claim("timeout", "120s"),
	})
	errorBefore := testutil.ToFloat64(metrics.ExtractionCalls.WithLabelValues(metrics.ResultError))
	discardedBefore := testutil.ToFloat64(metrics.TriplesDiscarded)
	edgesBefore := testutil.ToFloat64(metrics.ContradictionEdges)

	build(t, ext, evidence)

	assert.Equal(t, errorBefore+1, testutil.ToFloat64(metrics.ExtractionCalls.WithLabelValues(metrics.ResultError)))
	assert.Equal(t, discardedBefore+1, testutil.ToFloat64(metrics.TriplesDiscarded))
	assert.Equal(t, edgesBefore+2, testutil.ToFloat64(metrics.ContradictionEdges))
}

func TestBuild_EmptyEvidence(t *testing.T) {
	g := build(t, extract.NewClaimExtractor(), nil)
	assert.Equal(t, model.GraphStats{}, g.Stats())
}

func TestBuild_MalformedTriplesDiscarded(t *testing.T) {
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		return []model.Triple{
			{Key: "retries", Value: "3", Sentence: "Retries are 3."},
			{Key: "", Value: "3", Sentence: "x"},
			{Key: "retries", Value: " ", Sentence: "x"},
			{Key: "retries", Value: "5", Sentence: ""},
		}, nil
	})

	g := build(t, ext, []model.Evidence{{ID: "1", Source: "docs", Text: "t"}})

	assert.Equal(t, 1, g.Stats().ClaimNodes)
	assert.Equal(t, 3, g.Stats().DiscardedTriples)
	_, ok := g.Claim("retries=3")
	assert.True(t, ok)
}

func TestBuild_FailedItemDoesNotAbort(t *testing.T) {
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		if text == "slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return claim("timeout", text), nil
	})
	evidence := []model.Evidence{
		{ID: "1", Source: "docs", Text: "60s"},
		{ID: "2", Source: "docs", Text: "slow"},
		{ID: "3", Source: "forums", Text: "120s"},
	}

	g := build(t, ext, evidence, WithTimeout(20*time.Millisecond))

	assert.Equal(t, 1, g.Stats().ExtractionFailures)
	assert.Equal(t, 2, g.Stats().ClaimNodes)
	assert.True(t, g.HasContradiction("timeout=60s", "timeout=120s"))
}

func TestBuild_IdenticalClaimsShareNode(t *testing.T) {
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		// same passage asserts the claim twice
		return append(claim("timeout", "60s"), claim("timeout", "60s")...), nil
	})
	evidence := []model.Evidence{
		{ID: "1", Source: "docs", Text: "a"},
		{ID: "2", Source: "forums", Text: "b"},
	}

	g := build(t, ext, evidence)

	assert.Len(t, g.Claims(), 1)
	assert.Len(t, g.EvidenceNodes(), 2)
	assert.Len(t, g.Supports("timeout=60s"), 4, "support edges are not deduplicated")

	total := 0.0
	for _, e := range g.Supports("timeout=60s") {
		total += e.Weight
	}
	assert.InDelta(t, total, g.Support("timeout=60s"), 1e-12)
}

func TestBuild_ValueNormalization(t *testing.T) {
	ext := tableExtractor(map[string][]model.Triple{
		"a": claim("timeout", "60 seconds"),
		"b": claim("timeout", "60s"),
	})
	evidence := []model.Evidence{{ID: "a", Text: "a"}, {ID: "b", Text: "b"}}

	raw := build(t, ext, evidence)
	assert.Len(t, raw.Claims(), 2)

	normalized := build(t, ext, evidence, WithValueNormalization(true))
	assert.Len(t, normalized.Claims(), 1)
	assert.Empty(t, normalized.Contradicts("timeout=60s"))
}

func TestBuild_DeterministicUnderConcurrency(t *testing.T) {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(7))
	jitter := func() time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return time.Duration(rng.Intn(5)) * time.Millisecond
	}

	values := []string{"30s", "60s", "60s", "90s", "120s", "60s", "30s", "45s"}
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		time.Sleep(jitter())
		i := int(text[0] - 'a')
		return []model.Triple{
			{Key: "timeout", Value: values[i], Sentence: text},
			{Key: "max retries", Value: fmt.Sprint(i % 3), Sentence: text},
		}, nil
	})

	var evidence []model.Evidence
	for i := range values {
		id := string(rune('a' + i))
		evidence = append(evidence, model.Evidence{ID: id, Source: []string{"docs", "forums", "blogs"}[i%3], Score: float64(i) / 10, Text: id})
	}

	first := build(t, ext, evidence, WithWorkers(4))
	for run := 0; run < 5; run++ {
		g := build(t, ext, evidence, WithWorkers(4))
		assert.Equal(t, first.Claims(), g.Claims())
		assert.Equal(t, first.Decide("timeout", 3, 0.7), g.Decide("timeout", 3, 0.7))
		assert.Equal(t, first.Decide("max retries", 2, 0.5), g.Decide("max retries", 2, 0.5))
	}
}

func TestGraph_ContradictionsSymmetricAndIdempotent(t *testing.T) {
	g := New()
	ev := g.addEvidence(model.Evidence{ID: "1", Source: "docs"})
	for _, v := range []string{"30s", "60s", "60s", "90s"} {
		g.addSupport(ev, g.addClaim("timeout", v), 0.5, "s")
	}
	g.addSupport(ev, g.addClaim("retries", "3"), 0.5, "s")

	added := g.AddContradictions()
	assert.Equal(t, 6, added, "three distinct values give three pairs in both directions")
	assert.Equal(t, 0, g.AddContradictions())
	assert.Equal(t, 6, g.Stats().ContradictionEdges)

	for _, c := range g.Claims() {
		for _, other := range g.Contradicts(c.ID()) {
			assert.True(t, g.HasContradiction(other, c.ID()), "%s -> %s has no reverse edge", c.ID(), other)
			assert.NotEqual(t, c.ID(), other)
			o, _ := g.Claim(other)
			assert.Equal(t, c.Key, o.Key)
			assert.NotEqual(t, c.Value, o.Value)
		}
	}
	assert.Empty(t, g.Contradicts("retries=3"))
}

func TestGraph_Decide(t *testing.T) {
	g := New()
	evs := make([]int, 7)
	for i := range evs {
		evs[i] = g.addEvidence(model.Evidence{ID: fmt.Sprint(i), Source: "docs"})
	}
	strong := g.addClaim("timeout", "60s")
	for i, w := range []float64{0.1, 0.9, 0.3, 0.8, 0.2, 0.7, 0.4} {
		g.addSupport(evs[i], strong, w, fmt.Sprint("s", i))
	}
	weak := g.addClaim("timeout", "120s")
	g.addSupport(evs[0], weak, 0.5, "weak-low")
	g.addSupport(evs[1], weak, 0.6, "weak-high")
	g.AddContradictions()

	decisions := g.Decide("timeout", 5, 0.7)
	require.Len(t, decisions, 2)
	assert.Equal(t, "timeout=60s", decisions[0].ClaimID)
	assert.Equal(t, "timeout=120s", decisions[1].ClaimID)

	sup := decisions[0].Supports
	require.Len(t, sup, 5)
	for i := 1; i < len(sup); i++ {
		assert.GreaterOrEqual(t, sup[i-1].Weight, sup[i].Weight)
	}
	assert.Equal(t, 0.9, sup[0].Weight)

	require.Len(t, decisions[0].Contradicts, 1)
	assert.Equal(t, "weak-high", decisions[0].Contradicts[0].Sentence)
	assert.Equal(t, 0.6, decisions[0].Contradicts[0].Weight)

	assert.Empty(t, g.Decide("timeout", 0, 0.7))
	assert.Empty(t, g.Decide("timeout", -1, 0.7))
	assert.Empty(t, g.Decide("unknown", 2, 0.7))
	assert.Len(t, g.Decide("timeout", 1, 0.7), 1)
}

func TestGraph_DecideTiesKeepInsertionOrder(t *testing.T) {
	g := New()
	ev := g.addEvidence(model.Evidence{ID: "1"})
	for _, v := range []string{"b", "a", "c"} {
		g.addSupport(ev, g.addClaim("mode", v), 0.5, "s")
	}
	g.AddContradictions()

	var got []string
	for _, d := range g.Decide("mode", 3, 0.7) {
		got = append(got, d.Value)
	}
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestGraph_ConsensusUnknownClaim(t *testing.T) {
	assert.Equal(t, 0.0, New().ConsensusScore("nope=1", 0.7))
}

func TestGraph_EvidenceNodeDefaults(t *testing.T) {
	g := New()
	h := g.addEvidence(model.Evidence{Text: "x"})
	assert.Equal(t, "src::chunk", g.EvidenceNodes()[h].ID)
	assert.Equal(t, h, g.addEvidence(model.Evidence{Text: "y"}), "same identity reuses the node")
}

func TestBuild_ThresholdMonotonicity(t *testing.T) {
	keys := []string{"param.batch_size", "batch size", "timeout", "request timeout", "param.timeout", "retries", "max retries", "lr_scheduler"}
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		return claim(text, "1"), nil
	})
	var evidence []model.Evidence
	for i, k := range keys {
		evidence = append(evidence, model.Evidence{ID: fmt.Sprint(i), Text: k})
	}

	prev := 0
	for _, th := range []float64{0, 0.4, 0.62, 0.8, 1.01} {
		g := NewBuilder(ext, nil).Build(context.Background(), evidence, th)
		n := len(g.Keys())
		assert.GreaterOrEqual(t, n, prev, "threshold %.2f", th)
		prev = n
	}
	assert.Equal(t, len(keys), prev)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return claim("timeout", "60s"), nil
	})

	g := NewBuilder(ext, nil).Build(ctx, []model.Evidence{{ID: "1", Text: "a"}}, canon.DefaultThreshold)
	assert.Equal(t, 0, g.Stats().ClaimNodes)
	assert.Equal(t, 1, g.Stats().ExtractionFailures)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "timeout", resultLabel(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	assert.Equal(t, "error", resultLabel(errors.New("x")))
	assert.True(t, strings.HasPrefix(tracerName, "github.com/pdu3/AstarML"))
}
