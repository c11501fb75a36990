package score

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdu3/AstarML/internal/model"
)

// Component weights of the evidence weight
const (
	retrievalWeight = 0.6
	sourceWeight    = 0.3
	freshnessWeight = 0.1
)

// Neutral freshness used when no usable timestamp is present
const neutralFreshness = 0.5

// Scorer computes the weight of an evidence-to-claim support edge from the
// retrieval score, the trust in the source type and the age of the passage
type Scorer struct {
	weights     map[string]float64
	minWeight   float64
	maxWeight   float64
	horizonDays float64
	now         func() time.Time
}

// Option configures a Scorer
type Option func(*Scorer)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// NewScorer creates a scorer. A nil or empty weights map falls back to the
// default source trust table; a non-positive horizon falls back to 180 days.
func NewScorer(weights map[string]float64, horizonDays int, opts ...Option) *Scorer {
	if len(weights) == 0 {
		weights = model.DefaultSourceWeights()
	}
	if horizonDays <= 0 {
		horizonDays = 180
	}

	s := &Scorer{
		weights:     make(map[string]float64, len(weights)),
		minWeight:   math.Inf(1),
		maxWeight:   math.Inf(-1),
		horizonDays: float64(horizonDays),
		now:         time.Now,
	}
	for k, w := range weights {
		s.weights[strings.ToLower(k)] = w
		s.minWeight = math.Min(s.minWeight, w)
		s.maxWeight = math.Max(s.maxWeight, w)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Default returns a scorer with the default trust table and horizon
func Default() *Scorer {
	return NewScorer(nil, 0)
}

// Breakdown shows how a weight was assembled
type Breakdown struct {
	Raw       float64 `json:"raw"`       // Retrieval score before the sigmoid
	Retrieval float64 `json:"retrieval"` // sigmoid(raw)
	Source    string  `json:"source"`
	Trust     float64 `json:"trust"` // Rescaled source trust in [0,1]
	Freshness float64 `json:"freshness"`
	Weight    float64 `json:"weight"`
	Formula   string  `json:"formula"`
}

// Weight returns the support weight in [0,1]. It never fails: missing or
// malformed metadata degrades to neutral defaults.
func (s *Scorer) Weight(meta map[string]string, base float64) float64 {
	return s.Explain(meta, base).Weight
}

// Explain computes the weight together with its components
func (s *Scorer) Explain(meta map[string]string, base float64) Breakdown {
	raw := rawScore(meta, base)
	source := sourceOf(meta)

	b := Breakdown{
		Raw:       raw,
		Retrieval: sigmoid(raw),
		Source:    source,
		Trust:     s.trust(source),
		Freshness: s.freshness(timestampOf(meta)),
		Formula:   "0.6*sigmoid(raw) + 0.3*trust + 0.1*freshness",
	}
	b.Weight = clamp01(retrievalWeight*b.Retrieval + sourceWeight*b.Trust + freshnessWeight*b.Freshness)
	return b
}

// trust rescales the configured source weight into [0,1]
func (s *Scorer) trust(source string) float64 {
	w, ok := s.weights[source]
	if !ok {
		w = 1.0
	}

	span := s.maxWeight - s.minWeight
	if span == 0 {
		span = 1
	}
	return clamp01((w - s.minWeight) / span)
}

// freshness decays linearly from 1 to 0 over the horizon
func (s *Scorer) freshness(ts string) float64 {
	if ts == "" {
		return neutralFreshness
	}
	t, ok := ParseTimestamp(ts)
	if !ok {
		return neutralFreshness
	}

	days := math.Floor(s.now().Sub(t).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if days >= s.horizonDays {
		return 0
	}
	return math.Max(0, 1-days/s.horizonDays)
}

func rawScore(meta map[string]string, base float64) float64 {
	if v, ok := meta[model.MetaFusedRaw]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) {
			return f
		}
	}
	if math.IsNaN(base) {
		return 0
	}
	return base
}

func sourceOf(meta map[string]string) string {
	src := strings.ToLower(strings.TrimSpace(meta[model.MetaSource]))
	if src == "" {
		return string(model.SourceDocs)
	}
	return src
}

func timestampOf(meta map[string]string) string {
	if ts := strings.TrimSpace(meta[model.MetaTime]); ts != "" {
		return ts
	}
	return strings.TrimSpace(meta[model.MetaTimestamp])
}

func sigmoid(x float64) float64 {
	switch {
	case math.IsInf(x, 1):
		return 1
	case math.IsInf(x, -1):
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
