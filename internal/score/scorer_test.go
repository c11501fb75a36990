package score

import (
	"math"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return NewScorer(nil, 0, WithClock(func() time.Time { return fixedNow }))
}

func TestScorer_Weight_Formula(t *testing.T) {
	s := newTestScorer()

	// docs, no timestamp: 0.6*sigmoid(0.9) + 0.3*1 + 0.1*0.5
	want := 0.6/(1+math.Exp(-0.9)) + 0.3 + 0.05
	got := s.Weight(map[string]string{"source": "docs"}, 0.9)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %.6f, got %.6f", want, got)
	}

	// forums trust rescales to (0.88-0.75)/(1.0-0.75) = 0.52
	want = 0.6/(1+math.Exp(-0.4)) + 0.3*0.52 + 0.05
	got = s.Weight(map[string]string{"source": "forums"}, 0.4)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %.6f, got %.6f", want, got)
	}
}

func TestScorer_Weight_DocsOutweighForums(t *testing.T) {
	s := newTestScorer()

	docs := s.Weight(map[string]string{"source": "docs"}, 0.5)
	forums := s.Weight(map[string]string{"source": "forums"}, 0.5)
	blogs := s.Weight(map[string]string{"source": "blogs"}, 0.5)

	if !(docs > forums && forums > blogs) {
		t.Errorf("Expected docs > forums > blogs, got %.4f, %.4f, %.4f", docs, forums, blogs)
	}
}

func TestScorer_Weight_Bounds(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name string
		meta map[string]string
		base float64
	}{
		{"nil meta", nil, 0},
		{"huge base", map[string]string{}, 1e9},
		{"negative base", map[string]string{}, -1e9},
		{"positive inf", nil, math.Inf(1)},
		{"negative inf", nil, math.Inf(-1)},
		{"nan base", nil, math.NaN()},
		{"nan fused", map[string]string{"_fused_raw": "NaN"}, 0.3},
		{"unknown source", map[string]string{"source": "mailing-list"}, 2},
		{"fresh blog", map[string]string{"source": "blogs", "timestamp": "2025-06-01"}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.Weight(tt.meta, tt.base)
			if w < 0 || w > 1 || math.IsNaN(w) {
				t.Errorf("Weight out of [0,1]: %v", w)
			}
		})
	}
}

func TestScorer_Weight_PrefersFusedRaw(t *testing.T) {
	s := newTestScorer()

	withRaw := s.Weight(map[string]string{"_fused_raw": "3.0"}, -3.0)
	plain := s.Weight(nil, 3.0)
	if math.Abs(withRaw-plain) > 1e-12 {
		t.Errorf("Expected _fused_raw to replace base score: %.6f vs %.6f", withRaw, plain)
	}

	// unparseable raw falls back to base
	bad := s.Weight(map[string]string{"_fused_raw": "high"}, 3.0)
	if math.Abs(bad-plain) > 1e-12 {
		t.Errorf("Expected fallback to base score: %.6f vs %.6f", bad, plain)
	}
}

func TestScorer_Freshness(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name string
		ts   string
		want float64
	}{
		{"missing", "", 0.5},
		{"unparseable", "last tuesday", 0.5},
		{"today", "2025-06-01T08:00:00Z", 1.0},
		{"future", "2026-01-01", 1.0},
		{"90 days", "2025-03-03", 0.5},
		{"180 days", "2024-12-03", 0.0},
		{"ancient", "2019-01-01", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.freshness(tt.ts)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("freshness(%q) = %.4f, want %.4f", tt.ts, got, tt.want)
			}
		})
	}
}

func TestScorer_TimePreferredOverTimestamp(t *testing.T) {
	s := newTestScorer()

	b := s.Explain(map[string]string{
		"time":      "2025-06-01",
		"timestamp": "2019-01-01",
	}, 0)
	if b.Freshness != 1.0 {
		t.Errorf("Expected time key to win, freshness %.4f", b.Freshness)
	}
}

func TestScorer_EqualWeights(t *testing.T) {
	s := NewScorer(map[string]float64{"docs": 1, "forums": 1}, 180)

	b := s.Explain(map[string]string{"source": "forums"}, 0)
	if b.Trust != 0 {
		t.Errorf("Expected trust 0 when all weights are equal, got %.4f", b.Trust)
	}
}

func TestScorer_UnknownSourceGetsFullTrust(t *testing.T) {
	s := newTestScorer()

	b := s.Explain(map[string]string{"source": "Mailing-List"}, 0)
	if b.Trust != 1.0 {
		t.Errorf("Expected unknown source to default to full trust, got %.4f", b.Trust)
	}
	if b.Source != "mailing-list" {
		t.Errorf("Expected lowercased source, got %q", b.Source)
	}
}

func TestParseTimestamp(t *testing.T) {
	valid := []string{
		"2024-05-01",
		"2024-05-01T10:00:00Z",
		"2024-05-01T10:00:00.123+02:00",
		"2024-05-01 10:00:00",
		"Wed, 01 May 2024 10:00:00 GMT",
		"May 1, 2024",
		"1714557600",
	}
	for _, v := range valid {
		if _, ok := ParseTimestamp(v); !ok {
			t.Errorf("Expected %q to parse", v)
		}
	}

	for _, v := range []string{"", "soon", "2024-13-45"} {
		if _, ok := ParseTimestamp(v); ok {
			t.Errorf("Expected %q to be rejected", v)
		}
	}
}
