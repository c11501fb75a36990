package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdu3/AstarML/internal/extract"
	"github.com/pdu3/AstarML/internal/model"
)

func evidenceList(texts ...string) []model.Evidence {
	out := make([]model.Evidence, len(texts))
	for i, t := range texts {
		out[i] = model.Evidence{ID: t, Source: "docs", Text: t}
	}
	return out
}

func TestBatchExtractor_OrderIndependentOfCompletion(t *testing.T) {
	// earlier items finish last
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		delay := time.Duration(10-len(text)) * 5 * time.Millisecond
		time.Sleep(delay)
		return []model.Triple{{Key: "k", Value: text, Sentence: text}}, nil
	})

	b := NewBatchExtractor(ext, 4, time.Second, nil)
	results := b.ExtractAll(context.Background(), evidenceList("a", "bb", "ccc", "dddd", "eeeee"))

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
		}
		if len(r.Triples) != 1 || r.Triples[0].Value != r.Evidence.Text {
			t.Errorf("result %d: triples do not belong to the passage: %+v", i, r.Triples)
		}
	}
}

func TestBatchExtractor_TimeoutAndFailure(t *testing.T) {
	ext := extract.Func(func(ctx context.Context, text string) ([]model.Triple, error) {
		switch {
		case strings.HasPrefix(text, "slow"):
			<-ctx.Done()
			return nil, ctx.Err()
		case strings.HasPrefix(text, "fail"):
			return nil, extract.ErrUnavailable
		case strings.HasPrefix(text, "panic"):
			panic("boom")
		}
		return []model.Triple{{Key: "k", Value: "v", Sentence: text}}, nil
	})

	b := NewBatchExtractor(ext, 2, 30*time.Millisecond, nil)
	results := b.ExtractAll(context.Background(), evidenceList("slow", "ok", "fail", "panic"))

	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", results[0].Err)
	}
	if results[1].Err != nil || len(results[1].Triples) != 1 {
		t.Errorf("expected ok item to succeed, got %+v", results[1])
	}
	if !errors.Is(results[2].Err, extract.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", results[2].Err)
	}
	if !errors.Is(results[3].Err, extract.ErrUnavailable) {
		t.Errorf("expected panic to become ErrUnavailable, got %v", results[3].Err)
	}
}

func TestBatchExtractor_Empty(t *testing.T) {
	b := NewBatchExtractor(extract.NewClaimExtractor(), 2, time.Second, nil)
	if got := b.ExtractAll(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestBatchExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatchExtractor(extract.NewClaimExtractor(), 2, time.Second, NewLimiter(1, 1))
	results := b.ExtractAll(ctx, evidenceList("timeout = 60s", "retries = 3"))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err == nil {
			t.Errorf("result %d: expected an error for a cancelled batch", i)
		}
	}
}
