package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/pdu3/AstarML/internal/extract"
	"github.com/pdu3/AstarML/internal/model"
)

// ExtractJob runs the extractor on one passage under its own deadline
type ExtractJob struct {
	Index     int
	Evidence  model.Evidence
	Extractor extract.Extractor
	Timeout   time.Duration
	Limiter   *Limiter
}

// Execute runs the extraction. Panics in the extractor become errors.
func (j *ExtractJob) Execute(ctx context.Context) (res Result) {
	start := time.Now()
	out := &ExtractResult{Index: j.Index, Evidence: j.Evidence}
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%w: extractor panic: %v", extract.ErrUnavailable, r)
		}
		out.Elapsed = time.Since(start)
		res = out
	}()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Extractor.Name()); err != nil {
			out.Err = fmt.Errorf("%w: rate limit: %v", extract.ErrUnavailable, err)
			return out
		}
	}

	triples, err := j.Extractor.Extract(ctx, j.Evidence.Text)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		out.Err = err
		return out
	}
	out.Triples = triples
	return out
}

// ExtractResult holds the triples for one passage
type ExtractResult struct {
	Index    int
	Evidence model.Evidence
	Triples  []model.Triple
	Err      error
	Elapsed  time.Duration
}

// GetError returns the extraction error
func (r *ExtractResult) GetError() error {
	return r.Err
}

// BatchExtractor fans extraction out over a pool
type BatchExtractor struct {
	extractor   extract.Extractor
	concurrency int
	timeout     time.Duration
	limiter     *Limiter
}

// NewBatchExtractor creates a batch extractor; limiter may be nil
func NewBatchExtractor(extractor extract.Extractor, concurrency int, timeout time.Duration, limiter *Limiter) *BatchExtractor {
	return &BatchExtractor{
		extractor:   extractor,
		concurrency: concurrency,
		timeout:     timeout,
		limiter:     limiter,
	}
}

// ExtractAll extracts every passage and returns one result per passage, in
// input order regardless of completion order. Items that never ran because
// ctx was cancelled carry ctx's error.
func (b *BatchExtractor) ExtractAll(ctx context.Context, evidence []model.Evidence) []*ExtractResult {
	if len(evidence) == 0 {
		return []*ExtractResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, ev := range evidence {
		job := &ExtractJob{
			Index:     i,
			Evidence:  ev,
			Extractor: b.extractor,
			Timeout:   b.timeout,
			Limiter:   b.limiter,
		}
		if err := pool.Submit(job); err != nil {
			break
		}
	}

	results := make([]*ExtractResult, len(evidence))
	for _, r := range pool.Wait() {
		er := r.(*ExtractResult)
		results[er.Index] = er
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &ExtractResult{Index: i, Evidence: evidence[i], Err: err}
		}
	}

	return results
}
