package claimgraph

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdu3/AstarML/internal/canon"
	"github.com/pdu3/AstarML/internal/extract"
	"github.com/pdu3/AstarML/internal/logger"
	"github.com/pdu3/AstarML/internal/metrics"
	"github.com/pdu3/AstarML/internal/model"
	"github.com/pdu3/AstarML/internal/score"
	"github.com/pdu3/AstarML/internal/worker"
)

const tracerName = "github.com/pdu3/AstarML/internal/claimgraph"

// Builder turns ranked evidence into a fresh Graph per call
type Builder struct {
	extractor       extract.Extractor
	scorer          *score.Scorer
	workers         int
	timeout         time.Duration
	limiter         *worker.Limiter
	log             *logger.Logger
	normalizeValues bool
	tracer          trace.Tracer
}

// Option configures a Builder
type Option func(*Builder)

// WithWorkers bounds concurrent extraction calls
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithTimeout bounds each extraction call
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) { b.timeout = d }
}

// WithLimiter rate limits extraction calls
func WithLimiter(l *worker.Limiter) Option {
	return func(b *Builder) { b.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithValueNormalization folds value spellings ("60 sec" -> "60s") before insertion
func WithValueNormalization(on bool) Option {
	return func(b *Builder) { b.normalizeValues = on }
}

// NewBuilder creates a builder. A nil scorer uses the default weights.
func NewBuilder(extractor extract.Extractor, scorer *score.Scorer, opts ...Option) *Builder {
	if scorer == nil {
		scorer = score.Default()
	}
	b := &Builder{
		extractor: extractor,
		scorer:    scorer,
		workers:   4,
		timeout:   30 * time.Second,
		log:       logger.Nop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type pendingTriple struct {
	evidence model.Evidence
	triple   model.Triple
}

// Build extracts claims from every passage, clusters their keys with
// threshold, inserts nodes and support edges in evidence order and finally
// links contradictions. Failed extractions contribute nothing; Build itself
// never fails.
func (b *Builder) Build(ctx context.Context, evidence []model.Evidence, threshold float64) *Graph {
	start := time.Now()
	ctx, span := b.tracer.Start(ctx, "claimgraph.Build", trace.WithAttributes(
		attribute.Int("evidence.count", len(evidence)),
		attribute.Float64("cluster.threshold", threshold),
		attribute.String("extractor", b.extractor.Name()),
	))
	defer span.End()

	g := New()

	batch := worker.NewBatchExtractor(&tracedExtractor{next: b.extractor, tracer: b.tracer}, b.workers, b.timeout, b.limiter)
	results := batch.ExtractAll(ctx, evidence)

	// results are in evidence order; triples keep extractor order within an item
	var pending []pendingTriple
	for _, r := range results {
		if r.Err != nil {
			g.extractionFailures++
			metrics.ExtractionCalls.WithLabelValues(resultLabel(r.Err)).Inc()
			b.log.Warn("extraction failed",
				"evidence", r.Evidence.NodeID(),
				"elapsed", r.Elapsed,
				"error", r.Err,
			)
			continue
		}
		metrics.ExtractionCalls.WithLabelValues(metrics.ResultSuccess).Inc()

		kept, discarded := extract.Clean(r.Triples)
		if discarded > 0 {
			g.discardedTriples += discarded
			metrics.TriplesDiscarded.Add(float64(discarded))
			b.log.Debug("discarded malformed triples", "evidence", r.Evidence.NodeID(), "count", discarded)
		}
		for _, t := range kept {
			pending = append(pending, pendingTriple{evidence: r.Evidence, triple: t})
		}
	}

	if len(pending) > 0 {
		rawKeys := make([]string, len(pending))
		for i, p := range pending {
			rawKeys[i] = p.triple.Key
		}
		representative := canon.Cluster(rawKeys, threshold)

		for _, p := range pending {
			value := p.triple.Value
			if b.normalizeValues {
				value = canon.NormalizeValue(value)
			}
			eh := g.addEvidence(p.evidence)
			ch := g.addClaim(representative[p.triple.Key], value)
			w := b.scorer.Weight(p.evidence.ScoringMeta(), p.evidence.Score)
			g.addSupport(eh, ch, w, p.triple.Sentence)
		}

		added := g.AddContradictions()
		metrics.ContradictionEdges.Add(float64(added))
	}

	stats := g.Stats()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	metrics.GraphClaims.Observe(float64(stats.ClaimNodes))

	span.SetAttributes(
		attribute.Int("graph.evidence_nodes", stats.EvidenceNodes),
		attribute.Int("graph.claims", stats.ClaimNodes),
		attribute.Int("graph.support_edges", stats.SupportEdges),
		attribute.Int("graph.contradiction_edges", stats.ContradictionEdges),
		attribute.Int("extraction.failures", stats.ExtractionFailures),
	)
	if len(evidence) > 0 && stats.ExtractionFailures == len(evidence) {
		span.SetStatus(codes.Error, "all extractions failed")
	}

	b.log.Info("claim graph built",
		"evidence", len(evidence),
		"claims", stats.ClaimNodes,
		"supports", stats.SupportEdges,
		"contradictions", stats.ContradictionEdges,
		"failures", stats.ExtractionFailures,
		"discarded", stats.DiscardedTriples,
		"elapsed", time.Since(start),
	)
	return g
}

func resultLabel(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.ResultTimeout
	}
	return metrics.ResultError
}

// tracedExtractor wraps each extraction call in a child span
type tracedExtractor struct {
	next   extract.Extractor
	tracer trace.Tracer
}

func (t *tracedExtractor) Name() string {
	return t.next.Name()
}

func (t *tracedExtractor) Extract(ctx context.Context, text string) ([]model.Triple, error) {
	ctx, span := t.tracer.Start(ctx, "claimgraph.extract", trace.WithAttributes(
		attribute.Int("text.length", len(text)),
	))
	defer span.End()

	triples, err := t.next.Extract(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("triples", len(triples)))
	return triples, nil
}
