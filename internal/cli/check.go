package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdu3/AstarML/internal/cache"
	"github.com/pdu3/AstarML/internal/chunk"
	"github.com/pdu3/AstarML/internal/claimgraph"
	"github.com/pdu3/AstarML/internal/extract"
	"github.com/pdu3/AstarML/internal/llm"
	"github.com/pdu3/AstarML/internal/logger"
	"github.com/pdu3/AstarML/internal/metrics"
	"github.com/pdu3/AstarML/internal/model"
	"github.com/pdu3/AstarML/internal/query"
	"github.com/pdu3/AstarML/internal/report"
	"github.com/pdu3/AstarML/internal/rerank"
	"github.com/pdu3/AstarML/internal/score"
	"github.com/pdu3/AstarML/internal/worker"
)

var (
	evidencePath string
	question     string
	keyList      string
	outJSON      string
	noCache      bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check ranked evidence for conflicting parameter values",
	Long: `Check reads ranked evidence passages (JSONL rows with id, source, text,
score and meta), extracts config-like claims from the top passages, and
reports the best supported value per parameter together with the evidence
that contradicts it.

Keys come from --keys, or are inferred from --q.

Example:
  astarml check --evidence results.jsonl --q "what timeout should the runner use?"
  astarml check --evidence results.jsonl --keys timeout,retries --provider heuristic
  astarml check --evidence results.jsonl --q "batch size?" --rerank --json report.json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := checkCmd.Flags()
	f.StringVar(&evidencePath, "evidence", "", "ranked evidence JSONL file (required)")
	f.StringVar(&question, "q", "", "question the evidence was retrieved for")
	f.StringVar(&keyList, "keys", "", "comma separated parameter keys (default: inferred from --q)")
	f.StringVar(&outJSON, "json", "", "output JSON report path (optional)")
	f.BoolVar(&noCache, "no-cache", false, "disable the extraction cache")
	_ = checkCmd.MarkFlagRequired("evidence")

	// Flags that override config keys
	f.Int("graph-topn", 0, "evidence items fed into the graph")
	f.Int("topk", 0, "decisions per key")
	f.Float64("lambda", 0, "contradiction penalty factor")
	f.Float64("threshold", 0, "key clustering similarity threshold")
	f.Bool("normalize-values", false, "fold value spellings (60 sec -> 60s) before comparing")
	f.Bool("rerank", false, "rerank evidence with the configured cross-encoder service")
	f.String("rerank-url", "", "reranking service URL")
	f.String("rerank-model", "", "reranking model")
	f.Int("rerank-topn", 0, "evidence kept after reranking")
	f.String("provider", "", "extraction provider (openai, anthropic, ollama, heuristic)")
	f.String("model", "", "extraction model name")
	f.Int("workers", 0, "concurrent extraction calls")
	f.Duration("timeout", 0, "timeout per extraction call")
	f.String("log-txt", "", "append a one-line text log per check to this file")
	f.String("metrics-file", "", "write Prometheus metrics for this check to this file")

	for flag, key := range map[string]string{
		"graph-topn":       "graph.top_n",
		"topk":             "graph.top_k",
		"lambda":           "graph.lambda",
		"threshold":        "graph.cluster_threshold",
		"normalize-values": "graph.normalize_values",
		"rerank":           "rerank.enabled",
		"rerank-url":       "rerank.url",
		"rerank-model":     "rerank.model",
		"rerank-topn":      "rerank.top_n",
		"provider":         "extraction.provider",
		"model":            "extraction.model",
		"workers":          "extraction.workers",
		"timeout":          "extraction.timeout",
		"log-txt":          "log.text_log",
		"metrics-file":     "log.metrics_file",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if err := resolveAPIKey(&cfg.Extraction); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	evidence, err := chunk.LoadEvidence(evidencePath, log)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Evidence:   %s (%d passages)\n", evidencePath, len(evidence))
		fmt.Fprintf(os.Stderr, "Extractor:  %s/%s\n", cfg.Extraction.Provider, cfg.Extraction.Model)
		fmt.Fprintf(os.Stderr, "Graph:      top_n=%d top_k=%d lambda=%g threshold=%g\n",
			cfg.Graph.TopN, cfg.Graph.TopK, cfg.Graph.Lambda, cfg.Graph.ClusterThreshold)
		fmt.Fprintln(os.Stderr)
	}

	ext, err := newExtractor(cfg, log)
	if err != nil {
		return err
	}

	r, err := check(cmd.Context(), cfg, checkInput{
		Query:     question,
		Keys:      query.ParseKeys(keyList),
		Evidence:  evidence,
		Extractor: ext,
		RunID:     uuid.NewString(),
	}, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}

	if outJSON != "" {
		if err := report.RenderJSON(r, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if cfg.Log.TextLog != "" {
		if err := report.AppendTextLog(cfg.Log.TextLog, report.TextLogLine(r)); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Text log written: %s\n", cfg.Log.TextLog)
		}
	}
	if cfg.Log.MetricsFile != "" {
		if err := metrics.WriteFile(cfg.Log.MetricsFile); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Metrics written: %s\n", cfg.Log.MetricsFile)
		}
	}
	return nil
}

// resolveAPIKey falls back to the provider's conventional environment variable
func resolveAPIKey(c *model.ExtractionConfig) error {
	if c.APIKey != "" {
		return nil
	}
	switch strings.ToLower(c.Provider) {
	case "openai":
		c.APIKey = os.Getenv("OPENAI_API_KEY")
		if c.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set (or use --provider heuristic)")
		}
	case "anthropic", "claude":
		c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if c.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && c.BaseURL == "" {
			c.BaseURL = baseURL
		}
	}
	return nil
}

// newExtractor builds the configured provider behind the extraction cache
func newExtractor(cfg *model.Config, log *logger.Logger) (extract.Extractor, error) {
	ext, err := llm.NewExtractor(llm.ConfigFromModel(cfg.Extraction))
	if err != nil {
		return nil, err
	}
	return withCache(ext, cfg, log), nil
}

// withCache puts the configured extraction cache in front of ext
func withCache(ext extract.Extractor, cfg *model.Config, log *logger.Logger) extract.Extractor {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		// a broken cache never blocks a check
		log.Warn("extraction cache disabled", "error", err)
		return ext
	}
	if c == nil {
		return ext
	}
	// zero TTL lets every cache layer apply its own configured expiry
	return extract.NewCachedExtractor(ext, c, 0, cfg.Extraction.Model)
}

type checkInput struct {
	Query     string
	Keys      []string // explicit keys; inferred from Query when empty
	Evidence  []model.Evidence
	Extractor extract.Extractor
	Reranker  rerank.Reranker // overrides the configured service when set
	RunID     string
	Now       func() time.Time
}

// check runs one consistency check and prints it to w
func check(ctx context.Context, cfg *model.Config, in checkInput, w io.Writer, log *logger.Logger) (*model.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}

	evidence := in.Evidence
	flags := model.Flags{
		Graph:            true,
		GraphTopN:        cfg.Graph.TopN,
		TopK:             cfg.Graph.TopK,
		Lambda:           cfg.Graph.Lambda,
		ClusterThreshold: cfg.Graph.ClusterThreshold,
		Extractor:        in.Extractor.Name(),
	}

	if cfg.Rerank.Enabled {
		reranker := in.Reranker
		if reranker == nil {
			hr, err := rerank.NewHTTPReranker(cfg.Rerank, cfg.Extraction)
			if err != nil {
				log.Warn("reranking skipped", "error", err)
			} else {
				reranker = hr
			}
		}
		var applied bool
		evidence, applied = rerank.Apply(ctx, reranker, in.Query, evidence, log)
		if applied {
			flags.Rerank = true
			flags.RerankModel = cfg.Rerank.Model
			flags.RerankTopN = cfg.Rerank.TopN
		}
	}

	if cfg.Graph.TopN > 0 && len(evidence) > cfg.Graph.TopN {
		evidence = evidence[:cfg.Graph.TopN]
	}

	r := &model.Report{
		RunID:      in.RunID,
		Query:      in.Query,
		CheckedAt:  now().UTC(),
		Evidence:   make([]model.EvidenceScore, 0, len(evidence)),
		Keys:       []model.KeyDecision{},
		Flags:      flags,
		Principles: model.DefaultPrinciples(),
	}
	for _, ev := range evidence {
		r.Evidence = append(r.Evidence, model.EvidenceScore{Source: ev.Source, ID: ev.ID, Score: ev.Score})
	}
	report.RenderEvidence(w, r.Evidence)

	keys := in.Keys
	if len(keys) == 0 {
		keys = query.InferKeys(in.Query)
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "\nno relevant keys inferred from query; skipping contradiction check")
		return r, nil
	}

	builder := claimgraph.NewBuilder(in.Extractor,
		score.NewScorer(cfg.Scoring.SourceWeights, cfg.Scoring.FreshnessHorizonDays),
		claimgraph.WithWorkers(cfg.Extraction.Workers),
		claimgraph.WithTimeout(cfg.Extraction.Timeout),
		claimgraph.WithLimiter(worker.NewLimiter(cfg.Extraction.RequestsPerSecond, cfg.Extraction.Burst)),
		claimgraph.WithLogger(log.With("run", in.RunID)),
		claimgraph.WithValueNormalization(cfg.Graph.NormalizeValues),
	)
	g := builder.Build(ctx, evidence, cfg.Graph.ClusterThreshold)

	r.Graph = g.Stats()
	r.Keys = query.Run(g, keys, cfg.Graph.TopK, cfg.Graph.Lambda, cfg.Graph.ClusterThreshold)

	report.RenderDecisions(w, r.Keys)
	report.RenderSummary(w, r)
	return r, nil
}
