// Package rerank reorders retrieved evidence with an external cross-encoder
// scoring service.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdu3/AstarML/internal/logger"
	"github.com/pdu3/AstarML/internal/model"
	"github.com/pdu3/AstarML/internal/util"
)

// ErrNoURL is returned when reranking is enabled without a service URL
var ErrNoURL = errors.New("rerank: service url not configured")

// Reranker reorders evidence for a query and keeps the best topN
type Reranker interface {
	Rerank(ctx context.Context, query string, evidence []model.Evidence) ([]model.Evidence, error)
}

// HTTPReranker posts passages to a cross-encoder service
type HTTPReranker struct {
	url        string
	model      string
	topN       int
	httpClient *http.Client
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

// NewHTTPReranker builds a client from config. Proxies follow the extraction
// proxy settings.
func NewHTTPReranker(cfg model.RerankConfig, proxy model.ExtractionConfig) (*HTTPReranker, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNoURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPReranker{
		url:   cfg.URL,
		model: cfg.Model,
		topN:  cfg.TopN,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy),
			},
		},
	}, nil
}

// Rerank scores every passage against query. Results are ordered by
// relevance, cut to topN, and carry the relevance as their score; the
// previous score is kept in meta["retrieval_score"].
func (r *HTTPReranker) Rerank(ctx context.Context, query string, evidence []model.Evidence) ([]model.Evidence, error) {
	if len(evidence) == 0 {
		return evidence, nil
	}

	docs := make([]string, len(evidence))
	for i, ev := range evidence {
		docs[i] = ev.Text
	}
	topN := r.topN
	if topN <= 0 || topN > len(evidence) {
		topN = len(evidence)
	}

	resp, err := r.post(ctx, rerankRequest{Model: r.model, Query: query, Documents: docs, TopN: topN})
	if err != nil {
		return nil, err
	}

	results := resp.Results
	sort.SliceStable(results, func(i, j int) bool { return results[i].RelevanceScore > results[j].RelevanceScore })

	out := make([]model.Evidence, 0, topN)
	used := make(map[int]bool, len(results))
	for _, res := range results {
		if len(out) == topN {
			break
		}
		if res.Index < 0 || res.Index >= len(evidence) || used[res.Index] {
			continue
		}
		used[res.Index] = true
		out = append(out, withScore(evidence[res.Index], res.RelevanceScore))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rerank: service returned no usable results")
	}
	return out, nil
}

func withScore(ev model.Evidence, score float64) model.Evidence {
	meta := make(map[string]string, len(ev.Meta)+1)
	for k, v := range ev.Meta {
		meta[k] = v
	}
	meta[model.MetaRetrievalScore] = strconv.FormatFloat(ev.Score, 'f', -1, 64)
	ev.Meta = meta
	ev.Score = score
	return ev
}

func (r *HTTPReranker) post(ctx context.Context, apiReq rerankRequest) (*rerankResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp rerankResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

// Apply reranks evidence and falls back to the original order when the
// service fails. The bool reports whether reranking took effect.
func Apply(ctx context.Context, r Reranker, query string, evidence []model.Evidence, log *logger.Logger) ([]model.Evidence, bool) {
	if r == nil || len(evidence) == 0 {
		return evidence, false
	}
	out, err := r.Rerank(ctx, query, evidence)
	if err != nil {
		log.Warn("rerank failed, keeping retrieval order", "error", err, "evidence", len(evidence))
		return evidence, false
	}
	return out, true
}
