// Package query maps a free-text question onto parameter keys and asks the
// claim graph for decisions about them.
package query

import (
	"strings"

	"github.com/pdu3/AstarML/internal/canon"
	"github.com/pdu3/AstarML/internal/claimgraph"
	"github.com/pdu3/AstarML/internal/model"
)

type keywordRule struct {
	words []string
	key   string
}

// Checked in order; the first rule that fires fixes a key's position
var keywordTable = []keywordRule{
	{[]string{"concurrency", "parallel", "workers"}, "param.concurrency"},
	{[]string{"batch", "batch_size"}, "param.batch_size"},
	{[]string{"timeout", "latency"}, "param.timeout"},
	{[]string{"retry", "retries", "backoff"}, "param.retries"},
	{[]string{"patience", "early stopping"}, "param.early_stopping.patience"},
	{[]string{"scheduler", "cosine", "step"}, "param.lr_scheduler"},
	{[]string{"retention", "artifact"}, "param.artifact_retention_days"},
	{[]string{"granularity", "metrics"}, "param.metrics.granularity"},
}

// InferKeys returns the parameter keys a question mentions. Matching is a
// case-insensitive substring test, so "batches" still selects the batch key.
func InferKeys(question string) []string {
	q := strings.ToLower(question)
	keys := []string{}
	seen := make(map[string]bool)
	for _, rule := range keywordTable {
		if seen[rule.key] {
			continue
		}
		for _, w := range rule.words {
			if strings.Contains(q, w) {
				keys = append(keys, rule.key)
				seen[rule.key] = true
				break
			}
		}
	}
	return keys
}

// ParseKeys splits a comma separated key list, dropping blanks and repeats
func ParseKeys(list string) []string {
	keys := []string{}
	seen := make(map[string]bool)
	for _, k := range strings.Split(list, ",") {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// Resolve finds the graph key a requested key refers to. An exact match wins;
// otherwise the most similar key scoring at least threshold, earliest on ties.
func Resolve(requested string, graphKeys []string, threshold float64) (string, bool) {
	for _, k := range graphKeys {
		if k == requested {
			return k, true
		}
	}

	best, bestScore := "", -1.0
	for _, k := range graphKeys {
		if s := canon.Similarity(requested, k); s >= threshold && s > bestScore {
			best, bestScore = k, s
		}
	}
	return best, bestScore >= 0
}

// Run resolves each key against g and collects its decisions. Blank keys are
// skipped; keys absent from the graph come back with no decisions.
func Run(g *claimgraph.Graph, keys []string, topK int, lambda, threshold float64) []model.KeyDecision {
	graphKeys := g.Keys()
	out := []model.KeyDecision{}
	for _, requested := range keys {
		requested = strings.TrimSpace(requested)
		if requested == "" {
			continue
		}
		kd := model.KeyDecision{Requested: requested, Decisions: []model.Decision{}}
		if resolved, ok := Resolve(requested, graphKeys, threshold); ok {
			kd.Resolved = resolved
			kd.Decisions = g.Decide(resolved, topK, lambda)
		}
		out = append(out, kd)
	}
	return out
}

// Found reports whether any key produced at least one decision
func Found(results []model.KeyDecision) bool {
	for _, kd := range results {
		if len(kd.Decisions) > 0 {
			return true
		}
	}
	return false
}
