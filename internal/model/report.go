package model

import "time"

// Report represents the complete result of one consistency check
type Report struct {
	RunID     string    `json:"run_id"`     // Random id, also written to the text log
	Query     string    `json:"query"`      // Free-text question the evidence was retrieved for
	CheckedAt time.Time `json:"checked_at"` // When the check ran

	Evidence []EvidenceScore `json:"evidence"` // Evidence items fed into the graph, in rank order
	Keys     []KeyDecision   `json:"keys"`     // Decisions per requested parameter key

	Graph GraphStats `json:"graph"` // Size of the claim graph that was built
	Flags Flags      `json:"flags"` // Options in effect

	Principles Principles `json:"principles"`
}

// EvidenceScore is an evidence item with its retrieval score as seen by the graph
type EvidenceScore struct {
	Source string  `json:"source"`
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
}

// KeyDecision groups the ranked decisions for one requested key
type KeyDecision struct {
	Requested string     `json:"requested"`          // Key as asked for
	Resolved  string     `json:"resolved,omitempty"` // Representative key it matched in the graph
	Decisions []Decision `json:"decisions"`
}

// GraphStats summarizes the claim graph
type GraphStats struct {
	EvidenceNodes      int `json:"evidence_nodes"`
	ClaimNodes         int `json:"claim_nodes"`
	SupportEdges       int `json:"support_edges"`
	ContradictionEdges int `json:"contradiction_edges"` // Directed edges (two per contradicting pair)
	ExtractionFailures int `json:"extraction_failures"`
	DiscardedTriples   int `json:"discarded_triples"`
}

// Flags records the options a check ran with
type Flags struct {
	Rerank           bool    `json:"rerank"`
	RerankModel      string  `json:"rerank_model,omitempty"`
	RerankTopN       int     `json:"rerank_top_n,omitempty"`
	Graph            bool    `json:"graph"`
	GraphTopN        int     `json:"graph_top_n"`
	TopK             int     `json:"top_k"`
	Lambda           float64 `json:"lambda"`
	ClusterThreshold float64 `json:"cluster_threshold"`
	Extractor        string  `json:"extractor,omitempty"`
}

// Principles documents how decisions should be read
type Principles struct {
	NonNormative bool `json:"non_normative"` // Ranks support, not truth
	Transparent  bool `json:"transparent"`   // Every score is traceable to evidence weights
	Symmetric    bool `json:"symmetric"`     // Same weighting rules for all sources
}

// DefaultPrinciples returns the standard principles
func DefaultPrinciples() Principles {
	return Principles{
		NonNormative: true,
		Transparent:  true,
		Symmetric:    true,
	}
}
