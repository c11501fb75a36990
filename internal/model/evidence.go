package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Evidence represents one retrieved passage (a chunk returned by the retrieval stage)
type Evidence struct {
	ID     string            `json:"id"`              // Chunk id (e.g., "data/docs/runner.md#c3")
	Source string            `json:"source"`          // docs, forums, blogs (open set)
	Text   string            `json:"text"`            // Passage text handed to the extractor
	Score  float64           `json:"score,omitempty"` // Retrieval/fusion score, 0 when absent
	Meta   map[string]string `json:"meta,omitempty"`  // Free-form metadata (timestamp, _fused_raw, ...)
}

// UnmarshalJSON accepts metadata with non-string scalar values, as written
// by retrieval producers ("_fused_raw": 1.5, "upvotes": 9), and stores them
// in their string form. Nested values keep their JSON encoding.
func (e *Evidence) UnmarshalJSON(data []byte) error {
	type plain Evidence
	var raw struct {
		plain
		Meta map[string]any `json:"meta,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Evidence(raw.plain)
	e.Meta = nil
	if len(raw.Meta) == 0 {
		return nil
	}
	e.Meta = make(map[string]string, len(raw.Meta))
	for k, v := range raw.Meta {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			e.Meta[k] = x
		case float64:
			e.Meta[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			e.Meta[k] = strconv.FormatBool(x)
		default:
			b, err := json.Marshal(x)
			if err != nil {
				return err
			}
			e.Meta[k] = string(b)
		}
	}
	return nil
}

// SourceType classifies where a passage came from
type SourceType string

const (
	SourceDocs   SourceType = "docs"   // Official documentation
	SourceForums SourceType = "forums" // Q&A threads
	SourceBlogs  SourceType = "blogs"  // Blog posts
)

// Well-known metadata keys
const (
	MetaSource         = "source"
	MetaID             = "id"
	MetaFusedRaw       = "_fused_raw"      // Unnormalized fusion score, preferred over Score
	MetaTime           = "time"            // Preferred timestamp key
	MetaTimestamp      = "timestamp"       // Fallback timestamp key
	MetaRetrievalScore = "retrieval_score" // Original score kept after reranking
)

// NodeID returns the stable evidence identifier "<source>::<id>"
func (e Evidence) NodeID() string {
	source := e.Source
	if source == "" {
		source = "src"
	}
	id := e.ID
	if id == "" {
		id = "chunk"
	}
	return source + "::" + id
}

// ScoringMeta returns a copy of the metadata with the source filled in,
// which is the shape the evidence scorer expects.
func (e Evidence) ScoringMeta() map[string]string {
	meta := make(map[string]string, len(e.Meta)+2)
	for k, v := range e.Meta {
		meta[k] = v
	}
	if _, ok := meta[MetaSource]; !ok && e.Source != "" {
		meta[MetaSource] = strings.ToLower(e.Source)
	}
	if _, ok := meta[MetaID]; !ok && e.ID != "" {
		meta[MetaID] = e.ID
	}
	return meta
}
