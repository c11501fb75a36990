package model

import "strings"

// Triple is a single claim returned by the extraction collaborator
type Triple struct {
	Key      string `json:"key"`  // Raw parameter name as phrased in the passage
	Value    string `json:"val"`  // Short value (number/unit/enum/boolean)
	Sentence string `json:"sent"` // Sentence span the claim was read from
}

// Valid reports whether key, value and sentence are all non-empty
func (t Triple) Valid() bool {
	return strings.TrimSpace(t.Key) != "" &&
		strings.TrimSpace(t.Value) != "" &&
		strings.TrimSpace(t.Sentence) != ""
}

// Trimmed returns the triple with surrounding whitespace removed
func (t Triple) Trimmed() Triple {
	return Triple{
		Key:      strings.TrimSpace(t.Key),
		Value:    strings.TrimSpace(t.Value),
		Sentence: strings.TrimSpace(t.Sentence),
	}
}

// Decision is one ranked answer for a parameter key
type Decision struct {
	ClaimID     string          `json:"claim_id"`
	Key         string          `json:"key"`
	Value       string          `json:"val"`
	Consensus   float64         `json:"consensus"`
	Supports    []SupportRef    `json:"supports"`    // Strongest supporting evidence, descending
	Contradicts []Contradiction `json:"contradicts"` // One entry per competing claim
}

// SupportRef points at the evidence behind a claim
type SupportRef struct {
	Evidence string  `json:"evidence"` // Evidence node id ("<source>::<id>")
	Source   string  `json:"source,omitempty"`
	ID       string  `json:"id,omitempty"`
	Weight   float64 `json:"weight"`
	Sentence string  `json:"sentence,omitempty"`
}

// Contradiction names a competing claim and its strongest supporting evidence
type Contradiction struct {
	Claim    string  `json:"claim"` // Competing claim id ("key=value")
	Value    string  `json:"val"`
	Evidence string  `json:"evidence"`
	Source   string  `json:"source,omitempty"`
	ID       string  `json:"id,omitempty"`
	Weight   float64 `json:"weight"`
	Sentence string  `json:"sentence,omitempty"`
}
