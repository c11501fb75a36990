// Package claimgraph builds a provenance graph of evidence passages and the
// config-like claims they support, and adjudicates between competing values
// for the same parameter.
package claimgraph

import (
	"sort"

	"github.com/pdu3/AstarML/internal/model"
)

// Number of supporting passages listed per decision
const maxSupportsPerDecision = 5

// EvidenceNode is a passage that supports at least one claim
type EvidenceNode struct {
	ID         string // "<source>::<id>"
	Source     string
	EvidenceID string
	Score      float64
	Meta       map[string]string
}

// ClaimNode is a unique (key, value) pair under a representative key
type ClaimNode struct {
	Key   string
	Value string
}

// ID returns "key=value"
func (c ClaimNode) ID() string {
	return c.Key + "=" + c.Value
}

// SupportEdge links a passage to a claim it asserts. Repeated assertions
// produce repeated edges, so support adds up.
type SupportEdge struct {
	Evidence int // handle into EvidenceNodes
	Claim    int // handle into Claims
	Weight   float64
	Sentence string
}

type claimKey struct {
	key   string
	value string
}

// Graph is an arena of nodes addressed by integer handles. It is not safe for
// concurrent mutation; read-only use after Build may be shared.
type Graph struct {
	evidence    []EvidenceNode
	evidenceIdx map[string]int

	claims    []ClaimNode
	claimIdx  map[claimKey]int
	claimByID map[string]int
	keyOrder  []string
	byKey     map[string][]int

	supports        []SupportEdge
	supportsByClaim [][]int // edge indexes per claim handle

	contradicts   [][]int // claim handle -> contradicting claim handles
	contradictSet map[[2]int]struct{}

	extractionFailures int
	discardedTriples   int
}

// New returns an empty graph
func New() *Graph {
	return &Graph{
		evidenceIdx:   make(map[string]int),
		claimIdx:      make(map[claimKey]int),
		claimByID:     make(map[string]int),
		byKey:         make(map[string][]int),
		contradictSet: make(map[[2]int]struct{}),
	}
}

// addEvidence returns the handle for ev, creating the node on first use
func (g *Graph) addEvidence(ev model.Evidence) int {
	id := ev.NodeID()
	if h, ok := g.evidenceIdx[id]; ok {
		return h
	}

	meta := make(map[string]string, len(ev.Meta))
	for k, v := range ev.Meta {
		meta[k] = v
	}

	h := len(g.evidence)
	g.evidence = append(g.evidence, EvidenceNode{
		ID:         id,
		Source:     ev.Source,
		EvidenceID: ev.ID,
		Score:      ev.Score,
		Meta:       meta,
	})
	g.evidenceIdx[id] = h
	return h
}

// addClaim returns the handle for (key, value), creating the node on first use
func (g *Graph) addClaim(key, value string) int {
	ck := claimKey{key: key, value: value}
	if h, ok := g.claimIdx[ck]; ok {
		return h
	}

	h := len(g.claims)
	c := ClaimNode{Key: key, Value: value}
	g.claims = append(g.claims, c)
	g.claimIdx[ck] = h
	if _, taken := g.claimByID[c.ID()]; !taken {
		g.claimByID[c.ID()] = h
	}
	if _, seen := g.byKey[key]; !seen {
		g.keyOrder = append(g.keyOrder, key)
	}
	g.byKey[key] = append(g.byKey[key], h)
	g.supportsByClaim = append(g.supportsByClaim, nil)
	g.contradicts = append(g.contradicts, nil)
	return h
}

func (g *Graph) addSupport(evidence, claim int, weight float64, sentence string) {
	g.supports = append(g.supports, SupportEdge{
		Evidence: evidence,
		Claim:    claim,
		Weight:   weight,
		Sentence: sentence,
	})
	g.supportsByClaim[claim] = append(g.supportsByClaim[claim], len(g.supports)-1)
}

// AddContradictions links every pair of claims sharing a key but differing in
// value with edges in both directions. Running it again adds nothing; the
// number of new directed edges is returned.
func (g *Graph) AddContradictions() int {
	added := 0
	for _, key := range g.keyOrder {
		handles := g.byKey[key]
		for i := 0; i < len(handles); i++ {
			for j := i + 1; j < len(handles); j++ {
				a, b := handles[i], handles[j]
				if g.claims[a].Value == g.claims[b].Value {
					continue
				}
				added += g.link(a, b)
				added += g.link(b, a)
			}
		}
	}
	return added
}

func (g *Graph) link(from, to int) int {
	edge := [2]int{from, to}
	if _, ok := g.contradictSet[edge]; ok {
		return 0
	}
	g.contradictSet[edge] = struct{}{}
	g.contradicts[from] = append(g.contradicts[from], to)
	return 1
}

// support sums the weights of every edge into claim h
func (g *Graph) support(h int) float64 {
	total := 0.0
	for _, e := range g.supportsByClaim[h] {
		total += g.supports[e].Weight
	}
	return total
}

func (g *Graph) consensus(h int, lambda float64) float64 {
	penalty := 0.0
	for _, other := range g.contradicts[h] {
		penalty += g.support(other)
	}
	return g.support(h) - lambda*penalty
}

// ConsensusScore is the claim's own support minus lambda times the support of
// every claim contradicting it. Unknown claims score 0.
func (g *Graph) ConsensusScore(claimID string, lambda float64) float64 {
	h, ok := g.claimByID[claimID]
	if !ok {
		return 0
	}
	return g.consensus(h, lambda)
}

// Decide ranks the claims for key by consensus (ties keep insertion order)
// and returns the first topK. Each decision lists its strongest supports and,
// per competing claim, that claim's strongest support.
func (g *Graph) Decide(key string, topK int, lambda float64) []model.Decision {
	handles := g.byKey[key]
	if topK <= 0 || len(handles) == 0 {
		return []model.Decision{}
	}

	type ranked struct {
		handle int
		score  float64
	}
	rs := make([]ranked, len(handles))
	for i, h := range handles {
		rs[i] = ranked{handle: h, score: g.consensus(h, lambda)}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].score > rs[j].score })

	if len(rs) > topK {
		rs = rs[:topK]
	}

	out := make([]model.Decision, 0, len(rs))
	for _, r := range rs {
		c := g.claims[r.handle]
		d := model.Decision{
			ClaimID:     c.ID(),
			Key:         c.Key,
			Value:       c.Value,
			Consensus:   r.score,
			Supports:    []model.SupportRef{},
			Contradicts: []model.Contradiction{},
		}

		edges := g.sortedSupports(r.handle)
		if len(edges) > maxSupportsPerDecision {
			edges = edges[:maxSupportsPerDecision]
		}
		for _, e := range edges {
			d.Supports = append(d.Supports, g.supportRef(e))
		}

		for _, other := range g.contradicts[r.handle] {
			best := g.sortedSupports(other)
			if len(best) == 0 {
				continue
			}
			ref := g.supportRef(best[0])
			d.Contradicts = append(d.Contradicts, model.Contradiction{
				Claim:    g.claims[other].ID(),
				Value:    g.claims[other].Value,
				Evidence: ref.Evidence,
				Source:   ref.Source,
				ID:       ref.ID,
				Weight:   ref.Weight,
				Sentence: ref.Sentence,
			})
		}
		out = append(out, d)
	}
	return out
}

// sortedSupports returns claim h's edges by weight, strongest first
func (g *Graph) sortedSupports(h int) []SupportEdge {
	edges := make([]SupportEdge, 0, len(g.supportsByClaim[h]))
	for _, e := range g.supportsByClaim[h] {
		edges = append(edges, g.supports[e])
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })
	return edges
}

func (g *Graph) supportRef(e SupportEdge) model.SupportRef {
	ev := g.evidence[e.Evidence]
	return model.SupportRef{
		Evidence: ev.ID,
		Source:   ev.Source,
		ID:       ev.EvidenceID,
		Weight:   e.Weight,
		Sentence: e.Sentence,
	}
}

// Claims returns every claim node in insertion order
func (g *Graph) Claims() []ClaimNode {
	return append([]ClaimNode(nil), g.claims...)
}

// EvidenceNodes returns every evidence node in insertion order
func (g *Graph) EvidenceNodes() []EvidenceNode {
	return append([]EvidenceNode(nil), g.evidence...)
}

// Claim looks up a claim by id
func (g *Graph) Claim(claimID string) (ClaimNode, bool) {
	h, ok := g.claimByID[claimID]
	if !ok {
		return ClaimNode{}, false
	}
	return g.claims[h], true
}

// Supports returns the edges into a claim in insertion order
func (g *Graph) Supports(claimID string) []SupportEdge {
	h, ok := g.claimByID[claimID]
	if !ok {
		return nil
	}
	out := make([]SupportEdge, 0, len(g.supportsByClaim[h]))
	for _, e := range g.supportsByClaim[h] {
		out = append(out, g.supports[e])
	}
	return out
}

// Support returns the summed support weight of a claim
func (g *Graph) Support(claimID string) float64 {
	h, ok := g.claimByID[claimID]
	if !ok {
		return 0
	}
	return g.support(h)
}

// Contradicts returns the ids of claims contradicting claimID
func (g *Graph) Contradicts(claimID string) []string {
	h, ok := g.claimByID[claimID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.contradicts[h]))
	for _, other := range g.contradicts[h] {
		out = append(out, g.claims[other].ID())
	}
	return out
}

// HasContradiction reports whether a directed contradiction edge a -> b exists
func (g *Graph) HasContradiction(a, b string) bool {
	ha, okA := g.claimByID[a]
	hb, okB := g.claimByID[b]
	if !okA || !okB {
		return false
	}
	_, ok := g.contradictSet[[2]int{ha, hb}]
	return ok
}

// Keys returns the representative keys in first-seen order
func (g *Graph) Keys() []string {
	return append([]string(nil), g.keyOrder...)
}

// Stats summarizes the graph
func (g *Graph) Stats() model.GraphStats {
	return model.GraphStats{
		EvidenceNodes:      len(g.evidence),
		ClaimNodes:         len(g.claims),
		SupportEdges:       len(g.supports),
		ContradictionEdges: len(g.contradictSet),
		ExtractionFailures: g.extractionFailures,
		DiscardedTriples:   g.discardedTriples,
	}
}
