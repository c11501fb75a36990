// Package report renders check results for terminals, JSON files and the
// append-only text log.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdu3/AstarML/internal/model"
)

// Lines printed per decision in the terminal view
const (
	terminalSupports      = 2
	terminalContradicts   = 2
	terminalEvidenceLimit = 10
)

// RenderEvidence prints the ranked evidence that went into the graph
func RenderEvidence(w io.Writer, evidence []model.EvidenceScore) {
	fmt.Fprintln(w, "=== EVIDENCE (top few) ===")
	for i, ev := range evidence {
		if i == terminalEvidenceLimit {
			break
		}
		fmt.Fprintf(w, "[%d] source=%s id=%s score=%.4f\n", i+1, ev.Source, ev.ID, ev.Score)
	}
}

// RenderDecisions prints per-key decisions. Keys without decisions are
// skipped; a notice is printed when none had any.
func RenderDecisions(w io.Writer, keys []model.KeyDecision) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== CONTRADICTION CHECK ===")

	found := false
	for _, kd := range keys {
		if len(kd.Decisions) == 0 {
			continue
		}
		found = true

		fmt.Fprintf(w, "\nKey: %s\n", kd.Requested)
		if kd.Resolved != "" && kd.Resolved != kd.Requested {
			fmt.Fprintf(w, "  (matched graph key %q)\n", kd.Resolved)
		}
		for _, d := range kd.Decisions {
			fmt.Fprintf(w, "  - claim: %s=%s  consensus=%.4f\n", d.Key, d.Value, d.Consensus)
			for i, s := range d.Supports {
				if i == terminalSupports {
					break
				}
				fmt.Fprintf(w, "      support: %s:%s  w=%.3f\n", s.Source, s.ID, s.Weight)
			}
			for i, c := range d.Contradicts {
				if i == terminalContradicts {
					break
				}
				fmt.Fprintf(w, "      contradict: %s:%s  w=%.3f  via %s\n", c.Source, c.ID, c.Weight, c.Claim)
			}
		}
	}

	if !found {
		fmt.Fprintln(w, "no target keys found in top results")
	}
}

// RenderSummary prints graph statistics
func RenderSummary(w io.Writer, r *model.Report) {
	g := r.Graph
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Graph: %d evidence, %d claims, %d supports, %d contradiction edges\n",
		g.EvidenceNodes, g.ClaimNodes, g.SupportEdges, g.ContradictionEdges)
	if g.ExtractionFailures > 0 || g.DiscardedTriples > 0 {
		fmt.Fprintf(w, "Skipped: %d failed extractions, %d malformed triples\n", g.ExtractionFailures, g.DiscardedTriples)
	}
	if g.ExtractionFailures > 0 && g.ExtractionFailures == len(r.Evidence) {
		fmt.Fprintln(w, "Warning: no evidence could be analyzed (every extraction failed)")
	}
}

// RenderJSON writes the report as indented JSON, creating parent directories
func RenderJSON(r *model.Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}
