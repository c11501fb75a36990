package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdu3/AstarML/internal/model"
)

// TextLogLine formats one human-readable line describing a check:
//
//	[<UTC time>Z] run=<id> q="<query>" sources=[docs, forums] topk=<n> chunks=<src:id:score | ...> flags={...}
func TextLogLine(r *model.Report) string {
	seen := make(map[string]bool)
	var sources []string
	chunks := make([]string, 0, len(r.Evidence))
	for _, ev := range r.Evidence {
		if ev.Source != "" && !seen[ev.Source] {
			seen[ev.Source] = true
			sources = append(sources, ev.Source)
		}
		chunks = append(chunks, fmt.Sprintf("%s:%s:%.4f", ev.Source, ev.ID, ev.Score))
	}
	sort.Strings(sources)

	f := r.Flags
	return fmt.Sprintf("[%s] run=%s q=%q sources=[%s] topk=%d chunks=%s flags={rerank:%t, graph:%t, graph_topn:%d, threshold:%g, lambda:%g}",
		r.CheckedAt.UTC().Format("2006-01-02T15:04:05.000000")+"Z",
		r.RunID,
		r.Query,
		strings.Join(sources, ", "),
		len(r.Evidence),
		strings.Join(chunks, " | "),
		f.Rerank, f.Graph, f.GraphTopN, f.ClusterThreshold, f.Lambda,
	)
}

// AppendTextLog appends line to path, creating the file and its directory
func AppendTextLog(path, line string) (err error) {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open text log: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close text log: %w", closeErr)
		}
	}()

	if _, err := f.WriteString(strings.TrimRight(line, "\r\n") + "\n"); err != nil {
		return fmt.Errorf("write text log: %w", err)
	}
	return nil
}
