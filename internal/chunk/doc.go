package chunk

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdu3/AstarML/internal/model"
)

// Doc prose packing, in tokens
const (
	docTarget  = 280
	docMin     = 120
	docMax     = 380
	docOverlap = 70
	docSlack   = 40 // sections up to target+slack stay whole
)

// Content types recorded in meta["content_type"]
const (
	ContentProse = "prose"
	ContentCode  = "code"
)

func packDocProse(text string) []string {
	toks := Tokens(text)
	n := len(toks)
	if n == 0 {
		return nil
	}
	if n < docMin || n <= docTarget+docSlack {
		return []string{strings.Join(toks, " ")}
	}
	return joinWindows(Windows(toks, min(docMax, docTarget), docOverlap))
}

// emitter numbers chunks of one file as <rel>#c<n>
type emitter struct {
	rel    string
	source string
	chunks []model.Evidence
}

func (e *emitter) emit(text string, meta map[string]string) {
	text = NormalizeSpace(text)
	if text == "" {
		return
	}
	e.chunks = append(e.chunks, model.Evidence{
		ID:     fmt.Sprintf("%s#c%d", e.rel, len(e.chunks)),
		Source: e.source,
		Text:   text,
		Meta:   meta,
	})
}

// Doc chunks a markdown documentation page. Sections split on H2/H3; prose is
// packed into overlapping token windows and fenced code becomes separate
// chunks. A page whose structure yields nothing is emitted whole once.
func Doc(markdown, rel string) ([]model.Evidence, error) {
	fm, body, err := SplitFrontMatter(markdown)
	if err != nil {
		return nil, err
	}
	o := parseMarkdown(body)
	title := firstNonEmpty(fm["title"], o.title, filepath.Base(rel))

	e := &emitter{rel: rel, source: string(model.SourceDocs)}
	for _, s := range o.sections {
		e.emitSection(title, fm["version"], s)
	}

	if len(e.chunks) == 0 {
		e.emit(body, docMeta(title, fm["version"], nil, ContentProse))
	}
	return e.chunks, nil
}

func (e *emitter) emitSection(title, version string, s section) {
	for _, pc := range packDocProse(strings.Join(s.prose, "\n")) {
		e.emit(pc, docMeta(title, version, s.path, ContentProse))
	}
	for _, code := range s.codes {
		e.emit(code, docMeta(title, version, s.path, ContentCode))
	}
}

func docMeta(title, version string, path []string, contentType string) map[string]string {
	meta := map[string]string{
		"doc_title":    title,
		"section_path": strings.Join(path, " > "),
		"content_type": contentType,
	}
	if version != "" {
		meta["version"] = version
	}
	return meta
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
