package chunk

import (
	"path/filepath"
	"strings"

	"github.com/pdu3/AstarML/internal/model"
)

func packBlogProse(text string) []string {
	toks := Tokens(text)
	n := len(toks)
	switch {
	case n == 0:
		return nil
	case n < 80:
		return []string{strings.Join(toks, " ")}
	case n <= 180:
		return joinWindows(Windows(toks, 140, 20))
	default:
		return joinWindows(Windows(toks, 200, 50))
	}
}

// Blog chunks a blog post. Front matter supplies title, author and
// published_date; the date is also stored as the timestamp so that older
// posts weigh less.
func Blog(markdown, rel string) ([]model.Evidence, error) {
	fm, body, err := SplitFrontMatter(markdown)
	if err != nil {
		return nil, err
	}
	o := parseMarkdown(body)
	title := firstNonEmpty(fm["title"], o.title, filepath.Base(rel))

	meta := func(contentType string) map[string]string {
		m := map[string]string{
			"post_title":     title,
			"author":         fm["author"],
			"published_date": fm["published_date"],
			"content_type":   contentType,
		}
		if fm["published_date"] != "" {
			m[model.MetaTimestamp] = fm["published_date"]
		}
		return m
	}

	var prose, codes []string
	for _, s := range o.sections {
		prose = append(prose, s.path...)
		prose = append(prose, s.prose...)
		codes = append(codes, s.codes...)
	}

	e := &emitter{rel: rel, source: string(model.SourceBlogs)}
	for _, pc := range packBlogProse(strings.Join(prose, "\n")) {
		e.emit(pc, meta(ContentProse))
	}
	for _, code := range codes {
		e.emit(code, meta(ContentCode))
	}
	if len(e.chunks) == 0 {
		e.emit(body, meta(ContentProse))
	}
	return e.chunks, nil
}
