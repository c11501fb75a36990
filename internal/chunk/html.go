package chunk

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdu3/AstarML/internal/model"
)

// Elements whose text is never visible
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"nav":      true,
	"footer":   true,
}

// Elements that end a run of inline text
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "table": true,
	"tr": true, "td": true, "th": true, "section": true, "article": true,
	"blockquote": true, "h1": true, "h4": true, "h5": true, "h6": true, "br": true, "dd": true, "dt": true,
}

// HTMLDoc chunks an HTML documentation page the way Doc chunks markdown:
// h2/h3 start sections, pre blocks become code chunks and the remaining
// visible text is packed as prose.
func HTMLDoc(page, rel string) ([]model.Evidence, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	title := findTitle(root)
	var sections []section
	cur := section{}
	var path []string
	var buf strings.Builder

	endText := func() {
		if text := NormalizeSpace(buf.String()); text != "" {
			cur.prose = append(cur.prose, text)
		}
		buf.Reset()
	}
	flush := func() {
		endText()
		if !cur.empty() {
			sections = append(sections, cur)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case skipElements[n.Data]:
				return
			case n.Data == "h2" || n.Data == "h3":
				flush()
				keep := 0
				if n.Data == "h3" {
					keep = 1
				}
				if len(path) > keep {
					path = path[:keep]
				}
				for len(path) < keep {
					path = append(path, "")
				}
				path = append(path, NormalizeSpace(textOf(n)))
				cur = section{path: append([]string(nil), path...)}
				return
			case n.Data == "pre":
				endText()
				if code := strings.TrimSpace(textOf(n)); code != "" {
					cur.codes = append(cur.codes, code)
				}
				return
			case blockElements[n.Data]:
				endText()
				defer endText()
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flush()

	title = firstNonEmpty(title, filepath.Base(rel))
	e := &emitter{rel: rel, source: string(model.SourceDocs)}
	for _, s := range sections {
		e.emitSection(title, "", s)
	}
	if len(e.chunks) == 0 {
		e.emit(textOf(root), docMeta(title, "", nil, ContentProse))
	}
	return e.chunks, nil
}

// findTitle prefers <title>, then the first <h1>
func findTitle(root *html.Node) string {
	var title, h1 string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "title" && title == "" {
				title = NormalizeSpace(textOf(n))
			}
			if n.Data == "h1" && h1 == "" {
				h1 = NormalizeSpace(textOf(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return firstNonEmpty(title, h1)
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
