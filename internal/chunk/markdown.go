package chunk

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// section is a run of markdown between H2/H3 headings
type section struct {
	path  []string
	prose []string
	codes []string
}

func (s *section) empty() bool {
	return len(s.prose) == 0 && len(s.codes) == 0
}

// outline is the parsed structure of one markdown file
type outline struct {
	title    string // first H1
	sections []section
}

func parseMarkdown(body string) outline {
	// parsers are single use
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(body))

	var out outline
	cur := section{}
	var path []string

	flush := func() {
		if !cur.empty() {
			out.sections = append(out.sections, cur)
		}
	}

	for _, node := range doc.GetChildren() {
		switch n := node.(type) {
		case *ast.Heading:
			text := nodeText(n)
			if n.Level == 1 && out.title == "" {
				out.title = text
			}
			if n.Level == 2 || n.Level == 3 {
				flush()
				// H2 starts a new path, H3 nests under the current H2
				keep := n.Level - 2
				if len(path) > keep {
					path = path[:keep]
				}
				for len(path) < keep {
					path = append(path, "")
				}
				path = append(path, text)
				cur = section{path: append([]string(nil), path...)}
				continue
			}
			if text != "" {
				cur.prose = append(cur.prose, text)
			}
		case *ast.CodeBlock:
			if code := strings.TrimSpace(string(n.Literal)); code != "" {
				cur.codes = append(cur.codes, code)
			}
		default:
			if text := nodeText(n); text != "" {
				cur.prose = append(cur.prose, text)
			}
		}
	}
	flush()

	if out.sections == nil {
		out.sections = []section{}
	}
	return out
}

// nodeText concatenates the literal text under node, one space between leaves
func nodeText(node ast.Node) string {
	var parts []string
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if leaf := n.AsLeaf(); leaf != nil && len(leaf.Literal) > 0 {
			parts = append(parts, string(leaf.Literal))
		}
		return ast.GoToNext
	})
	return NormalizeSpace(strings.Join(parts, " "))
}
