package content

import (
	"bytes"
	"path"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	markdownOnce   sync.Once
	markdownEngine goldmark.Markdown
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownEngine = goldmark.New()
	})
	return markdownEngine
}

type frontMatter struct {
	Title string `yaml:"title"`
}

// DisplayName derives a file's display name: the front matter title, then
// the first level-one heading, then the base name.
func DisplayName(relPath string, data []byte) string {
	meta, body := splitFrontMatter(data)
	if title := strings.TrimSpace(meta.Title); title != "" {
		return title
	}
	if heading := firstHeading(body); heading != "" {
		return heading
	}
	return path.Base(relPath)
}

func splitFrontMatter(data []byte) (frontMatter, []byte) {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return frontMatter{}, normalized
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return frontMatter{}, normalized
	}
	var meta frontMatter
	if err := yaml.Unmarshal(parts[0], &meta); err != nil {
		return frontMatter{}, parts[1]
	}
	return meta, parts[1]
}

func firstHeading(body []byte) string {
	doc := markdown().Parser().Parse(text.NewReader(body))
	var title string
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level == 1 {
			title = strings.TrimSpace(inlineText(heading, body))
			if title != "" {
				return ast.WalkStop, nil
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return title
}

func inlineText(node ast.Node, source []byte) string {
	var buf strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			buf.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(n.Value)
		default:
			buf.WriteString(inlineText(child, source))
		}
	}
	return buf.String()
}
