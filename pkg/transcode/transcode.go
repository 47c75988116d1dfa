// Package transcode converts generated markdown into HTML that renders correctly on a
// destination CMS without the site's own stylesheet.
package transcode

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	tableWrapper = `<div style="overflow-x:auto;-webkit-overflow-scrolling:touch;margin:1.5em 0;"></div>`
	tableStyle   = "width:100%;border-collapse:collapse;border-spacing:0;font-size:0.95em;"
	cellStyle    = "border:1px solid #e2e8f0;padding:10px 14px;text-align:left;vertical-align:top;"
	headerStyle  = "border:1px solid #e2e8f0;padding:10px 14px;text-align:left;background-color:#f1f5f9;font-weight:600;"
)

// Only a wrapper fence with no language, or a markdown/html one, is an upstream artifact.
var reWrapperFence = regexp.MustCompile("(?s)^\\s*```(?:markdown|md|html)?[ \\t]*\\r?\\n(.*?)\\r?\\n?```\\s*$")

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(headingIDs{}, 100)),
	),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// MarkdownToHTML renders markdown with GFM tables, slug ids on every heading and inline-styled,
// horizontally scrollable tables. Soft line breaks are not turned into <br>.
func MarkdownToHTML(markdown string) (string, error) {
	src := StripCodeFence(markdown)

	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return StyleTables(buf.String())
}

// StripCodeFence removes a single fence wrapping the whole document.
func StripCodeFence(markdown string) string {
	if m := reWrapperFence.FindStringSubmatch(markdown); m != nil {
		return m[1]
	}
	return markdown
}

// headingIDs sets a Slugify-derived id attribute on every heading.
type headingIDs struct{}

func (headingIDs) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var raw bytes.Buffer
		lines := heading.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if i > 0 {
				raw.WriteByte(' ')
			}
			raw.Write(seg.Value(source))
		}
		if id := Slugify(raw.String()); id != "" {
			heading.SetAttributeString("id", []byte(id))
		}
		return ast.WalkSkipChildren, nil
	})
}

// StyleTables inlines table styling and wraps every table in a scroll container.
func StyleTables(fragment string) (string, error) {
	if !strings.Contains(fragment, "<table") {
		return fragment, nil
	}

	// Parsed in a body context so leading <script>, <style> or <meta> stay in place
	// instead of being hoisted into a document head.
	nodes, err := nethtml.ParseFragment(strings.NewReader(fragment), &nethtml.Node{
		Type:     nethtml.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	root := &nethtml.Node{Type: nethtml.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	doc := goquery.NewDocumentFromNode(root)

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		mergeStyle(table, tableStyle)
		table.Find("th").Each(func(_ int, th *goquery.Selection) { mergeStyle(th, headerStyle) })
		table.Find("td").Each(func(_ int, td *goquery.Selection) { mergeStyle(td, cellStyle) })
		table.WrapHtml(tableWrapper)
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize html: %w", err)
	}
	return out, nil
}

// mergeStyle prepends base so existing declarations (e.g. column alignment) still win.
func mergeStyle(s *goquery.Selection, base string) {
	existing, ok := s.Attr("style")
	if !ok || strings.TrimSpace(existing) == "" {
		s.SetAttr("style", base)
		return
	}
	s.SetAttr("style", base+existing)
}
