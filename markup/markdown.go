package markup

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ByLCY/folio/measure"
)

var markdown = goldmark.New()

// ParseMarkdown reads CommonMark. Headings and strong emphasis become bold, single
// emphasis becomes italic, list items become bullet paragraphs and hard line breaks
// are kept as explicit breaks.
func ParseMarkdown(src string) []Paragraph {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))
	w := &mdWalker{source: source}
	w.blocks(doc, "")
	return w.out
}

type mdWalker struct {
	source []byte
	out    []Paragraph
	depth  int
}

func (w *mdWalker) blocks(n ast.Node, bullet string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			w.paragraph(node, bullet, measure.Regular)
			bullet = ""
		case *ast.Heading:
			w.paragraph(node, bullet, measure.Bold)
			bullet = ""
		case *ast.List:
			w.list(node)
		case *ast.Blockquote:
			w.blocks(node, bullet)
			bullet = ""
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			w.code(node, bullet)
			bullet = ""
		case *ast.ThematicBreak, *ast.HTMLBlock:
		default:
			w.blocks(node, bullet)
		}
	}
}

func (w *mdWalker) list(l *ast.List) {
	w.depth++
	defer func() { w.depth-- }()
	index := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		bullet := "•"
		switch {
		case l.IsOrdered():
			bullet = strconv.Itoa(index) + "."
			index++
		case w.depth > 1:
			bullet = "–"
		}
		before := len(w.out)
		w.blocks(item, bullet)
		if len(w.out) == before {
			w.out = append(w.out, Paragraph{Bullet: bullet})
		}
	}
}

func (w *mdWalker) paragraph(n ast.Node, bullet string, style measure.Style) {
	p := Paragraph{Bullet: bullet}
	w.inline(n, style, &p)
	w.out = append(w.out, p)
}

func (w *mdWalker) code(n ast.Node, bullet string) {
	p := Paragraph{Bullet: bullet}
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(w.source)), "\r\n")
		if i > 0 {
			p.Spans = append(p.Spans, Span{Break: true})
		}
		p.Spans = append(p.Spans, Span{Text: line})
	}
	w.out = append(w.out, p)
}

func (w *mdWalker) inline(n ast.Node, style measure.Style, p *Paragraph) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			p.Spans = append(p.Spans, Span{Text: string(node.Segment.Value(w.source)), Style: style})
			switch {
			case node.HardLineBreak():
				p.Spans = append(p.Spans, Span{Break: true})
			case node.SoftLineBreak():
				p.Spans = append(p.Spans, Span{Text: " ", Style: style})
			}
		case *ast.String:
			p.Spans = append(p.Spans, Span{Text: string(node.Value), Style: style})
		case *ast.Emphasis:
			next := style | measure.Italic
			if node.Level >= 2 {
				next = style | measure.Bold
			}
			w.inline(node, next, p)
		case *ast.AutoLink:
			p.Spans = append(p.Spans, Span{Text: string(node.URL(w.source)), Style: style})
		case *ast.RawHTML:
		default:
			w.inline(node, style, p)
		}
	}
}
