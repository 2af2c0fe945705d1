package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ByLCY/folio/measure"
)

type styleFrame struct {
	tag   atom.Atom
	name  string
	style measure.Style
}

type htmlState struct {
	out         []Paragraph
	cur         Paragraph
	frames      []styleFrame
	ignore      int
	listDepth   int
	lineStart   bool
	paragraphOn bool
}

// ParseHTML reads rich-text HTML. Document scaffolding (head, style, title, script)
// is skipped; p/div/li/headings open paragraphs; br is an explicit break; b, strong,
// i, em and spans styled with font-weight or font-style change the span style.
func ParseHTML(src string) ([]Paragraph, error) {
	st := &htmlState{lineStart: true}
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("markup: html: %w", err)
			}
			st.endParagraph()
			return st.out, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			st.start(tok, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			st.end(z.Token())
		case html.TextToken:
			if st.ignore == 0 {
				st.text(string(z.Text()))
			}
		}
	}
}

func ignoredElement(a atom.Atom) bool {
	switch a {
	case atom.Head, atom.Style, atom.Title, atom.Script:
		return true
	}
	return false
}

func blockElement(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Blockquote, atom.Tr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func (st *htmlState) current() measure.Style {
	if n := len(st.frames); n > 0 {
		return st.frames[n-1].style
	}
	return measure.Regular
}

func (st *htmlState) start(tok html.Token, selfClosing bool) {
	a := tok.DataAtom
	if ignoredElement(a) {
		if !selfClosing {
			st.ignore++
		}
		return
	}
	if st.ignore > 0 {
		return
	}
	switch a {
	case atom.Br:
		st.ensureParagraph()
		st.cur.Spans = append(st.cur.Spans, Span{Break: true})
		st.lineStart = true
		return
	case atom.Ul, atom.Ol:
		st.endParagraph()
		st.listDepth++
		return
	case atom.Td, atom.Th:
		if !st.lineStart {
			st.cur.Spans = append(st.cur.Spans, Span{Text: " ", Style: st.current()})
		}
	}
	if blockElement(a) {
		st.endParagraph()
		st.ensureParagraph()
		if a == atom.Li {
			st.cur.Bullet = "•"
			if st.listDepth > 1 {
				st.cur.Bullet = "–"
			}
		}
	}
	if selfClosing {
		return
	}
	style := st.current()
	switch a {
	case atom.B, atom.Strong, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Th:
		style |= measure.Bold
	case atom.I, atom.Em:
		style |= measure.Italic
	case atom.Span, atom.Font, atom.P, atom.Div:
		style |= inlineStyle(tok.Attr)
	default:
		if !blockElement(a) && a != atom.U && a != atom.A && a != atom.Sub && a != atom.Sup && a != atom.S && a != atom.Strike && a != atom.Del {
			return
		}
	}
	st.frames = append(st.frames, styleFrame{tag: a, name: tok.Data, style: style})
}

func (st *htmlState) end(tok html.Token) {
	a := tok.DataAtom
	if ignoredElement(a) {
		if st.ignore > 0 {
			st.ignore--
		}
		return
	}
	if st.ignore > 0 {
		return
	}
	for i := len(st.frames) - 1; i >= 0; i-- {
		if st.frames[i].tag == a && st.frames[i].name == tok.Data {
			st.frames = st.frames[:i]
			break
		}
	}
	switch {
	case a == atom.Ul || a == atom.Ol:
		st.endParagraph()
		if st.listDepth > 0 {
			st.listDepth--
		}
	case blockElement(a):
		st.endParagraph()
	}
}

func (st *htmlState) text(raw string) {
	collapsed := collapseSpace(raw)
	if collapsed == "" {
		return
	}
	if st.lineStart {
		collapsed = strings.TrimLeft(collapsed, " ")
		if collapsed == "" {
			return
		}
	}
	st.ensureParagraph()
	st.cur.Spans = append(st.cur.Spans, Span{Text: collapsed, Style: st.current()})
	st.lineStart = false
}

func (st *htmlState) ensureParagraph() {
	if !st.paragraphOn {
		st.cur = Paragraph{}
		st.paragraphOn = true
		st.lineStart = true
	}
}

func (st *htmlState) endParagraph() {
	if !st.paragraphOn {
		return
	}
	trimTrailingSpace(st.cur.Spans)
	st.out = append(st.out, st.cur)
	st.cur = Paragraph{}
	st.paragraphOn = false
	st.lineStart = true
}

func trimTrailingSpace(spans []Span) {
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].Break {
			continue
		}
		spans[i].Text = strings.TrimRight(spans[i].Text, " ")
		if spans[i].Text != "" {
			return
		}
	}
}

// inlineStyle reads the bold/italic hints of a style attribute, e.g.
// `font-weight:600; font-style:italic`.
func inlineStyle(attrs []html.Attribute) measure.Style {
	var s measure.Style
	for _, attr := range attrs {
		if !strings.EqualFold(attr.Key, "style") {
			continue
		}
		for _, decl := range strings.Split(attr.Val, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			k = strings.ToLower(strings.TrimSpace(k))
			v = strings.ToLower(strings.TrimSpace(v))
			switch k {
			case "font-weight":
				if v == "bold" || v == "bolder" || v == "600" || v == "700" || v == "800" || v == "900" {
					s |= measure.Bold
				}
			case "font-style":
				if v == "italic" || v == "oblique" {
					s |= measure.Italic
				}
			}
		}
	}
	return s
}

// collapseSpace replaces every run of white space with a single space, as HTML does.
func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}
