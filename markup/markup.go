// Package markup turns lightly formatted text into styled paragraphs.
//
// Three inputs are understood: the rich-text HTML produced by desktop text editors,
// Markdown, and plain text. All of them reduce to the same model: paragraphs made of
// spans, where a span carries bold/italic bits or marks an explicit line break.
package markup

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ByLCY/folio/measure"
)

// Format selects the parser.
type Format int

const (
	Auto Format = iota
	Plain
	HTML
	Markdown
)

// ParseFormat maps a configuration string to a Format; unknown names mean Auto.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "text":
		return Plain
	case "html":
		return HTML
	case "markdown", "md":
		return Markdown
	default:
		return Auto
	}
}

// Span is a run of text in one style, or an explicit line break when Break is set.
type Span struct {
	Text  string        `json:"text,omitempty"`
	Style measure.Style `json:"style,omitempty"`
	Break bool          `json:"break,omitempty"`
}

// Paragraph is an ordered list of spans. Bullet, when set, is drawn in front of the
// first line and the remaining lines hang under the text.
type Paragraph struct {
	Spans  []Span `json:"spans"`
	Bullet string `json:"bullet,omitempty"`
}

// Text returns the paragraph content without styling; breaks become newlines.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, s := range p.Spans {
		if s.Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Empty reports whether the paragraph has no visible characters.
func (p Paragraph) Empty() bool {
	for _, s := range p.Spans {
		if !s.Break && strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

var tagPattern = regexp.MustCompile(`<(?i:/?[a-z][a-z0-9]*)(\s[^>]*)?/?>`)

// LooksLikeHTML reports whether src contains at least one element tag.
func LooksLikeHTML(src string) bool {
	return tagPattern.MatchString(src)
}

// Parse converts src with the given format. Auto picks HTML when a tag is present and
// Markdown otherwise. Empty paragraphs are dropped.
func Parse(src string, format Format) ([]Paragraph, error) {
	if format == Auto {
		if LooksLikeHTML(src) {
			format = HTML
		} else {
			format = Markdown
		}
	}
	var (
		paras []Paragraph
		err   error
	)
	switch format {
	case HTML:
		paras, err = ParseHTML(src)
	case Markdown:
		paras = ParseMarkdown(src)
	default:
		paras = ParsePlain(src)
	}
	if err != nil {
		return nil, err
	}
	return compact(paras), nil
}

// HasContent reports whether src would produce at least one visible paragraph.
func HasContent(src string, format Format) bool {
	paras, err := Parse(src, format)
	return err == nil && len(paras) > 0
}

// ParsePlain splits on blank lines; single newlines are explicit breaks.
func ParsePlain(src string) []Paragraph {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	var out []Paragraph
	for _, block := range splitBlankLines(src) {
		var p Paragraph
		for i, line := range strings.Split(block, "\n") {
			if i > 0 {
				p.Spans = append(p.Spans, Span{Break: true})
			}
			if line = strings.TrimRightFunc(line, unicode.IsSpace); line != "" {
				p.Spans = append(p.Spans, Span{Text: line})
			}
		}
		out = append(out, p)
	}
	return out
}

// PlainLines wraps already-plain strings as one paragraph each.
func PlainLines(lines ...string) []Paragraph {
	out := make([]Paragraph, 0, len(lines))
	for _, l := range lines {
		out = append(out, Paragraph{Spans: []Span{{Text: l}}})
	}
	return out
}

func splitBlankLines(src string) []string {
	var (
		out []string
		cur []string
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(src, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// compact merges adjacent spans of equal style, trims breaks at paragraph edges and
// drops paragraphs without visible text.
func compact(paras []Paragraph) []Paragraph {
	out := make([]Paragraph, 0, len(paras))
	for _, p := range paras {
		var spans []Span
		for _, s := range p.Spans {
			if !s.Break && s.Text == "" {
				continue
			}
			if n := len(spans); n > 0 && !s.Break && !spans[n-1].Break && spans[n-1].Style == s.Style {
				spans[n-1].Text += s.Text
				continue
			}
			spans = append(spans, s)
		}
		for len(spans) > 0 && spans[0].Break {
			spans = spans[1:]
		}
		for len(spans) > 0 && spans[len(spans)-1].Break {
			spans = spans[:len(spans)-1]
		}
		p.Spans = spans
		if p.Empty() {
			continue
		}
		out = append(out, p)
	}
	return out
}
