// Package textflow wraps styled paragraphs into lines that fit a column.
//
// Wrapping is greedy and happens lazily, one paragraph at a time, the first time a
// paragraph is needed; results are memoized so a Cursor can be restarted or moved
// without measuring again.
package textflow

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/measure"
)

// epsilon absorbs float noise when comparing widths and heights.
const epsilon = 1e-9

// Style configures a flow. Size is in pt, everything else in mm except LineHeight,
// which is a multiple of the font size.
type Style struct {
	Font             measure.Font
	Size             float64
	LineHeight       float64
	ParagraphSpacing float64
	Width            float64
	BulletIndent     float64
}

// LineAdvance returns the height of a single line in mm.
func (s Style) LineAdvance() float64 {
	lh := s.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	return s.Size * measure.PtToMm * lh
}

// Span is a styled byte range [Start, End) of WrappedLine.Text. X is the offset from the
// start of the line text (after any indent).
type Span struct {
	Start int          `json:"start"`
	End   int          `json:"end"`
	Font  measure.Font `json:"font"`
	X     float64      `json:"x"`
	Width float64      `json:"width"`
}

// WrappedLine is one output line.
type WrappedLine struct {
	Text      string  `json:"text"`
	Spans     []Span  `json:"spans,omitempty"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
	Indent    float64 `json:"indent,omitempty"`
	Bullet    string  `json:"bullet,omitempty"`
	Paragraph int     `json:"paragraph"`
	Line      int     `json:"line"`
}

// Flow is the lazily wrapped form of a paragraph list. A Flow is not safe for
// concurrent use.
type Flow struct {
	paras   []markup.Paragraph
	style   Style
	measure measure.Provider
	wrapped [][]WrappedLine
	done    []bool
	err     error
}

// New prepares paras for wrapping; nothing is measured until lines are requested.
func New(paras []markup.Paragraph, style Style, p measure.Provider) *Flow {
	return &Flow{
		paras:   paras,
		style:   style,
		measure: p,
		wrapped: make([][]WrappedLine, len(paras)),
		done:    make([]bool, len(paras)),
	}
}

// FromText parses src in the given format and prepares it for wrapping.
func FromText(src string, format markup.Format, style Style, p measure.Provider) (*Flow, error) {
	paras, err := markup.Parse(src, format)
	if err != nil {
		return nil, err
	}
	return New(paras, style, p), nil
}

// Style returns the style the flow was created with.
func (f *Flow) Style() Style { return f.style }

// Paragraphs returns the number of paragraphs.
func (f *Flow) Paragraphs() int { return len(f.paras) }

// Err returns the first measurement error met while wrapping.
func (f *Flow) Err() error { return f.err }

// Lines returns the wrapped lines of paragraph i.
func (f *Flow) Lines(i int) []WrappedLine {
	if i < 0 || i >= len(f.paras) {
		return nil
	}
	if !f.done[i] {
		f.wrapped[i] = f.wrap(i)
		f.done[i] = true
	}
	return f.wrapped[i]
}

// Gap returns the spacing placed above paragraph i when it follows another paragraph.
func (f *Flow) Gap(i int) float64 {
	if i == 0 {
		return 0
	}
	return f.style.ParagraphSpacing
}

// ParagraphHeight is the summed height of the lines of paragraph i, without its gap.
func (f *Flow) ParagraphHeight(i int) float64 {
	var h float64
	for _, l := range f.Lines(i) {
		h += l.Height
	}
	return h
}

// Height is the height of the whole flow set in one column.
func (f *Flow) Height() float64 {
	var h float64
	for i := range f.paras {
		h += f.Gap(i) + f.ParagraphHeight(i)
	}
	return h
}

// MaxParagraphHeight returns the tallest single paragraph, the smallest unit a page
// must be able to hold when the flow is split at paragraph boundaries.
func (f *Flow) MaxParagraphHeight() float64 {
	var m float64
	for i := range f.paras {
		m = max(m, f.ParagraphHeight(i))
	}
	return m
}

// All wraps every paragraph and returns the lines in order.
func (f *Flow) All() []WrappedLine {
	var out []WrappedLine
	for i := range f.paras {
		out = append(out, f.Lines(i)...)
	}
	return out
}

// Fonts lists the distinct fonts used by the wrapped lines, in first-use order.
func (f *Flow) Fonts() []measure.Font {
	seen := map[measure.Font]bool{}
	var out []measure.Font
	for _, l := range f.All() {
		for _, s := range l.Spans {
			if !seen[s.Font] {
				seen[s.Font] = true
				out = append(out, s.Font)
			}
		}
	}
	return out
}

type piece struct {
	text  string
	style measure.Style
	width float64
}

type word struct {
	pieces []piece
	width  float64
	// space is the style of the white space that preceded the word.
	space measure.Style
}

// token is a word, or a forced break when brk is set.
type token struct {
	w   word
	brk bool
}

func tokenize(p markup.Paragraph) []token {
	var (
		out     []token
		cur     word
		inWord  bool
		spaceSt measure.Style
	)
	flush := func() {
		if inWord {
			out = append(out, token{w: cur})
			cur = word{}
			inWord = false
		}
	}
	for _, s := range p.Spans {
		if s.Break {
			flush()
			out = append(out, token{brk: true})
			continue
		}
		var b strings.Builder
		for _, r := range s.Text {
			if unicode.IsSpace(r) && r != '\u00a0' {
				if b.Len() > 0 {
					cur.pieces = append(cur.pieces, piece{text: b.String(), style: s.Style})
					b.Reset()
				}
				flush()
				spaceSt = s.Style
				continue
			}
			if !inWord {
				inWord = true
				cur.space = spaceSt
			}
			b.WriteRune(r)
		}
		if b.Len() > 0 {
			cur.pieces = append(cur.pieces, piece{text: b.String(), style: s.Style})
		}
	}
	flush()
	return out
}

func (f *Flow) textWidth(text string, st measure.Style) float64 {
	w, _, err := f.measure.MeasureText(text, f.style.Font.With(st), f.style.Size)
	if err != nil {
		if f.err == nil {
			f.err = fmt.Errorf("textflow: measure %q: %w", text, err)
		}
		return 0
	}
	return w
}

func (f *Flow) wrap(idx int) []WrappedLine {
	para := f.paras[idx]
	indent := 0.0
	if para.Bullet != "" {
		indent = f.style.BulletIndent
	}
	avail := f.style.Width - indent
	tokens := tokenize(para)
	for i := range tokens {
		if tokens[i].brk {
			continue
		}
		w := &tokens[i].w
		for j := range w.pieces {
			w.pieces[j].width = f.textWidth(w.pieces[j].text, w.pieces[j].style)
			w.width += w.pieces[j].width
		}
	}

	var (
		lines []WrappedLine
		cur   []word
		width float64
	)
	emit := func() {
		l := f.assemble(cur)
		l.Indent = indent
		l.Paragraph = idx
		l.Line = len(lines)
		if len(lines) == 0 {
			l.Bullet = para.Bullet
			l.GapBefore = f.Gap(idx)
		}
		lines = append(lines, l)
		cur, width = nil, 0
	}
	for _, t := range tokens {
		if t.brk {
			emit()
			continue
		}
		if len(cur) == 0 {
			cur = append(cur, t.w)
			width = t.w.width
			continue
		}
		sp := f.textWidth(" ", t.w.space)
		if width+sp+t.w.width <= avail+epsilon {
			cur = append(cur, t.w)
			width += sp + t.w.width
			continue
		}
		emit()
		cur = append(cur, t.w)
		width = t.w.width
	}
	if len(cur) > 0 || len(lines) == 0 {
		emit()
	}
	return lines
}

// assemble joins words into a line and merges adjacent pieces of equal style into spans.
func (f *Flow) assemble(words []word) WrappedLine {
	var (
		b     strings.Builder
		spans []Span
		x     float64
	)
	add := func(text string, st measure.Style, w float64) {
		font := measure.ResolveFont(f.measure, f.style.Font.With(st))
		start := b.Len()
		b.WriteString(text)
		if n := len(spans); n > 0 && spans[n-1].Font == font {
			spans[n-1].End = b.Len()
			spans[n-1].Width += w
		} else {
			spans = append(spans, Span{Start: start, End: b.Len(), Font: font, X: x, Width: w})
		}
		x += w
	}
	for i, w := range words {
		if i > 0 {
			add(" ", w.space, f.textWidth(" ", w.space))
		}
		for _, p := range w.pieces {
			add(p.text, p.style, p.width)
		}
	}
	return WrappedLine{Text: b.String(), Spans: spans, Width: x, Height: f.style.LineAdvance()}
}
