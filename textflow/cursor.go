package textflow

// Pos addresses a line inside a Flow.
type Pos struct {
	Paragraph int `json:"paragraph"`
	Line      int `json:"line"`
}

// Cursor is a restartable position over the lines of a Flow. The gap above the
// first line returned by each call is dropped: that line starts a fresh region.
type Cursor struct {
	flow *Flow
	pos  Pos
}

// Begin returns a cursor at the first line.
func (f *Flow) Begin() *Cursor {
	return &Cursor{flow: f}
}

// Pos returns the position of the next line to be returned.
func (c *Cursor) Pos() Pos { return c.pos }

// Seek moves the cursor; out-of-range positions are clamped to the end.
func (c *Cursor) Seek(p Pos) {
	if p.Paragraph < 0 {
		p = Pos{}
	}
	c.pos = p
	c.normalize()
}

// Reset rewinds to the first line.
func (c *Cursor) Reset() { c.pos = Pos{} }

// Done reports whether every line was consumed.
func (c *Cursor) Done() bool {
	c.normalize()
	return c.pos.Paragraph >= c.flow.Paragraphs()
}

func (c *Cursor) normalize() {
	for c.pos.Paragraph < c.flow.Paragraphs() && c.pos.Line >= len(c.flow.Lines(c.pos.Paragraph)) {
		c.pos.Paragraph++
		c.pos.Line = 0
	}
	if c.pos.Paragraph >= c.flow.Paragraphs() {
		c.pos = Pos{Paragraph: c.flow.Paragraphs()}
	}
}

// Next returns up to k lines (no limit when k <= 0) whose heights, plus paragraph gaps
// after the first line, fit within h. It returns nil when not even one line fits.
func (c *Cursor) Next(k int, h float64) []WrappedLine {
	var (
		out  []WrappedLine
		used float64
	)
	for !c.Done() && (k <= 0 || len(out) < k) {
		l := c.flow.Lines(c.pos.Paragraph)[c.pos.Line]
		need := l.Height
		if len(out) > 0 && c.pos.Line == 0 {
			need += l.GapBefore
		}
		if used+need > h+epsilon {
			break
		}
		if len(out) == 0 {
			l.GapBefore = 0
		}
		out = append(out, l)
		used += need
		c.pos.Line++
	}
	return out
}

// NextParagraphs consumes whole paragraphs (the rest of the current one, if the cursor
// stands inside it) while they fit within h. It returns the lines, the number of
// paragraphs consumed and their height.
func (c *Cursor) NextParagraphs(h float64) ([]WrappedLine, int, float64) {
	var (
		out   []WrappedLine
		n     int
		used  float64
		first = true
	)
	for !c.Done() {
		lines := c.flow.Lines(c.pos.Paragraph)[c.pos.Line:]
		need := 0.0
		if !first {
			need = c.flow.Gap(c.pos.Paragraph)
		}
		for _, l := range lines {
			need += l.Height
		}
		if used+need > h+epsilon {
			break
		}
		for i, l := range lines {
			if i == 0 && first {
				l.GapBefore = 0
			}
			out = append(out, l)
		}
		used += need
		n++
		first = false
		c.pos = Pos{Paragraph: c.pos.Paragraph + 1}
	}
	return out, n, used
}

// PeekParagraph returns the height the next paragraph would need as the first unit of
// a region, or 0 when the cursor is done.
func (c *Cursor) PeekParagraph() float64 {
	if c.Done() {
		return 0
	}
	var h float64
	for _, l := range c.flow.Lines(c.pos.Paragraph)[c.pos.Line:] {
		h += l.Height
	}
	return h
}
