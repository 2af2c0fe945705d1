package table

// Cursor hands out whole rows of a Table. It never emits the header; re-emitting the
// header on a continuation page is the caller's job.
type Cursor struct {
	t   *Table
	pos int
}

// Begin returns a cursor before the first row.
func (t *Table) Begin() *Cursor {
	return &Cursor{t: t}
}

// Take consumes rows while their summed height stays within maxHeight. It returns the
// rows taken, how many rows remain and the height consumed. A row is never split: when
// the next row does not fit, nothing more is taken.
func (c *Cursor) Take(maxHeight float64) (rows []Row, remaining int, consumed float64) {
	for c.pos < len(c.t.Rows) {
		r := c.t.Rows[c.pos]
		if consumed+r.Height > maxHeight+1e-9 {
			break
		}
		rows = append(rows, r)
		consumed += r.Height
		c.pos++
	}
	return rows, len(c.t.Rows) - c.pos, consumed
}

// Peek returns the next row without consuming it.
func (c *Cursor) Peek() (Row, bool) {
	if c.pos >= len(c.t.Rows) {
		return Row{}, false
	}
	return c.t.Rows[c.pos], true
}

// Pos is the index of the next row.
func (c *Cursor) Pos() int { return c.pos }

// Seek moves to row i, clamped to the valid range.
func (c *Cursor) Seek(i int) {
	c.pos = min(max(i, 0), len(c.t.Rows))
}

// Reset rewinds to the first row.
func (c *Cursor) Reset() { c.pos = 0 }

// Done reports whether every row was taken.
func (c *Cursor) Done() bool { return c.pos >= len(c.t.Rows) }

// Remaining is the number of rows not taken yet.
func (c *Cursor) Remaining() int { return len(c.t.Rows) - c.pos }
