// Package table measures tabular data for a fixed available width and hands rows out
// through a resumable cursor, so a long table can continue across pages.
package table

import (
	"fmt"
	"strings"

	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/textflow"
)

// Align is the horizontal alignment of a column.
type Align int

const (
	Left Align = iota
	Center
	Right
)

// ParseAlign accepts left, center/centre and right.
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return Left, nil
	case "center", "centre":
		return Center, nil
	case "right":
		return Right, nil
	}
	return Left, fmt.Errorf("table: unknown alignment %q", s)
}

func (a Align) String() string {
	switch a {
	case Center:
		return "center"
	case Right:
		return "right"
	default:
		return "left"
	}
}

// MarshalText writes the alignment name.
func (a Align) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText reads an alignment name.
func (a *Align) UnmarshalText(b []byte) error {
	v, err := ParseAlign(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Column describes one column. Widths are distributed in proportion to Weight; a
// column with zero weight is exactly MinWidth wide.
type Column struct {
	Label    string  `json:"label" yaml:"label"`
	Weight   float64 `json:"weight" yaml:"weight"`
	MinWidth float64 `json:"minWidth" yaml:"min-width"`
	Align    Align   `json:"align" yaml:"align"`
}

// Style holds the typography of a table. Sizes in pt, distances in mm.
type Style struct {
	Font          measure.Font
	Size          float64
	HeaderSize    float64
	LineHeight    float64
	Padding       float64
	HeaderPadding float64
	MinRowHeight  float64
}

// Offset returns the x position of a line of the given width inside a cell.
func (a Align) Offset(cellWidth, lineWidth, padding float64) float64 {
	switch a {
	case Center:
		return (cellWidth - lineWidth) / 2
	case Right:
		return cellWidth - padding - lineWidth
	default:
		return padding
	}
}

// Cell is a measured cell.
type Cell struct {
	Text  string                 `json:"text"`
	Lines []textflow.WrappedLine `json:"lines"`
	Align Align                  `json:"align"`
}

// Row is a measured row. Index is the position in the input rows, -1 for the header.
type Row struct {
	Index  int     `json:"index"`
	Cells  []Cell  `json:"cells"`
	Height float64 `json:"height"`
}

// Table is the measured form of a table.
type Table struct {
	Columns []Column
	Widths  []float64
	Header  Row
	Rows    []Row
	Style   Style
}

// DistributeWidths shares available among cols in proportion to their weights. A column
// whose share falls under its MinWidth is pinned at the minimum and the rest is shared
// again among the others.
func DistributeWidths(cols []Column, available float64) ([]float64, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table: no columns")
	}
	var minSum float64
	for i, c := range cols {
		if c.Weight < 0 || c.MinWidth < 0 {
			return nil, fmt.Errorf("table: column %d (%s) has a negative weight or width", i, c.Label)
		}
		minSum += c.MinWidth
	}
	if minSum > available+1e-9 {
		return nil, fmt.Errorf("table: minimum widths %.2fmm exceed the available %.2fmm", minSum, available)
	}

	widths := make([]float64, len(cols))
	pinned := make([]bool, len(cols))
	for i, c := range cols {
		if c.Weight == 0 {
			widths[i] = c.MinWidth
			pinned[i] = true
		}
	}
	for {
		free := available
		var weight float64
		for i, c := range cols {
			if pinned[i] {
				free -= widths[i]
			} else {
				weight += c.Weight
			}
		}
		if weight == 0 {
			return widths, nil
		}
		changed := false
		for i, c := range cols {
			if pinned[i] {
				continue
			}
			widths[i] = free * c.Weight / weight
			if widths[i] < c.MinWidth {
				widths[i] = c.MinWidth
				pinned[i] = true
				changed = true
			}
		}
		if !changed {
			return widths, nil
		}
	}
}

// Format measures rows for the given columns. Each row must have exactly one cell per
// column. Cell text is plain; newlines are line breaks.
func Format(rows [][]string, cols []Column, available float64, style Style, p measure.Provider) (*Table, error) {
	widths, err := DistributeWidths(cols, available)
	if err != nil {
		return nil, err
	}
	t := &Table{Columns: cols, Widths: widths, Style: style}

	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = c.Label
	}
	headerStyle := style
	headerStyle.Font = style.Font.With(measure.Bold)
	if style.HeaderSize > 0 {
		headerStyle.Size = style.HeaderSize
	}
	if style.HeaderPadding > 0 {
		headerStyle.Padding = style.HeaderPadding
	}
	if t.Header, err = t.measureRow(-1, labels, headerStyle, p, true); err != nil {
		return nil, err
	}

	t.Rows = make([]Row, 0, len(rows))
	for i, cells := range rows {
		if len(cells) != len(cols) {
			return nil, fmt.Errorf("table: row %d has %d cells, want %d", i, len(cells), len(cols))
		}
		row, err := t.measureRow(i, cells, style, p, false)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func (t *Table) measureRow(index int, cells []string, style Style, p measure.Provider, header bool) (Row, error) {
	row := Row{Index: index, Cells: make([]Cell, len(cells))}
	var tallest float64
	for i, text := range cells {
		align := t.Columns[i].Align
		if header {
			align = Center
		}
		flow := textflow.New(markup.ParsePlain(text), textflow.Style{
			Font:       style.Font,
			Size:       style.Size,
			LineHeight: style.LineHeight,
			Width:      t.Widths[i] - 2*style.Padding,
		}, p)
		lines := flow.All()
		if err := flow.Err(); err != nil {
			return Row{}, fmt.Errorf("table: row %d column %d: %w", index, i, err)
		}
		row.Cells[i] = Cell{Text: text, Lines: lines, Align: align}
		tallest = max(tallest, flow.Height())
	}
	row.Height = max(tallest+2*style.Padding, style.MinRowHeight)
	return row, nil
}

// Width is the total width of all columns.
func (t *Table) Width() float64 {
	var w float64
	for _, x := range t.Widths {
		w += x
	}
	return w
}

// Height is the height of the header plus every row.
func (t *Table) Height() float64 {
	h := t.Header.Height
	for _, r := range t.Rows {
		h += r.Height
	}
	return h
}

// MaxRowHeight returns the tallest body row.
func (t *Table) MaxRowHeight() float64 {
	var m float64
	for _, r := range t.Rows {
		m = max(m, r.Height)
	}
	return m
}

// Fonts lists the distinct fonts used by header and body cells.
func (t *Table) Fonts() []measure.Font {
	seen := map[measure.Font]bool{}
	var out []measure.Font
	visit := func(r Row) {
		for _, c := range r.Cells {
			for _, l := range c.Lines {
				for _, s := range l.Spans {
					if !seen[s.Font] {
						seen[s.Font] = true
						out = append(out, s.Font)
					}
				}
			}
		}
	}
	visit(t.Header)
	for _, r := range t.Rows {
		visit(r)
	}
	return out
}

// HeaderPad returns the cell padding used by the header row.
func (s Style) HeaderPad() float64 {
	if s.HeaderPadding > 0 {
		return s.HeaderPadding
	}
	return s.Padding
}
