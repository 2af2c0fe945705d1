package compose

import (
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/textflow"
)

// textBox positions wrapped lines in a box of the given width. Bullets become a span
// left of the hanging indent.
func textBox(x, y, width float64, lines []textflow.WrappedLine, style textflow.Style, align table.Align, color layout.Color) layout.TextBox {
	box := layout.TextBox{
		X:        x,
		Y:        y,
		Width:    width,
		Font:     style.Font.String(),
		FontSize: style.Size,
		Color:    color,
		Lines:    make([]layout.TextLine, 0, len(lines)),
	}
	for _, l := range lines {
		lx := l.Indent
		if align != table.Left {
			lx += align.Offset(width-l.Indent, l.Width, 0)
		}
		tl := layout.TextLine{Content: l.Text, X: lx, Width: l.Width, Height: l.Height, GapBefore: l.GapBefore}
		if l.Bullet != "" {
			tl.Spans = append(tl.Spans, layout.TextSpan{Content: l.Bullet, Font: style.Font.String(), X: -l.Indent})
		}
		for _, s := range l.Spans {
			tl.Spans = append(tl.Spans, layout.TextSpan{
				Content: l.Text[s.Start:s.End],
				Font:    s.Font.String(),
				X:       s.X,
				Width:   s.Width,
			})
		}
		box.Lines = append(box.Lines, tl)
		box.Height += l.GapBefore + l.Height
	}
	return box
}

// singleLine is a one-line text box. x is the left edge, the center or the right edge
// depending on align; width is the measured text width.
func singleLine(x, y float64, text string, font measure.Font, size, lineHeight, width float64, align table.Align, color layout.Color) layout.TextBox {
	left := x
	switch align {
	case table.Center:
		left = x - width/2
	case table.Right:
		left = x - width
	}
	h := size * layout.PtToMm * lineHeight
	return layout.TextBox{
		X:        left,
		Y:        y,
		Width:    width,
		Font:     font.String(),
		FontSize: size,
		Color:    color,
		Height:   h,
		Lines: []layout.TextLine{{
			Content: text,
			Width:   width,
			Height:  h,
			Spans:   []layout.TextSpan{{Content: text, Font: font.String(), Width: width}},
		}},
	}
}

func collectFonts(rs *layout.ResourceSet, boxes ...[]layout.TextBox) {
	for _, group := range boxes {
		for _, b := range group {
			rs.AddFont(b.Font)
			for _, l := range b.Lines {
				for _, s := range l.Spans {
					rs.AddFont(s.Font)
				}
			}
		}
	}
}
