package compose

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/diag"
	"github.com/ByLCY/folio/document"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/textflow"
)

// cover draws the cover page from its template. Cover pages carry no bands.
func (c *Composer) cover(doc *document.Document, geo layout.Geometry, pp layout.PagePlan, rs *layout.ResourceSet) (layout.Page, error) {
	page := layout.Page{Number: pp.Number, Cover: true, Width: geo.Width, Height: geo.Height}
	if len(pp.Placements) == 0 {
		return page, nil
	}
	cc := doc.Blocks[pp.Placements[0].Block].Cover
	if cc == nil {
		return page, nil
	}
	tpl, err := c.templates.Style(cc.Style)
	if err != nil {
		return page, err
	}
	if tpl.Background != "" {
		bg := layout.ColorOr(binding.Expand(tpl.Background, cc.Data), layout.White)
		page.Rects = append(page.Rects, layout.Rect{Width: geo.Width, Height: geo.Height, FillColor: bg.Ptr()})
	}
	s := pageSurface(&page)
	for _, el := range tpl.Elements {
		if el.If != "" && !binding.Truthy(cc.Data, el.If) {
			continue
		}
		if err := c.element(&page, s, el, cc, rs); err != nil {
			return page, err
		}
	}
	return page, nil
}

func (c *Composer) element(page *layout.Page, s surface, el Element, cc *layout.CoverContent, rs *layout.ResourceSet) error {
	pw, ph := page.Width, page.Height
	xs := func(i int) float64 { return el.Pos[i].MM(pw) }
	ys := func(i int) float64 { return el.Pos[i].MM(ph) }
	fill := c.optColor(el.Fill, cc.Data)
	stroke := c.optColor(el.Stroke, cc.Data)
	if stroke != nil && el.StrokeWidth <= 0 {
		el.StrokeWidth = hairline
	}

	switch el.Shape {
	case ShapeRect, ShapeRoundedRect:
		r := layout.Rect{
			X: xs(0), Y: ys(1), Width: xs(2), Height: ys(3),
			FillColor: fill, StrokeColor: stroke, StrokeWidth: el.StrokeWidth, Opacity: el.Opacity,
		}
		if el.Shape == ShapeRoundedRect {
			r.Radius = el.Radius.MM(pw)
			if r.Radius <= 0 {
				r.Radius = 3
			}
		}
		*s.rects = append(*s.rects, r)
	case ShapeCircle:
		page.Circles = append(page.Circles, layout.Circle{
			CX: xs(0), CY: ys(1), R: xs(2),
			FillColor: fill, StrokeColor: stroke, StrokeWidth: el.StrokeWidth, Opacity: el.Opacity,
		})
	case ShapeLine:
		col := c.theme.text
		if stroke != nil {
			col = *stroke
		}
		*s.lines = append(*s.lines, layout.Line{X1: xs(0), Y1: ys(1), X2: xs(2), Y2: ys(3), Color: col, Width: el.StrokeWidth})
	case ShapeText:
		c.coverText(s, el, cc.Data, xs(0), ys(1))
	case ShapeWrappedText:
		return c.coverWrapped(s, el, cc.Data, xs(0), ys(1), el.Width.MM(pw))
	case ShapeImage:
		asset := cc.Logo
		if el.Src == "cover" {
			asset = cc.Image
		}
		x, w := xs(0), xs(2)
		switch el.Align {
		case table.Center:
			x -= w / 2
		case table.Right:
			x -= w
		}
		c.coverImage(s, rs, el.Src, asset, x, ys(1), w, ys(3))
	}
	return nil
}

func (c *Composer) optColor(value string, data map[string]any) *layout.Color {
	v := strings.TrimSpace(binding.Expand(value, data))
	if v == "" {
		return nil
	}
	col, err := layout.ParseColor(v)
	if err != nil {
		return nil
	}
	return &col
}

func (c *Composer) elementFont(el Element) measure.Font {
	font := c.font
	if el.Font != "" {
		if f, err := measure.ParseFont(el.Font); err == nil {
			font = f
		}
	}
	if el.Bold {
		font = font.With(measure.Bold)
	}
	if el.Italic {
		font = font.With(measure.Italic)
	}
	return measure.ResolveFont(c.measure, font)
}

// coverText draws each non-empty line of the element on its own row.
func (c *Composer) coverText(s surface, el Element, data map[string]any, x, y float64) {
	font := c.elementFont(el)
	lh := el.LineHeight
	if lh <= 0 {
		lh = c.cfg.Fonts.LineHeight
	}
	color := c.textColor(el, data)
	for _, raw := range strings.Split(el.Text, "\n") {
		text := strings.TrimSpace(binding.Expand(raw, data))
		if text == "" {
			continue
		}
		box := singleLine(x, y, text, font, el.Size, lh, c.width(text, font, el.Size), el.Align, color)
		box.Opacity = el.Opacity
		*s.texts = append(*s.texts, box)
		y += box.Height
	}
}

// coverWrapped flows the element text within width; empty lines are dropped.
func (c *Composer) coverWrapped(s surface, el Element, data map[string]any, x, y, width float64) error {
	var kept []string
	for _, raw := range strings.Split(el.Text, "\n") {
		if text := strings.TrimSpace(binding.Expand(raw, data)); text != "" {
			kept = append(kept, text)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	lh := el.LineHeight
	if lh <= 0 {
		lh = c.cfg.Fonts.LineHeight
	}
	st := textflow.Style{Font: c.elementFont(el), Size: el.Size, LineHeight: lh, Width: width}
	flow := textflow.New(markup.ParsePlain(strings.Join(kept, "\n")), st, c.measure)
	lines := flow.All()
	if err := flow.Err(); err != nil {
		return err
	}
	box := textBox(x, y, width, lines, st, el.Align, c.textColor(el, data))
	box.Opacity = el.Opacity
	*s.texts = append(*s.texts, box)
	return nil
}

func (c *Composer) textColor(el Element, data map[string]any) layout.Color {
	if col := c.optColor(el.Color, data); col != nil {
		return *col
	}
	return c.theme.text
}

// coverImage fits asset into the w×h box and centers it there. Broken assets draw a
// placeholder; absent ones draw nothing.
func (c *Composer) coverImage(s surface, rs *layout.ResourceSet, name string, asset layout.Asset, x, y, w, h float64) {
	if !asset.Present() {
		return
	}
	img := c.images.Placeholder(w, h)
	if !asset.Broken {
		resolved, ok, err := c.images.Resolve(asset.Data, w, h)
		if err != nil {
			c.report.Warn("imaging", diag.CodeImageDecode, "cover image could not be decoded, drawing a placeholder",
				logrus.Fields{"asset": name, "error": err.Error()})
		}
		if !ok {
			return
		}
		img = resolved
	}
	c.placeImage(s, rs, "cover-"+name, img, x+(w-img.Width)/2, y+(h-img.Height)/2)
}
