// Package compose turns a pagination plan into positioned pages: the cover drawn from
// its template, the header and footer bands of every content page, and each placed
// block. The result is backend neutral; renderers only draw what it lists.
package compose

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/diag"
	"github.com/ByLCY/folio/document"
	"github.com/ByLCY/folio/imaging"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/textflow"
)

// Stroke widths in mm.
const (
	hairline = 0.2
	rule     = 0.4
	slotGap  = 6.0
)

// Composer draws pages for one configuration. It holds no per-document state and may
// be reused; it is not safe for concurrent use because of the shared report.
type Composer struct {
	cfg       config.Config
	measure   measure.Provider
	images    *imaging.Resolver
	templates *Templates
	report    *diag.Report
	font      measure.Font
	theme     palette
}

type palette struct {
	accent, text, muted, head, alt, border layout.Color
}

// New returns a composer. A nil images resolver is configured from cfg.Images and a
// nil templates table is the built-in cover file.
func New(cfg config.Config, p measure.Provider, images *imaging.Resolver, templates *Templates, report *diag.Report) (*Composer, error) {
	if p == nil {
		return nil, errors.New("compose: no measurement provider")
	}
	font, err := measure.ParseFont(cfg.Fonts.Family)
	if err != nil {
		return nil, fmt.Errorf("compose: body font: %w", err)
	}
	if templates == nil {
		if templates, err = DefaultTemplates(); err != nil {
			return nil, err
		}
	}
	if images == nil {
		images = &imaging.Resolver{
			Measure:           p,
			DPI:               cfg.Images.DPI,
			MaxDPI:            cfg.Images.MaxDPI,
			PlaceholderWidth:  cfg.Images.PlaceholderWidth,
			PlaceholderHeight: cfg.Images.PlaceholderHeight,
		}
	}
	th := cfg.Theme
	return &Composer{
		cfg:       cfg,
		measure:   p,
		images:    images,
		templates: templates,
		report:    report,
		font:      font,
		theme: palette{
			accent: layout.ColorOr(th.Accent, layout.Color{R: 0x1f, G: 0x3a, B: 0x5f}),
			text:   layout.ColorOr(th.Text, layout.Color{R: 0x22, G: 0x22, B: 0x22}),
			muted:  layout.ColorOr(th.Muted, layout.Color{R: 0x6b, G: 0x72, B: 0x80}),
			head:   layout.ColorOr(th.TableHeader, layout.Color{R: 0x1f, G: 0x3a, B: 0x5f}),
			alt:    layout.ColorOr(th.TableAlt, layout.Color{R: 0xf2, G: 0xf4, B: 0xf7}),
			border: layout.ColorOr(th.Border, layout.Color{R: 0xc8, G: 0xcc, B: 0xd2}),
		},
	}, nil
}

// Templates returns the cover table the composer draws from.
func (c *Composer) Templates() *Templates { return c.templates }

// Compose draws every page of plan. Page numbers count physical pages, the cover
// included, and the page label reads "n of N" over all pages of the plan.
func (c *Composer) Compose(doc *document.Document, plan *layout.Plan) (*layout.Result, error) {
	if doc == nil || plan == nil {
		return nil, errors.New("compose: nothing to compose")
	}
	res := &layout.Result{
		Meta:      doc.Meta,
		Resources: layout.ResourceSet{Images: map[string]layout.ImageResource{}},
	}
	total := len(plan.Pages)
	for _, pp := range plan.Pages {
		var (
			page layout.Page
			err  error
		)
		if pp.Cover {
			page, err = c.cover(doc, plan.Geometry, pp, &res.Resources)
		} else {
			page, err = c.content(doc, plan, pp, total, &res.Resources)
		}
		if err != nil {
			return nil, fmt.Errorf("compose: page %d: %w", pp.Number, err)
		}
		res.Pages = append(res.Pages, page)
	}
	for _, p := range res.Pages {
		if p.Watermark != nil {
			collectFonts(&res.Resources, []layout.TextBox{*p.Watermark})
		}
		collectFonts(&res.Resources, p.Header.Texts, p.Texts, p.Footer.Texts)
	}
	c.report.Logger().WithFields(logrus.Fields{
		"pages":  len(res.Pages),
		"fonts":  len(res.Resources.Fonts),
		"images": len(res.Resources.Images),
	}).Debug("compose: done")
	return res, nil
}

// surface points at the element lists of a page or a band.
type surface struct {
	texts  *[]layout.TextBox
	images *[]layout.ImageBox
	lines  *[]layout.Line
	rects  *[]layout.Rect
}

func pageSurface(p *layout.Page) surface {
	return surface{&p.Texts, &p.Images, &p.Lines, &p.Rects}
}

func bandSurface(h *layout.HeaderFooter) surface {
	return surface{&h.Texts, &h.Images, &h.Lines, &h.Rects}
}

func (c *Composer) content(doc *document.Document, plan *layout.Plan, pp layout.PagePlan, total int, rs *layout.ResourceSet) (layout.Page, error) {
	geo := plan.Geometry
	page := layout.Page{
		Number: pp.Number,
		Width:  geo.Width,
		Height: geo.Height,
		Margin: geo.Margin,
	}
	page.Watermark = c.watermark(geo)
	c.headerBand(&page, doc, geo, rs)
	if plan.FooterBlock >= 0 {
		if fc := doc.Blocks[plan.FooterBlock].Footer; fc != nil {
			c.footerBand(&page, fc, geo, plan.Footer, pp.Number, total)
		}
	}

	s := pageSurface(&page)
	for _, pl := range pp.Placements {
		b := &doc.Blocks[pl.Block]
		x, y := geo.ContentLeft(), geo.ContentTop()+pl.Y
		switch pl.Kind {
		case layout.KindHeader:
			c.drawHeader(s, b.Header, x, y, geo.ContentWidth(), b.Height)
		case layout.KindTable:
			c.drawTable(s, b.Table.Table, pl, x, y)
		case layout.KindTotals:
			c.drawTotals(s, b.Totals, x+geo.ContentWidth()-b.Totals.Width, y)
		case layout.KindText:
			c.drawText(s, b.Text, pl, x, y, geo.ContentWidth())
		case layout.KindSignature:
			c.drawSignature(s, b.Signature, x, y, geo.ContentWidth(), rs)
		case layout.KindImage:
			c.drawFigure(s, b.Image, x, y, geo.ContentWidth(), rs)
		case layout.KindSeparator:
			c.drawSeparator(s, b.Separator, x, y, geo.ContentWidth(), b.Height)
		case layout.KindGallery:
			c.drawGallery(s, b.Gallery, pl, x, y, geo.ContentWidth(), rs)
		default:
			return page, fmt.Errorf("block %q of kind %s cannot be drawn on a content page", b.ID, pl.Kind)
		}
	}
	return page, nil
}

// width measures text, reporting failures and estimating half an em per rune.
func (c *Composer) width(text string, font measure.Font, size float64) float64 {
	if text == "" {
		return 0
	}
	w, _, err := c.measure.MeasureText(text, font, size)
	if err != nil {
		c.report.Warn("compose", diag.CodeUnmeasurable, "text could not be measured, width estimated",
			logrus.Fields{"font": font.String(), "error": err.Error()})
		return float64(len([]rune(text))) * size * layout.PtToMm / 2
	}
	return w
}

// label is a single measured line. x is interpreted according to align.
func (c *Composer) label(x, y float64, text string, font measure.Font, size float64, align table.Align, color layout.Color) layout.TextBox {
	return singleLine(x, y, text, font, size, c.cfg.Fonts.LineHeight, c.width(text, font, size), align, color)
}

func (c *Composer) advance(size float64) float64 {
	return size * layout.PtToMm * c.cfg.Fonts.LineHeight
}

func (c *Composer) watermark(geo layout.Geometry) *layout.TextBox {
	wm := c.cfg.Watermark
	if strings.TrimSpace(wm.Text) == "" {
		return nil
	}
	font := c.font.With(measure.Bold)
	w := c.width(wm.Text, font, wm.Size)
	h := wm.Size * layout.PtToMm
	box := singleLine(geo.Width/2, geo.Height/2-h/2, wm.Text, font, wm.Size, 1, w, table.Center, c.theme.muted)
	box.Opacity = wm.Opacity
	box.Rotate = wm.Angle
	return &box
}

// headerBand draws the logo on the left, the document title, number and date on the
// right and an accent rule under them.
func (c *Composer) headerBand(page *layout.Page, doc *document.Document, geo layout.Geometry, rs *layout.ResourceSet) {
	band := geo.HeaderBand
	page.Header.Height = band
	if band <= 0 {
		return
	}
	s := bandSurface(&page.Header)
	top, left := geo.Margin.Top, geo.ContentLeft()
	right := left + geo.ContentWidth()
	ruleY := top + band - 3

	if doc.Logo != nil {
		img := *doc.Logo
		if maxH := ruleY - top - 1; img.Height > maxH && maxH > 0 {
			k := maxH / img.Height
			img.Width, img.Height = img.Width*k, img.Height*k
		}
		c.placeImage(s, rs, "logo", img, left, top)
	}

	f := c.cfg.Fonts
	q := doc.Quotation
	y := top
	title := strings.TrimSpace(doc.Title + " " + q.Number)
	*s.texts = append(*s.texts, c.label(right, y, title, c.font.With(measure.Bold), f.Title, table.Right, c.theme.accent))
	y += c.advance(f.Title)
	if q.Company.Name != "" && y+c.advance(f.Small) <= ruleY {
		*s.texts = append(*s.texts, c.label(right, y, q.Company.Name, c.font, f.Small, table.Right, c.theme.muted))
		y += c.advance(f.Small)
	}
	if q.Date != "" && y+c.advance(f.Small) <= ruleY {
		*s.texts = append(*s.texts, c.label(right, y, q.Date, c.font, f.Small, table.Right, c.theme.muted))
	}
	*s.lines = append(*s.lines, layout.Line{X1: left, Y1: ruleY, X2: right, Y2: ruleY, Color: c.theme.accent, Width: rule})
}

// footerBand draws a rule, the centered footer lines, then the reference on the left
// and the page label on the right.
func (c *Composer) footerBand(page *layout.Page, fc *layout.FooterContent, geo layout.Geometry, height float64, number, total int) {
	top := geo.FooterTop(height)
	page.Footer.Height = height
	s := bandSurface(&page.Footer)
	left := geo.ContentLeft()
	right := left + geo.ContentWidth()
	*s.lines = append(*s.lines, layout.Line{X1: left, Y1: top + 0.5, X2: right, Y2: top + 0.5, Color: c.theme.border, Width: hairline})

	y := top + 1.5
	for _, l := range fc.Lines {
		if l == "" {
			continue
		}
		*s.texts = append(*s.texts, c.label(left+geo.ContentWidth()/2, y, l, c.font.With(measure.Italic), fc.Size, table.Center, c.theme.muted))
		y += c.advance(fc.Size)
	}
	if fc.Reference != "" {
		*s.texts = append(*s.texts, c.label(left, y, fc.Reference, c.font, fc.Size, table.Left, c.theme.muted))
	}
	*s.texts = append(*s.texts, c.label(right, y, pageLabel(fc.PageLabel, number, total), c.font, fc.Size, table.Right, c.theme.muted))
}

// pageLabel fills a "Page %d of %d" pattern. Patterns with other verbs get the numbers
// appended.
func pageLabel(pattern string, n, total int) string {
	if strings.Count(pattern, "%d") == 2 && strings.Count(pattern, "%") == 2 {
		return fmt.Sprintf(pattern, n, total)
	}
	return strings.TrimSpace(pattern + " " + strconv.Itoa(n) + "/" + strconv.Itoa(total))
}

func (c *Composer) drawHeader(s surface, hc *layout.HeaderContent, x, y, width, height float64) {
	*s.rects = append(*s.rects, layout.Rect{X: x, Y: y, Width: width, Height: height, Radius: 1.5, FillColor: c.theme.alt.Ptr()})
	for _, col := range hc.Columns {
		st := col.Flow.Style()
		*s.texts = append(*s.texts, textBox(x+col.X+hc.Padding, y+hc.Padding, col.Width-2*hc.Padding, col.Flow.All(), st, table.Left, c.theme.text))
	}
}

// drawTable draws one segment: the header row, then the body rows of the placement
// with alternating fills and a hairline under each row.
func (c *Composer) drawTable(s surface, t *table.Table, pl layout.Placement, x, y float64) {
	st := t.Style
	w := t.Width()
	*s.rects = append(*s.rects, layout.Rect{X: x, Y: y, Width: w, Height: t.Header.Height, FillColor: c.theme.head.Ptr()})
	headStyle := textflow.Style{Font: st.Font.With(measure.Bold), Size: st.HeaderSize, LineHeight: st.LineHeight}
	if headStyle.Size <= 0 {
		headStyle.Size = st.Size
	}
	c.cells(s, t, t.Header, x, y, st.HeaderPad(), headStyle, layout.White)
	y += t.Header.Height

	bodyStyle := textflow.Style{Font: st.Font, Size: st.Size, LineHeight: st.LineHeight}
	for _, r := range pl.Rows {
		if r.Index%2 == 1 {
			*s.rects = append(*s.rects, layout.Rect{X: x, Y: y, Width: w, Height: r.Height, FillColor: c.theme.alt.Ptr()})
		}
		c.cells(s, t, r, x, y, st.Padding, bodyStyle, c.theme.text)
		y += r.Height
		*s.lines = append(*s.lines, layout.Line{X1: x, Y1: y, X2: x + w, Y2: y, Color: c.theme.border, Width: hairline})
	}
}

// cells draws the cells of a row, each vertically centered in the row.
func (c *Composer) cells(s surface, t *table.Table, r table.Row, x, y, pad float64, style textflow.Style, color layout.Color) {
	cx := x
	for i, cell := range r.Cells {
		if i >= len(t.Widths) {
			break
		}
		w := t.Widths[i]
		var h float64
		for _, l := range cell.Lines {
			h += l.GapBefore + l.Height
		}
		top := y + max(pad, (r.Height-h)/2)
		*s.texts = append(*s.texts, textBox(cx+pad, top, w-2*pad, cell.Lines, style, cell.Align, color))
		cx += w
	}
}

func (c *Composer) drawTotals(s surface, tc *layout.TotalsContent, x, y float64) {
	pad := c.cfg.Table.Padding
	for _, r := range tc.Rows {
		font, color := c.font, c.theme.text
		if r.Strong {
			font, color = c.font.With(measure.Bold), layout.White
			*s.rects = append(*s.rects, layout.Rect{X: x, Y: y, Width: tc.Width, Height: tc.RowHeight, FillColor: c.theme.accent.Ptr()})
		} else {
			*s.lines = append(*s.lines, layout.Line{X1: x, Y1: y + tc.RowHeight, X2: x + tc.Width, Y2: y + tc.RowHeight, Color: c.theme.border, Width: hairline})
		}
		ty := y + (tc.RowHeight-c.advance(tc.Size))/2
		*s.texts = append(*s.texts,
			c.label(x+pad, ty, r.Label, font, tc.Size, table.Left, color),
			c.label(x+tc.Width-pad, ty, r.Value, font, tc.Size, table.Right, color),
		)
		y += tc.RowHeight
	}
}

// drawText draws the section title, repeated with the continuation mark on later
// segments, followed by the lines of the placement.
func (c *Composer) drawText(s surface, tc *layout.TextContent, pl layout.Placement, x, y, width float64) {
	if tc.Title != "" {
		y = c.sectionTitle(s, tc.Title, tc.Continued, pl.Continued, tc.TitleSize, tc.TitleHeight, tc.TitleGap, x, y, width)
	}
	if len(pl.Lines) == 0 {
		return
	}
	lines := pl.Lines
	if lines[0].GapBefore > 0 {
		// a segment starts flush with its title
		lines = append([]textflow.WrappedLine(nil), lines...)
		lines[0].GapBefore = 0
	}
	*s.texts = append(*s.texts, textBox(x, y, width, lines, tc.Flow.Style(), table.Left, c.theme.text))
}

// sectionTitle draws a block title with a rule under it and returns the y below both.
func (c *Composer) sectionTitle(s surface, title, mark string, continued bool, size, height, gap, x, y, width float64) float64 {
	if continued && mark != "" {
		title += " " + mark
	}
	*s.texts = append(*s.texts, c.label(x, y, title, c.font.With(measure.Bold), size, table.Left, c.theme.accent))
	y += height
	*s.lines = append(*s.lines, layout.Line{X1: x, Y1: y + gap/2, X2: x + width, Y2: y + gap/2, Color: c.theme.border, Width: hairline})
	return y + gap
}

// drawFigure draws a framed image aligned in the content width, the caption centered
// under it.
func (c *Composer) drawFigure(s surface, ic *layout.ImageContent, x, y, width float64, rs *layout.ResourceSet) {
	img := ic.Image
	ix := x
	switch ic.Align {
	case table.Center:
		ix = x + (width-img.Width)/2
	case table.Right:
		ix = x + width - img.Width
	}
	*s.rects = append(*s.rects, layout.Rect{
		X: ix - 0.5, Y: y - 0.5, Width: img.Width + 1, Height: img.Height + 1,
		StrokeColor: c.theme.border.Ptr(), StrokeWidth: hairline,
	})
	c.placeImage(s, rs, ic.Name, img, ix, y)
	if ic.Caption != "" {
		cy := y + img.Height + ic.CaptionHeight - c.advance(ic.Size)
		*s.texts = append(*s.texts, c.label(ix+img.Width/2, cy, ic.Caption, c.font.With(measure.Italic), ic.Size, table.Center, c.theme.muted))
	}
}

// drawSeparator draws a single or double rule centered in the block; "space" draws nothing.
func (c *Composer) drawSeparator(s surface, sc *layout.SeparatorContent, x, y, width, height float64) {
	mid := y + height/2
	switch sc.Style {
	case layout.SeparatorLine:
		*s.lines = append(*s.lines, layout.Line{X1: x, Y1: mid, X2: x + width, Y2: mid, Color: c.theme.muted, Width: 0.3})
	case layout.SeparatorDouble:
		for _, dy := range []float64{-0.7, 0.7} {
			*s.lines = append(*s.lines, layout.Line{X1: x, Y1: mid + dy, X2: x + width, Y2: mid + dy, Color: c.theme.muted, Width: 0.3})
		}
	}
}

// drawGallery draws the title and the grid rows of the placement. Each picture is
// centered in its cell above a bold caption and a muted detail line.
func (c *Composer) drawGallery(s surface, g *layout.GalleryContent, pl layout.Placement, x, y, width float64, rs *layout.ResourceSet) {
	if g.Title != "" {
		y = c.sectionTitle(s, g.Title, g.Continued, pl.Continued, g.TitleSize, g.TitleHeight, g.TitleGap, x, y, width)
	}
	for r := pl.FirstRow; r < pl.LastRow; r++ {
		ry := y + float64(r-pl.FirstRow)*(g.RowHeight+g.Gap)
		for col := 0; col < g.Columns; col++ {
			i := r*g.Columns + col
			if i >= len(g.Cells) {
				break
			}
			cell := g.Cells[i]
			cx := x + float64(col)*(g.CellWidth+g.Gap)
			if cell.Image != nil {
				img := *cell.Image
				c.placeImage(s, rs, cell.Name, img, cx+(g.CellWidth-img.Width)/2, ry+(g.ImageHeight-img.Height)/2)
			}
			ty := ry + g.ImageHeight + 1
			if cell.Caption != "" {
				*s.texts = append(*s.texts, c.label(cx, ty, cell.Caption, c.font.With(measure.Bold), g.Size, table.Left, c.theme.text))
			}
			if cell.Detail != "" {
				*s.texts = append(*s.texts, c.label(cx, ty+g.LineGap, cell.Detail, c.font, g.Size, table.Left, c.theme.muted))
			}
		}
	}
}

// drawSignature draws the slots side by side: optional signature image resting on the
// line, the line itself and the caption rows under it.
func (c *Composer) drawSignature(s surface, sc *layout.SignatureContent, x, y, width float64, rs *layout.ResourceSet) {
	n := len(sc.Slots)
	if n == 0 {
		return
	}
	slotW := (width - slotGap*float64(n-1)) / float64(n)
	named := false
	for _, sl := range sc.Slots {
		named = named || sl.Name != ""
	}
	lineY := y + sc.Space
	for i, sl := range sc.Slots {
		sx := x + float64(i)*(slotW+slotGap)
		if sl.Image != nil {
			img := *sl.Image
			c.placeImage(s, rs, fmt.Sprintf("signature-%d", i+1), img, sx+(sc.LineWidth-img.Width)/2, max(y, lineY-img.Height-0.5))
		}
		*s.lines = append(*s.lines, layout.Line{X1: sx, Y1: lineY, X2: sx + sc.LineWidth, Y2: lineY, Color: c.theme.text, Width: 0.3})

		rows := []string{sl.Label}
		if named {
			rows = append(rows, sl.Name)
		}
		if sc.DateLabel != "" {
			rows = append(rows, sc.DateLabel)
		}
		for k, txt := range rows {
			if txt == "" {
				continue
			}
			font, color := c.font, c.theme.muted
			if k == 0 {
				font, color = c.font.With(measure.Bold), c.theme.text
			}
			*s.texts = append(*s.texts, c.label(sx, lineY+float64(k)*sc.LineGap, txt, font, sc.Size, table.Left, color))
		}
	}
}

// placeImage registers img under name and draws it at (x, y). Placeholders become a
// crossed box.
func (c *Composer) placeImage(s surface, rs *layout.ResourceSet, name string, img imaging.ScaledImage, x, y float64) {
	if img.Placeholder || len(img.Data) == 0 {
		c.placeholder(s, x, y, img.Width, img.Height)
		return
	}
	if _, ok := rs.Images[name]; !ok {
		rs.Images[name] = layout.ImageResource{
			Name:        name,
			Format:      img.Format,
			Data:        img.Data,
			Width:       img.Width,
			Height:      img.Height,
			PixelWidth:  img.PixelWidth,
			PixelHeight: img.PixelHeight,
		}
	}
	*s.images = append(*s.images, layout.ImageBox{Name: name, X: x, Y: y, Width: img.Width, Height: img.Height})
}

func (c *Composer) placeholder(s surface, x, y, w, h float64) {
	*s.rects = append(*s.rects, layout.Rect{
		X: x, Y: y, Width: w, Height: h,
		StrokeColor: c.theme.border.Ptr(), StrokeWidth: hairline,
		FillColor: c.theme.alt.Ptr(),
	})
	*s.lines = append(*s.lines,
		layout.Line{X1: x, Y1: y, X2: x + w, Y2: y + h, Color: c.theme.border, Width: hairline},
		layout.Line{X1: x, Y1: y + h, X2: x + w, Y2: y, Color: c.theme.border, Width: hairline},
	)
}
