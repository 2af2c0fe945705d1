// Package fpdfrenderer draws layout results with the PDF standard fonts through
// codeberg.org/go-pdf/fpdf. Its text metrics are those of measure.CoreMetrics, so what
// was measured is what gets drawn.
package fpdfrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/renderer"
)

// Epoch is the creation date written when a document carries none.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const defaultLineWidth = 0.2

// Renderer is stateless between calls and safe for concurrent use.
type Renderer struct {
	metrics *measure.CoreMetrics
	// Producer overrides the PDF producer entry.
	Producer string
}

var _ renderer.Renderer = (*Renderer)(nil)

// New returns a renderer encoding text the way m measures it. A nil m gets its own
// metrics.
func New(m *measure.CoreMetrics) *Renderer {
	if m == nil {
		m = measure.NewCoreMetrics()
	}
	return &Renderer{metrics: m}
}

// Render draws every page into a new PDF.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, errors.New("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, errors.New("缺少可渲染的页面")
	}
	first := result.Pages[0]
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: first.Width, Ht: first.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(true)
	pdf.SetCatalogSort(true)
	r.applyMeta(pdf, result.Meta)

	names := make([]string, 0, len(result.Resources.Images))
	for name := range result.Resources.Images {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		img := result.Resources.Images[name]
		if img.Placeholder || len(img.Data) == 0 {
			continue
		}
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: img.Format}, bytes.NewReader(img.Data))
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("注册图片失败: %w", err)
	}

	for _, page := range result.Pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})
		r.drawPage(pdf, page, result.Resources)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", page.Number, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(pdf *fpdf.Fpdf, meta layout.DocumentMeta) {
	created := meta.Created
	if created.IsZero() {
		created = Epoch
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator(meta.Creator, true)
	pdf.SetKeywords(strings.Join(meta.Keywords, " "), true)
	if r.Producer != "" {
		pdf.SetProducer(r.Producer, true)
	}
}

// drawPage paints in a fixed order: watermark, header band, body shapes, body text and
// images, footer band.
func (r *Renderer) drawPage(pdf *fpdf.Fpdf, page layout.Page, rs layout.ResourceSet) {
	if page.Watermark != nil {
		r.drawText(pdf, *page.Watermark)
	}
	r.drawBand(pdf, page.Header, rs)

	r.drawRects(pdf, page.Rects)
	r.drawCircles(pdf, page.Circles)
	r.drawLines(pdf, page.Lines)
	r.drawImages(pdf, page.Images, rs)
	for _, tb := range page.Texts {
		r.drawText(pdf, tb)
	}

	r.drawBand(pdf, page.Footer, rs)
}

func (r *Renderer) drawBand(pdf *fpdf.Fpdf, band layout.HeaderFooter, rs layout.ResourceSet) {
	r.drawRects(pdf, band.Rects)
	r.drawLines(pdf, band.Lines)
	r.drawImages(pdf, band.Images, rs)
	for _, tb := range band.Texts {
		r.drawText(pdf, tb)
	}
}

func (r *Renderer) drawText(pdf *fpdf.Fpdf, tb layout.TextBox) {
	if len(tb.Lines) == 0 {
		return
	}
	alpha(pdf, tb.Opacity, func() {
		if tb.Rotate != 0 {
			pdf.TransformBegin()
			pdf.TransformRotate(tb.Rotate, tb.X+tb.Width/2, tb.Y+tb.Height/2)
			defer pdf.TransformEnd()
		}
		pdf.SetTextColor(tb.Color.R, tb.Color.G, tb.Color.B)
		y := tb.Y
		for _, line := range tb.Lines {
			y += line.GapBefore
			baseline := y + layout.Baseline(line.Height, tb.FontSize)
			if len(line.Spans) == 0 {
				r.setFont(pdf, tb.Font, tb.FontSize)
				pdf.Text(tb.X+line.X, baseline, r.metrics.Encode(line.Content))
			}
			for _, sp := range line.Spans {
				font := sp.Font
				if font == "" {
					font = tb.Font
				}
				r.setFont(pdf, font, tb.FontSize)
				pdf.Text(tb.X+line.X+sp.X, baseline, r.metrics.Encode(sp.Content))
			}
			y += line.Height
		}
	})
}

func (r *Renderer) setFont(pdf *fpdf.Fpdf, name string, size float64) {
	family, style := "Helvetica", ""
	if f, err := measure.ParseFont(name); err == nil {
		if fam, st, ok := measure.CoreFont(f); ok {
			family, style = fam, st
		}
	}
	pdf.SetFont(family, style, size)
}

func (r *Renderer) drawImages(pdf *fpdf.Fpdf, images []layout.ImageBox, rs layout.ResourceSet) {
	for _, img := range images {
		res, ok := rs.Images[img.Name]
		if !ok || res.Placeholder || len(res.Data) == 0 {
			continue
		}
		alpha(pdf, img.Opacity, func() {
			pdf.ImageOptions(img.Name, img.X, img.Y, img.Width, img.Height, false, fpdf.ImageOptions{ImageType: res.Format}, 0, "")
		})
	}
}

func (r *Renderer) drawLines(pdf *fpdf.Fpdf, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultLineWidth
		}
		pdf.SetDrawColor(ln.Color.R, ln.Color.G, ln.Color.B)
		pdf.SetLineWidth(w)
		pdf.Line(ln.X1, ln.Y1, ln.X2, ln.Y2)
	}
}

func (r *Renderer) drawRects(pdf *fpdf.Fpdf, rects []layout.Rect) {
	for _, rc := range rects {
		style := paint(pdf, rc.FillColor, rc.StrokeColor, rc.StrokeWidth)
		if style == "" {
			continue
		}
		alpha(pdf, rc.Opacity, func() {
			if rc.Radius > 0 {
				pdf.RoundedRect(rc.X, rc.Y, rc.Width, rc.Height, rc.Radius, "1234", style)
				return
			}
			pdf.Rect(rc.X, rc.Y, rc.Width, rc.Height, style)
		})
	}
}

func (r *Renderer) drawCircles(pdf *fpdf.Fpdf, circles []layout.Circle) {
	for _, c := range circles {
		style := paint(pdf, c.FillColor, c.StrokeColor, c.StrokeWidth)
		if style == "" {
			continue
		}
		alpha(pdf, c.Opacity, func() {
			pdf.Circle(c.CX, c.CY, c.R, style)
		})
	}
}

// paint sets the fill and draw state and returns the fpdf style string, empty when
// there is nothing to paint.
func paint(pdf *fpdf.Fpdf, fill, stroke *layout.Color, width float64) string {
	var style string
	if fill != nil {
		pdf.SetFillColor(fill.R, fill.G, fill.B)
		style += "F"
	}
	if stroke != nil {
		if width <= 0 {
			width = defaultLineWidth
		}
		pdf.SetDrawColor(stroke.R, stroke.G, stroke.B)
		pdf.SetLineWidth(width)
		style = "D" + style
	}
	return style
}

// alpha runs draw with the given opacity; 0 means opaque.
func alpha(pdf *fpdf.Fpdf, opacity float64, draw func()) {
	if opacity <= 0 || opacity >= 1 {
		draw()
		return
	}
	pdf.SetAlpha(opacity, "Normal")
	draw()
	pdf.SetAlpha(1, "Normal")
}
