// Package canvasrenderer draws layout results via github.com/tdewolff/canvas with the
// Go font family embedded in golang.org/x/image. The renderer also measures text with
// the same faces, so a run paginated with it is drawn exactly as measured.
package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/renderer"
)

const defaultLineWidth = 0.2

// Families are the two embedded families; every font name maps to one of them.
const (
	FamilySans = "go"
	FamilyMono = "go-mono"
)

var faceData = map[string]map[canvas.FontStyle][]byte{
	FamilySans: {
		canvas.FontRegular:                  goregular.TTF,
		canvas.FontBold:                     gobold.TTF,
		canvas.FontItalic:                   goitalic.TTF,
		canvas.FontBold | canvas.FontItalic: gobolditalic.TTF,
	},
	FamilyMono: {
		canvas.FontRegular:                  gomono.TTF,
		canvas.FontBold:                     gomonobold.TTF,
		canvas.FontItalic:                   gomonoitalic.TTF,
		canvas.FontBold | canvas.FontItalic: gomonobolditalic.TTF,
	},
}

// Renderer draws layout results via github.com/tdewolff/canvas. Families are loaded
// on first use; a Renderer is safe for concurrent use.
type Renderer struct {
	mu       sync.Mutex
	families map[string]*canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ measure.Provider  = (*Renderer)(nil)
)

// NewRenderer creates a canvas-based renderer.
func NewRenderer() *Renderer {
	return &Renderer{families: map[string]*canvas.FontFamily{}}
}

// FamilyOf maps a font family name to an embedded family.
func FamilyOf(f measure.Font) string {
	switch strings.ToLower(f.Family) {
	case "courier", "mono", "monospace", FamilyMono:
		return FamilyMono
	default:
		return FamilySans
	}
}

func styleOf(f measure.Font) canvas.FontStyle {
	s := canvas.FontRegular
	if f.Style.Has(measure.Bold) {
		s |= canvas.FontBold
	}
	if f.Style.Has(measure.Italic) {
		s |= canvas.FontItalic
	}
	return s
}

func (r *Renderer) family(name string) (*canvas.FontFamily, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fam, ok := r.families[name]; ok {
		return fam, nil
	}
	fam := canvas.NewFontFamily(name)
	for _, style := range []canvas.FontStyle{
		canvas.FontRegular, canvas.FontBold, canvas.FontItalic, canvas.FontBold | canvas.FontItalic,
	} {
		if err := fam.LoadFont(faceData[name][style], 0, style); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
		}
	}
	r.families[name] = fam
	return fam, nil
}

// face returns a face at size pt.
func (r *Renderer) face(f measure.Font, size float64, col color.Color) (*canvas.FontFace, error) {
	fam, err := r.family(FamilyOf(f))
	if err != nil {
		return nil, err
	}
	return fam.Face(size, col, styleOf(f), canvas.FontNormal), nil
}

// MeasureText implements measure.Provider.
func (r *Renderer) MeasureText(text string, font measure.Font, size float64) (float64, float64, error) {
	if size <= 0 {
		return 0, 0, &measure.UnmeasurableError{Font: font, Reason: "invalid size"}
	}
	face, err := r.face(font, size, canvas.Black)
	if err != nil {
		return 0, 0, &measure.UnmeasurableError{Font: font, Reason: "font unavailable", Err: err}
	}
	return face.TextWidth(text), size * measure.PtToMm, nil
}

// MeasureImage implements measure.Provider.
func (r *Renderer) MeasureImage(data []byte) (int, int, error) {
	w, h, _, err := measure.ImageConfig(data)
	return w, h, err
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	images, err := decodeImages(result.Resources)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, images); err != nil {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", page.Number, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func decodeImages(rs layout.ResourceSet) (map[string]image.Image, error) {
	out := make(map[string]image.Image, len(rs.Images))
	for name, res := range rs.Images {
		if res.Placeholder || len(res.Data) == 0 {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(res.Data))
		if err != nil {
			return nil, fmt.Errorf("解码图片 %s 失败: %w", name, err)
		}
		out[name] = img
	}
	return out, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, images map[string]image.Image) error {
	if page.Watermark != nil {
		if err := r.drawTextBox(ctx, *page.Watermark); err != nil {
			return err
		}
	}
	// 先绘制页眉（先形状作为背景，再文本/图片）
	if err := r.drawBand(ctx, page.Header, images); err != nil {
		return err
	}

	// 背景形状（矩形、圆、线）在主体内容之前绘制
	drawRects(ctx, page.Rects)
	drawCircles(ctx, page.Circles)
	drawLines(ctx, page.Lines)
	drawImages(ctx, page.Images, images)
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return err
		}
	}

	return r.drawBand(ctx, page.Footer, images)
}

func (r *Renderer) drawBand(ctx *canvas.Context, band layout.HeaderFooter, images map[string]image.Image) error {
	drawRects(ctx, band.Rects)
	drawLines(ctx, band.Lines)
	drawImages(ctx, band.Images, images)
	for _, tb := range band.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	if len(tb.Lines) == 0 {
		return nil
	}
	col := colorOf(tb.Color, tb.Opacity)
	boxFont, err := measure.ParseFont(tb.Font)
	if err != nil {
		return fmt.Errorf("文本框字体 %q: %w", tb.Font, err)
	}
	if tb.Rotate != 0 {
		ctx.Push()
		// y 轴向下，逆时针角度取反
		ctx.RotateAbout(-tb.Rotate, tb.X+tb.Width/2, tb.Y+tb.Height/2)
		defer ctx.Pop()
	}

	y := tb.Y
	for _, line := range tb.Lines {
		y += line.GapBefore
		baseline := y + layout.Baseline(line.Height, tb.FontSize)
		if len(line.Spans) == 0 {
			face, err := r.face(boxFont, tb.FontSize, col)
			if err != nil {
				return err
			}
			ctx.DrawText(tb.X+line.X, baseline, canvas.NewTextLine(face, line.Content, canvas.Left))
		}
		for _, sp := range line.Spans {
			font := boxFont
			if sp.Font != "" {
				if font, err = measure.ParseFont(sp.Font); err != nil {
					return fmt.Errorf("文本片段字体 %q: %w", sp.Font, err)
				}
			}
			face, err := r.face(font, tb.FontSize, col)
			if err != nil {
				return err
			}
			ctx.DrawText(tb.X+line.X+sp.X, baseline, canvas.NewTextLine(face, sp.Content, canvas.Left))
		}
		y += line.Height
	}
	return nil
}

func drawImages(ctx *canvas.Context, boxes []layout.ImageBox, images map[string]image.Image) {
	for _, box := range boxes {
		img, ok := images[box.Name]
		if !ok || box.Width <= 0 {
			continue
		}
		dpmm := float64(img.Bounds().Dx()) / box.Width
		if dpmm <= 0 {
			dpmm = 1
		}
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(dpmm))
	}
}

// drawLines 绘制直线列表（毫米单位）
func drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultLineWidth
		}
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(colorOf(ln.Color, 0))
		ctx.SetStrokeWidth(w)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

// drawRects 绘制矩形，Radius > 0 时为圆角矩形
func drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		if !paint(ctx, rc.FillColor, rc.StrokeColor, rc.StrokeWidth, rc.Opacity) {
			continue
		}
		path := canvas.Rectangle(rc.Width, rc.Height)
		if rc.Radius > 0 {
			path = canvas.RoundedRectangle(rc.Width, rc.Height, rc.Radius)
		}
		ctx.DrawPath(rc.X, rc.Y, path)
	}
}

// drawCircles 绘制圆形
func drawCircles(ctx *canvas.Context, circles []layout.Circle) {
	for _, c := range circles {
		if !paint(ctx, c.FillColor, c.StrokeColor, c.StrokeWidth, c.Opacity) {
			continue
		}
		ctx.DrawPath(c.CX, c.CY, canvas.Circle(c.R))
	}
}

func paint(ctx *canvas.Context, fill, stroke *layout.Color, width, opacity float64) bool {
	if fill == nil && stroke == nil {
		return false
	}
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(canvas.Transparent)
	if fill != nil {
		ctx.SetFillColor(colorOf(*fill, opacity))
	}
	if stroke != nil {
		if width <= 0 {
			width = defaultLineWidth
		}
		ctx.SetStrokeColor(colorOf(*stroke, opacity))
		ctx.SetStrokeWidth(width)
	}
	return true
}

// colorOf converts c; opacity 0 means opaque.
func colorOf(c layout.Color, opacity float64) color.Color {
	a := 1.0
	if opacity > 0 && opacity < 1 {
		a = opacity
	}
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, a)
}
