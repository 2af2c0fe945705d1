package fpdfrenderer

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/ByLCY/folio/layout"
)

func sampleResult(t *testing.T) *layout.Result {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 8, 4))); err != nil {
		t.Fatalf("生成 PNG 失败: %v", err)
	}
	text := layout.TextBox{
		X: 20, Y: 30, Width: 80, Font: "helvetica", FontSize: 10, Height: 5,
		Lines: []layout.TextLine{{
			Content: "• Validity: 15 days", X: 4, Width: 40, Height: 5,
			Spans: []layout.TextSpan{
				{Content: "•", Font: "helvetica", X: -4},
				{Content: "Validity: ", Font: "helvetica-bold", Width: 15},
				{Content: "15 days", Font: "helvetica", X: 15, Width: 12},
			},
		}},
	}
	watermark := layout.TextBox{
		X: 60, Y: 140, Width: 90, Font: "helvetica-bold", FontSize: 60, Height: 21,
		Opacity: 0.1, Rotate: 45,
		Lines: []layout.TextLine{{Content: "DRAFT", Width: 90, Height: 21}},
	}
	return &layout.Result{
		Pages: []layout.Page{
			{Number: 1, Cover: true, Width: 210, Height: 297,
				Rects:   []layout.Rect{{Width: 210, Height: 297, FillColor: layout.Color{R: 31, G: 58, B: 95}.Ptr()}},
				Circles: []layout.Circle{{CX: 180, CY: 20, R: 40, FillColor: layout.White.Ptr(), Opacity: 0.08}},
			},
			{Number: 2, Width: 210, Height: 297,
				Watermark: &watermark,
				Header: layout.HeaderFooter{
					Height: 28,
					Images: []layout.ImageBox{{Name: "logo", X: 15, Y: 15, Width: 16, Height: 8}},
					Lines:  []layout.Line{{X1: 15, Y1: 40, X2: 195, Y2: 40, Width: 0.4}},
				},
				Texts: []layout.TextBox{text},
				Rects: []layout.Rect{{X: 15, Y: 50, Width: 60, Height: 10, Radius: 1.5, StrokeColor: layout.Black.Ptr()}},
			},
		},
		Resources: layout.ResourceSet{
			Fonts:  []string{"helvetica", "helvetica-bold"},
			Images: map[string]layout.ImageResource{"logo": {Name: "logo", Format: "png", Data: buf.Bytes(), Width: 16, Height: 8}},
		},
		Meta: layout.DocumentMeta{
			ID: "id", Title: "QUOTATION Q-1", Author: "Acme", Creator: "folio",
			Keywords: []string{"quotation"}, Created: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestRenderIsByteIdentical(t *testing.T) {
	res := sampleResult(t)
	a, err := New(nil).Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	b, err := New(nil).Render(res)
	if err != nil {
		t.Fatalf("第二次渲染失败: %v", err)
	}
	if !bytes.HasPrefix(a, []byte("%PDF-")) {
		t.Fatalf("输出不是 PDF")
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("两次渲染输出不一致")
	}
	if !bytes.Contains(a, []byte("/CreationDate (D:20260314")) {
		t.Fatalf("创建日期应取自文档元信息")
	}
	if !bytes.Contains(a, []byte("/Subtype /Image")) {
		t.Fatalf("应嵌入 logo 图片")
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	if _, err := New(nil).Render(nil); err == nil {
		t.Fatalf("nil 结果应返回错误")
	}
	if _, err := New(nil).Render(&layout.Result{}); err == nil {
		t.Fatalf("没有页面时应返回错误")
	}
}
