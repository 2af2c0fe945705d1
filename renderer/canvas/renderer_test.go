package canvasrenderer

import (
	"bytes"
	"testing"

	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/textflow"
)

var body = measure.Font{Family: "helvetica"}

func flowStyle(width float64) textflow.Style {
	return textflow.Style{Font: body, Size: 12, LineHeight: 1.2, Width: width}
}

func TestMeasureTextUsesGoFaces(t *testing.T) {
	r := NewRenderer()
	short, h, err := r.MeasureText("hello", body, 12)
	if err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	long, _, _ := r.MeasureText("hello world", body, 12)
	if short <= 0 || long <= short {
		t.Fatalf("宽度应随文本增长: %g %g", short, long)
	}
	if want := 12 * measure.PtToMm; h != want {
		t.Fatalf("高度应为 1em: got=%g want=%g", h, want)
	}
	if FamilyOf(measure.Font{Family: "Courier"}) != FamilyMono || FamilyOf(measure.Font{Family: "times"}) != FamilySans {
		t.Fatalf("字体族映射错误")
	}
	if _, _, err := r.MeasureText("x", body, 0); err == nil {
		t.Fatalf("字号为 0 时应返回错误")
	}
}

// 这里的宽度均为 mm
func TestFlowWrapsWithCanvasMetrics(t *testing.T) {
	r := NewRenderer()
	flow := textflow.New(markup.ParsePlain("hello world again"), flowStyle(10), r)
	if lines := flow.All(); len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	if err := flow.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer()
	first := "SAMPLE-A"
	limit, _, err := r.MeasureText(first, body, 12)
	if err != nil || limit <= 0 {
		t.Fatalf("measure error: %v (%g)", err, limit)
	}
	flow := textflow.New(markup.ParsePlain(first+"\nSAMPLE-B"), flowStyle(limit), r)
	lines := flow.All()
	if got := len(lines); got != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", got)
	}
	if lines[0].Text != first || lines[1].Text != "SAMPLE-B" {
		t.Fatalf("line mismatch: %q %q", lines[0].Text, lines[1].Text)
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer()
	box := layout.TextBox{
		X: 20, Y: 20, Width: 100, Font: "helvetica-bold", FontSize: 12, Height: 6,
		Lines: []layout.TextLine{{Content: "QUOTATION", Width: 40, Height: 6}},
	}
	res := &layout.Result{
		Pages: []layout.Page{{
			Number: 1, Width: 210, Height: 297,
			Texts:   []layout.TextBox{box},
			Rects:   []layout.Rect{{X: 10, Y: 10, Width: 50, Height: 20, Radius: 2, FillColor: layout.White.Ptr(), StrokeColor: layout.Black.Ptr()}},
			Circles: []layout.Circle{{CX: 100, CY: 100, R: 10, FillColor: layout.Black.Ptr(), Opacity: 0.5}},
			Lines:   []layout.Line{{X1: 10, Y1: 280, X2: 200, Y2: 280}},
		}},
		Meta: layout.DocumentMeta{Title: "QUOTATION Q-1", Creator: "folio"},
	}
	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("输出不是 PDF")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("没有页面时应返回错误")
	}
}
