package textflow

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ByLCY/folio/diag"
	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/measure"
)

// oneMM makes a Fixed provider advance exactly 1mm per rune.
var oneMM = measure.MmToPt

func flowOf(t *testing.T, src string, width float64) *Flow {
	t.Helper()
	f, err := FromText(src, markup.Markdown, Style{
		Font:       measure.Font{Family: "sans"},
		Size:       oneMM,
		LineHeight: 1.2,
		Width:      width,
	}, measure.NewFixed(1))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	return f
}

func texts(lines []WrappedLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestGreedyWrap(t *testing.T) {
	f := flowOf(t, "aaa bbb ccc dddd", 10)
	got := texts(f.All())
	want := []string{"aaa bbb", "ccc dddd"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("换行结果不符 (-want +got):\n%s", diff)
	}
	if f.Err() != nil {
		t.Fatalf("不应有测量错误: %v", f.Err())
	}
}

func TestNoLineWiderThanColumnExceptSingleWord(t *testing.T) {
	f := flowOf(t, "short averyveryverylongword end of the text goes on and on", 10)
	lines := f.All()
	if diff := cmp.Diff([]string{"short", "averyveryverylongword", "end of the", "text goes", "on and on"}, texts(lines)); diff != "" {
		t.Fatalf("换行结果不符 (-want +got):\n%s", diff)
	}
	for _, l := range lines {
		if l.Width > 10+1e-6 && len(l.Spans) != 1 {
			t.Fatalf("行 %q 超宽 %.2f 且不是单词", l.Text, l.Width)
		}
	}
}

func TestExplicitBreakForcesNewLine(t *testing.T) {
	f, err := FromText("a\nb", markup.Plain, Style{Font: measure.Font{Family: "sans"}, Size: oneMM, Width: 100}, measure.NewFixed(1))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, texts(f.All())); diff != "" {
		t.Fatalf("强制换行失效 (-want +got):\n%s", diff)
	}
}

func TestSpansCarryStyleRanges(t *testing.T) {
	f := flowOf(t, "plain **bold** tail", 100)
	lines := f.All()
	if len(lines) != 1 {
		t.Fatalf("应为单行, got %d", len(lines))
	}
	l := lines[0]
	if l.Text != "plain bold tail" {
		t.Fatalf("行文本错误: %q", l.Text)
	}
	if len(l.Spans) != 3 {
		t.Fatalf("应有 3 个样式区间, got %+v", l.Spans)
	}
	bold := l.Spans[1]
	if l.Text[bold.Start:bold.End] != "bold" || !bold.Font.Style.Has(measure.Bold) {
		t.Fatalf("粗体区间错误: %+v", bold)
	}
	if math.Abs(bold.X-6) > 1e-6 || math.Abs(bold.Width-4.4) > 1e-6 {
		t.Fatalf("粗体位置或宽度错误: x=%.3f w=%.3f", bold.X, bold.Width)
	}
	var sum float64
	for _, s := range l.Spans {
		sum += s.Width
	}
	if math.Abs(sum-l.Width) > 1e-6 {
		t.Fatalf("区间宽度之和 %.3f != 行宽 %.3f", sum, l.Width)
	}
}

func TestBulletHangingIndent(t *testing.T) {
	f, err := FromText("- one two three", markup.Markdown, Style{
		Font: measure.Font{Family: "sans"}, Size: oneMM, Width: 10, BulletIndent: 3,
	}, measure.NewFixed(1))
	if err != nil {
		t.Fatal(err)
	}
	lines := f.All()
	if diff := cmp.Diff([]string{"one two", "three"}, texts(lines)); diff != "" {
		t.Fatalf("缩进换行不符 (-want +got):\n%s", diff)
	}
	if lines[0].Bullet != "•" || lines[1].Bullet != "" || lines[1].Indent != 3 {
		t.Fatalf("项目符号或缩进错误: %+v", lines)
	}
}

func TestCursorNextRespectsHeight(t *testing.T) {
	f := flowOf(t, "a b c d e", 1)
	c := f.Begin()
	first := c.Next(0, 3)
	if len(first) != 2 {
		t.Fatalf("3mm 应容纳 2 行 (1.2mm/行), got %d", len(first))
	}
	if got := c.Next(1, 100); len(got) != 1 || got[0].Text != "c" {
		t.Fatalf("k 限制无效: %+v", got)
	}
	if got := c.Next(0, 0.5); got != nil {
		t.Fatalf("放不下一行时应返回 nil, got %+v", got)
	}
	pos := c.Pos()
	rest := c.Next(0, 100)
	if diff := cmp.Diff([]string{"d", "e"}, texts(rest)); diff != "" {
		t.Fatalf("剩余行不符 (-want +got):\n%s", diff)
	}
	if !c.Done() {
		t.Fatalf("游标应已结束")
	}
	c.Seek(pos)
	if again := c.Next(0, 100); len(again) != 2 {
		t.Fatalf("Seek 后应可重放, got %d", len(again))
	}
	c.Reset()
	if all := c.Next(0, 100); len(all) != 5 {
		t.Fatalf("Reset 后应返回全部 5 行, got %d", len(all))
	}
}

func TestCursorNextParagraphs(t *testing.T) {
	f, err := FromText("one\n\ntwo\n\nthree", markup.Plain, Style{
		Font: measure.Font{Family: "sans"}, Size: oneMM, LineHeight: 1, ParagraphSpacing: 2, Width: 50,
	}, measure.NewFixed(1))
	if err != nil {
		t.Fatal(err)
	}
	if h := f.Height(); math.Abs(h-7) > 1e-6 {
		t.Fatalf("总高应为 3 行 + 2 个段距 = 7, got %.3f", h)
	}
	c := f.Begin()
	lines, n, used := c.NextParagraphs(4.5)
	if n != 2 || len(lines) != 2 || math.Abs(used-4) > 1e-6 {
		t.Fatalf("应放入两段 (1+2+1), got n=%d used=%.2f", n, used)
	}
	if lines[0].GapBefore != 0 {
		t.Fatalf("区域首行不应带段距")
	}
	lines, n, used = c.NextParagraphs(4.5)
	if n != 1 || lines[0].Text != "three" || lines[0].GapBefore != 0 || math.Abs(used-1) > 1e-6 {
		t.Fatalf("新区域首段应不计段距: n=%d used=%.2f %+v", n, used, lines)
	}
	if !c.Done() || c.PeekParagraph() != 0 {
		t.Fatalf("游标应已结束")
	}
}

func TestMeasureErrorIsReported(t *testing.T) {
	f := New(markup.PlainLines("x"), Style{Font: measure.Font{Family: "mono"}, Size: 10, Width: 50}, measure.NewFixed(1, "sans"))
	f.All()
	if !errors.Is(f.Err(), measure.ErrUnmeasurable) {
		t.Fatalf("应报告不可测量: %v", f.Err())
	}
}

func TestFallbackFontRecordedOnSpans(t *testing.T) {
	logger, _ := test.NewNullLogger()
	report := diag.NewReport(logger)
	p := measure.Fallback(measure.NewFixed(1, "sans"), measure.Font{Family: "sans"}, report)
	f := New(markup.PlainLines("hello"), Style{Font: measure.Font{Family: "fancy"}, Size: 10, Width: 50}, p)
	lines := f.All()
	if f.Err() != nil {
		t.Fatalf("替代字体后不应出错: %v", f.Err())
	}
	if got := lines[0].Spans[0].Font.Family; got != "sans" {
		t.Fatalf("区间应记录实际字体 sans, got %s", got)
	}
	if !report.Has(diag.CodeUnmeasurable) {
		t.Fatalf("应记录替代警告")
	}
}
