package markup

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/folio/measure"
)

func TestParseHTMLRichText(t *testing.T) {
	src := `<!DOCTYPE HTML><html><head><meta name="qrichtext" content="1" /><style type="text/css">p, li { white-space: pre-wrap; }</style></head>
<body style=" font-family:'Sans'; font-size:10pt;">
<p style=" margin-top:0px;">Hello <span style=" font-weight:600;">World</span></p>
<p>Second<br />line</p>
<p style="-qt-paragraph-type:empty;"><br /></p>
</body></html>`
	got, err := Parse(src, Auto)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	want := []Paragraph{
		{Spans: []Span{{Text: "Hello "}, {Text: "World", Style: measure.Bold}}},
		{Spans: []Span{{Text: "Second"}, {Break: true}, {Text: "line"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("段落不符 (-want +got):\n%s", diff)
	}
}

func TestParseHTMLListsAndEmphasis(t *testing.T) {
	src := `<ul><li>One <i>item</i></li><li><b>Two</b></li></ul>`
	got, err := ParseHTML(src)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	got = compact(got)
	want := []Paragraph{
		{Bullet: "•", Spans: []Span{{Text: "One "}, {Text: "item", Style: measure.Italic}}},
		{Bullet: "•", Spans: []Span{{Text: "Two", Style: measure.Bold}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("列表不符 (-want +got):\n%s", diff)
	}
}

func TestParseHTMLCollapsesWhitespace(t *testing.T) {
	got, err := Parse("<p>  many \n\t spaces   here </p>", HTML)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(got) != 1 || got[0].Text() != "many spaces here" {
		t.Fatalf("空白未折叠: %#v", got)
	}
}

func TestParseMarkdown(t *testing.T) {
	src := "Intro with **bold** and *italic*.\n\n- one\n- two\n"
	got, err := Parse(src, Auto)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	want := []Paragraph{
		{Spans: []Span{
			{Text: "Intro with "},
			{Text: "bold", Style: measure.Bold},
			{Text: " and "},
			{Text: "italic", Style: measure.Italic},
			{Text: "."},
		}},
		{Bullet: "•", Spans: []Span{{Text: "one"}}},
		{Bullet: "•", Spans: []Span{{Text: "two"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Markdown 不符 (-want +got):\n%s", diff)
	}
}

func TestParseMarkdownSoftBreakIsSpace(t *testing.T) {
	got := compact(ParseMarkdown("first\nsecond"))
	if len(got) != 1 || got[0].Text() != "first second" {
		t.Fatalf("软换行应为空格: %#v", got)
	}
}

func TestParseMarkdownOrderedList(t *testing.T) {
	got := compact(ParseMarkdown("3. a\n4. b\n"))
	if len(got) != 2 || got[0].Bullet != "3." || got[1].Bullet != "4." {
		t.Fatalf("有序列表编号错误: %#v", got)
	}
}

func TestParsePlain(t *testing.T) {
	got, err := Parse("line one\nline two\n\n\nnext", Plain)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	want := []Paragraph{
		{Spans: []Span{{Text: "line one"}, {Break: true}, {Text: "line two"}}},
		{Spans: []Span{{Text: "next"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("纯文本不符 (-want +got):\n%s", diff)
	}
}

func TestHasContent(t *testing.T) {
	cases := map[string]bool{
		"":                       false,
		"   \n\n ":               false,
		"<p><br /></p>":          false,
		"<p>x</p>":               true,
		"Payment within 30 days": true,
	}
	for src, want := range cases {
		if got := HasContent(src, Auto); got != want {
			t.Errorf("HasContent(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("MD") != Markdown || ParseFormat("html") != HTML || ParseFormat("text") != Plain || ParseFormat("?") != Auto {
		t.Fatalf("ParseFormat 映射错误")
	}
}
