package layout

import "time"

// 该文件定义排版结果：页面坐标系中已经定位好的文本、图形与图片，供渲染器与调试 JSON 共用。
// 坐标以页面左上角为原点，单位 mm；字号单位 pt。

// Result 保存合成后的页面与资源。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录页面引用到的字体与图片。
type ResourceSet struct {
	Fonts  []string                 `json:"fonts"`
	Images map[string]ImageResource `json:"images"`
}

// AddFont records a font name once, keeping first-use order.
func (rs *ResourceSet) AddFont(name string) {
	for _, f := range rs.Fonts {
		if f == name {
			return
		}
	}
	rs.Fonts = append(rs.Fonts, name)
}

// ImageResource 是已解码、已缩放的图片数据。宽高为放置尺寸（mm）。
type ImageResource struct {
	Name        string  `json:"name"`
	Format      string  `json:"format"`
	Data        []byte  `json:"-"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	PixelWidth  int     `json:"pixelWidth"`
	PixelHeight int     `json:"pixelHeight"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// Page 记录页面尺寸与最终可以直接渲染的元素。
type Page struct {
	Number int     `json:"number"`
	Cover  bool    `json:"cover,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
	// 水印最先绘制，位于所有内容之下
	Watermark *TextBox `json:"watermark,omitempty"`
	// 主体内容
	Texts   []TextBox  `json:"texts"`
	Images  []ImageBox `json:"images"`
	Lines   []Line     `json:"lines,omitempty"`
	Rects   []Rect     `json:"rects,omitempty"`
	Circles []Circle   `json:"circles,omitempty"`
	// 页眉与页脚（封面页为空）
	Header HeaderFooter `json:"header"`
	Footer HeaderFooter `json:"footer"`
}

// HeaderFooter 描述页眉/页脚区域的固定高度与元素集合。
type HeaderFooter struct {
	Height float64    `json:"height"`
	Texts  []TextBox  `json:"texts"`
	Images []ImageBox `json:"images"`
	Lines  []Line     `json:"lines,omitempty"`
	Rects  []Rect     `json:"rects,omitempty"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 表示一个已经排好坐标的文本块。Font 是默认字体名，行内区间可以覆盖。
type TextBox struct {
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Width    float64    `json:"width"`
	Font     string     `json:"font"`
	FontSize float64    `json:"fontSize"`
	Color    Color      `json:"color"`
	Lines    []TextLine `json:"lines"`
	Height   float64    `json:"height"`
	Opacity  float64    `json:"opacity,omitempty"` // 0 表示不透明
	Rotate   float64    `json:"rotate,omitempty"`  // 绕文本框中心逆时针旋转的角度
}

// TextLine 表示排版后的一行文本。X 是相对 TextBox.X 的偏移（已包含对齐与缩进）。
type TextLine struct {
	Content   string     `json:"content"`
	X         float64    `json:"x"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	GapBefore float64    `json:"gapBefore,omitempty"`
	Spans     []TextSpan `json:"spans,omitempty"`
}

// TextSpan 是行内同一字体的一段文字，X 相对行首。
type TextSpan struct {
	Content string  `json:"content"`
	Font    string  `json:"font"`
	X       float64 `json:"x"`
	Width   float64 `json:"width"`
}

// Baseline returns the baseline offset from the top of a line of the given height
// for text set at size pt. Text is vertically centered using a 0.8em ascent.
func Baseline(lineHeight, size float64) float64 {
	em := size * PtToMm
	return (lineHeight-em)/2 + 0.8*em
}

// ImageBox 引用 ResourceSet.Images 中的一张图片。
type ImageBox struct {
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Opacity float64 `json:"opacity,omitempty"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// Rect 表示一个矩形，Radius > 0 时为圆角矩形。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Radius      float64 `json:"radius,omitempty"`
	StrokeColor *Color  `json:"strokeColor,omitempty"` // 为空表示无描边
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	FillColor   *Color  `json:"fillColor,omitempty"` // 为空表示不填充
	Opacity     float64 `json:"opacity,omitempty"`
}

// Circle 表示一个圆。
type Circle struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	StrokeColor *Color  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	FillColor   *Color  `json:"fillColor,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
}

// DocumentMeta 保存 PDF 元信息。Created 固定后输出可逐字节复现。
type DocumentMeta struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Subject  string    `json:"subject"`
	Creator  string    `json:"creator"`
	Keywords []string  `json:"keywords"`
	Created  time.Time `json:"created"`
}
