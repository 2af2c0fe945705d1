package document

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/diag"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/money"
	"github.com/ByLCY/folio/table"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sample() Quotation {
	return Quotation{
		Number:   "Q-0001",
		Date:     "2026-03-14",
		Company:  Company{Name: "Acme Tools", Address: "1 Main St\nSpringfield", Email: "sales@acme.test"},
		Client:   Client{Name: "Globex", Contact: "H. Scorpio"},
		Currency: money.Currency{Symbol: "$"},
		Items: []LineItem{
			{Description: "Drill", Unit: "u", Quantity: dec("2"), UnitPrice: dec("100.00")},
		},
	}
}

func newReport() *diag.Report {
	logger, _ := test.NewNullLogger()
	return diag.NewReport(logger)
}

func build(t *testing.T, q Quotation, cfg config.Config, report *diag.Report) *Document {
	t.Helper()
	doc, err := Build(q, BuildOptions{Config: cfg, Measure: measure.NewCoreMetrics(), Report: report})
	if err != nil {
		t.Fatalf("构建失败: %v", err)
	}
	return doc
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("生成 PNG 失败: %v", err)
	}
	return buf.Bytes()
}

func ids(blocks []layout.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}

func TestBuildSingleItem(t *testing.T) {
	q := sample()
	q.Cover.Style = "classic"
	doc := build(t, q, config.Default(), newReport())

	if got := doc.Money.Format(doc.Total); got != "$200.00" {
		t.Fatalf("总计应为 $200.00，实际 %s", got)
	}
	want := []string{BlockCover, BlockHeader, BlockItems, BlockTotals, BlockFooter}
	if diff := cmp.Diff(want, ids(doc.Blocks)); diff != "" {
		t.Fatalf("块顺序不符 (-want +got):\n%s", diff)
	}
	totals, _ := doc.Block(BlockTotals)
	last := totals.Totals.Rows[len(totals.Totals.Rows)-1]
	if !last.Strong || last.Value != "$200.00" {
		t.Fatalf("总计行异常: %+v", last)
	}
	items, _ := doc.Block(BlockItems)
	row := items.Table.Table.Rows[0]
	if row.Cells[2].Text != "unit" || row.Cells[4].Text != "$200.00" {
		t.Fatalf("表格行异常: %q %q", row.Cells[2].Text, row.Cells[4].Text)
	}
	for _, b := range doc.Blocks {
		if b.Kind != layout.KindCover && b.Height <= 0 {
			t.Fatalf("块 %s 未预先测量高度", b.ID)
		}
	}
	cover, _ := doc.Block(BlockCover)
	company, _ := cover.Cover.Data["company"].(map[string]any)
	if company["name"] != "Acme Tools" || cover.Cover.Data["total"] != "$200.00" {
		t.Fatalf("封面数据异常: %v", cover.Cover.Data)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	q := sample()
	q.Currency.Symbol = " "
	q.Items = append(q.Items, LineItem{Description: "Bits", Quantity: dec("-1"), UnitPrice: dec("-3")})
	q.Shipping.Cost = dec("-1")
	q.Date = "14/03/2026"
	q.Total = decimal.NewNullDecimal(dec("999"))

	_, err := Build(q, BuildOptions{Config: config.Default(), Measure: measure.NewCoreMetrics()})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("应返回校验错误，实际 %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("错误类型不符: %T", err)
	}
	var codes []string
	for _, p := range ve.Problems {
		codes = append(codes, p.Code)
	}
	want := []string{
		CodeMissingCurrency, CodeNegativeQuantity, CodeNegativePrice,
		CodeTotalMismatch, CodeNegativeShipping, CodeInvalidDate,
	}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Fatalf("问题列表不符 (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), "items[1].quantity") {
		t.Fatalf("错误信息应包含字段路径: %v", err)
	}
}

func TestValidateEmptyQuotation(t *testing.T) {
	q := sample()
	q.Items = nil
	err := Validate(q, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.Has(CodeEmptyQuotation) {
		t.Fatalf("空报价应被拒绝: %v", err)
	}
}

func TestValidateTolerance(t *testing.T) {
	cases := []struct {
		name     string
		subtotal string
		total    string
		code     string
	}{
		{name: "exact", subtotal: "33.33", total: "33.33"},
		{name: "one unit off", subtotal: "33.34", total: "33.32"},
		{name: "subtotal off", subtotal: "33.35", total: "33.33", code: CodeSubtotalMismatch},
		{name: "total off", subtotal: "33.33", total: "33.40", code: CodeTotalMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := sample()
			q.Items = []LineItem{{
				Description: "Hours",
				Quantity:    dec("3"),
				UnitPrice:   dec("11.11"),
				Subtotal:    decimal.NewNullDecimal(dec(tc.subtotal)),
			}}
			q.Total = decimal.NewNullDecimal(dec(tc.total))
			err := Validate(q, nil)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("不应报错: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || !ve.Has(tc.code) {
				t.Fatalf("应报告 %s，实际 %v", tc.code, err)
			}
		})
	}
}

func TestTotalsRoundHalfUp(t *testing.T) {
	items := []LineItem{
		{Quantity: dec("1"), UnitPrice: dec("0.125")},
		{Quantity: dec("3"), UnitPrice: dec("0.335")},
	}
	lines, total := Totals(items, 2)
	if lines[0].String() != "0.13" || lines[1].String() != "1.01" {
		t.Fatalf("行小计四舍五入错误: %v", lines)
	}
	if total.String() != "1.14" {
		t.Fatalf("总计应为各行之和: %s", total)
	}
}

func TestUnknownCoverStyle(t *testing.T) {
	q := sample()
	q.Cover.Style = "Neon"
	known := func(s string) bool { return s == "classic" }
	_, err := Build(q, BuildOptions{Config: config.Default(), Measure: measure.NewCoreMetrics(), KnownStyle: known})
	var ve *ValidationError
	if !errors.As(err, &ve) || !ve.Has(CodeUnknownCoverStyle) {
		t.Fatalf("未知封面样式应被拒绝: %v", err)
	}
}

// 多余空白与大小写在校验之前规范化
func TestBuildNormalizesBeforeValidating(t *testing.T) {
	q := sample()
	q.Date = " 2026-03-14 "
	q.Kind = " Receipt"
	q.Cover.Style = " Classic "
	known := func(s string) bool { return s == "classic" }
	doc, err := Build(q, BuildOptions{Config: config.Default(), Measure: measure.NewCoreMetrics(), Report: newReport(), KnownStyle: known})
	if err != nil {
		t.Fatalf("规范化后应通过校验: %v", err)
	}
	if doc.Quotation.Cover.Style != "classic" || doc.Quotation.Kind != KindReceipt || doc.Date.IsZero() {
		t.Fatalf("记录未规范化: %+v", doc.Quotation)
	}
	if err := Validate(Prepare(q, config.Default(), nil), known); err != nil {
		t.Fatalf("Prepare 之后应通过校验: %v", err)
	}
}

func TestNormalizeUnitsAndText(t *testing.T) {
	cfg := config.Default()
	cfg.WarnUnits = true
	report := newReport()
	q := sample()
	q.Items = []LineItem{
		{Description: "  Cablé ", Unit: "KG", Quantity: dec("1"), UnitPrice: dec("1")},
		{Description: "Widget", Unit: "crate", Quantity: dec("1"), UnitPrice: dec("1")},
	}
	n := Normalize(WithDefaults(q, cfg), cfg, report)

	if n.Items[0].Unit != "kg" || n.Items[1].Unit != "crate" {
		t.Fatalf("单位标签错误: %q %q", n.Items[0].Unit, n.Items[1].Unit)
	}
	if n.Items[0].Description != "Cablé" {
		t.Fatalf("描述未规范化: %q", n.Items[0].Description)
	}
	if !report.Has(diag.CodeUnknownUnit) || len(report.Warnings()) != 1 {
		t.Fatalf("未知单位应警告一次: %+v", report.Warnings())
	}
}

func TestCorruptLogoWarnsOnce(t *testing.T) {
	q := sample()
	q.Cover.Style = "classic"
	q.Company.Logo = []byte("definitely not an image")
	report := newReport()
	doc := build(t, q, config.Default(), report)

	if doc.Logo == nil || !doc.Logo.Placeholder {
		t.Fatalf("损坏的 logo 应使用占位图: %+v", doc.Logo)
	}
	cover, _ := doc.Block(BlockCover)
	if !cover.Cover.Logo.Broken {
		t.Fatalf("封面 logo 应标记为损坏")
	}
	if n := len(report.Warnings()); n != 1 || !report.Has(diag.CodeImageDecode) {
		t.Fatalf("应只有一条图片警告，实际 %d", n)
	}
}

func TestOptionalSections(t *testing.T) {
	q := sample()
	yes := true
	q.TaxIncluded = &yes
	q.ValidityDays = 30
	q.Shipping = Shipping{Method: "Courier", Cost: dec("15")}
	q.Observations = "<p>Delivery <b>within</b> the city.</p>"
	q.Terms = "50% upfront.\n\nBalance on delivery."
	q.Sections = []Section{{Title: "Warranty", Body: "One year."}, {Title: "Empty", Body: "  "}}
	q.BankDetails = "Bank of Springfield\nAccount 123"
	q.Signature = Signature{Enabled: true, PreparedBy: "M. Burns"}
	doc := build(t, q, config.Default(), newReport())

	want := []string{
		BlockHeader, BlockItems, BlockTotals, BlockSummary, BlockObservations, BlockTerms,
		"section-1", BlockBank, BlockSignature, BlockFooter,
	}
	if diff := cmp.Diff(want, ids(doc.Blocks)); diff != "" {
		t.Fatalf("块顺序不符 (-want +got):\n%s", diff)
	}
	totals, _ := doc.Block(BlockTotals)
	if len(totals.Totals.Rows) != 2 || totals.Totals.Rows[0].Label != "Shipping (Courier)" {
		t.Fatalf("运费行异常: %+v", totals.Totals.Rows)
	}
	if got := doc.Money.Format(doc.Total); got != "$200.00" {
		t.Fatalf("运费不应计入总计: %s", got)
	}
	summary, _ := doc.Block(BlockSummary)
	if n := summary.Text.Flow.Paragraphs(); n != 3 {
		t.Fatalf("条件摘要应有 3 条，实际 %d", n)
	}
	terms, _ := doc.Block(BlockTerms)
	if terms.Text.Flow.Paragraphs() != 2 || terms.Height <= terms.Text.HeadHeight() {
		t.Fatalf("条款段落异常")
	}
	sig, _ := doc.Block(BlockSignature)
	if sig.Signature.Slots[1].Name != "M. Burns" || sig.Signature.TextRows() != 3 {
		t.Fatalf("签名块异常: %+v", sig.Signature)
	}
}

func TestReceiptAndMeta(t *testing.T) {
	q := sample()
	q.Kind = KindReceipt
	a := build(t, q, config.Default(), newReport())
	b := build(t, q, config.Default(), newReport())
	if a.Title != "RECEIPT" || a.Meta.Title != "RECEIPT Q-0001" {
		t.Fatalf("收据标题错误: %q / %q", a.Title, a.Meta.Title)
	}
	if a.Meta.ID != b.Meta.ID {
		t.Fatalf("文档 ID 应确定: %s != %s", a.Meta.ID, b.Meta.ID)
	}
	q.Number = "Q-0002"
	c := build(t, q, config.Default(), newReport())
	if c.Meta.ID == a.Meta.ID {
		t.Fatalf("不同编号应得到不同 ID")
	}
	if a.Meta.Created.Format(DateLayout) != "2026-03-14" {
		t.Fatalf("创建日期错误: %v", a.Meta.Created)
	}
}

func TestGalleryFromItemImages(t *testing.T) {
	q := sample()
	long := strings.Repeat("Cordless hammer drill with two batteries ", 4)
	q.Items = []LineItem{
		{Description: long, Unit: "u", Quantity: dec("2"), UnitPrice: dec("100"), Image: pngBytes(t, 40, 30)},
		{Description: "Bits", Unit: "box", Quantity: dec("1"), UnitPrice: dec("9")},
		{Description: "Case", Unit: "u", Quantity: dec("1.5"), UnitPrice: dec("20"), Image: pngBytes(t, 30, 40)},
	}
	doc := build(t, q, config.Default(), newReport())

	want := []string{BlockHeader, BlockItems, BlockTotals, BlockGallery, BlockFooter}
	if diff := cmp.Diff(want, ids(doc.Blocks)); diff != "" {
		t.Fatalf("块顺序不符 (-want +got):\n%s", diff)
	}
	g, _ := doc.Block(BlockGallery)
	if g.Kind != layout.KindGallery || !g.BreakBefore {
		t.Fatalf("产品图册应另起一页: %+v", g)
	}
	var names []string
	for _, c := range g.Gallery.Cells {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"item-1", "item-3"}, names); diff != "" {
		t.Fatalf("只有带图片的项目进入图册 (-want +got):\n%s", diff)
	}
	first := g.Gallery.Cells[0]
	if !strings.HasSuffix(first.Caption, ellipsis) || len(first.Caption) >= len(long) {
		t.Fatalf("过长的描述应截断: %q", first.Caption)
	}
	if first.Image == nil || first.Image.Width > g.Gallery.CellWidth+1e-6 || first.Image.Height > g.Gallery.ImageHeight+1e-6 {
		t.Fatalf("图片应缩放到单元格内: %+v", first.Image)
	}
	if got := g.Gallery.Cells[1].Detail; got != "Qty: 1.5 u" {
		t.Fatalf("数量说明错误: %q", got)
	}
	if g.Height != g.Gallery.HeadHeight()+g.Gallery.RowsHeight(1) {
		t.Fatalf("两张图片占一行网格，高度错误: %.2f", g.Height)
	}
}

func TestContentBlocks(t *testing.T) {
	q := sample()
	q.Items[0].Image = pngBytes(t, 20, 20)
	q.Blocks = []ContentBlock{
		{Type: ContentTitle, Text: "Project details", Level: 0},
		{Type: ContentNote, Title: "Scope", Text: "Delivery and assembly."},
		{Type: ContentImage, Image: pngBytes(t, 400, 300), Text: "Site plan", Align: " Left"},
		{Type: ContentSeparator, Style: "double"},
		{Type: ContentImage, Text: "nothing to draw"},
		{Type: " Products "},
	}
	doc := build(t, q, config.Default(), newReport())

	want := []string{BlockHeader, BlockItems, BlockTotals, "block-1", "block-2", "block-3", "block-4", "block-6", BlockFooter}
	if diff := cmp.Diff(want, ids(doc.Blocks)); diff != "" {
		t.Fatalf("块顺序不符 (-want +got):\n%s", diff)
	}
	kinds := map[string]layout.Kind{
		"block-1": layout.KindText, "block-2": layout.KindText, "block-3": layout.KindImage,
		"block-4": layout.KindSeparator, "block-6": layout.KindGallery,
	}
	for id, k := range kinds {
		blk, _ := doc.Block(id)
		if blk.Kind != k {
			t.Fatalf("%s 类型应为 %s，实际 %s", id, k, blk.Kind)
		}
	}
	if title, _ := doc.Block("block-1"); !title.BreakBefore {
		t.Fatalf("一级标题应另起一页")
	}
	fig, _ := doc.Block("block-3")
	if fig.Image.Caption != "Site plan" || fig.Image.Align != table.Left {
		t.Fatalf("图片块异常: %+v", fig.Image)
	}
	if fig.Image.Image.Width > config.Default().Images.FigureWidth+1e-6 || fig.Height <= fig.Image.Image.Height {
		t.Fatalf("图片尺寸或说明高度错误: %+v", fig)
	}
	if sep, _ := doc.Block("block-4"); sep.Separator.Style != layout.SeparatorDouble || sep.Height <= 0 {
		t.Fatalf("分隔线异常: %+v", sep)
	}
	if gal, _ := doc.Block("block-6"); gal.BreakBefore {
		t.Fatalf("内容中的产品图册按原位置排列")
	}
}

func TestInvalidContentBlock(t *testing.T) {
	q := sample()
	q.Blocks = []ContentBlock{
		{Type: "video"},
		{Type: ContentSeparator, Style: "wavy"},
		{Type: ContentNote, Text: "ok", Align: "justify"},
	}
	err := Validate(Prepare(q, config.Default(), nil), nil)
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Problems) != 3 || !ve.Has(CodeInvalidBlock) {
		t.Fatalf("应报告 3 个无效内容块: %v", err)
	}
	if !strings.Contains(err.Error(), "blocks[0].type") {
		t.Fatalf("错误信息应包含字段路径: %v", err)
	}
}

func TestGeometryFor(t *testing.T) {
	cfg := config.Default()
	cfg.Page.Landscape = true
	geo, err := GeometryFor(cfg)
	if err != nil {
		t.Fatalf("几何计算失败: %v", err)
	}
	if geo.Width != 297 || geo.Height != 210 || geo.ContentWidth() != 267 {
		t.Fatalf("横向 A4 几何错误: %+v", geo)
	}
}
