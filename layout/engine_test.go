package layout

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/textflow"
)

// testGeometry 留给内容区 60mm（页脚块 10mm）。
var testGeometry = Geometry{
	Width:        100,
	Height:       100,
	Margin:       Margin{Top: 10, Right: 10, Bottom: 10, Left: 10},
	HeaderBand:   10,
	BlockSpacing: 2,
}

func atomic(kind Kind, id string, h float64) Block {
	return Block{Kind: kind, ID: id, Height: h}
}

func footer() Block {
	return Block{Kind: KindFooter, ID: "footer", Height: 10, Footer: &FooterContent{}}
}

func tableBlock(t *testing.T, n int) Block {
	t.Helper()
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("item %d", i)}
	}
	tbl, err := table.Format(rows, []table.Column{{Label: "Item", Weight: 1}}, 80, table.Style{
		Font:         measure.Font{Family: "sans"},
		Size:         measure.MmToPt * 4,
		LineHeight:   1,
		Padding:      1,
		MinRowHeight: 8,
	}, measure.NewFixed(0.25))
	if err != nil {
		t.Fatalf("表格测量失败: %v", err)
	}
	return Block{Kind: KindTable, ID: "items", Height: tbl.Height(), Table: &TableContent{Table: tbl}}
}

func textBlock(t *testing.T, id, src string) Block {
	t.Helper()
	flow, err := textflow.FromText(src, markup.Plain, textflow.Style{
		Font:             measure.Font{Family: "sans"},
		Size:             measure.MmToPt,
		LineHeight:       1,
		ParagraphSpacing: 1,
		Width:            80,
	}, measure.NewFixed(1))
	if err != nil {
		t.Fatal(err)
	}
	tc := &TextContent{Title: "Notes", Continued: "(continued)", TitleHeight: 5, TitleGap: 1, Flow: flow}
	return Block{Kind: KindText, ID: id, Height: tc.HeadHeight() + flow.Height(), Text: tc}
}

func paginate(t *testing.T, blocks []Block) *Plan {
	t.Helper()
	logger, _ := test.NewNullLogger()
	plan, err := Paginate(blocks, testGeometry, logger)
	if err != nil {
		t.Fatalf("分页失败: %v", err)
	}
	return plan
}

// assertNoOverlap 断言每页的放置互不重叠且不超出内容区。
func assertNoOverlap(t *testing.T, plan *Plan) {
	t.Helper()
	content := plan.Geometry.ContentHeight(plan.Footer)
	for _, pg := range plan.Pages {
		if pg.Cover {
			continue
		}
		bottom := 0.0
		for _, p := range pg.Placements {
			if p.Y+1e-9 < bottom {
				t.Fatalf("第 %d 页放置重叠: y=%.2f < %.2f", pg.Number, p.Y, bottom)
			}
			bottom = p.Y + p.Height
		}
		if bottom > content+1e-9 {
			t.Fatalf("第 %d 页超出内容区: %.2f > %.2f", pg.Number, bottom, content)
		}
	}
}

func TestCoverIsExclusiveFirstPage(t *testing.T) {
	plan := paginate(t, []Block{
		{Kind: KindCover, ID: "cover", Cover: &CoverContent{Style: "classic"}},
		atomic(KindHeader, "header", 20),
		atomic(KindTotals, "totals", 10),
		footer(),
	})
	if len(plan.Pages) != 2 {
		t.Fatalf("应为封面 + 1 页内容, got %d", len(plan.Pages))
	}
	if !plan.Pages[0].Cover || len(plan.Pages[0].Placements) != 1 {
		t.Fatalf("封面页应只包含封面: %+v", plan.Pages[0])
	}
	if plan.ContentPages() != 1 || plan.Footer != 10 || plan.FooterBlock != 3 {
		t.Fatalf("页脚预留或内容页数错误: %+v", plan)
	}
	second := plan.Pages[1].Placements
	if second[0].Y != 0 || second[1].Y != 22 {
		t.Fatalf("块间距应只在块之间出现: %+v", second)
	}
}

func TestAtomicBlockMovesToNextPage(t *testing.T) {
	plan := paginate(t, []Block{
		atomic(KindHeader, "header", 40),
		atomic(KindTotals, "totals", 25),
		footer(),
	})
	if len(plan.Pages) != 2 {
		t.Fatalf("放不下的原子块应换页, got %d 页", len(plan.Pages))
	}
	if p := plan.Pages[1].Placements[0]; p.Kind != KindTotals || p.Y != 0 {
		t.Fatalf("新页顶部不应有块间距: %+v", p)
	}
	assertNoOverlap(t, plan)
}

func TestAtomicBlockTallerThanPageIsImpossible(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := Paginate([]Block{atomic(KindHeader, "header", 10), atomic(KindSignature, "sig", 61), footer()}, testGeometry, logger)
	if !errors.Is(err, ErrLayoutImpossible) {
		t.Fatalf("应返回 LayoutImpossible, got %v", err)
	}
	var ie *ImpossibleError
	if !errors.As(err, &ie) || ie.ID != "sig" || ie.Block != 1 || ie.Available != 60 {
		t.Fatalf("错误应指明块: %+v", ie)
	}
}

func TestTableSplitsWithRepeatedHeader(t *testing.T) {
	tb := tableBlock(t, 30)
	plan := paginate(t, []Block{atomic(KindHeader, "header", 20), tb, atomic(KindTotals, "totals", 12), footer()})
	var (
		next     int
		segments int
	)
	head := tb.Table.Table.Header.Height
	for _, pg := range plan.Pages {
		for _, p := range pg.Placements {
			if p.Kind != KindTable {
				continue
			}
			if p.Continued != (segments > 0) {
				t.Fatalf("第 %d 段 Continued 标记错误", segments)
			}
			if p.FirstRow != next {
				t.Fatalf("段起始行应为 %d, got %d", next, p.FirstRow)
			}
			var sum float64
			for _, r := range p.Rows {
				if r.Index != next {
					t.Fatalf("行顺序错误: want %d got %d", next, r.Index)
				}
				next++
				sum += r.Height
			}
			if p.Height != head+sum {
				t.Fatalf("每段高度应包含重复的表头: %.2f != %.2f", p.Height, head+sum)
			}
			segments++
		}
	}
	if next != 30 {
		t.Fatalf("每行应恰好出现一次, got %d", next)
	}
	if segments < 2 {
		t.Fatalf("表格应跨页, got %d 段", segments)
	}
	last := plan.Pages[len(plan.Pages)-1].Placements
	if last[len(last)-1].Kind != KindTotals {
		t.Fatalf("最后一页应以合计块结束")
	}
	assertNoOverlap(t, plan)
}

func TestTableHeaderIsNeverOrphaned(t *testing.T) {
	// 50mm 的块之后只剩 8mm，放不下表头 + 一行（16mm），表格整体移到下一页。
	plan := paginate(t, []Block{atomic(KindHeader, "header", 50), tableBlock(t, 3), footer()})
	if len(plan.Pages[0].Placements) != 1 {
		t.Fatalf("第一页不应留下孤立表头: %+v", plan.Pages[0].Placements)
	}
	if p := plan.Pages[1].Placements[0]; p.Kind != KindTable || len(p.Rows) != 3 || p.Continued {
		t.Fatalf("表格应完整出现在第二页: %+v", p)
	}
}

func TestTextSplitsAtParagraphs(t *testing.T) {
	paras := make([]string, 12)
	for i := range paras {
		paras[i] = strings.Repeat("line\n", 4) + "end"
	}
	tb := textBlock(t, "terms", strings.Join(paras, "\n\n"))
	plan := paginate(t, []Block{tb, footer()})
	if len(plan.Pages) < 2 {
		t.Fatalf("长文本应跨页, got %d", len(plan.Pages))
	}
	seen := 0
	for i, pg := range plan.Pages {
		p := pg.Placements[0]
		if p.Continued != (i > 0) {
			t.Fatalf("第 %d 页 Continued 标记错误", i+1)
		}
		if p.FirstPara != seen {
			t.Fatalf("段落应连续: want %d got %d", seen, p.FirstPara)
		}
		if p.Lines[0].GapBefore != 0 {
			t.Fatalf("每段首行不应带段距")
		}
		seen = p.LastPara
	}
	if seen != 12 {
		t.Fatalf("应输出全部 12 段, got %d", seen)
	}
	assertNoOverlap(t, plan)
}

func TestParagraphTallerThanPageIsImpossible(t *testing.T) {
	long := strings.Repeat("line\n", 80) + "end"
	logger, _ := test.NewNullLogger()
	_, err := Paginate([]Block{textBlock(t, "observations", long), footer()}, testGeometry, logger)
	var ie *ImpossibleError
	if !errors.As(err, &ie) || ie.ID != "observations" || ie.Kind != KindText {
		t.Fatalf("超长段落应返回 LayoutImpossible: %v", err)
	}
}

func TestEngineEndsDone(t *testing.T) {
	logger, _ := test.NewNullLogger()
	e := NewEngine([]Block{atomic(KindHeader, "header", 5)}, testGeometry, logger)
	plan, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if e.State() != Done || len(plan.Pages) != 1 || plan.FooterBlock != -1 {
		t.Fatalf("状态或页数错误: %v %d", e.State(), len(plan.Pages))
	}
	if c := e.Cursor(); c.Repeat != nil || c.Remaining != 65 {
		t.Fatalf("游标状态错误: %+v", c)
	}
}

func galleryBlock(cells, perPage int) Block {
	g := &GalleryContent{
		Title: "Catalog", Continued: "(continued)", TitleHeight: 5, TitleGap: 1,
		Columns: 2, CellWidth: 39, ImageHeight: 14, RowHeight: 20, Gap: 2, RowsPerPage: perPage,
	}
	for i := 0; i < cells; i++ {
		g.Cells = append(g.Cells, GalleryCell{Name: fmt.Sprintf("item-%d", i+1), Caption: fmt.Sprintf("item %d", i)})
	}
	return Block{Kind: KindGallery, ID: "gallery", Height: g.HeadHeight() + g.RowsHeight(g.Rows()), Gallery: g}
}

func TestGallerySplitsBetweenGridRows(t *testing.T) {
	plan := paginate(t, []Block{atomic(KindTotals, "totals", 30), galleryBlock(7, 0), footer()})
	assertNoOverlap(t, plan)
	var segs []Placement
	for _, pg := range plan.Pages {
		for _, pl := range pg.Placements {
			if pl.Kind == KindGallery {
				segs = append(segs, pl)
			}
		}
	}
	// 第一页只剩一行的空间，之后每页两行
	want := [][2]int{{0, 1}, {1, 3}, {3, 4}}
	if len(segs) != len(want) {
		t.Fatalf("应分为 %d 段，实际 %d", len(want), len(segs))
	}
	for i, s := range segs {
		if s.FirstRow != want[i][0] || s.LastRow != want[i][1] || s.Continued != (i > 0) {
			t.Fatalf("第 %d 段: %+v", i, s)
		}
	}
}

func TestGalleryRowsPerPage(t *testing.T) {
	plan := paginate(t, []Block{galleryBlock(8, 1), footer()})
	if got := plan.ContentPages(); got != 4 {
		t.Fatalf("每页一行时 4 行应占 4 页，实际 %d", got)
	}
	logger, _ := test.NewNullLogger()
	huge := galleryBlock(2, 0)
	huge.Gallery.RowHeight = 80
	if _, err := Paginate([]Block{huge, footer()}, testGeometry, logger); !errors.Is(err, ErrLayoutImpossible) {
		t.Fatalf("高于内容区的网格行应报告 layout impossible: %v", err)
	}
}

func TestBreakBeforeStartsFreshPage(t *testing.T) {
	lead := atomic(KindSeparator, "lead", 5)
	lead.BreakBefore = true
	next := atomic(KindImage, "figure", 10)
	next.BreakBefore = true
	plan := paginate(t, []Block{lead, atomic(KindTotals, "totals", 10), next, footer()})
	if len(plan.Pages) != 2 {
		t.Fatalf("页首的分页标记不应产生空白页: %d 页", len(plan.Pages))
	}
	if got := plan.Pages[1].Placements[0]; got.Block != 2 || got.Y != 0 {
		t.Fatalf("带分页标记的块应位于新页顶部: %+v", got)
	}
}
