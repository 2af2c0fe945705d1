package layout

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/textflow"
)

// epsilon absorbs float noise in height comparisons.
const epsilon = 1e-9

// State is the state of the page flow controller.
type State int

const (
	AwaitingBlock State = iota
	PlacingBlock
	PageFull
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingBlock:
		return "awaiting-block"
	case PlacingBlock:
		return "placing-block"
	case PageFull:
		return "page-full"
	default:
		return "done"
	}
}

// RepeatContext names the splittable block whose header must open the next page.
type RepeatContext struct {
	Block int  `json:"block"`
	Kind  Kind `json:"kind"`
}

// FlowCursor is the mutable state of one pagination run.
type FlowCursor struct {
	Remaining float64        `json:"remaining"`
	Page      int            `json:"page"`
	AtTop     bool           `json:"atTop"`
	Repeat    *RepeatContext `json:"repeat,omitempty"`
}

// Placement puts (part of) a block on a page. Y is relative to the top of the content
// area. For tables, Rows are the body rows of this segment and Header is always drawn
// above them; Continued marks a segment after the first. For text, Lines are the lines
// of this segment.
type Placement struct {
	Block     int                    `json:"block"`
	Kind      Kind                   `json:"kind"`
	Y         float64                `json:"y"`
	Height    float64                `json:"height"`
	Continued bool                   `json:"continued,omitempty"`
	Rows      []table.Row            `json:"-"`
	FirstRow  int                    `json:"firstRow,omitempty"`
	LastRow   int                    `json:"lastRow,omitempty"`
	Lines     []textflow.WrappedLine `json:"-"`
	FirstPara int                    `json:"firstPara,omitempty"`
	LastPara  int                    `json:"lastPara,omitempty"`
}

// PagePlan is the flow decision for one page.
type PagePlan struct {
	Number     int         `json:"number"`
	Cover      bool        `json:"cover,omitempty"`
	Placements []Placement `json:"placements"`
	Used       float64     `json:"used"`
}

// Plan is the outcome of pagination. Footer is the height reserved on every content
// page and FooterBlock the index of the footer block, or -1.
type Plan struct {
	Geometry    Geometry   `json:"geometry"`
	Pages       []PagePlan `json:"pages"`
	Footer      float64    `json:"footer"`
	FooterBlock int        `json:"footerBlock"`
}

// ContentPages counts the pages that are not covers.
func (p *Plan) ContentPages() int {
	n := 0
	for _, pg := range p.Pages {
		if !pg.Cover {
			n++
		}
	}
	return n
}

// Engine places blocks on pages one after another. An Engine serves one run.
type Engine struct {
	geo    Geometry
	blocks []Block
	log    logrus.FieldLogger

	state   State
	cursor  FlowCursor
	content float64
	plan    *Plan
}

// NewEngine prepares a run over blocks. A nil logger means the logrus standard logger.
func NewEngine(blocks []Block, geo Geometry, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{geo: geo, blocks: blocks, log: log, state: AwaitingBlock}
}

// Paginate is a shorthand for NewEngine(...).Run().
func Paginate(blocks []Block, geo Geometry, log logrus.FieldLogger) (*Plan, error) {
	return NewEngine(blocks, geo, log).Run()
}

// State returns the controller state.
func (e *Engine) State() State { return e.state }

// Cursor returns a copy of the flow cursor.
func (e *Engine) Cursor() FlowCursor { return e.cursor }

// Run places every block and returns the plan. The page count is a result of the
// flow; it is not known before the last block is placed.
func (e *Engine) Run() (*Plan, error) {
	e.plan = &Plan{Geometry: e.geo, FooterBlock: -1}
	for i, b := range e.blocks {
		if b.Kind == KindFooter {
			e.plan.Footer = max(e.plan.Footer, b.Height)
			e.plan.FooterBlock = i
		}
	}
	e.content = e.geo.ContentHeight(e.plan.Footer)
	if e.content <= 0 {
		return nil, fmt.Errorf("layout: page has no content height left (footer %.1fmm)", e.plan.Footer)
	}

	for i := range e.blocks {
		e.state = AwaitingBlock
		b := &e.blocks[i]
		if b.Kind == KindFooter {
			continue
		}
		e.state = PlacingBlock
		if b.BreakBefore && b.Kind != KindCover && !e.cursor.AtTop {
			e.pageBreak()
		}
		var err error
		switch b.Kind {
		case KindCover:
			e.placeCover(i)
		case KindTable:
			err = e.placeTable(i, b)
		case KindText:
			err = e.placeText(i, b)
		case KindGallery:
			err = e.placeGallery(i, b)
		default:
			err = e.placeAtomic(i, b)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(e.plan.Pages) == 0 || e.lastIsCover() {
		// A document always has at least one content page to carry the bands.
		e.pageBreak()
	}
	e.state = Done
	return e.plan, nil
}

func (e *Engine) lastIsCover() bool {
	return len(e.plan.Pages) > 0 && e.plan.Pages[len(e.plan.Pages)-1].Cover
}

func (e *Engine) current() *PagePlan {
	if len(e.plan.Pages) == 0 || e.lastIsCover() {
		e.pageBreak()
	}
	return &e.plan.Pages[len(e.plan.Pages)-1]
}

// pageBreak closes the current page and opens an empty content page.
func (e *Engine) pageBreak() {
	e.state = PageFull
	e.plan.Pages = append(e.plan.Pages, PagePlan{Number: len(e.plan.Pages) + 1})
	e.cursor.Page = len(e.plan.Pages) - 1
	e.cursor.Remaining = e.content
	e.cursor.AtTop = true
	e.log.WithFields(logrus.Fields{"page": len(e.plan.Pages)}).Debug("layout: page break")
	e.state = PlacingBlock
}

// spacing is the gap owed before the next block; nothing is owed at the top of a page.
func (e *Engine) spacing() float64 {
	if e.cursor.AtTop {
		return 0
	}
	return e.geo.BlockSpacing
}

// fits reports whether h plus the owed spacing fits the current page.
func (e *Engine) fits(h float64) bool {
	if len(e.plan.Pages) == 0 || e.lastIsCover() {
		return false
	}
	return e.spacing()+h <= e.cursor.Remaining+epsilon
}

func (e *Engine) place(p Placement) {
	page := e.current()
	gap := e.spacing()
	p.Y = e.content - e.cursor.Remaining + gap
	page.Placements = append(page.Placements, p)
	e.cursor.Remaining -= gap + p.Height
	e.cursor.AtTop = false
	page.Used = e.content - e.cursor.Remaining
	e.log.WithFields(logrus.Fields{
		"page":   page.Number,
		"block":  e.blocks[p.Block].ID,
		"kind":   p.Kind.String(),
		"y":      p.Y,
		"height": p.Height,
	}).Debug("layout: placed")
}

func (e *Engine) impossible(i int, b *Block, need float64) error {
	return &ImpossibleError{Block: i, ID: b.ID, Kind: b.Kind, Need: need, Available: e.content}
}

// placeCover puts the cover on a page of its own; the next block opens a new page.
func (e *Engine) placeCover(i int) {
	e.state = PageFull
	e.plan.Pages = append(e.plan.Pages, PagePlan{
		Number:     len(e.plan.Pages) + 1,
		Cover:      true,
		Placements: []Placement{{Block: i, Kind: KindCover, Height: e.geo.Height}},
	})
	e.cursor = FlowCursor{Page: len(e.plan.Pages) - 1, AtTop: true}
	e.state = PlacingBlock
}

func (e *Engine) placeAtomic(i int, b *Block) error {
	if b.Height > e.content+epsilon {
		return e.impossible(i, b, b.Height)
	}
	if !e.fits(b.Height) {
		e.pageBreak()
	}
	e.place(Placement{Block: i, Kind: b.Kind, Height: b.Height})
	return nil
}

// placeTable emits the table in segments of whole rows, each under a copy of the
// header row. The header never stands alone at the bottom of a page.
func (e *Engine) placeTable(i int, b *Block) error {
	if b.Table == nil || b.Table.Table == nil {
		return fmt.Errorf("layout: table block %q has no table", b.ID)
	}
	t := b.Table.Table
	head := t.Header.Height
	if need := head + t.MaxRowHeight(); need > e.content+epsilon {
		return e.impossible(i, b, need)
	}
	cur := t.Begin()
	first := true
	for first || !cur.Done() {
		if next, ok := cur.Peek(); ok && !e.fits(head+next.Height) {
			e.pageBreak()
		} else if !ok && !e.fits(head) {
			e.pageBreak()
		}
		from := cur.Pos()
		rows, remaining, consumed := cur.Take(e.cursor.Remaining - e.spacing() - head)
		e.place(Placement{
			Block:     i,
			Kind:      KindTable,
			Height:    head + consumed,
			Continued: !first,
			Rows:      rows,
			FirstRow:  from,
			LastRow:   cur.Pos(),
		})
		first = false
		if remaining > 0 {
			e.cursor.Repeat = &RepeatContext{Block: i, Kind: KindTable}
			e.pageBreak()
		}
	}
	e.cursor.Repeat = nil
	return nil
}

// placeText emits a titled text section split at paragraph boundaries. The title is
// kept with at least one paragraph and repeated on continuation pages.
func (e *Engine) placeText(i int, b *Block) error {
	if b.Text == nil || b.Text.Flow == nil {
		return fmt.Errorf("layout: text block %q has no flow", b.ID)
	}
	tc := b.Text
	head := tc.HeadHeight()
	tallest := tc.Flow.MaxParagraphHeight()
	if err := tc.Flow.Err(); err != nil {
		return fmt.Errorf("layout: text block %q: %w", b.ID, err)
	}
	if need := head + tallest; need > e.content+epsilon {
		return e.impossible(i, b, need)
	}
	cur := tc.Flow.Begin()
	first := true
	for first || !cur.Done() {
		if !e.fits(head + cur.PeekParagraph()) {
			e.pageBreak()
		}
		from := cur.Pos().Paragraph
		lines, _, used := cur.NextParagraphs(e.cursor.Remaining - e.spacing() - head)
		e.place(Placement{
			Block:     i,
			Kind:      KindText,
			Height:    head + used,
			Continued: !first,
			Lines:     lines,
			FirstPara: from,
			LastPara:  cur.Pos().Paragraph,
		})
		first = false
		if !cur.Done() {
			e.cursor.Repeat = &RepeatContext{Block: i, Kind: KindText}
			e.pageBreak()
		}
	}
	e.cursor.Repeat = nil
	return nil
}

// placeGallery emits the grid in segments of whole grid rows under the title, at most
// RowsPerPage rows per page when that is set.
func (e *Engine) placeGallery(i int, b *Block) error {
	g := b.Gallery
	if g == nil || g.Columns <= 0 {
		return fmt.Errorf("layout: gallery block %q has no grid", b.ID)
	}
	head := g.HeadHeight()
	if need := head + g.RowHeight; need > e.content+epsilon {
		return e.impossible(i, b, need)
	}
	rows := g.Rows()
	next := 0
	first := true
	for first || next < rows {
		if !e.fits(head + g.RowsHeight(min(1, rows-next))) {
			e.pageBreak()
		}
		avail := e.cursor.Remaining - e.spacing() - head
		n := int((avail + g.Gap + epsilon) / (g.RowHeight + g.Gap))
		n = min(max(n, 0), rows-next)
		if g.RowsPerPage > 0 {
			n = min(n, g.RowsPerPage)
		}
		e.place(Placement{
			Block:     i,
			Kind:      KindGallery,
			Height:    head + g.RowsHeight(n),
			Continued: !first,
			FirstRow:  next,
			LastRow:   next + n,
		})
		next += n
		first = false
		if next < rows {
			e.cursor.Repeat = &RepeatContext{Block: i, Kind: KindGallery}
			e.pageBreak()
		}
	}
	e.cursor.Repeat = nil
	return nil
}
