package layout

import (
	"github.com/ByLCY/folio/imaging"
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/textflow"
)

// Kind tags a content block.
type Kind int

const (
	KindCover Kind = iota
	KindHeader
	KindTable
	KindTotals
	KindText
	KindSignature
	KindFooter
	KindImage
	KindSeparator
	KindGallery
)

func (k Kind) String() string {
	switch k {
	case KindCover:
		return "cover"
	case KindHeader:
		return "header"
	case KindTable:
		return "table"
	case KindTotals:
		return "totals"
	case KindText:
		return "text"
	case KindSignature:
		return "signature"
	case KindFooter:
		return "footer"
	case KindImage:
		return "image"
	case KindSeparator:
		return "separator"
	case KindGallery:
		return "gallery"
	default:
		return "unknown"
	}
}

// MarshalText writes the kind name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Splittable reports whether blocks of this kind may continue on a following page.
func (k Kind) Splittable() bool { return k == KindTable || k == KindText || k == KindGallery }

// Block is one unit of document content with its height measured in advance. Exactly
// one payload matching Kind is set. Blocks are never modified once built.
type Block struct {
	Kind   Kind    `json:"kind"`
	ID     string  `json:"id"`
	Height float64 `json:"height"`
	// BreakBefore starts the block on a fresh page unless the page is still empty.
	BreakBefore bool `json:"breakBefore,omitempty"`

	Cover     *CoverContent     `json:"cover,omitempty"`
	Header    *HeaderContent    `json:"header,omitempty"`
	Table     *TableContent     `json:"-"`
	Totals    *TotalsContent    `json:"totals,omitempty"`
	Text      *TextContent      `json:"-"`
	Signature *SignatureContent `json:"signature,omitempty"`
	Footer    *FooterContent    `json:"footer,omitempty"`
	Image     *ImageContent     `json:"image,omitempty"`
	Separator *SeparatorContent `json:"separator,omitempty"`
	Gallery   *GalleryContent   `json:"gallery,omitempty"`
}

// Asset is raw image bytes supplied by the caller. Broken marks bytes that were found
// undecodable while building, so later stages draw a placeholder without warning again.
type Asset struct {
	Data   []byte `json:"-"`
	Broken bool   `json:"broken,omitempty"`
}

// Present reports whether the caller supplied anything.
func (a Asset) Present() bool { return len(a.Data) > 0 || a.Broken }

// CoverContent selects a cover template and the values its placeholders read.
type CoverContent struct {
	Style string         `json:"style"`
	Data  map[string]any `json:"data"`
	Logo  Asset          `json:"logo"`
	Image Asset          `json:"image"`
}

// HeaderContent is the block opening the first content page: a client column and a
// document details column, both pre-wrapped.
type HeaderContent struct {
	Columns []Column `json:"-"`
	Padding float64  `json:"padding"`
}

// Column is a pre-wrapped column of a header block; X is relative to the content left.
type Column struct {
	X     float64
	Width float64
	Flow  *textflow.Flow
}

// TableContent wraps a measured table.
type TableContent struct {
	Table *table.Table
}

// TotalsContent is a right-aligned label/value list.
type TotalsContent struct {
	Rows      []TotalsRow `json:"rows"`
	Width     float64     `json:"width"`
	RowHeight float64     `json:"rowHeight"`
	Size      float64     `json:"size"`
}

// TotalsRow is one line of a totals block. Strong rows are emphasized.
type TotalsRow struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Strong bool   `json:"strong,omitempty"`
}

// TextContent is a titled text section. When it continues on a new page the title is
// repeated followed by Continued.
type TextContent struct {
	Title       string
	Continued   string
	TitleSize   float64
	TitleHeight float64
	TitleGap    float64
	Flow        *textflow.Flow
}

// HeadHeight is the height of the title and its gap; zero when untitled.
func (t *TextContent) HeadHeight() float64 {
	if t.Title == "" {
		return 0
	}
	return t.TitleHeight + t.TitleGap
}

// SignatureContent is the closing signature section: slots side by side, each with
// Space above the signature line and a caption plus date line under it.
type SignatureContent struct {
	Slots     []SignatureSlot `json:"slots"`
	LineWidth float64         `json:"lineWidth"`
	Space     float64         `json:"space"`
	Size      float64         `json:"size"`
	LineGap   float64         `json:"lineGap"`
	DateLabel string          `json:"dateLabel,omitempty"`
}

// SignatureSlot is one signature line with an optional signature image above it.
type SignatureSlot struct {
	Label string               `json:"label"`
	Name  string               `json:"name,omitempty"`
	Image *imaging.ScaledImage `json:"-"`
}

// FooterContent is drawn in the reserved band at the bottom of every content page.
type FooterContent struct {
	Lines     []string `json:"lines"`
	Reference string   `json:"reference,omitempty"`
	PageLabel string   `json:"pageLabel"`
	Size      float64  `json:"size"`
}

// TextRows counts the caption rows under each signature line.
func (s *SignatureContent) TextRows() int {
	n := 1
	for _, sl := range s.Slots {
		if sl.Name != "" {
			n++
			break
		}
	}
	if s.DateLabel != "" {
		n++
	}
	return n
}

// ImageContent is a standalone figure with an optional caption centered under it.
type ImageContent struct {
	Name    string              `json:"name"`
	Image   imaging.ScaledImage `json:"image"`
	Align   table.Align         `json:"align"`
	Caption string              `json:"caption,omitempty"`
	Size    float64             `json:"size"`
	// CaptionHeight includes the gap above the caption; zero without one.
	CaptionHeight float64 `json:"captionHeight"`
}

// Separator styles.
const (
	SeparatorLine   = "line"
	SeparatorDouble = "double"
	SeparatorSpace  = "space"
)

// SeparatorContent is a horizontal rule across the content width.
type SeparatorContent struct {
	Style string `json:"style"`
}

// GalleryContent is a grid of item pictures with captions, filled row by row. It
// splits between grid rows and repeats its title on continuation pages.
type GalleryContent struct {
	Title       string        `json:"title"`
	Continued   string        `json:"continued,omitempty"`
	TitleSize   float64       `json:"titleSize"`
	TitleHeight float64       `json:"titleHeight"`
	TitleGap    float64       `json:"titleGap"`
	Columns     int           `json:"columns"`
	CellWidth   float64       `json:"cellWidth"`
	ImageHeight float64       `json:"imageHeight"`
	RowHeight   float64       `json:"rowHeight"`
	Gap         float64       `json:"gap"`
	Size        float64       `json:"size"`
	LineGap     float64       `json:"lineGap"`
	RowsPerPage int           `json:"rowsPerPage,omitempty"`
	Cells       []GalleryCell `json:"cells"`
}

// GalleryCell is one picture of the grid.
type GalleryCell struct {
	Name    string               `json:"name"`
	Image   *imaging.ScaledImage `json:"-"`
	Caption string               `json:"caption"`
	Detail  string               `json:"detail,omitempty"`
}

// HeadHeight is the height of the title and its gap; zero when untitled.
func (g *GalleryContent) HeadHeight() float64 {
	if g.Title == "" {
		return 0
	}
	return g.TitleHeight + g.TitleGap
}

// Rows counts the grid rows.
func (g *GalleryContent) Rows() int {
	if g.Columns <= 0 {
		return 0
	}
	return (len(g.Cells) + g.Columns - 1) / g.Columns
}

// RowsHeight is the height of n consecutive grid rows.
func (g *GalleryContent) RowsHeight(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*g.RowHeight + float64(n-1)*g.Gap
}
