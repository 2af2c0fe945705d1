package document

import (
	"fmt"
	"strings"

	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/table"
)

// separatorHeight is the vertical space a separator block takes (mm).
const separatorHeight = 6.0

// ellipsis ends captions cut to fit their box.
const ellipsis = "..."

func requestsProducts(blocks []ContentBlock) bool {
	for _, cb := range blocks {
		if cb.Type == ContentProducts {
			return true
		}
	}
	return false
}

// content adds the layout block of one free-form entry.
func (b *builder) content(i int, cb ContentBlock) error {
	id := fmt.Sprintf("block-%d", i+1)
	switch cb.Type {
	case ContentTitle:
		if cb.Text == "" {
			return nil
		}
		blk, err := b.text(id, cb.Text, nil)
		if err != nil {
			return err
		}
		blk.BreakBefore = cb.Level == 0
		b.add(blk)
	case ContentNote:
		return b.addMarkup(id, cb.Title, cb.Text)
	case ContentImage:
		return b.figure(id, cb)
	case ContentSeparator:
		style := cb.Style
		if style == "" {
			style = layout.SeparatorLine
		}
		b.add(layout.Block{Kind: layout.KindSeparator, ID: id, Height: separatorHeight, Separator: &layout.SeparatorContent{Style: style}})
	case ContentProducts:
		return b.gallery(id, false)
	}
	return nil
}

// figure fits the image into the configured figure box; entries without image bytes
// draw nothing.
func (b *builder) figure(id string, cb ContentBlock) error {
	f := b.cfg.Fonts
	width := min(b.cfg.Images.FigureWidth, b.geo.ContentWidth())
	img, _ := b.image(cb.Image, width, b.cfg.Images.FigureHeight, id)
	if img == nil {
		return nil
	}
	ic := &layout.ImageContent{Name: id, Image: *img, Align: alignOf(cb.Align, table.Center), Size: f.Small}
	if cb.Text != "" {
		caption, err := b.ellipsize(cb.Text, b.font.With(measure.Italic), f.Small, b.geo.ContentWidth())
		if err != nil {
			return fmt.Errorf("document: %s: %w", id, err)
		}
		ic.Caption = caption
		ic.CaptionHeight = f.ParagraphSpacing + f.Small*measure.PtToMm*f.LineHeight
	}
	b.add(layout.Block{Kind: layout.KindImage, ID: id, Height: img.Height + ic.CaptionHeight, Image: ic})
	return nil
}

// gallery adds the grid of item pictures. Items without a picture are left out; with
// none at all nothing is added.
func (b *builder) gallery(id string, breakBefore bool) error {
	q := b.doc.Quotation
	gc := b.cfg.Gallery
	f := b.cfg.Fonts
	lb := b.cfg.Labels
	fm := b.doc.Money

	cols := gc.Columns
	cellW := (b.geo.ContentWidth() - float64(cols-1)*gc.Gap) / float64(cols)
	size := f.Body
	lineGap := size * measure.PtToMm * f.LineHeight
	g := &layout.GalleryContent{
		Title:       lb.Catalog,
		Continued:   lb.Continued,
		TitleSize:   f.Heading,
		TitleHeight: f.Heading * measure.PtToMm * f.LineHeight,
		TitleGap:    f.ParagraphSpacing,
		Columns:     cols,
		CellWidth:   cellW,
		ImageHeight: gc.ImageHeight,
		RowHeight:   gc.ImageHeight + 1 + 2*lineGap,
		Gap:         gc.Gap,
		Size:        size,
		LineGap:     lineGap,
		RowsPerPage: gc.RowsPerPage,
	}
	for i, it := range q.Items {
		if len(it.Image) == 0 {
			continue
		}
		name := fmt.Sprintf("item-%d", i+1)
		img, _ := b.image(it.Image, cellW, gc.ImageHeight, name)
		caption, err := b.ellipsize(it.Description, b.font.With(measure.Bold), size, cellW)
		if err != nil {
			return fmt.Errorf("document: %s: %w", id, err)
		}
		detail := strings.TrimSpace(fmt.Sprintf("%s: %s %s", lb.Quantity, fm.Quantity(it.Quantity), it.Unit))
		if detail, err = b.ellipsize(detail, b.font, size, cellW); err != nil {
			return fmt.Errorf("document: %s: %w", id, err)
		}
		g.Cells = append(g.Cells, layout.GalleryCell{Name: name, Image: img, Caption: caption, Detail: detail})
	}
	if len(g.Cells) == 0 {
		return nil
	}
	b.add(layout.Block{
		Kind:        layout.KindGallery,
		ID:          id,
		Height:      g.HeadHeight() + g.RowsHeight(g.Rows()),
		BreakBefore: breakBefore,
		Gallery:     g,
	})
	return nil
}

// ellipsize cuts text to fit width on one line, ending it with an ellipsis.
func (b *builder) ellipsize(text string, font measure.Font, size, width float64) (string, error) {
	w, _, err := b.measure.MeasureText(text, font, size)
	if err != nil || w <= width {
		return text, err
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		cut := strings.TrimRight(string(runes[:n]), " ") + ellipsis
		if w, _, err = b.measure.MeasureText(cut, font, size); err != nil {
			return "", err
		}
		if w <= width {
			return cut, nil
		}
	}
	return ellipsis, nil
}

func alignOf(s string, def table.Align) table.Align {
	switch s {
	case "left":
		return table.Left
	case "center":
		return table.Center
	case "right":
		return table.Right
	}
	return def
}
