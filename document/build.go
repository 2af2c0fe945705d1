package document

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/diag"
	"github.com/ByLCY/folio/imaging"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/markup"
	"github.com/ByLCY/folio/measure"
	"github.com/ByLCY/folio/money"
	"github.com/ByLCY/folio/table"
	"github.com/ByLCY/folio/textflow"
)

// Creator is written into the document metadata.
const Creator = "folio"

// Block identifiers.
const (
	BlockCover        = "cover"
	BlockHeader       = "header"
	BlockItems        = "items"
	BlockTotals       = "totals"
	BlockSummary      = "summary"
	BlockObservations = "observations"
	BlockTerms        = "terms"
	BlockBank         = "bank"
	BlockGallery      = "gallery"
	BlockSignature    = "signature"
	BlockFooter       = "footer"
)

// headerGap separates the columns of the header block (mm).
const headerGap = 6.0

// BuildOptions carries the collaborators of Build.
type BuildOptions struct {
	Config  config.Config
	Measure measure.Provider
	// Images defaults to a resolver configured from Config.Images.
	Images *imaging.Resolver
	Report *diag.Report
	Logger logrus.FieldLogger
	// KnownStyle reports whether a cover style exists; nil accepts any.
	KnownStyle func(string) bool
}

// Document is a validated, normalized record together with its measured blocks.
type Document struct {
	Quotation Quotation
	Title     string
	Date      time.Time
	Lines     []decimal.Decimal
	Total     decimal.Decimal
	Money     *money.Formatter
	// Logo is the company logo fitted into the header band, nil when absent.
	Logo     *imaging.ScaledImage
	Blocks   []layout.Block
	Geometry layout.Geometry
	Meta     layout.DocumentMeta
}

// Block returns the block with the given id.
func (d *Document) Block(id string) (layout.Block, bool) {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return layout.Block{}, false
}

// GeometryFor derives the page geometry from the configuration.
func GeometryFor(cfg config.Config) (layout.Geometry, error) {
	w, h, err := cfg.Page.Dimensions()
	if err != nil {
		return layout.Geometry{}, err
	}
	m := cfg.Page.Margin
	return layout.Geometry{
		Width:        w,
		Height:       h,
		Margin:       layout.Margin{Top: m.Top, Right: m.Right, Bottom: m.Bottom, Left: m.Left},
		HeaderBand:   cfg.Page.HeaderBand,
		BlockSpacing: cfg.Page.BlockSpacing,
	}, nil
}

// Build validates q and produces its block list in document order:
// cover, header, items, totals, then the optional text sections, signature and footer.
// Validation problems are returned as *ValidationError before anything is measured.
func Build(q Quotation, opts BuildOptions) (*Document, error) {
	cfg := opts.Config
	q = Prepare(q, cfg, opts.Report)
	if err := Validate(q, opts.KnownStyle); err != nil {
		return nil, err
	}
	if opts.Measure == nil {
		return nil, errors.New("document: no measurement provider")
	}
	geo, err := GeometryFor(cfg)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = opts.Report.Logger()
	}
	images := opts.Images
	if images == nil {
		images = &imaging.Resolver{
			Measure:           opts.Measure,
			DPI:               cfg.Images.DPI,
			MaxDPI:            cfg.Images.MaxDPI,
			PlaceholderWidth:  cfg.Images.PlaceholderWidth,
			PlaceholderHeight: cfg.Images.PlaceholderHeight,
		}
	}
	font, err := measure.ParseFont(cfg.Fonts.Family)
	if err != nil {
		return nil, fmt.Errorf("document: body font: %w", err)
	}

	lines, total := Totals(q.Items, q.Currency.Digits())
	d := &Document{
		Quotation: q,
		Title:     cfg.Labels.Quotation,
		Lines:     lines,
		Total:     total,
		Money:     money.NewFormatter(q.Currency),
		Geometry:  geo,
	}
	if q.Kind == KindReceipt {
		d.Title = cfg.Labels.Receipt
	}
	if q.Date != "" {
		d.Date, _ = time.Parse(DateLayout, q.Date)
	}
	d.Meta = metaOf(d)

	b := &builder{
		cfg:     cfg,
		doc:     d,
		geo:     geo,
		font:    font,
		measure: opts.Measure,
		images:  images,
		report:  opts.Report,
		format:  markup.ParseFormat(firstNonEmpty(q.Markup, cfg.Markup)),
	}
	if err := b.build(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"number": q.Number,
		"items":  len(q.Items),
		"blocks": len(d.Blocks),
		"total":  d.Money.Format(total),
	}).Debug("document: built")
	return d, nil
}

func metaOf(d *Document) layout.DocumentMeta {
	q := d.Quotation
	key := strings.Join([]string{
		string(q.Kind), q.Number, q.Date, q.Company.Name, q.Client.Name,
		q.Currency.Symbol, d.Total.StringFixed(q.Currency.Digits()),
	}, "\x00")
	return layout.DocumentMeta{
		ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String(),
		Title:    strings.TrimSpace(d.Title + " " + q.Number),
		Author:   q.Company.Name,
		Subject:  q.Client.Name,
		Creator:  Creator,
		Keywords: []string{string(q.Kind)},
		Created:  d.Date,
	}
}

type builder struct {
	cfg     config.Config
	doc     *Document
	geo     layout.Geometry
	font    measure.Font
	measure measure.Provider
	images  *imaging.Resolver
	report  *diag.Report
	format  markup.Format
	logo    layout.Asset
}

func (b *builder) build() error {
	q := b.doc.Quotation
	b.doc.Logo, b.logo = b.image(q.Company.Logo, b.cfg.Images.LogoWidth, b.cfg.Images.LogoHeight, "logo")

	if q.Cover.Style != "" {
		b.add(b.cover())
	}
	steps := []func() (layout.Block, error){b.header, b.items, b.totals}
	for _, step := range steps {
		blk, err := step()
		if err != nil {
			return err
		}
		b.add(blk)
	}

	lb := b.cfg.Labels
	if paras := b.summary(); len(paras) > 0 {
		if err := b.addText(BlockSummary, lb.Summary, paras); err != nil {
			return err
		}
	}
	if !requestsProducts(q.Blocks) {
		if err := b.gallery(BlockGallery, b.cfg.Gallery.NewPage); err != nil {
			return err
		}
	}
	if err := b.addMarkup(BlockObservations, lb.Observations, q.Observations); err != nil {
		return err
	}
	for i, cb := range q.Blocks {
		if err := b.content(i, cb); err != nil {
			return err
		}
	}
	if err := b.addMarkup(BlockTerms, lb.Terms, q.Terms); err != nil {
		return err
	}
	for i, s := range q.Sections {
		if err := b.addMarkup(fmt.Sprintf("section-%d", i+1), s.Title, s.Body); err != nil {
			return err
		}
	}
	if q.BankDetails != "" {
		if err := b.addText(BlockBank, lb.Bank, markup.ParsePlain(q.BankDetails)); err != nil {
			return err
		}
	}

	if q.Signature.Enabled {
		b.add(b.signature())
	}
	b.add(b.footer())
	return nil
}

func (b *builder) add(blk layout.Block) { b.doc.Blocks = append(b.doc.Blocks, blk) }

func (b *builder) addText(id, title string, paras []markup.Paragraph) error {
	blk, err := b.text(id, title, paras)
	if err != nil {
		return err
	}
	b.add(blk)
	return nil
}

// addMarkup parses src in the document's markup format; blank sources add nothing.
func (b *builder) addMarkup(id, title, src string) error {
	if !markup.HasContent(src, b.format) {
		return nil
	}
	paras, err := markup.Parse(src, b.format)
	if err != nil {
		return fmt.Errorf("document: %s: %w", id, err)
	}
	return b.addText(id, title, paras)
}

// image resolves raw into a maxW×maxH box. Undecodable bytes are reported once here
// and marked broken in the returned asset.
func (b *builder) image(raw []byte, maxW, maxH float64, name string) (*imaging.ScaledImage, layout.Asset) {
	img, ok, err := b.images.Resolve(raw, maxW, maxH)
	if !ok {
		return nil, layout.Asset{}
	}
	asset := layout.Asset{Data: raw}
	if err != nil {
		b.report.Warn("imaging", diag.CodeImageDecode, "image could not be decoded, drawing a placeholder",
			logrus.Fields{"asset": name, "error": err.Error()})
		asset = layout.Asset{Broken: true}
	}
	return &img, asset
}

func (b *builder) style(size, width float64) textflow.Style {
	f := b.cfg.Fonts
	return textflow.Style{
		Font:             b.font,
		Size:             size,
		LineHeight:       f.LineHeight,
		ParagraphSpacing: f.ParagraphSpacing,
		Width:            width,
		BulletIndent:     f.BulletIndent,
	}
}

func (b *builder) cover() layout.Block {
	q := b.doc.Quotation
	_, image := b.image(q.Cover.Image, b.geo.Width, b.geo.Height, "cover")
	return layout.Block{
		Kind:   layout.KindCover,
		ID:     BlockCover,
		Height: b.geo.Height,
		Cover: &layout.CoverContent{
			Style: q.Cover.Style,
			Data:  b.coverData(),
			Logo:  b.logo,
			Image: image,
		},
	}
}

func (b *builder) coverData() map[string]any {
	q := b.doc.Quotation
	project := firstNonEmpty(q.Cover.Project, b.doc.Title)
	return map[string]any{
		"title":    b.doc.Title,
		"project":  project,
		"initial":  initial(project),
		"subtitle": q.Cover.Subtitle,
		"number":   q.Number,
		"date":     q.Date,
		"accent":   firstNonEmpty(q.Cover.Accent, b.cfg.Theme.Accent),
		"total":    b.doc.Money.Format(b.doc.Total),
		"company": map[string]any{
			"name":    q.Company.Name,
			"address": q.Company.Address,
			"phone":   q.Company.Phone,
			"email":   q.Company.Email,
			"taxId":   q.Company.TaxID,
			"slogan":  q.Company.Slogan,
		},
		"client": map[string]any{
			"name":    q.Client.Name,
			"contact": q.Client.Contact,
			"address": q.Client.Address,
			"phone":   q.Client.Phone,
			"email":   q.Client.Email,
		},
	}
}

func (b *builder) header() (layout.Block, error) {
	q := b.doc.Quotation
	lb := b.cfg.Labels
	width := b.geo.ContentWidth()
	colW := (width - 2*headerGap) / 3
	columns := [][]markup.Paragraph{
		{card(q.Company.Name, q.Company.Address, q.Company.Phone, q.Company.Email, labelled(lb.TaxID, q.Company.TaxID))},
		{card(lb.Client, q.Client.Name, labelled(lb.Contact, q.Client.Contact), q.Client.Address, q.Client.Phone, q.Client.Email)},
		{card(b.doc.Title, labelled(lb.Number, q.Number), labelled(lb.Date, q.Date))},
	}
	hc := &layout.HeaderContent{Padding: 2}
	var tallest float64
	for i, paras := range columns {
		flow := textflow.New(paras, b.style(b.cfg.Fonts.Body, colW), b.measure)
		h := flow.Height()
		if err := flow.Err(); err != nil {
			return layout.Block{}, fmt.Errorf("document: header: %w", err)
		}
		tallest = max(tallest, h)
		hc.Columns = append(hc.Columns, layout.Column{X: float64(i) * (colW + headerGap), Width: colW, Flow: flow})
	}
	return layout.Block{Kind: layout.KindHeader, ID: BlockHeader, Height: tallest + 2*hc.Padding, Header: hc}, nil
}

// card is a bold heading followed by one line per non-empty entry.
func card(heading string, entries ...string) markup.Paragraph {
	var p markup.Paragraph
	if heading != "" {
		p.Spans = append(p.Spans, markup.Span{Text: heading, Style: measure.Bold})
	}
	for _, e := range entries {
		for _, line := range strings.Split(e, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			if len(p.Spans) > 0 {
				p.Spans = append(p.Spans, markup.Span{Break: true})
			}
			p.Spans = append(p.Spans, markup.Span{Text: line})
		}
	}
	return p
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func (b *builder) items() (layout.Block, error) {
	q := b.doc.Quotation
	lb := b.cfg.Labels
	tc := b.cfg.Table
	cols := []table.Column{
		{Label: lb.Description, Weight: tc.Description.Weight, MinWidth: tc.Description.MinWidth, Align: table.Left},
		{Label: lb.Quantity, Weight: tc.Quantity.Weight, MinWidth: tc.Quantity.MinWidth, Align: table.Center},
		{Label: lb.Unit, Weight: tc.Unit.Weight, MinWidth: tc.Unit.MinWidth, Align: table.Center},
		{Label: lb.Price, Weight: tc.Price.Weight, MinWidth: tc.Price.MinWidth, Align: table.Right},
		{Label: lb.Amount, Weight: tc.Amount.Weight, MinWidth: tc.Amount.MinWidth, Align: table.Right},
	}
	fm := b.doc.Money
	rows := make([][]string, len(q.Items))
	for i, it := range q.Items {
		rows[i] = []string{it.Description, fm.Quantity(it.Quantity), it.Unit, fm.Format(it.UnitPrice), fm.Format(b.doc.Lines[i])}
	}
	style := table.Style{
		Font:          b.font,
		Size:          tc.Size,
		HeaderSize:    tc.HeaderSize,
		LineHeight:    tc.LineHeight,
		Padding:       tc.Padding,
		HeaderPadding: tc.HeaderPadding,
		MinRowHeight:  tc.MinRowHeight,
	}
	t, err := table.Format(rows, cols, b.geo.ContentWidth(), style, b.measure)
	if err != nil {
		return layout.Block{}, fmt.Errorf("document: items: %w", err)
	}
	return layout.Block{Kind: layout.KindTable, ID: BlockItems, Height: t.Height(), Table: &layout.TableContent{Table: t}}, nil
}

func (b *builder) totals() (layout.Block, error) {
	q := b.doc.Quotation
	lb := b.cfg.Labels
	fm := b.doc.Money
	var rows []layout.TotalsRow
	if q.Shipping.Present() {
		label := lb.Shipping
		if q.Shipping.Method != "" {
			label += " (" + q.Shipping.Method + ")"
		}
		rows = append(rows, layout.TotalsRow{Label: label, Value: fm.Format(q.Shipping.Cost)})
	}
	rows = append(rows, layout.TotalsRow{Label: lb.Total, Value: fm.Format(b.doc.Total), Strong: true})

	size := b.cfg.Fonts.Heading
	pad := b.cfg.Table.Padding
	width := 70.0
	for _, r := range rows {
		lw, _, err := b.measure.MeasureText(r.Label, b.font.With(measure.Bold), size)
		if err != nil {
			return layout.Block{}, fmt.Errorf("document: totals: %w", err)
		}
		vw, _, err := b.measure.MeasureText(r.Value, b.font.With(measure.Bold), size)
		if err != nil {
			return layout.Block{}, fmt.Errorf("document: totals: %w", err)
		}
		width = max(width, lw+vw+4*pad)
	}
	width = min(width, b.geo.ContentWidth())
	rowH := max(b.cfg.Table.MinRowHeight, size*measure.PtToMm*b.cfg.Table.LineHeight+2*pad)
	tc := &layout.TotalsContent{Rows: rows, Width: width, RowHeight: rowH, Size: size}
	return layout.Block{Kind: layout.KindTotals, ID: BlockTotals, Height: rowH * float64(len(rows)), Totals: tc}, nil
}

// summary lists the commercial conditions as bullets.
func (b *builder) summary() []markup.Paragraph {
	q := b.doc.Quotation
	lb := b.cfg.Labels
	var out []markup.Paragraph
	item := func(label, value string) {
		p := markup.Paragraph{Bullet: "•"}
		if label != "" {
			p.Spans = append(p.Spans, markup.Span{Text: label + ": ", Style: measure.Bold})
		}
		p.Spans = append(p.Spans, markup.Span{Text: value})
		out = append(out, p)
	}
	if q.ValidityDays > 0 {
		item(lb.Validity, fmt.Sprintf("%d %s", q.ValidityDays, lb.Days))
	}
	if q.DeliveryDays > 0 {
		item(lb.Delivery, fmt.Sprintf("%d %s", q.DeliveryDays, lb.Days))
	}
	if q.Shipping.Present() {
		var parts []string
		if q.Shipping.Method != "" {
			parts = append(parts, q.Shipping.Method)
		}
		parts = append(parts, b.doc.Money.Format(q.Shipping.Cost))
		item(lb.Shipping, strings.Join(parts, ", "))
	}
	if q.TaxIncluded != nil {
		if *q.TaxIncluded {
			item("", lb.TaxIncluded)
		} else {
			item("", lb.TaxExcluded)
		}
	}
	if q.PaymentMethod != "" {
		item(lb.Payment, q.PaymentMethod)
	}
	return out
}

func (b *builder) text(id, title string, paras []markup.Paragraph) (layout.Block, error) {
	f := b.cfg.Fonts
	tc := &layout.TextContent{
		Title:       title,
		Continued:   b.cfg.Labels.Continued,
		TitleSize:   f.Heading,
		TitleHeight: f.Heading * measure.PtToMm * f.LineHeight,
		TitleGap:    f.ParagraphSpacing,
		Flow:        textflow.New(paras, b.style(f.Body, b.geo.ContentWidth()), b.measure),
	}
	h := tc.HeadHeight() + tc.Flow.Height()
	if err := tc.Flow.Err(); err != nil {
		return layout.Block{}, fmt.Errorf("document: %s: %w", id, err)
	}
	return layout.Block{Kind: layout.KindText, ID: id, Height: h, Text: tc}, nil
}

func (b *builder) signature() layout.Block {
	q := b.doc.Quotation
	lb := b.cfg.Labels
	img, _ := b.image(q.Signature.Image, b.cfg.Images.SignatureWidth, b.cfg.Images.SignatureHeight, "signature")
	slotW := (b.geo.ContentWidth() - headerGap) / 2
	sc := &layout.SignatureContent{
		Slots: []layout.SignatureSlot{
			{Label: lb.Signature},
			{Label: lb.PreparedBy, Name: q.Signature.PreparedBy, Image: img},
		},
		LineWidth: min(70, slotW),
		Space:     b.cfg.Images.SignatureHeight,
		Size:      b.cfg.Fonts.Small,
		LineGap:   b.cfg.Fonts.Small * measure.PtToMm * b.cfg.Fonts.LineHeight,
		DateLabel: lb.DateLine,
	}
	h := sc.Space + sc.LineGap*float64(sc.TextRows())
	return layout.Block{Kind: layout.KindSignature, ID: BlockSignature, Height: h, Signature: sc}
}

func (b *builder) footer() layout.Block {
	q := b.doc.Quotation
	lb := b.cfg.Labels
	size := b.cfg.Fonts.Small
	fc := &layout.FooterContent{
		Lines:     []string{firstNonEmpty(q.Company.Slogan, lb.Thanks)},
		Reference: strings.TrimSpace(fmt.Sprintf("%s %s %s", lb.Reference, q.Number, shortID(b.doc.Meta.ID))),
		PageLabel: lb.PageOf,
		Size:      size,
	}
	advance := size * measure.PtToMm * b.cfg.Fonts.LineHeight
	h := max(b.cfg.Page.FooterBand, float64(len(fc.Lines)+1)*advance+2)
	return layout.Block{Kind: layout.KindFooter, ID: BlockFooter, Height: h, Footer: fc}
}

// initial is the first letter of s, upper-cased.
func initial(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return ""
	}
	return strings.ToUpper(string(r))
}

func shortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return "(" + id[:8] + ")"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
