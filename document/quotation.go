// Package document holds the quotation record and turns it into the measured block
// list the layout engine consumes.
package document

import (
	"github.com/shopspring/decimal"

	"github.com/ByLCY/folio/money"
)

// Kind selects the document title.
type Kind string

const (
	KindQuotation Kind = "quotation"
	KindReceipt   Kind = "receipt"
)

// DateLayout is the layout of Quotation.Date.
const DateLayout = "2006-01-02"

// Quotation is the input record of one generation. Image fields carry raw bytes; in
// JSON they are base64.
type Quotation struct {
	Number        string              `json:"number"`
	Kind          Kind                `json:"kind,omitempty"`
	Date          string              `json:"date,omitempty"`
	Company       Company             `json:"company"`
	Client        Client              `json:"client"`
	Items         []LineItem          `json:"items"`
	Currency      money.Currency      `json:"currency"`
	Total         decimal.NullDecimal `json:"total"`
	Shipping      Shipping            `json:"shipping"`
	TaxIncluded   *bool               `json:"taxIncluded,omitempty"`
	ValidityDays  int                 `json:"validityDays,omitempty"`
	DeliveryDays  int                 `json:"deliveryDays,omitempty"`
	PaymentMethod string              `json:"paymentMethod,omitempty"`
	BankDetails   string              `json:"bankDetails,omitempty"`
	Observations  string              `json:"observations,omitempty"`
	Terms         string              `json:"terms,omitempty"`
	Sections      []Section           `json:"sections,omitempty"`
	// Blocks are laid out in order after the observations.
	Blocks []ContentBlock `json:"blocks,omitempty"`
	Cover         Cover               `json:"cover"`
	Signature     Signature           `json:"signature"`
	// Markup overrides the configured markup format of free text.
	Markup string `json:"markup,omitempty"`
}

// Company is the issuer.
type Company struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	TaxID   string `json:"taxId,omitempty"`
	Slogan  string `json:"slogan,omitempty"`
	Logo    []byte `json:"logo,omitempty"`
}

// Client is the recipient.
type Client struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// LineItem is one row of the item table. Subtotal is optional; when present it must
// agree with Quantity × UnitPrice.
type LineItem struct {
	Description string              `json:"description"`
	Unit        string              `json:"unit,omitempty"`
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitPrice   decimal.Decimal     `json:"unitPrice"`
	Subtotal    decimal.NullDecimal `json:"subtotal"`
	// Image puts the item into the product gallery.
	Image []byte `json:"image,omitempty"`
}

// Shipping is printed next to the total. Cost is informational and never added to it.
type Shipping struct {
	Method string          `json:"method,omitempty"`
	Cost   decimal.Decimal `json:"cost"`
}

// Present reports whether there is anything to print.
func (s Shipping) Present() bool { return s.Method != "" || !s.Cost.IsZero() }

// Section is an extra titled clause such as installation or warranty terms.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ContentType selects what a ContentBlock draws.
type ContentType string

const (
	// ContentTitle is a heading; level 0 opens a new page.
	ContentTitle ContentType = "title"
	// ContentNote is free text in the quotation's markup format.
	ContentNote ContentType = "note"
	// ContentImage is a figure with an optional caption.
	ContentImage ContentType = "image"
	// ContentSeparator is a horizontal rule: line, double or space.
	ContentSeparator ContentType = "separator"
	// ContentProducts places the product gallery here instead of after the totals.
	ContentProducts ContentType = "products"
)

// ContentBlock is one entry of the free-form part of the document. Text is the
// heading, the note body or the image caption depending on Type.
type ContentBlock struct {
	Type  ContentType `json:"type"`
	Title string      `json:"title,omitempty"`
	Text  string      `json:"text,omitempty"`
	Level int         `json:"level,omitempty"`
	Align string      `json:"align,omitempty"`
	Style string      `json:"style,omitempty"`
	Image []byte      `json:"image,omitempty"`
}

// Cover selects the cover page. An empty Style means no cover page.
type Cover struct {
	Style    string `json:"style,omitempty"`
	Project  string `json:"project,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Accent   string `json:"accent,omitempty"`
	Image    []byte `json:"image,omitempty"`
}

// Signature adds the closing signature section.
type Signature struct {
	Enabled    bool   `json:"enabled"`
	PreparedBy string `json:"preparedBy,omitempty"`
	Image      []byte `json:"image,omitempty"`
}

// Totals computes the rounded subtotal of every item and the grand total, which is
// the sum of the rounded subtotals.
func Totals(items []LineItem, precision int32) (lines []decimal.Decimal, total decimal.Decimal) {
	lines = make([]decimal.Decimal, len(items))
	for i, it := range items {
		lines[i] = money.Round(it.Quantity.Mul(it.UnitPrice), precision)
	}
	return lines, money.Sum(lines...)
}
