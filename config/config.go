// Package config holds the engine configuration: page geometry, typography, unit labels,
// captions and image policy. A Config is loaded once and passed by value into each
// generation; nothing here is global.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/folio/money"
)

// Config is the full engine configuration.
type Config struct {
	Page      Page              `yaml:"page"`
	Fonts     Fonts             `yaml:"fonts"`
	Table     Table             `yaml:"table"`
	Units     map[string]string `yaml:"units"`
	WarnUnits bool              `yaml:"warn-unknown-units"`
	Currency  money.Currency    `yaml:"currency"`
	Images    Images            `yaml:"images"`
	Gallery   Gallery           `yaml:"gallery"`
	Labels    Labels            `yaml:"labels"`
	Theme     Theme             `yaml:"theme"`
	Covers    Covers            `yaml:"covers"`
	Watermark Watermark         `yaml:"watermark"`
	Backend   string            `yaml:"backend"`
	Markup    string            `yaml:"markup"`
}

// Page is the page geometry in millimeters.
type Page struct {
	Size         string  `yaml:"size"`
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	Landscape    bool    `yaml:"landscape"`
	Margin       Margin  `yaml:"margin"`
	HeaderBand   float64 `yaml:"header-band"`
	FooterBand   float64 `yaml:"footer-band"`
	BlockSpacing float64 `yaml:"block-spacing"`
}

// Margin holds the four page margins.
type Margin struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// Fonts configures body typography. Sizes in pt.
type Fonts struct {
	Family           string  `yaml:"family"`
	Fallback         string  `yaml:"fallback"`
	Body             float64 `yaml:"body"`
	Small            float64 `yaml:"small"`
	Heading          float64 `yaml:"heading"`
	Title            float64 `yaml:"title"`
	LineHeight       float64 `yaml:"line-height"`
	ParagraphSpacing float64 `yaml:"paragraph-spacing"`
	BulletIndent     float64 `yaml:"bullet-indent"`
}

// ColumnSize is the width policy of one table column.
type ColumnSize struct {
	Weight   float64 `yaml:"weight"`
	MinWidth float64 `yaml:"min-width"`
}

// Table configures the line-item table.
type Table struct {
	Size          float64    `yaml:"size"`
	HeaderSize    float64    `yaml:"header-size"`
	LineHeight    float64    `yaml:"line-height"`
	Padding       float64    `yaml:"padding"`
	HeaderPadding float64    `yaml:"header-padding"`
	MinRowHeight  float64    `yaml:"min-row-height"`
	Description   ColumnSize `yaml:"description"`
	Quantity      ColumnSize `yaml:"quantity"`
	Unit          ColumnSize `yaml:"unit"`
	Price         ColumnSize `yaml:"price"`
	Amount        ColumnSize `yaml:"amount"`
}

// Images configures image resolution and the boxes images are fitted into (mm).
type Images struct {
	DPI               float64 `yaml:"dpi"`
	MaxDPI            float64 `yaml:"max-dpi"`
	PlaceholderWidth  float64 `yaml:"placeholder-width"`
	PlaceholderHeight float64 `yaml:"placeholder-height"`
	LogoWidth         float64 `yaml:"logo-width"`
	LogoHeight        float64 `yaml:"logo-height"`
	SignatureWidth    float64 `yaml:"signature-width"`
	SignatureHeight   float64 `yaml:"signature-height"`
	FigureWidth       float64 `yaml:"figure-width"`
	FigureHeight      float64 `yaml:"figure-height"`
}

// Gallery lays out the product pictures: Columns per grid row, RowsPerPage grid rows
// at most on one page (0 = as many as fit), pictures fitted into ImageHeight (mm).
type Gallery struct {
	Columns     int     `yaml:"columns"`
	RowsPerPage int     `yaml:"rows-per-page"`
	ImageHeight float64 `yaml:"image-height"`
	Gap         float64 `yaml:"gap"`
	NewPage     bool    `yaml:"new-page"`
}

// Theme holds the colors of the content pages as #rrggbb strings.
type Theme struct {
	Accent      string `yaml:"accent"`
	Text        string `yaml:"text"`
	Muted       string `yaml:"muted"`
	TableHeader string `yaml:"table-header"`
	TableAlt    string `yaml:"table-alt"`
	Border      string `yaml:"border"`
}

// Covers points at an external cover template file; empty means the built-in one.
type Covers struct {
	File string `yaml:"file"`
}

// Watermark is drawn across every content page when Text is set.
type Watermark struct {
	Text    string  `yaml:"text"`
	Opacity float64 `yaml:"opacity"`
	Size    float64 `yaml:"size"`
	Angle   float64 `yaml:"angle"`
}

// Labels are all captions printed on the document.
type Labels struct {
	Quotation    string `yaml:"quotation"`
	Receipt      string `yaml:"receipt"`
	Number       string `yaml:"number"`
	Date         string `yaml:"date"`
	Client       string `yaml:"client"`
	Contact      string `yaml:"contact"`
	Address      string `yaml:"address"`
	Phone        string `yaml:"phone"`
	Email        string `yaml:"email"`
	TaxID        string `yaml:"tax-id"`
	Description  string `yaml:"description"`
	Quantity     string `yaml:"quantity"`
	Unit         string `yaml:"unit"`
	Price        string `yaml:"price"`
	Amount       string `yaml:"amount"`
	Total        string `yaml:"total"`
	Shipping     string `yaml:"shipping"`
	TaxIncluded  string `yaml:"tax-included"`
	TaxExcluded  string `yaml:"tax-excluded"`
	Summary      string `yaml:"summary"`
	Validity     string `yaml:"validity"`
	Delivery     string `yaml:"delivery"`
	Days         string `yaml:"days"`
	Payment      string `yaml:"payment"`
	Observations string `yaml:"observations"`
	Terms        string `yaml:"terms"`
	Bank         string `yaml:"bank"`
	Signature    string `yaml:"signature"`
	PreparedBy   string `yaml:"prepared-by"`
	DateLine     string `yaml:"date-line"`
	Thanks       string `yaml:"thanks"`
	Continued    string `yaml:"continued"`
	PageOf       string `yaml:"page-of"`
	Reference    string `yaml:"reference"`
	Catalog      string `yaml:"catalog"`
}

// Default returns the built-in configuration: A4 portrait, Helvetica, US English.
func Default() Config {
	prec := money.DefaultPrecision
	return Config{
		Page: Page{
			Size:         "A4",
			Margin:       Margin{Top: 15, Right: 15, Bottom: 15, Left: 15},
			HeaderBand:   28,
			FooterBand:   14,
			BlockSpacing: 6,
		},
		Fonts: Fonts{
			Family:           "helvetica",
			Fallback:         "helvetica",
			Body:             10,
			Small:            8,
			Heading:          11,
			Title:            16,
			LineHeight:       1.3,
			ParagraphSpacing: 1.5,
			BulletIndent:     4,
		},
		Table: Table{
			Size:          9,
			HeaderSize:    9,
			LineHeight:    1.2,
			Padding:       1.5,
			HeaderPadding: 2.5,
			MinRowHeight:  7,
			Description:   ColumnSize{Weight: 1, MinWidth: 50},
			Quantity:      ColumnSize{MinWidth: 18},
			Unit:          ColumnSize{MinWidth: 24},
			Price:         ColumnSize{MinWidth: 24},
			Amount:        ColumnSize{MinWidth: 26},
		},
		Units: map[string]string{
			"u":   "unit",
			"c/u": "each",
			"pqt": "pack",
			"kg":  "kg",
			"g":   "g",
			"l":   "L",
			"m":   "m",
			"m2":  "m²",
			"m²":  "m²",
			"h":   "hour",
			"pcs": "pcs",
		},
		Currency: money.Currency{Symbol: "$", Code: "USD", Precision: &prec, Locale: "en"},
		Images: Images{
			DPI:               96,
			MaxDPI:            300,
			PlaceholderWidth:  30,
			PlaceholderHeight: 20,
			LogoWidth:         40,
			LogoHeight:        18,
			SignatureWidth:    50,
			SignatureHeight:   20,
			FigureWidth:       134,
			FigureHeight:      99,
		},
		Gallery: Gallery{Columns: 2, RowsPerPage: 2, ImageHeight: 70, Gap: 8, NewPage: true},
		Labels: Labels{
			Quotation:    "QUOTATION",
			Receipt:      "RECEIPT",
			Number:       "No.",
			Date:         "Date",
			Client:       "Client",
			Contact:      "Contact",
			Address:      "Address",
			Phone:        "Phone",
			Email:        "Email",
			TaxID:        "Tax ID",
			Description:  "Description",
			Quantity:     "Qty",
			Unit:         "Unit",
			Price:        "Price",
			Amount:       "Amount",
			Total:        "TOTAL",
			Shipping:     "Shipping",
			TaxIncluded:  "Prices include tax",
			TaxExcluded:  "Prices do not include tax",
			Summary:      "Summary of conditions",
			Validity:     "Validity",
			Delivery:     "Delivery time",
			Days:         "days",
			Payment:      "Payment method",
			Observations: "Observations",
			Terms:        "Terms and conditions",
			Bank:         "Bank details",
			Signature:    "Client signature",
			PreparedBy:   "Authorized signature",
			DateLine:     "Date: _______________",
			Thanks:       "Thank you for your business!",
			Continued:    "(continued)",
			PageOf:       "Page %d of %d",
			Reference:    "Ref.",
			Catalog:      "Product catalog",
		},
		Theme: Theme{
			Accent:      "#1f3a5f",
			Text:        "#222222",
			Muted:       "#6b7280",
			TableHeader: "#1f3a5f",
			TableAlt:    "#f2f4f7",
			Border:      "#c8ccd2",
		},
		Watermark: Watermark{Opacity: 0.08, Size: 60, Angle: 45},
		Backend:   "fpdf",
		Markup:    "auto",
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: 读取 %s 失败: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: 解析 YAML 失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var pageSizes = map[string][2]float64{
	"a3":     {297, 420},
	"a4":     {210, 297},
	"a5":     {148, 210},
	"letter": {215.9, 279.4},
	"legal":  {215.9, 355.6},
}

// Dimensions returns the page width and height in mm, honoring Landscape.
func (p Page) Dimensions() (width, height float64, err error) {
	width, height = p.Width, p.Height
	if width <= 0 || height <= 0 {
		size, ok := pageSizes[strings.ToLower(p.Size)]
		if !ok {
			return 0, 0, fmt.Errorf("config: unknown page size %q", p.Size)
		}
		width, height = size[0], size[1]
	}
	if p.Landscape {
		width, height = height, width
	}
	return width, height, nil
}

// Validate checks that the configuration describes a usable page.
func (c Config) Validate() error {
	w, h, err := c.Page.Dimensions()
	if err != nil {
		return err
	}
	m := c.Page.Margin
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("config: margins must not be negative")
	}
	if w-m.Left-m.Right <= 0 {
		return fmt.Errorf("config: margins leave no content width")
	}
	if h-m.Top-m.Bottom-c.Page.HeaderBand-c.Page.FooterBand <= 0 {
		return fmt.Errorf("config: margins and bands leave no content height")
	}
	if c.Fonts.Body <= 0 || c.Table.Size <= 0 {
		return fmt.Errorf("config: font sizes must be positive")
	}
	if c.Images.DPI <= 0 {
		return fmt.Errorf("config: images.dpi must be positive")
	}
	if c.Gallery.Columns <= 0 || c.Gallery.ImageHeight <= 0 || c.Gallery.RowsPerPage < 0 {
		return fmt.Errorf("config: gallery needs positive columns and image-height")
	}
	switch strings.ToLower(c.Backend) {
	case "fpdf", "canvas":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	return nil
}

// UnitLabel maps a unit code to its display label. Lookup ignores case and surrounding
// space; unknown codes come back unchanged with ok=false.
func (c Config) UnitLabel(code string) (label string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(code))
	if key == "" {
		return "", true
	}
	if v, ok := c.Units[code]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(c.Units)) {
		if strings.ToLower(k) == key {
			return c.Units[k], true
		}
	}
	return strings.TrimSpace(code), false
}
