package document

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/diag"
)

// Prepare is the record Validate and Build work on: normalized first, then completed
// with the configured defaults.
func Prepare(q Quotation, cfg config.Config, report *diag.Report) Quotation {
	return WithDefaults(Normalize(q, cfg, report), cfg)
}

// WithDefaults fills currency fields the record leaves open from the configuration.
// The symbol is never defaulted.
func WithDefaults(q Quotation, cfg config.Config) Quotation {
	if q.Currency.Precision == nil {
		q.Currency.Precision = cfg.Currency.Precision
	}
	if q.Currency.Locale == "" {
		q.Currency.Locale = cfg.Currency.Locale
	}
	if q.Currency.Code == "" {
		q.Currency.Code = cfg.Currency.Code
	}
	if q.Kind == "" {
		q.Kind = KindQuotation
	}
	return q
}

// Normalize returns a copy of q with every text field NFC-normalized and trimmed and
// unit codes replaced by their display labels. Unknown units pass through; they are
// reported when cfg.WarnUnits is set.
func Normalize(q Quotation, cfg config.Config, report *diag.Report) Quotation {
	q.Number = clean(q.Number)
	q.Date = clean(q.Date)
	q.Kind = Kind(strings.ToLower(clean(string(q.Kind))))
	q.Markup = clean(q.Markup)
	q.Company.Name = clean(q.Company.Name)
	q.Company.Address = clean(q.Company.Address)
	q.Company.Phone = clean(q.Company.Phone)
	q.Company.Email = clean(q.Company.Email)
	q.Company.TaxID = clean(q.Company.TaxID)
	q.Company.Slogan = clean(q.Company.Slogan)
	q.Client.Name = clean(q.Client.Name)
	q.Client.Contact = clean(q.Client.Contact)
	q.Client.Address = clean(q.Client.Address)
	q.Client.Phone = clean(q.Client.Phone)
	q.Client.Email = clean(q.Client.Email)
	q.Currency.Symbol = clean(q.Currency.Symbol)
	q.Shipping.Method = clean(q.Shipping.Method)
	q.PaymentMethod = clean(q.PaymentMethod)
	q.BankDetails = clean(q.BankDetails)
	q.Observations = clean(q.Observations)
	q.Terms = clean(q.Terms)
	q.Cover.Style = strings.ToLower(clean(q.Cover.Style))
	q.Cover.Project = clean(q.Cover.Project)
	q.Cover.Subtitle = clean(q.Cover.Subtitle)
	q.Cover.Accent = clean(q.Cover.Accent)
	q.Signature.PreparedBy = clean(q.Signature.PreparedBy)

	items := make([]LineItem, len(q.Items))
	for i, it := range q.Items {
		it.Description = clean(it.Description)
		code := clean(it.Unit)
		label, ok := cfg.UnitLabel(code)
		if !ok && code != "" && cfg.WarnUnits {
			report.Warn("document", diag.CodeUnknownUnit, "unknown unit code, printed as is",
				logrus.Fields{"unit": code, "item": i})
		}
		it.Unit = label
		items[i] = it
	}
	q.Items = items

	if len(q.Sections) > 0 {
		sections := make([]Section, len(q.Sections))
		for i, s := range q.Sections {
			sections[i] = Section{Title: clean(s.Title), Body: clean(s.Body)}
		}
		q.Sections = sections
	}
	if len(q.Blocks) > 0 {
		blocks := make([]ContentBlock, len(q.Blocks))
		for i, b := range q.Blocks {
			b.Type = ContentType(strings.ToLower(clean(string(b.Type))))
			b.Title = clean(b.Title)
			b.Text = clean(b.Text)
			b.Align = strings.ToLower(clean(b.Align))
			b.Style = strings.ToLower(clean(b.Style))
			blocks[i] = b
		}
		q.Blocks = blocks
	}
	return q
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
