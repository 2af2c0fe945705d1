package document

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ByLCY/folio/money"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("invalid quotation")

// Problem codes.
const (
	CodeEmptyQuotation    = "empty-quotation"
	CodeNegativeQuantity  = "negative-quantity"
	CodeNegativePrice     = "negative-price"
	CodeMissingCurrency   = "missing-currency"
	CodeSubtotalMismatch  = "subtotal-mismatch"
	CodeTotalMismatch     = "total-mismatch"
	CodeNegativeShipping  = "negative-shipping"
	CodeInvalidDate       = "invalid-date"
	CodeInvalidKind       = "invalid-kind"
	CodeUnknownCoverStyle = "unknown-cover-style"
	CodeInvalidBlock      = "invalid-block"
)

// Problem is one defect of the record. Field is a JSON-style path.
type Problem struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a record.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Message
	}
	return fmt.Sprintf("invalid quotation (%d problems): %s", len(e.Problems), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Has reports whether a problem with the given code was found.
func (e *ValidationError) Has(code string) bool {
	for _, p := range e.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}

// Validate checks q and returns a *ValidationError listing all problems, or nil.
// knownStyle decides whether a cover style exists; nil accepts any style.
func Validate(q Quotation, knownStyle func(string) bool) error {
	var probs []Problem
	add := func(code, field, format string, args ...any) {
		probs = append(probs, Problem{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	prec := q.Currency.Digits()
	if strings.TrimSpace(q.Currency.Symbol) == "" {
		add(CodeMissingCurrency, "currency.symbol", "currency symbol is required")
	}
	if len(q.Items) == 0 {
		add(CodeEmptyQuotation, "items", "at least one line item is required")
	}
	lines, total := Totals(q.Items, prec)
	for i, it := range q.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.Quantity.IsNegative() {
			add(CodeNegativeQuantity, field+".quantity", "quantity %s is negative", it.Quantity)
		}
		if it.UnitPrice.IsNegative() {
			add(CodeNegativePrice, field+".unitPrice", "unit price %s is negative", it.UnitPrice)
		}
		if it.Subtotal.Valid && !money.Within(it.Subtotal.Decimal, lines[i], prec) {
			add(CodeSubtotalMismatch, field+".subtotal", "subtotal %s does not match %s × %s = %s",
				it.Subtotal.Decimal, it.Quantity, it.UnitPrice, lines[i].StringFixed(prec))
		}
	}
	if q.Total.Valid && len(q.Items) > 0 && !money.Within(q.Total.Decimal, total, prec) {
		add(CodeTotalMismatch, "total", "total %s does not match the sum of the items %s",
			q.Total.Decimal, total.StringFixed(prec))
	}
	if q.Shipping.Cost.IsNegative() {
		add(CodeNegativeShipping, "shipping.cost", "shipping cost %s is negative", q.Shipping.Cost)
	}
	if q.Date != "" {
		if _, err := time.Parse(DateLayout, q.Date); err != nil {
			add(CodeInvalidDate, "date", "date %q is not YYYY-MM-DD", q.Date)
		}
	}
	switch q.Kind {
	case "", KindQuotation, KindReceipt:
	default:
		add(CodeInvalidKind, "kind", "kind %q is neither quotation nor receipt", q.Kind)
	}
	if q.Cover.Style != "" && knownStyle != nil && !knownStyle(q.Cover.Style) {
		add(CodeUnknownCoverStyle, "cover.style", "cover style %q does not exist", q.Cover.Style)
	}

	for i, b := range q.Blocks {
		field := fmt.Sprintf("blocks[%d]", i)
		switch b.Type {
		case ContentTitle, ContentNote, ContentImage, ContentProducts:
		case ContentSeparator:
			switch b.Style {
			case "", "line", "double", "space":
			default:
				add(CodeInvalidBlock, field+".style", "separator style %q is not line, double or space", b.Style)
			}
		default:
			add(CodeInvalidBlock, field+".type", "block type %q is unknown", b.Type)
		}
		switch b.Align {
		case "", "left", "center", "right":
		default:
			add(CodeInvalidBlock, field+".align", "alignment %q is not left, center or right", b.Align)
		}
	}

	if len(probs) == 0 {
		return nil
	}
	return &ValidationError{Problems: probs}
}
