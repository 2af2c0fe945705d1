package measure

import (
	"fmt"
	"strings"
)

// Conversion constants between typographic points and millimeters.
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

// Style selects a face within a font family.
type Style uint8

const (
	Regular Style = 0
	Bold    Style = 1
	Italic  Style = 2
)

// Has reports whether all bits of o are set in s.
func (s Style) Has(o Style) bool { return s&o == o }

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Bold | Italic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// Font names a family and a style. Families are matched case-insensitively.
type Font struct {
	Family string `json:"family"`
	Style  Style  `json:"style"`
}

// With returns a copy of f with the extra style bits set.
func (f Font) With(s Style) Font {
	f.Style |= s
	return f
}

func (f Font) String() string {
	if f.Style == Regular {
		return strings.ToLower(f.Family)
	}
	return strings.ToLower(f.Family) + "-" + f.Style.String()
}

// ParseFont accepts names such as "sans", "sans-bold", "times-italic" or "mono-bold-italic".
func ParseFont(name string) (Font, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Font{}, fmt.Errorf("measure: empty font name")
	}
	var f Font
	for {
		switch {
		case strings.HasSuffix(name, "-bold"):
			f.Style |= Bold
			name = strings.TrimSuffix(name, "-bold")
			continue
		case strings.HasSuffix(name, "-italic"):
			f.Style |= Italic
			name = strings.TrimSuffix(name, "-italic")
			continue
		}
		break
	}
	if name == "" {
		return Font{}, fmt.Errorf("measure: font name has no family")
	}
	f.Family = name
	return f, nil
}

// CoreFont maps f to one of the PDF standard fonts and an fpdf style string.
func CoreFont(f Font) (family, style string, ok bool) {
	switch strings.ToLower(f.Family) {
	case "helvetica", "arial", "sans", "sans-serif":
		family = "Helvetica"
	case "times", "times-roman", "serif":
		family = "Times"
	case "courier", "mono", "monospace":
		family = "Courier"
	default:
		return "", "", false
	}
	if f.Style.Has(Bold) {
		style += "B"
	}
	if f.Style.Has(Italic) {
		style += "I"
	}
	return family, style, true
}
