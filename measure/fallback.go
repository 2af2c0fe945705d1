package measure

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/folio/diag"
)

// Fallback wraps a provider so that text in an unmeasurable font is measured with a
// substitute font instead. Each substitution is recorded once per font in report.
// The returned provider belongs to one generation call.
func Fallback(p Provider, substitute Font, report *diag.Report) Provider {
	return &fallbackProvider{
		inner:      p,
		substitute: substitute,
		report:     report,
		warned:     map[Font]bool{},
		glyphs:     map[rune]bool{},
	}
}

type fallbackProvider struct {
	inner      Provider
	substitute Font
	report     *diag.Report
	warned     map[Font]bool
	glyphs     map[rune]bool
}

func (f *fallbackProvider) MeasureText(text string, font Font, size float64) (float64, float64, error) {
	w, h, err := f.inner.MeasureText(text, font, size)
	if err == nil || !errors.Is(err, ErrUnmeasurable) {
		return w, h, err
	}
	var ue *UnmeasurableError
	if errors.As(err, &ue) && len(ue.Missing) > 0 {
		f.warnGlyphs(font, ue.Missing)
		return f.MeasureText(Replace(text, ue.Missing), font, size)
	}
	sub := f.substitute
	sub.Style = font.Style
	if !f.warned[font] {
		f.warned[font] = true
		f.report.Warn("measure", diag.CodeUnmeasurable,
			fmt.Sprintf("font %s replaced by %s", font, sub), logrus.Fields{"font": font.String(), "error": err.Error()})
	}
	w, h, err = f.inner.MeasureText(text, sub, size)
	if err != nil {
		return 0, 0, fmt.Errorf("measure: fallback font %s also failed: %w", sub, err)
	}
	return w, h, nil
}

// 每个缺字只记录一次
func (f *fallbackProvider) warnGlyphs(font Font, missing []rune) {
	var fresh []rune
	for _, r := range missing {
		if !f.glyphs[r] {
			f.glyphs[r] = true
			fresh = append(fresh, r)
		}
	}
	if len(fresh) == 0 {
		return
	}
	f.report.Warn("measure", diag.CodeUnmeasurable,
		fmt.Sprintf("characters %q have no glyph in %s, drawn as %q", string(fresh), font, Placeholder),
		logrus.Fields{"font": font.String()})
}

func (f *fallbackProvider) MeasureImage(data []byte) (int, int, error) {
	return f.inner.MeasureImage(data)
}

// Resolve returns the font that text set in font will actually be measured with.
func (f *fallbackProvider) Resolve(font Font) Font {
	if !f.warned[font] {
		return font
	}
	sub := f.substitute
	sub.Style = font.Style
	return sub
}

// Resolver is implemented by providers that substitute fonts.
type Resolver interface {
	Resolve(font Font) Font
}

// ResolveFont reports the font p measures font with; providers that never substitute return font.
func ResolveFont(p Provider, font Font) Font {
	if r, ok := p.(Resolver); ok {
		return r.Resolve(font)
	}
	return font
}
