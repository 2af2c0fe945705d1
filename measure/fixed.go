package measure

import (
	"unicode/utf8"
)

// Fixed is a monospaced provider: every rune advances Advance em. It knows only the
// families listed in Families (all families when empty) and is mainly used in tests
// and for dry-run pagination.
type Fixed struct {
	Advance  float64
	Families []string
	cache    *Cache
}

var _ Provider = (*Fixed)(nil)

// NewFixed returns a Fixed provider with the given per-rune advance in em.
func NewFixed(advance float64, families ...string) *Fixed {
	return &Fixed{Advance: advance, Families: families, cache: NewCache()}
}

func (f *Fixed) knows(font Font) bool {
	if len(f.Families) == 0 {
		return true
	}
	for _, fam := range f.Families {
		if fam == font.Family {
			return true
		}
	}
	return false
}

// MeasureText implements Provider.
func (f *Fixed) MeasureText(text string, font Font, size float64) (float64, float64, error) {
	if !f.knows(font) {
		return 0, 0, &UnmeasurableError{Font: font, Reason: "unknown font family"}
	}
	if size <= 0 {
		return 0, 0, &UnmeasurableError{Font: font, Reason: "invalid size"}
	}
	em := size * PtToMm
	adv := f.Advance
	if font.Style.Has(Bold) {
		adv *= 1.1
	}
	return float64(utf8.RuneCountInString(text)) * adv * em, em, nil
}

// MeasureImage implements Provider.
func (f *Fixed) MeasureImage(data []byte) (int, int, error) {
	if f.cache == nil {
		w, h, _, err := ImageConfig(data)
		return w, h, err
	}
	return measureImageCached(f.cache, data)
}
