package measure

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/unicode/norm"
)

// CoreMetrics measures text with the metrics of the PDF standard fonts
// (Helvetica, Times, Courier and their bold/italic faces) as shipped by fpdf.
// No font files are involved, so results are identical on every machine.
type CoreMetrics struct {
	mu    sync.Mutex
	pdf   *fpdf.Fpdf
	tr    func(string) string
	cache *Cache
}

var _ Provider = (*CoreMetrics)(nil)

// NewCoreMetrics returns a provider backed by the standard font metrics.
func NewCoreMetrics() *CoreMetrics {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &CoreMetrics{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		cache: NewCache(),
	}
}

// Encode converts text to the single-byte encoding the standard fonts are drawn with.
// Renderers must pass text through the same conversion so drawn widths match measured ones.
// Characters outside the encoding become Placeholder.
func (m *CoreMetrics) Encode(text string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	enc, _ := m.encode(text)
	return enc
}

// encode needs m.mu: the fpdf translator reuses one buffer.
func (m *CoreMetrics) encode(text string) (string, []rune) {
	text = norm.NFC.String(text)
	raw := []byte(m.tr(text))
	var missing []rune
	i := 0
	for _, r := range text {
		// 翻译器对编码外的字符输出 '.'，一字符一字节
		if r >= 0x80 && raw[i] == '.' {
			raw[i] = Placeholder
			if !containsRune(missing, r) {
				missing = append(missing, r)
			}
		}
		i++
	}
	return string(raw), missing
}

func containsRune(rs []rune, r rune) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

// MeasureText implements Provider. Text with characters the standard fonts cannot
// encode is reported as unmeasurable, naming the characters in Missing.
func (m *CoreMetrics) MeasureText(text string, font Font, size float64) (float64, float64, error) {
	family, style, ok := CoreFont(font)
	if !ok {
		return 0, 0, &UnmeasurableError{Font: font, Reason: "unknown font family"}
	}
	if size <= 0 {
		return 0, 0, &UnmeasurableError{Font: font, Reason: fmt.Sprintf("invalid size %g", size)}
	}
	height := size * PtToMm
	key := textKey{text: text, font: font, size: size}
	if w, ok := m.cache.textWidth(key); ok {
		return w, height, nil
	}

	m.mu.Lock()
	enc, missing := m.encode(text)
	if len(missing) > 0 {
		m.mu.Unlock()
		return 0, 0, &UnmeasurableError{Font: font, Reason: fmt.Sprintf("no glyph for %q", string(missing)), Missing: missing}
	}
	m.pdf.SetFont(family, style, size)
	w := m.pdf.GetStringWidth(enc)
	err := m.pdf.Error()
	m.mu.Unlock()
	if err != nil {
		return 0, 0, &UnmeasurableError{Font: font, Reason: "metrics unavailable", Err: err}
	}
	m.cache.storeText(key, w)
	return w, height, nil
}

// MeasureImage implements Provider.
func (m *CoreMetrics) MeasureImage(data []byte) (int, int, error) {
	return measureImageCached(m.cache, data)
}

func measureImageCached(c *Cache, data []byte) (int, int, error) {
	sum := sha256.Sum256(data)
	if s, ok := c.imageSize(sum); ok {
		return s.w, s.h, nil
	}
	w, h, _, err := ImageConfig(data)
	if err != nil {
		return 0, 0, err
	}
	c.storeImage(sum, imageSize{w: w, h: h})
	return w, h, nil
}
