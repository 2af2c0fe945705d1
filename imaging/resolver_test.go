package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/ByLCY/folio/measure"
)

func sample(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func newResolver() Resolver {
	return Resolver{Measure: measure.NewCoreMetrics(), DPI: 96, MaxDPI: 300, PlaceholderWidth: 30, PlaceholderHeight: 15}
}

func TestResolveNeverUpscales(t *testing.T) {
	r := newResolver()
	raw := encode(t, sample(96, 48)) // 25.4mm × 12.7mm at 96 dpi
	img, ok, err := r.Resolve(raw, 200, 200)
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	if math.Abs(img.Width-25.4) > 1e-9 || math.Abs(img.Height-12.7) > 1e-9 {
		t.Fatalf("image upscaled or resized: %gx%g", img.Width, img.Height)
	}
}

func TestResolveFitsBoxAndKeepsAspect(t *testing.T) {
	r := newResolver()
	cases := []struct {
		w, h       int
		maxW, maxH float64
	}{
		{400, 100, 50, 50},
		{100, 400, 50, 30},
		{300, 300, 10, 40},
		{1000, 10, 80, 1},
	}
	for _, c := range cases {
		img, ok, err := r.Resolve(encode(t, sample(c.w, c.h)), c.maxW, c.maxH)
		if err != nil || !ok {
			t.Fatalf("resolve %dx%d: ok=%v err=%v", c.w, c.h, ok, err)
		}
		iw := float64(c.w) * 25.4 / 96
		ih := float64(c.h) * 25.4 / 96
		if img.Width > math.Min(c.maxW, iw)+1e-9 || img.Height > math.Min(c.maxH, ih)+1e-9 {
			t.Fatalf("%dx%d in %gx%g: got %gx%g", c.w, c.h, c.maxW, c.maxH, img.Width, img.Height)
		}
		want := float64(c.w) / float64(c.h)
		if got := img.Width / img.Height; math.Abs(got-want)/want > 1e-9 {
			t.Fatalf("aspect ratio changed: got %g want %g", got, want)
		}
	}
}

func TestResolveCorruptReturnsPlaceholder(t *testing.T) {
	r := newResolver()
	img, ok, err := r.Resolve([]byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}, 20, 20)
	if !ok {
		t.Fatalf("placeholder must be usable")
	}
	if err == nil {
		t.Fatalf("expected decode error to be reported")
	}
	if !errors.Is(err, measure.ErrUnmeasurable) {
		t.Fatalf("expected ErrUnmeasurable, got %v", err)
	}
	if !img.Placeholder || img.Data != nil {
		t.Fatalf("expected placeholder, got %+v", img)
	}
	if img.Width > 20 || img.Height > 20 {
		t.Fatalf("placeholder exceeds box: %gx%g", img.Width, img.Height)
	}
	if math.Abs(img.Width/img.Height-2) > 1e-9 {
		t.Fatalf("placeholder aspect changed")
	}
}

func TestResolveEmptyIsAbsent(t *testing.T) {
	_, ok, err := newResolver().Resolve(nil, 10, 10)
	if ok || err != nil {
		t.Fatalf("empty input: ok=%v err=%v", ok, err)
	}
}

func TestResolveReencodesBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, sample(20, 10)); err != nil {
		t.Fatalf("bmp encode: %v", err)
	}
	img, ok, err := newResolver().Resolve(buf.Bytes(), 100, 100)
	if err != nil || !ok {
		t.Fatalf("resolve bmp: ok=%v err=%v", ok, err)
	}
	if img.Format != "png" {
		t.Fatalf("bmp should be re-encoded as png, got %s", img.Format)
	}
	if _, _, err := image.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Fatalf("re-encoded data does not decode: %v", err)
	}
}

func TestResolveDownsamplesDenseImages(t *testing.T) {
	r := newResolver()
	// 2000px squeezed into 10mm is far denser than 300 dpi.
	img, _, err := r.Resolve(encode(t, sample(2000, 1000)), 10, 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	maxPx := int(math.Ceil(10 / 25.4 * 300))
	if img.PixelWidth > maxPx {
		t.Fatalf("expected downsampling to <= %dpx, got %d", maxPx, img.PixelWidth)
	}
	if math.Abs(img.Width-10) > 1e-9 || math.Abs(img.Height-5) > 1e-9 {
		t.Fatalf("placed size changed by downsampling: %gx%g", img.Width, img.Height)
	}
}
