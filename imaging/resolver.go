// Package imaging fits raw logo, cover and signature images into layout boxes.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/ByLCY/folio/measure"
)

// Default resolution assumptions.
const (
	DefaultDPI    = 96.0
	DefaultMaxDPI = 300.0
)

// ScaledImage is an image ready to be placed: its bytes are a baseline JPEG or an 8-bit
// PNG, which every PDF backend embeds, and its size is in millimeters.
type ScaledImage struct {
	Data        []byte  `json:"-"`
	Format      string  `json:"format"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	PixelWidth  int     `json:"pixelWidth"`
	PixelHeight int     `json:"pixelHeight"`
	Placeholder bool    `json:"placeholder"`
}

// Resolver scales images. The zero value is not usable; fill Measure at least.
type Resolver struct {
	Measure measure.Provider
	// DPI converts intrinsic pixels to millimeters.
	DPI float64
	// MaxDPI bounds the pixel density kept after placement; denser images are downsampled.
	MaxDPI float64
	// PlaceholderWidth/Height size the box drawn for undecodable images (mm).
	PlaceholderWidth  float64
	PlaceholderHeight float64
}

// Fit returns the scale that fits an iw×ih box into maxW×maxH without upscaling.
func Fit(iw, ih, maxW, maxH float64) float64 {
	if iw <= 0 || ih <= 0 {
		return 0
	}
	scale := 1.0
	if maxW > 0 {
		scale = math.Min(scale, maxW/iw)
	}
	if maxH > 0 {
		scale = math.Min(scale, maxH/ih)
	}
	return scale
}

// Resolve decodes raw and computes its placed size within maxW×maxH (mm).
// ok is false when raw is empty. When raw cannot be decoded, Resolve returns a
// placeholder together with the decode error so the caller can record a warning;
// the placeholder is always usable.
func (r Resolver) Resolve(raw []byte, maxW, maxH float64) (img ScaledImage, ok bool, err error) {
	if len(raw) == 0 {
		return ScaledImage{}, false, nil
	}
	pw, ph, format, cerr := measure.ImageConfig(raw)
	if cerr == nil && r.Measure != nil {
		pw, ph, cerr = r.Measure.MeasureImage(raw)
	}
	if cerr != nil {
		return r.Placeholder(maxW, maxH), true, cerr
	}

	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	iw := float64(pw) * 25.4 / dpi
	ih := float64(ph) * 25.4 / dpi
	scale := Fit(iw, ih, maxW, maxH)
	img = ScaledImage{
		Data:        raw,
		Format:      format,
		Width:       iw * scale,
		Height:      ih * scale,
		PixelWidth:  pw,
		PixelHeight: ph,
	}

	decoded, _, derr := image.Decode(bytes.NewReader(raw))
	if derr != nil {
		return r.Placeholder(maxW, maxH), true, fmt.Errorf("imaging: decode %s: %w", format, derr)
	}
	targetW, targetH := r.pixelBudget(img.Width, img.Height)
	resample := targetW < pw && targetH < ph
	if !resample && format == "jpeg" {
		return img, true, nil
	}
	if resample {
		decoded = Downsample(decoded, targetW, targetH)
	}
	data, eerr := encodePNG(decoded)
	if eerr != nil {
		return r.Placeholder(maxW, maxH), true, eerr
	}
	b := decoded.Bounds()
	img.Data = data
	img.Format = "png"
	img.PixelWidth = b.Dx()
	img.PixelHeight = b.Dy()
	return img, true, nil
}

// pixelBudget returns the pixel size of a w×h mm box at MaxDPI.
func (r Resolver) pixelBudget(w, h float64) (int, int) {
	maxDPI := r.MaxDPI
	if maxDPI <= 0 {
		maxDPI = DefaultMaxDPI
	}
	tw := int(math.Ceil(w / 25.4 * maxDPI))
	th := int(math.Ceil(h / 25.4 * maxDPI))
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// Placeholder is the box drawn in place of an undecodable image, fitted into maxW×maxH.
func (r Resolver) Placeholder(maxW, maxH float64) ScaledImage {
	w, h := r.PlaceholderWidth, r.PlaceholderHeight
	if w <= 0 {
		w = 30
	}
	if h <= 0 {
		h = 20
	}
	scale := Fit(w, h, maxW, maxH)
	return ScaledImage{Width: w * scale, Height: h * scale, Placeholder: true}
}

// Downsample resizes img to at most w×h pixels with Catmull-Rom filtering, keeping its aspect.
func Downsample(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	scale := Fit(float64(b.Dx()), float64(b.Dy()), float64(w), float64(h))
	if scale >= 1 {
		return img
	}
	dw := int(math.Max(1, math.Round(float64(b.Dx())*scale)))
	dh := int(math.Max(1, math.Round(float64(b.Dy())*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// encodePNG writes img as an 8-bit non-interlaced PNG, the variant every PDF backend embeds.
func encodePNG(img image.Image) ([]byte, error) {
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		b := img.Bounds()
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, nrgba); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
