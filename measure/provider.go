// Package measure answers how large a piece of text or an image is once rendered.
//
// Every Provider is deterministic: the same input yields the same answer, which is what makes
// pagination reproducible. Providers are read-only and may be shared by concurrent generations.
package measure

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Provider measures text (size in pt, result in mm) and images (result in pixels).
type Provider interface {
	MeasureText(text string, font Font, size float64) (width, height float64, err error)
	MeasureImage(data []byte) (width, height int, err error)
}

// ImageConfig decodes only the header of data and returns its pixel size and format name.
func ImageConfig(data []byte) (width, height int, format string, err error) {
	if len(data) == 0 {
		return 0, 0, "", &UnmeasurableError{Reason: "empty image data"}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", &UnmeasurableError{Reason: "undecodable image", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, "", &UnmeasurableError{Reason: "image has no area"}
	}
	return cfg.Width, cfg.Height, format, nil
}
