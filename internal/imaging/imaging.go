// Package imaging decodes browser-captured frames into gray images.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"strings"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultMaxPixels bounds the frame size accepted by Decode.
const DefaultMaxPixels = 4096 * 4096

var (
	// ErrInvalidDataURL is returned when a payload is not a base64 data URL.
	ErrInvalidDataURL = errors.New("invalid data URL")

	// ErrEmptyImage is returned for zero-length image data.
	ErrEmptyImage = errors.New("empty image data")

	// ErrImageTooLarge is returned when a frame exceeds the pixel limit.
	ErrImageTooLarge = errors.New("image too large")
)

// ParseDataURL splits a "data:<mime>;base64,<payload>" string and decodes
// the payload. The MIME type is returned as given (it may be empty). Only
// the text between the first and second comma is decoded: a bare
// "prefix,payload" string is accepted and anything after a second comma
// is ignored.
func ParseDataURL(s string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing ',' separator", ErrInvalidDataURL)
	}
	payload, _, _ = strings.Cut(payload, ",")

	mime := ""
	if rest, found := strings.CutPrefix(header, "data:"); found {
		mime, _, _ = strings.Cut(rest, ";")
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return "", nil, ErrEmptyImage
	}
	return mime, data, nil
}

// decodeBase64 accepts standard base64 with or without padding, ignoring
// embedded whitespace.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// Decode decodes a JPEG, PNG, GIF, WebP or BMP frame. Frames with more than
// maxPixels pixels are rejected before the pixel data is decoded; a
// non-positive maxPixels disables the check.
func Decode(data []byte, maxPixels int) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("reading image header: %w", err)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s image: %w", format, err)
	}
	return img, format, nil
}

// Grayscale converts img to an 8-bit gray image anchored at the origin,
// using luma weights 0.299 R + 0.587 G + 0.114 B.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
