package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/mvaldenegro/auv-perception/internal/geometry"
)

// CropWindow extracts window r from img and, when size is non-zero and
// differs from the window's extent, resizes it to size with bilinear
// interpolation.
//
// The window must lie entirely within img's bounds.
func CropWindow(img *image.Gray, r geometry.Rectangle, size image.Point) (*image.Gray, error) {
	bounds := img.Bounds()
	region := r.Bounds().Add(bounds.Min)

	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region: %v has no extent", r)
	}

	if size == (image.Point{}) || size == region.Size() {
		return ToGray(img.SubImage(region)), nil
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", size.X, size.Y)
	}

	cropped := imaging.Crop(img, region)
	resized := imaging.Resize(cropped, size.X, size.Y, imaging.Linear)
	return ToGray(resized), nil
}

// EncodedImage contains a PNG-encoded image.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Save writes img to path. The format is chosen from the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
