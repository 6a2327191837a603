package infra

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// decodable lists the MIME types imaging can read.
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// IsDecodableImage reports whether mimeType can be processed by imaging.
func IsDecodableImage(mimeType string) bool { return decodable[mimeType] }

// PrepareImage shrinks an image so its longest side is at most maxDim and
// re-encodes it as JPEG. Other inputs, and maxDim <= 0, pass through untouched.
func PrepareImage(data []byte, mimeType string, maxDim int) ([]byte, string, error) {
	if maxDim <= 0 || !IsDecodableImage(mimeType) {
		return data, mimeType, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return data, mimeType, nil
	}
	img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// WriteThumbnail renders a JPEG thumbnail of src, width px wide, at dst.
func WriteThumbnail(src, dst string, width int) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return imaging.Save(thumb, dst, imaging.JPEGQuality(80))
}
