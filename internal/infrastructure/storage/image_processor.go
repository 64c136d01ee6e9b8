package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	defaultMaxUploadSize = 8 * 1024 * 1024 // 8MB
	defaultMaxDimension  = 1920
	jpegQuality          = 88
)

// ImageProcessor validates uploaded vehicle photos and normalizes them to JPEG
type ImageProcessor struct {
	MaxSize      int64
	MaxDimension int
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{MaxSize: defaultMaxUploadSize, MaxDimension: defaultMaxDimension}
}

// ValidateImage rejects files over MaxSize and anything that is not jpeg/png/webp
func (p *ImageProcessor) ValidateImage(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image is empty")
	}
	if int64(len(data)) > p.MaxSize {
		return fmt.Errorf("image exceeds %dMB", p.MaxSize/(1024*1024))
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not an image: %w", err)
	}
	switch format {
	case "jpeg", "png", "webp":
		return nil
	default:
		return fmt.Errorf("image format %s not allowed (only jpeg/png/webp)", format)
	}
}

// Normalize fits the image into MaxDimension x MaxDimension and re-encodes it as JPEG
func (p *ImageProcessor) Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > p.MaxDimension || bounds.Dy() > p.MaxDimension {
		img = imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("cannot encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
