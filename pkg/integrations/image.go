package integrations

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageSettings bounds the images stored in the library
type ImageSettings struct {
	MaxWidth  int    // Maximum image width
	MaxHeight int    // Maximum image height
	Quality   int    // JPEG quality (1-100)
	Format    string // Output format: "jpeg" or "png"
}

// DefaultCoverSettings keeps covers small enough for a grid card
func DefaultCoverSettings() ImageSettings {
	return ImageSettings{MaxWidth: 600, MaxHeight: 900, Quality: 82, Format: "jpeg"}
}

// DefaultPageSettings keeps pages readable on a desktop screen
func DefaultPageSettings() ImageSettings {
	return ImageSettings{MaxWidth: 1400, MaxHeight: 2400, Quality: 80, Format: "jpeg"}
}

// ProcessedImage is the re-encoded output of ImageProcessor
type ProcessedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// ImageProcessor downsizes and re-encodes images before they are stored
type ImageProcessor struct {
	settings ImageSettings
}

// NewImageProcessor creates a new image processor with the given settings
func NewImageProcessor(settings ImageSettings) *ImageProcessor {
	if settings.Quality <= 0 || settings.Quality > 100 {
		settings.Quality = 80
	}
	if settings.Format == "" {
		settings.Format = "jpeg"
	}
	return &ImageProcessor{settings: settings}
}

// Settings returns the settings the processor was built with
func (p *ImageProcessor) Settings() ImageSettings {
	return p.settings
}

// Process decodes, bounds and re-encodes an image
func (p *ImageProcessor) Process(input io.Reader) (ProcessedImage, error) {
	img, _, err := image.Decode(input)
	if err != nil {
		return ProcessedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	// Calculate new dimensions while maintaining aspect ratio
	newWidth, newHeight := p.calculateDimensions(origWidth, origHeight)

	var processed image.Image = img
	if newWidth != origWidth || newHeight != origHeight {
		processed = p.resize(img, newWidth, newHeight)
	}

	data, contentType, err := p.encode(processed)
	if err != nil {
		return ProcessedImage{}, err
	}
	return ProcessedImage{
		Data:        data,
		ContentType: contentType,
		Width:       newWidth,
		Height:      newHeight,
	}, nil
}

// ProcessBytes is a convenience method that works with byte slices
func (p *ImageProcessor) ProcessBytes(data []byte) (ProcessedImage, error) {
	return p.Process(bytes.NewReader(data))
}

// calculateDimensions calculates the new dimensions while maintaining aspect ratio
func (p *ImageProcessor) calculateDimensions(width, height int) (int, int) {
	maxW, maxH := p.settings.MaxWidth, p.settings.MaxHeight
	if maxW <= 0 {
		maxW = width
	}
	if maxH <= 0 {
		maxH = height
	}
	if width <= maxW && height <= maxH {
		return width, height
	}

	widthScale := float64(maxW) / float64(width)
	heightScale := float64(maxH) / float64(height)

	// Use the smaller scale to ensure image fits within bounds
	scale := widthScale
	if heightScale < widthScale {
		scale = heightScale
	}

	newWidth := max(int(float64(width)*scale), 1)
	newHeight := max(int(float64(height)*scale), 1)

	return newWidth, newHeight
}

// resize resizes an image using high-quality interpolation
func (p *ImageProcessor) resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// encode encodes the processed image to the configured format
func (p *ImageProcessor) encode(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer

	switch p.settings.Format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.settings.Quality}); err != nil {
			return nil, "", fmt.Errorf("failed to encode JPEG: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("failed to encode PNG: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", p.settings.Format)
	}
}
