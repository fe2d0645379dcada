package imaging

import (
	"bytes"
	"fmt"
	_ "image/gif"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ProcessedImage holds the web rendition and thumbnail of an uploaded photo
type ProcessedImage struct {
	Web         []byte
	Thumbnail   []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Config for image processing
type Config struct {
	MaxSide     int // longest side of the web rendition
	ThumbWidth  int
	ThumbHeight int
	Quality     int // JPEG quality 1-100
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxSide:     2048,
		ThumbWidth:  400,
		ThumbHeight: 400,
		Quality:     85,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Process decodes a photo (honouring EXIF orientation), fits it into the web
// bounds and cuts a center-cropped thumbnail. PNG stays PNG, everything else
// is re-encoded as JPEG.
func (p *Processor) Process(data []byte) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	format := imaging.JPEG
	result := &ProcessedImage{ContentType: "image/jpeg", Ext: ".jpg"}
	if isPNG(data) {
		format = imaging.PNG
		result.ContentType, result.Ext = "image/png", ".png"
	}

	web := img
	if b := img.Bounds(); b.Dx() > p.config.MaxSide || b.Dy() > p.config.MaxSide {
		web = imaging.Fit(img, p.config.MaxSide, p.config.MaxSide, imaging.Lanczos)
	}
	result.Width = web.Bounds().Dx()
	result.Height = web.Bounds().Dy()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, web, format, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode web rendition: %w", err)
	}
	result.Web = buf.Bytes()

	thumb := imaging.Fill(img, p.config.ThumbWidth, p.config.ThumbHeight, imaging.Center, imaging.Lanczos)
	var thumbBuf bytes.Buffer
	if err := imaging.Encode(&thumbBuf, thumb, format, imaging.JPEGQuality(p.config.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	result.Thumbnail = thumbBuf.Bytes()

	return result, nil
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func isPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic)
}
