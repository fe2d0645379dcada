package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// MediaKind separates photos from videos
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// AllowedMediaTypes maps accepted MIME types to their kind and file extension
var AllowedMediaTypes = map[string]struct {
	Kind MediaKind
	Ext  string
}{
	"image/jpeg":      {MediaPhoto, ".jpg"},
	"image/png":       {MediaPhoto, ".png"},
	"image/webp":      {MediaPhoto, ".webp"},
	"image/gif":       {MediaPhoto, ".gif"},
	"video/mp4":       {MediaVideo, ".mp4"},
	"video/quicktime": {MediaVideo, ".mov"},
	"video/webm":      {MediaVideo, ".webm"},
}

// Media is a validated upload held in memory
type Media struct {
	Data     []byte
	MimeType string
	Kind     MediaKind
	Ext      string
}

// ValidateMedia reads at most maxSize bytes and checks the sniffed MIME type
func ValidateMedia(reader io.Reader, maxSize int64) (*Media, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}

	mimeType := mimetype.Detect(data).String()
	allowed, ok := AllowedMediaTypes[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMimeType, mimeType)
	}

	return &Media{
		Data:     data,
		MimeType: mimeType,
		Kind:     allowed.Kind,
		Ext:      allowed.Ext,
	}, nil
}
