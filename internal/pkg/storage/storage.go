package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Get for missing keys
var ErrObjectNotFound = errors.New("object not found")

// Storage stores delivery media under slash-separated keys.
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}

// S3Config holds connection settings for S3 compatible storage
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}
