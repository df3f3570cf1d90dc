package storage

import (
	"errors"
	"io"
)

var ErrBadKey = errors.New("invalid blob key")

// BlobStore keeps exported report files.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	URL(key string) (string, error)
}
