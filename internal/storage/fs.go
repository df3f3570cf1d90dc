package storage

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes blobs below a base directory.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./reportes"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	return &FSStore{base: abs}, nil
}

// resolve keeps every key inside the base directory.
func (s *FSStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", ErrBadKey
	}
	dst := filepath.Join(s.base, clean)
	if !strings.HasPrefix(dst, s.base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return dst, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	rel, _ := filepath.Rel(s.base, dst)
	return filepath.ToSlash(rel), nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(dst)
}

func (s *FSStore) URL(key string) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}
	return u.String(), nil
}
