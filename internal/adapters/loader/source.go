package loader

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Source is an uploaded or local file. Name is only used to pick a parser
// from its extension.
type Source interface {
	Name() string
	Read() ([]byte, error)
}

// FileSource reads a file from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) Read() ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return b, nil
}

// BytesSource serves an in-memory buffer.
type BytesSource struct {
	Filename string
	Data     []byte
}

func (s BytesSource) Name() string { return s.Filename }

func (s BytesSource) Read() ([]byte, error) { return s.Data, nil }

// MultipartSource reads a file part of an HTTP multipart form, refusing
// bodies larger than MaxBytes when MaxBytes > 0.
type MultipartSource struct {
	Header   *multipart.FileHeader
	MaxBytes int64
}

func (s MultipartSource) Name() string {
	if s.Header == nil {
		return ""
	}
	return s.Header.Filename
}

func (s MultipartSource) Read() ([]byte, error) {
	if s.Header == nil {
		return nil, fmt.Errorf("%w: no file part", ErrUnreadable)
	}
	if s.MaxBytes > 0 && s.Header.Size > s.MaxBytes {
		return nil, ErrTooLarge
	}
	f, err := s.Header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := io.Reader(f)
	if s.MaxBytes > 0 {
		r = io.LimitReader(f, s.MaxBytes+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if s.MaxBytes > 0 && int64(len(b)) > s.MaxBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}
