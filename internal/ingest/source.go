package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// TableSource yields one raw table. Fingerprint changes whenever the
// underlying data may have changed.
type TableSource interface {
	Name() string
	Open(ctx context.Context) (*Table, error)
	Fingerprint() (string, error)
}

// NewSource picks a URLSource for http(s) locations and a FileSource otherwise.
func NewSource(name, loc, sheet string, c HTTPClient) TableSource {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return &URLSource{Label: name, URL: loc, Sheet: sheet, Client: c}
	}
	return &FileSource{Label: name, Path: loc, Sheet: sheet}
}

type FileSource struct {
	Label string
	Path  string
	Sheet string
}

func (s *FileSource) Name() string { return s.Label }

func (s *FileSource) Open(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &SourceError{Table: s.Label, Cause: err}
	}
	defer f.Close()
	t, err := decode(s.Label, filepath.Ext(s.Path), f, s.Sheet)
	if err != nil {
		return nil, &SourceError{Table: s.Label, Cause: err}
	}
	return t, nil
}

func (s *FileSource) Fingerprint() (string, error) {
	fi, err := os.Stat(s.Path)
	if err != nil {
		return "", &SourceError{Table: s.Label, Cause: err}
	}
	return fmt.Sprintf("%s|%d|%d", s.Path, fi.Size(), fi.ModTime().UnixNano()), nil
}

type URLSource struct {
	Label  string
	URL    string
	Sheet  string
	Client HTTPClient
}

func (s *URLSource) Name() string { return s.Label }

func (s *URLSource) Open(ctx context.Context) (*Table, error) {
	b, err := GetWithRetry(ctx, s.Client, s.URL)
	if err != nil {
		return nil, &SourceError{Table: s.Label, Cause: err}
	}
	ext := ""
	if u, err := url.Parse(s.URL); err == nil {
		ext = path.Ext(u.Path)
	}
	t, err := decode(s.Label, ext, bytes.NewReader(b), s.Sheet)
	if err != nil {
		return nil, &SourceError{Table: s.Label, Cause: err}
	}
	return t, nil
}

// Remote content is not inspected; a reload drops cached datasets instead.
func (s *URLSource) Fingerprint() (string, error) { return s.URL, nil }

// StaticSource serves an in-memory table.
type StaticSource struct {
	T *Table
}

func (s StaticSource) Name() string { return s.T.Name }

func (s StaticSource) Open(context.Context) (*Table, error) { return s.T, nil }

func (s StaticSource) Fingerprint() (string, error) {
	return fmt.Sprintf("static|%s|%p", s.T.Name, s.T), nil
}

func decode(name, ext string, r io.Reader, sheet string) (*Table, error) {
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(name, r, sheet)
	default:
		return ReadCSV(name, r)
	}
}
