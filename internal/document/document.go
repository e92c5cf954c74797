// Package document receives uploaded files, extracts their text and makes
// sure nothing they were staged as outlives the request.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/openmobiletts/pkg/textextract"
)

var (
	ErrTooLarge   = errors.New("file too large")
	ErrNoText     = errors.New("document contains no readable text")
	ErrUnreadable = errors.New("document could not be read")
)

// Extractor pulls text out of a staged file.
type Extractor interface {
	ExtractFile(path string) (*textextract.ExtractedText, error)
	SupportedTypes() []string
}

type fileExtractor struct{}

func (fileExtractor) ExtractFile(path string) (*textextract.ExtractedText, error) {
	return textextract.ExtractFile(path)
}

func (fileExtractor) SupportedTypes() []string { return textextract.SupportedTypes() }

// Document is the text recovered from one upload.
type Document struct {
	Filename string
	Text     string
	Size     int64
	Pages    int
}

type Service struct {
	dir       string
	maxBytes  int64
	extractor Extractor
}

// NewService stages uploads under dir, creating it if needed.
func NewService(dir string, maxBytes int64) (*Service, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{dir: dir, maxBytes: maxBytes, extractor: fileExtractor{}}, nil
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Extract stages r in the upload directory under a random name, extracts
// its text and removes the staged file before returning, whatever the
// outcome. The format is taken from filename's extension.
func (s *Service) Extract(ctx context.Context, filename string, r io.Reader) (*Document, error) {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	if !textextract.IsSupported(ext) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", textextract.ErrUnsupportedFormat, ext, strings.Join(s.extractor.SupportedTypes(), ", "))
	}

	path := filepath.Join(s.dir, uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove staged upload", "path", path, "error", err)
		}
	}()

	n, err := io.Copy(f, io.LimitReader(&ctxReader{ctx: ctx, r: r}, s.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if n > s.maxBytes {
		return nil, ErrTooLarge
	}

	extracted, err := s.extractor.ExtractFile(path)
	if err != nil {
		if errors.Is(err, textextract.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if strings.TrimSpace(extracted.Content) == "" {
		return nil, ErrNoText
	}

	return &Document{
		Filename: base,
		Text:     extracted.Content,
		Size:     n,
		Pages:    extracted.Pages,
	}, nil
}

// ctxReader stops a copy once the request is gone.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
