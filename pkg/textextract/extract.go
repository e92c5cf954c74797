package textextract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file types with no extractor.
var ErrUnsupportedFormat = errors.New("unsupported file format")

type ExtractedText struct {
	Content  string
	Pages    int
	Metadata map[string]string
}

// Extract reads text from data according to fileType, which may be an
// extension (".pdf"), a bare extension ("pdf") or a MIME type.
func Extract(data io.ReaderAt, size int64, fileType string) (*ExtractedText, error) {
	switch strings.ToLower(fileType) {
	case ".pdf", "pdf", "application/pdf":
		return extractPDF(data, size)
	case ".docx", "docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return extractDOCX(data, size)
	case ".txt", "txt", "text/plain":
		return extractTXT(data, size)
	case ".md", "md", "text/markdown":
		return extractMarkdown(data, size)
	default:
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, fileType, strings.Join(SupportedTypes(), ", "))
	}
}

// ExtractFile extracts text from the file at path, choosing the format by
// extension.
func ExtractFile(path string) (*ExtractedText, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupported(ext) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedTypes(), ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	return Extract(f, info.Size(), ext)
}

func SupportedTypes() []string {
	return []string{".pdf", ".docx", ".txt", ".md"}
}

// IsSupported reports whether ext (with leading dot) has an extractor.
func IsSupported(ext string) bool {
	for _, t := range SupportedTypes() {
		if strings.EqualFold(t, ext) {
			return true
		}
	}
	return false
}

func extractPDF(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return &ExtractedText{
		Content: MarkdownToPlain(buf.String()),
		Pages:   numPages,
		Metadata: map[string]string{
			"type": "pdf",
		},
	}, nil
}

func extractTXT(data io.ReaderAt, size int64) (*ExtractedText, error) {
	text, err := readAll(data, size)
	if err != nil {
		return nil, fmt.Errorf("read TXT: %w", err)
	}

	return &ExtractedText{
		Content: text,
		Pages:   1,
		Metadata: map[string]string{
			"type": "txt",
		},
	}, nil
}

func extractMarkdown(data io.ReaderAt, size int64) (*ExtractedText, error) {
	text, err := readAll(data, size)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	return &ExtractedText{
		Content: MarkdownToPlain(text),
		Pages:   1,
		Metadata: map[string]string{
			"type": "md",
		},
	}, nil
}

// readAll returns the content as UTF-8, replacing invalid sequences.
func readAll(data io.ReaderAt, size int64) (string, error) {
	b, err := io.ReadAll(io.NewSectionReader(data, 0, size))
	if err != nil {
		return "", err
	}
	s := string(b)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.TrimSpace(s), nil
}
