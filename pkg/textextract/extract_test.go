package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func makeDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<?xml version="1.0"?><Types/>`))
	w, err = zw.Create(docxBody)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractFileTXT(t *testing.T) {
	path := writeFile(t, "notes.TXT", []byte("Hello world.\nThis is a test.\n"))
	got, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if got.Content != "Hello world.\nThis is a test." {
		t.Errorf("Content = %q", got.Content)
	}
	if got.Metadata["type"] != "txt" {
		t.Errorf("type = %q", got.Metadata["type"])
	}
}

func TestExtractFileMarkdown(t *testing.T) {
	path := writeFile(t, "readme.md", []byte("# Title\n\nSome **bold** words.\n"))
	got, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if got.Content != "Title\n\nSome bold words." {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestExtractFileDOCX(t *testing.T) {
	body := `<w:p><w:r><w:t>First</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>   </w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>one &amp; more.</w:t></w:r></w:p>`
	path := writeFile(t, "doc.docx", makeDOCX(t, body))

	got, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	want := "First paragraph.\n\nSecond one & more."
	if got.Content != want {
		t.Errorf("Content = %q, want %q", got.Content, want)
	}
}

func TestExtractDOCXMissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.Create("other.xml")
	zw.Close()

	if _, err := Extract(bytes.NewReader(buf.Bytes()), int64(buf.Len()), ".docx"); err == nil {
		t.Fatal("expected error for DOCX without a document part")
	}
}

func TestExtractRejectsCorruptDOCX(t *testing.T) {
	data := []byte("definitely not a zip")
	if _, err := Extract(bytes.NewReader(data), int64(len(data)), "docx"); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "image.xyz", []byte("data"))
	_, err := ExtractFile(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if !strings.Contains(err.Error(), ".pdf") {
		t.Errorf("error should list supported formats: %v", err)
	}

	if _, err := Extract(bytes.NewReader(nil), 0, "image/png"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Extract(image/png) = %v", err)
	}
}

func TestInvalidUTF8IsReplaced(t *testing.T) {
	path := writeFile(t, "latin1.txt", []byte("caf\xe9 au lait"))
	got, err := ExtractFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "caf� au lait" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestMarkdownToPlain(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"headings and emphasis", "# Heading\n\n**Bold text** and *italic*.\n\n- List item\n", "Heading\n\nBold text and italic.\n\nList item"},
		{"links", "See [the docs](https://example.com) now.", "See the docs now."},
		{"inline code", "Run `make` first.", "Run make first."},
		{"underscores", "__strong__ and _soft_", "strong and soft"},
		{"numbered list", "1. One\n2. Two", "One\nTwo"},
		{"horizontal rule", "Above\n\n---\n\nBelow", "Above\n\nBelow"},
		{"blank runs", "A\n\n\n\n\nB   C", "A\n\nB C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MarkdownToPlain(tt.in); got != tt.want {
				t.Errorf("MarkdownToPlain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
