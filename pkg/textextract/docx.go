package textextract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// extractDOCX returns the non-empty paragraphs of the main document part
// separated by blank lines.
func extractDOCX(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open DOCX: %w", err)
	}

	var part *zip.File
	for _, f := range reader.File {
		if f.Name == docxBody {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("open DOCX: %s not found", docxBody)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", docxBody, err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", docxBody, err)
	}

	return &ExtractedText{
		Content: strings.Join(paragraphs, "\n\n"),
		Pages:   1,
		Metadata: map[string]string{
			"type": "docx",
		},
	}, nil
}

// docxParagraphs walks WordprocessingML, collecting w:t runs per w:p.
// w:tab becomes a space and w:br a newline.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		cur        strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte(' ')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(cur.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return paragraphs, nil
}
