// Package pdftext extracts plain text from uploaded PDF files
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is the message used when a PDF yields no extractable text
const ErrNoText = "no text content found in PDF"

// Extract returns the concatenated text of every page in the PDF. Pages are
// separated by blank lines; scanned or image-only documents produce an error
// rather than an empty string.
func Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n\n")
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%s", ErrNoText)
	}
	return out, nil
}
