// Package extract pulls plain text out of text-bearing grievance documents.
package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FromFile returns the text content of the file at path, branching on the
// declared extension (with or without a leading dot). Extensions with no
// extraction path yield an empty string rather than an error; unreadable or
// corrupt files propagate their error to the caller.
func FromFile(path, ext string) (string, error) {
	switch normalizeExt(ext) {
	case "txt":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	case "pdf":
		text, err := fromPDF(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	case "docx":
		text, err := fromDocx(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	default:
		return "", nil
	}
}

// fromPDF concatenates per-page plain text with newline separators. Pages
// that yield nothing contribute nothing, not even a blank line.
func fromPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		if text = strings.TrimSpace(text); text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}
