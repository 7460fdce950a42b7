// Package docsource turns uploaded documents (PDF or plain text) into the
// plain text the analyzer consumes.
package docsource

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// previewChars caps how much extracted text is shown back to the user.
const previewChars = 3000

// Extract reads a document file and returns its text content. PDFs go
// through content-stream extraction; everything else is read as UTF-8 text.
func Extract(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDF(path)
	}
	return extractText(path)
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "docsource: read %s", path)
	}
	if !utf8.Valid(data) {
		return "", eris.Errorf("docsource: %s is not valid UTF-8 text", path)
	}
	return string(data), nil
}

// Preview returns the first 3000 characters of text for display.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}
	return string(runes[:previewChars])
}
