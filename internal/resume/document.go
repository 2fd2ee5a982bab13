package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedDocument is returned for documents other than PDF and plain text.
var ErrUnsupportedDocument = errors.New("unsupported resume document")

// SupportedExtensions lists the document types ReadText understands.
var SupportedExtensions = []string{".pdf", ".txt", ".md"}

// IsSupported reports whether the file extension is one of SupportedExtensions.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ReadText returns the plain text of a resume document.
func ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume %s: %w", path, err)
	}

	var text string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		if text, err = pdfText(data); err != nil {
			return "", fmt.Errorf("extract pdf text %s: %w", path, err)
		}
	case ".txt", ".md":
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, path)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("resume %s contains no text", path)
	}
	return text, nil
}

// plainPDF returns the text layer of a PDF document.
var plainPDF = func(data []byte) (io.Reader, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return reader.GetPlainText()
}

// pdfText converts a panic in the PDF reader into an error; some malformed documents
// trigger one.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	plain, err := plainPDF(data)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
