// Package ingest converts uploaded Statement of Facts documents into the
// plain text the extraction pipeline consumes.
package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Supported reports whether the filename has an extension the pipeline
// accepts.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

// Text extracts the document text from the file at path. Plain-text files
// are read directly; PDFs are validated and their text layer extracted.
// An empty result is an error: the pipeline has nothing to work with.
func Text(path string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("document not found: %s", path)
	}

	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		text, err = readPlain(path)
	case ".pdf":
		text, err = readPDF(path, logger)
	default:
		return "", fmt.Errorf("unsupported document type %q (want .txt, .md, or .pdf)", ext)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}
	return text, nil
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

// readPDF validates the file structure before pulling the text layer. A scan
// with no text layer yields an empty string and is rejected by the caller.
func readPDF(path string, logger *slog.Logger) (string, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return "", fmt.Errorf("invalid PDF: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	logger.Debug("reading PDF", "file", filepath.Base(path), "pages", pageCount)

	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return b.String(), nil
}
