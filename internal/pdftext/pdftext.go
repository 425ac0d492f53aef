// SPDX-License-Identifier: Apache-2.0

// Package pdftext extracts the text layer from clinical report PDFs. The
// parsing pipeline is agnostic to where text came from; this package only
// reports the extraction method alongside the text.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// Extraction is the flat text blob handed to the parser, plus provenance.
type Extraction struct {
	Text   string
	Method string // "text" for direct text-layer extraction
	Pages  int
}

// Extract reads a PDF and returns its text layer page by page. Pages that
// fail to extract are skipped; an encrypted document that cannot be opened
// with an empty password is an error.
func Extract(r io.Reader) (*Extraction, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to read PDF bytes: %w", err)
	}

	pdfReader, err := model.NewPdfReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	enc, err := pdfReader.IsEncrypted()
	if err != nil {
		return nil, fmt.Errorf("failed checking encryption: %w", err)
	}
	if enc {
		ok, err := pdfReader.Decrypt([]byte(""))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt PDF: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("PDF is password-protected and cannot be read")
		}
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return &Extraction{Text: sb.String(), Method: "text", Pages: numPages}, nil
}
