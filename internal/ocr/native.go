package ocr

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// NativePDF extracts text in-process with the ledongthuc/pdf reader.
// No external binary needed, but it only sees embedded text; scanned
// image PDFs come back empty.
type NativePDF struct{}

// NewNativePDF creates a NativePDF extractor.
func NewNativePDF() *NativePDF {
	return &NativePDF{}
}

// ExtractText reads every page's plain text in page order. Plain text
// files pass through unparsed.
func (n *NativePDF) ExtractText(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read %s", path)
	}
	if isPlainText(path) {
		return string(content), nil
	}

	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return "", eris.Wrapf(err, "ocr: open pdf %s", path)
	}

	var sb strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		if ctx.Err() != nil {
			return "", eris.Wrap(ctx.Err(), "ocr: extraction interrupted")
		}
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", eris.Wrapf(err, "ocr: page %d of %s", i, path)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
