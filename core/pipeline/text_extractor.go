package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/siherrmann/docgraph/model"
	"github.com/xuri/excelize/v2"
)

var pdfMagic = []byte("%PDF-")

// ExtractorRegistry dispatches to a TextExtractor by file extension.
// Documents without a known extension are sniffed for the PDF magic bytes.
type ExtractorRegistry struct {
	extractors map[string]TextExtractor
}

// NewExtractorRegistry returns a registry with PDF, XLSX and plain text support.
func NewExtractorRegistry() *ExtractorRegistry {
	r := &ExtractorRegistry{extractors: map[string]TextExtractor{}}

	plain := PlainTextExtractor{}
	r.Register(PDFExtractor{}, "pdf")
	r.Register(XLSXExtractor{}, "xlsx", "xlsm")
	r.Register(plain, "txt", "md", "markdown", "text")

	return r
}

// Register adds the extractor for the given extensions, replacing any earlier one.
func (r *ExtractorRegistry) Register(extractor TextExtractor, extensions ...string) {
	for _, ext := range extensions {
		r.extractors[strings.ToLower(strings.TrimPrefix(ext, "."))] = extractor
	}
}

// Supports reports whether a document with this name may be extractable.
// Names without extension are supported since their content is sniffed.
func (r *ExtractorRegistry) Supports(name string) bool {
	ext := model.Extension(name)
	if ext == "" {
		return true
	}
	_, ok := r.extractors[ext]
	return ok
}

// Extract implements TextExtractor.
func (r *ExtractorRegistry) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if extractor, ok := r.extractors[model.Extension(name)]; ok {
		return extractor.Extract(ctx, name, data)
	}

	if bytes.HasPrefix(data, pdfMagic) {
		if extractor, ok := r.extractors["pdf"]; ok {
			return extractor.Extract(ctx, name, data)
		}
	}

	return "", fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, name)
}

// PDFExtractor extracts the plain text of all pages of a PDF.
type PDFExtractor struct{}

// Extract implements TextExtractor.
func (PDFExtractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", fmt.Errorf("%w: %q is not a PDF", model.ErrUnsupportedFormat, name)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: reading PDF %q: %v", model.ErrUnsupportedFormat, name, err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d of %q: %v", model.ErrCapabilityUnavailable, i, name, err)
		}

		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(pageText)
	}

	return text.String(), nil
}

// XLSXExtractor extracts every sheet of a workbook as pipe separated rows.
type XLSXExtractor struct{}

// Extract implements TextExtractor.
func (XLSXExtractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: opening XLSX %q: %v", model.ErrUnsupportedFormat, name, err)
	}
	defer f.Close()

	var text strings.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		text.WriteString(sheet + "\n")
		for _, row := range rows {
			text.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
	}

	return text.String(), nil
}

// PlainTextExtractor passes UTF-8 text through unchanged.
type PlainTextExtractor struct{}

// Extract implements TextExtractor.
func (PlainTextExtractor) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8 text", model.ErrUnsupportedFormat, name)
	}
	return string(data), nil
}
