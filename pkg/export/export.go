package export

import (
	"fmt"
	"strings"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// File is a rendered export ready to be streamed.
type File struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ParseFormat normalises user input into a supported format.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Exporter dispatches rendering to the CSV and PDF renderers.
type Exporter struct {
	csv *CSVExporter
	pdf *PDFExporter
}

// NewExporter wires the default renderers.
func NewExporter() *Exporter {
	return &Exporter{csv: NewCSVExporter(), pdf: NewPDFExporter()}
}

// Render encodes data in the requested format. basename is used without extension.
func (e *Exporter) Render(format Format, basename string, data Dataset) (*File, error) {
	switch format {
	case FormatCSV:
		body, err := e.csv.Render(data)
		if err != nil {
			return nil, err
		}
		return &File{Filename: basename + ".csv", ContentType: "text/csv", Body: body}, nil
	case FormatPDF:
		body, err := e.pdf.Render(data)
		if err != nil {
			return nil, err
		}
		return &File{Filename: basename + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
