package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is tabular export content. Every row is aligned with Columns; short rows
// are padded with empty cells.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Cell returns row i, column j or "".
func (t Table) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// CSVExporter renders tables as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType is the MIME type of the output.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension is the file extension of the output.
func (e *CSVExporter) Extension() string { return "csv" }

// Render writes the header row followed by every data row.
func (e *CSVExporter) Render(t Table) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	line := make([]string, len(t.Columns))
	for i := range t.Rows {
		for j := range t.Columns {
			line[j] = t.Cell(i, j)
		}
		if err := writer.Write(line); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
