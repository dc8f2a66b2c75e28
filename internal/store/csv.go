package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV parses CSV text into a worksheet. The first record is the header.
// Short records are padded with empty cells.
func ReadCSV(name string, r io.Reader) (Worksheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Worksheet{}, fmt.Errorf("csv %q: missing header row", name)
	}
	if err != nil {
		return Worksheet{}, fmt.Errorf("csv %q: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	ws := Worksheet{Name: name, Columns: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Worksheet{}, fmt.Errorf("csv %q: %w", name, err)
		}
		if len(record) > len(header) {
			line, _ := cr.FieldPos(0)
			return Worksheet{}, fmt.Errorf("csv %q: line %d has %d fields, header has %d", name, line, len(record), len(header))
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		ws.Rows = append(ws.Rows, row)
	}
	return ws, nil
}

// ImportCSVFile loads a CSV file as a worksheet and returns its name. An
// empty name uses the file name without its extension, the way a CSV file
// is a workbook with a single worksheet named after the file.
func (s *Store) ImportCSVFile(ctx context.Context, path, name string) (string, error) {
	if name == "" {
		name = SheetNameFromPath(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	ws, err := ReadCSV(name, f)
	if err != nil {
		return "", err
	}
	ws.Source = path
	if err := s.PutWorksheet(ctx, ws); err != nil {
		return "", err
	}
	return name, nil
}

// SheetNameFromPath returns the base file name without its extension.
func SheetNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
