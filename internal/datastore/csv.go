package datastore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads a table from CSV with a header row. Header names are
// trimmed; empty or repeated names get positional names.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := &Table{Fields: make([]Field, len(headers))}
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" || seen[name] || name == RowIDColumn {
			for n := i + 1; ; n++ {
				name = fmt.Sprintf("column_%d", n)
				if !seen[name] {
					break
				}
			}
		}
		seen[name] = true
		t.Fields[i] = Field{ID: name, Type: "text"}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		row := make([]string, len(headers))
		copy(row, record)
		t.Records = append(t.Records, row)
	}
	return t, nil
}
