package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type dropRow struct {
	mutation string
	values   []float64
}

// readDropTable parses the mutation x crop drop matrix.
// The first column holds the mutation name, the remaining columns are crops.
func readDropTable(r io.Reader) ([]string, []dropRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty drop table")
	}

	header := make([]string, 0, len(records[0])-1)
	for _, col := range records[0][1:] {
		header = append(header, strings.TrimSpace(col))
	}

	rows := make([]dropRow, 0, len(records)-1)
	for line, rec := range records[1:] {
		name := strings.TrimSpace(rec[0])
		if name == "" {
			continue
		}
		row := dropRow{mutation: name, values: make([]float64, len(header))}
		for i, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d column %q: %w", line+2, header[i], err)
			}
			if v < 0 {
				return nil, nil, fmt.Errorf("line %d column %q: negative drop %v", line+2, header[i], v)
			}
			row.values[i] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
