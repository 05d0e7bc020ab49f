// internal/csvutil/xlsx.go
package csvutil

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of an xlsx workbook into the same Table
// shape Parse produces, so marketplace xlsx exports flow through the same
// mapping and validation pipeline as CSV uploads.
func ParseXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Table{}, fmt.Errorf("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var lines [][]string
	for _, row := range rows {
		blank := true
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		lines = append(lines, row)
	}

	if len(lines) == 0 {
		return Table{Headers: []string{}, Rows: [][]string{}}, nil
	}

	return Table{Headers: lines[0], Rows: lines[1:]}, nil
}
