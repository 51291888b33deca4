package export

import "fmt"

// Dataset is a rectangular table ready for rendering. Each row holds one cell
// per header; short rows are padded with blanks.
type Dataset struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     [][]string
	// LabelColumns is the count of leading columns that hold row labels
	// (period number, time range) rather than content.
	LabelColumns int
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset has no headers")
	}
	for i, row := range d.Rows {
		if len(row) > len(d.Headers) {
			return fmt.Errorf("row %d has %d cells for %d headers", i+1, len(row), len(d.Headers))
		}
	}
	return nil
}

func (d Dataset) cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
