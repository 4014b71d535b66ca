package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a raw tabular input: a header and string cells, converted to typed
// columns by the pipeline.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	// ExcelDates accepts Excel serial day numbers in date columns.
	ExcelDates bool

	idx map[string]int
}

func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{Name: name, Header: header, Rows: rows, idx: map[string]int{}}
	for i, h := range header {
		k := normCol(h)
		if _, dup := t.idx[k]; !dup {
			t.idx[k] = i
		}
	}
	return t
}

func normCol(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Col looks up a column by name, ignoring case and surrounding spaces.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.idx[normCol(name)]
	return i, ok
}

// Cell tolerates short rows.
func (t *Table) Cell(row, col int) string {
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Empty reports a table without header or rows, e.g. a zero-byte file.
func (t *Table) Empty() bool { return len(t.Header) == 0 && len(t.Rows) == 0 }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func ReadCSV(name string, r io.Reader) (*Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	cr := csv.NewReader(bytes.NewReader(b))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv %s: %w", name, err)
	}
	if len(records) == 0 {
		return NewTable(name, nil, nil), nil
	}
	return NewTable(name, records[0], dropBlank(records[1:])), nil
}

// ReadXLSX reads the named sheet, or the first one when sheet is empty.
func ReadXLSX(name string, r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx %s: %w", name, err)
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	// raw values keep date cells as serials instead of display text
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx %s sheet %q: %w", name, sheet, err)
	}
	var t *Table
	if len(rows) == 0 {
		t = NewTable(name, nil, nil)
	} else {
		t = NewTable(name, rows[0], dropBlank(rows[1:]))
	}
	t.ExcelDates = true
	return t, nil
}

func dropBlank(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		if strings.TrimSpace(strings.Join(r, "")) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
