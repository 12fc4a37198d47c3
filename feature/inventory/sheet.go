package inventory

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a parsed sheet: the header row plus the data rows beneath
// it, cells typed as string, float64 or nil.
type Table struct {
	Name    string
	Headers []string
	Rows    []map[string]any
}

// ErrUnsupportedFormat is returned for uploads that are not Excel
// workbooks or CSV.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ParseUpload decodes an uploaded spreadsheet by extension. Excel
// workbooks use their first sheet; CSV is read as a single table.
func ParseUpload(fileName string, data []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xls":
		return parseWorkbook(data)
	case ".csv":
		return parseCSV(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseWorkbook(data []byte) (*Table, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return tableFromRows(sheets[0], rows)
}

func parseCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return tableFromRows("csv", records)
}

func tableFromRows(name string, raw [][]string) (*Table, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}
	headers := make([]string, 0, len(raw[0]))
	for i, h := range raw[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers = append(headers, h)
	}

	rows := make([]map[string]any, 0, len(raw)-1)
	for _, rec := range raw[1:] {
		fields := make(map[string]any, len(headers))
		empty := true
		for i, h := range headers {
			if i >= len(rec) {
				continue
			}
			v := cellValue(rec[i])
			if v == nil {
				continue
			}
			fields[h] = v
			empty = false
		}
		if empty {
			continue
		}
		rows = append(rows, fields)
	}
	return &Table{Name: name, Headers: headers, Rows: rows}, nil
}

// cellValue types a raw cell the way spreadsheet clients expect:
// blank cells disappear, numeric text becomes a number.
func cellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// cellString renders a typed cell back to text for key matching and
// search.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
