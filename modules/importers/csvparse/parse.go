package csvparse

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Row is one data line keyed by lower-cased header name. Values keep the
// casing and formatting of the source file.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

var ErrNoRows = errors.New("file contains no data rows")

// Rows converts a CSV buffer into row maps. The header row is lower-cased
// and trimmed; data rows are passed through untouched. A UTF-8 BOM is
// stripped if present.
func Rows(buf []byte) ([]Row, error) {
	buf = bytes.TrimPrefix(buf, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(buf))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoRows
		}
		return nil, errors.Wrap(err, "read csv header")
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []Row
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv row")
		}
		rows = append(rows, rowFrom(header, fields))
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// RowsXLSX converts the first sheet of an xlsx workbook into the same row
// maps Rows produces. Operators routinely upload Excel exports instead of
// CSV.
func RowsXLSX(buf []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	lines, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "read xlsx rows")
	}
	if len(lines) == 0 {
		return nil, ErrNoRows
	}

	header := lines[0]
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []Row
	for _, fields := range lines[1:] {
		rows = append(rows, rowFrom(header, fields))
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func rowFrom(header, fields []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if i < len(fields) {
			row[name] = fields[i]
		} else {
			row[name] = ""
		}
	}
	return row
}
