// Package spreadsheet decodes uploaded workbooks into raw question rows.
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"quiz-runner/internal/domain"
)

// DefaultMaxBytes caps uploads at 5 MiB.
const DefaultMaxBytes int64 = 5 << 20

const defaultSheet = "Sheet1"

// Options configures decoding.
type Options struct {
	// MaxBytes limits the accepted file size; zero means DefaultMaxBytes.
	MaxBytes int64
	// Filename, when set, must carry an .xlsx extension.
	Filename string
	// Sheet selects a sheet by name; empty means the first sheet.
	Sheet string
}

// Decode reads a workbook and returns the rows of the selected sheet.
// Every failure is a *domain.ParseFailure.
func Decode(r io.Reader, opts Options) ([]domain.RawRow, error) {
	if opts.Filename != "" && !strings.EqualFold(filepath.Ext(opts.Filename), ".xlsx") {
		return nil, domain.NewParseFailure(domain.FailureUnsupportedType, fmt.Errorf("file %q is not .xlsx", opts.Filename))
	}

	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, domain.NewParseFailure(domain.FailureUnreadable, err)
	}
	if int64(len(data)) > limit {
		return nil, domain.NewParseFailure(domain.FailureTooLarge, fmt.Errorf("file exceeds %d bytes", limit))
	}
	if len(data) == 0 {
		return nil, domain.NewParseFailure(domain.FailureNotSpreadsheet, fmt.Errorf("file is empty"))
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewParseFailure(domain.FailureNotSpreadsheet, err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, domain.NewParseFailure(domain.FailureNoSheets, nil)
	}
	sheetName := sheetList[0]
	if opts.Sheet != "" {
		idx, err := f.GetSheetIndex(opts.Sheet)
		if err != nil || idx < 0 {
			return nil, domain.NewParseFailure(domain.FailureNoSheets, fmt.Errorf("sheet %q not found", opts.Sheet))
		}
		sheetName = opts.Sheet
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, domain.NewParseFailure(domain.FailureUnreadable, err)
	}

	result := make([]domain.RawRow, 0, len(rows))
	hasData := false
	for _, row := range rows {
		raw := make(domain.RawRow, len(row))
		for i, cell := range row {
			raw[i] = cell
			if strings.TrimSpace(cell) != "" {
				hasData = true
			}
		}
		result = append(result, raw)
	}
	if !hasData {
		return nil, domain.NewParseFailure(domain.FailureEmptySheet, fmt.Errorf("sheet %q has no data", sheetName))
	}
	return result, nil
}

// Encode writes rows into a single-sheet workbook.
func Encode(rows []domain.RawRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(defaultSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ColumnIndex converts a column name such as "A" or "AB" into a 0-based index.
func ColumnIndex(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}
