package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	NoDataMessage = "No data found for selected range."
)

var ErrNoSheet = errors.New("spreadsheet: workbook has no sheets")

// Sheet is a single-sheet report. A sheet without rows is written as a
// lone NoDataMessage row and no header.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// File is a finished workbook ready to be sent as an attachment.
type File struct {
	Filename string
	Data     []byte
}

func Write(sheet Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	if len(sheet.Rows) == 0 {
		if err := sw.SetRow("A1", []any{NoDataMessage}); err != nil {
			return nil, err
		}
	} else {
		if err := writeTable(f, sw, sheet); err != nil {
			return nil, err
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sw *excelize.StreamWriter, sheet Sheet) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, max(len(sheet.Header), 1), 20); err != nil {
		return err
	}

	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: bold}); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	return nil
}

// ReadRecords reads the first sheet and keys every data row by the trimmed
// header row. Cells hold raw values, so dates arrive as serial numbers.
// Rows with no values are skipped.
func ReadRecords(r io.Reader) ([]map[string]any, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return []map[string]any{}, nil
	}

	header := rows[0]
	records := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(header))
		filled := false
		for i, cell := range row {
			if i >= len(header) || strings.TrimSpace(header[i]) == "" {
				continue
			}
			rec[strings.TrimSpace(header[i])] = cell
			if strings.TrimSpace(cell) != "" {
				filled = true
			}
		}
		if filled {
			records = append(records, rec)
		}
	}
	return records, nil
}

// SerialToTime converts a spreadsheet date serial to a UTC time.
func SerialToTime(serial float64) (time.Time, error) {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
