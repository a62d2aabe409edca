package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet describes one worksheet of an export workbook.
type Sheet struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// ExcelExporter renders multi-sheet XLSX workbooks with styled headers.
type ExcelExporter struct{}

// NewExcelExporter constructs an Excel exporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Render builds a workbook from the provided sheets.
func (e *ExcelExporter) Render(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook requires at least one sheet")
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range sheets {
		name := sheet.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet %q: %w", name, err)
			}
		}

		for col, header := range sheet.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, fmt.Errorf("header cell: %w", err)
			}
			if err := f.SetCellStr(name, cell, header); err != nil {
				return nil, fmt.Errorf("set header %s: %w", cell, err)
			}
		}
		if len(sheet.Headers) > 0 {
			end, _ := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
			_ = f.SetCellStyle(name, "A1", end, bold)
			_ = f.AutoFilter(name, "A1:"+end, nil)
		}

		for r, row := range sheet.Rows {
			for c, val := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+2)
				if err != nil {
					return nil, fmt.Errorf("row cell: %w", err)
				}
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}

		e.fitColumns(f, name, sheet)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// fitColumns applies a heuristic width from header and the first rows.
func (e *ExcelExporter) fitColumns(f *excelize.File, name string, sheet Sheet) {
	sample := len(sheet.Rows)
	if sample > 50 {
		sample = 50
	}
	for c := range sheet.Headers {
		width := len(sheet.Headers[c])
		for r := 0; r < sample; r++ {
			if c < len(sheet.Rows[r]) && len(sheet.Rows[r][c]) > width {
				width = len(sheet.Rows[r][c])
			}
		}
		w := float64(width) * 0.9
		if w < 12 {
			w = 12
		}
		if w > 40 {
			w = 40
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			continue
		}
		_ = f.SetColWidth(name, col, col, w)
	}
}
