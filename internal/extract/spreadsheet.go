package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const (
	cellSeparator  = " | "
	sheetSeparator = "\n\n"
)

// XLSXExtractor renders an Office Open XML workbook as text.
type XLSXExtractor struct{}

// Extract implements Extractor.
func (XLSXExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sheets []string
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = append(sheets, formatSheet(name, rows))
	}
	return strings.Join(sheets, sheetSeparator), nil
}

// XLSExtractor renders a legacy BIFF workbook as text.
type XLSExtractor struct{}

// Extract implements Extractor.
func (XLSExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}

	var sheets []string
	for i := 0; i < wb.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheetRow(sheet, r)
			if row == nil {
				continue
			}
			rows = append(rows, rowCells(row))
		}
		sheets = append(sheets, formatSheet(sheet.Name, rows))
	}
	return strings.Join(sheets, sheetSeparator), nil
}

// sheetRow returns row i, or nil when the sheet has no record for it.
// (*xls.WorkSheet).Row dereferences the missing row and panics.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// biffRow is the part of *xls.Row the renderer reads.
type biffRow interface {
	Col(i int) string
	LastCol() int
}

// rowCells reads a BIFF row from column A so that absent leading cells come
// out as empty strings, the way excelize pads xlsx rows. LastCol is one past
// the last cell.
func rowCells(row biffRow) []string {
	cells := make([]string, max(row.LastCol(), 0))
	for c := range cells {
		cells[c] = row.Col(c)
	}
	return cells
}

// formatSheet renders one sheet: a "Sheet: <name>" header line, then one
// line per non-blank row with cells joined by " | ".
func formatSheet(name string, rows [][]string) string {
	lines := []string{"Sheet: " + name}
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		lines = append(lines, strings.Join(row, cellSeparator))
	}
	return strings.Join(lines, "\n")
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
