// Package export writes the merged provider tables to an xlsx workbook, one
// worksheet per provider. Sheets are written through excelize's stream
// writer so memory stays bounded by one row, not one sheet.
package export

import (
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"cloudreport/internal/errs"
	"cloudreport/internal/table"
)

const (
	headerFillColor = "D3D3D3"
	maxColumnWidth  = 60.0
	widthPadding    = 2.0
	// Column widths are fitted against a sample of leading rows; scanning
	// every row of a large report gains nothing visible.
	widthSampleRows = 1000
)

// Workbook is the output artifact under construction. Nothing touches disk
// until Save.
type Workbook struct {
	file        *excelize.File
	headerStyle int
	sheets      int
}

// NewWorkbook creates an empty workbook with the header style registered.
func NewWorkbook() (*Workbook, error) {
	file := excelize.NewFile()
	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		_ = file.Close()
		return nil, errs.Newf(errs.CodeExportFailed, "creating header style failed: %v", err)
	}
	return &Workbook{file: file, headerStyle: style}, nil
}

// WriteSheet writes one provider's table as a worksheet named after the
// provider: styled header row, then data rows in accumulation order.
func (w *Workbook) WriteSheet(provider string, t *table.Table) error {
	if err := w.addSheet(provider); err != nil {
		return err
	}

	sw, err := w.file.NewStreamWriter(provider)
	if err != nil {
		return errs.Newf(errs.CodeExportFailed, "sheet %s: creating worksheet writer failed: %v", provider, err)
	}

	columns := t.Columns()
	// Stream writers require widths to be set before the first row.
	for i, width := range fitWidths(t) {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return errs.Newf(errs.CodeExportFailed, "sheet %s: setting width of column %d failed: %v", provider, i+1, err)
		}
	}

	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = excelize.Cell{StyleID: w.headerStyle, Value: column}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return errs.Newf(errs.CodeExportFailed, "sheet %s: writing header row failed: %v", provider, err)
	}

	for i := 0; i < t.Len(); i++ {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errs.Newf(errs.CodeExportFailed, "sheet %s: resolving reference for row %d failed: %v", provider, i+2, err)
		}
		if err := sw.SetRow(ref, t.Row(i)); err != nil {
			return errs.Newf(errs.CodeExportFailed, "sheet %s: writing row %d failed: %v", provider, i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return errs.Newf(errs.CodeExportFailed, "sheet %s: flushing worksheet failed: %v", provider, err)
	}
	return nil
}

// addSheet renames the implicit default sheet for the first provider and
// creates new sheets after that.
func (w *Workbook) addSheet(provider string) error {
	if w.sheets == 0 {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), provider); err != nil {
			return errs.Newf(errs.CodeExportFailed, "sheet %s: naming worksheet failed: %v", provider, err)
		}
	} else {
		if _, err := w.file.NewSheet(provider); err != nil {
			return errs.Newf(errs.CodeExportFailed, "sheet %s: creating worksheet failed: %v", provider, err)
		}
	}
	w.sheets++
	return nil
}

// Save writes the workbook to path. On failure any partial file is removed;
// a half-written workbook is worse than none.
func (w *Workbook) Save(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		_ = os.Remove(path)
		return errs.Newf(errs.CodeExportFailed, "saving workbook to %s failed: %v", path, err)
	}
	return nil
}

// Close releases the in-memory workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// fitWidths sizes each column to the longest of its header and its values
// over the leading sample rows, padded and capped.
func fitWidths(t *table.Table) []float64 {
	columns := t.Columns()
	widths := make([]float64, len(columns))
	for i, column := range columns {
		widths[i] = float64(len(column))
	}

	sample := t.Len()
	if sample > widthSampleRows {
		sample = widthSampleRows
	}
	for r := 0; r < sample; r++ {
		for i, cell := range t.Row(r) {
			if length := float64(len(cellString(cell))); length > widths[i] {
				widths[i] = length
			}
		}
	}

	for i := range widths {
		widths[i] += widthPadding
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}
	return widths
}

func cellString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return ""
	}
}
