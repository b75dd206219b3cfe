package excel

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"qcgen/internal/errors"
)

// Column headers shared by both export formats
const (
	HeaderDay   = "Day"
	HeaderValue = "QC_Value"
	SheetName   = "QC Data"
)

// CSVExporter writes Day,QC_Value rows with two-decimal values
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

func (e *CSVExporter) ContentType() string { return "text/csv" }
func (e *CSVExporter) Extension() string   { return ".csv" }

// Export writes the header and one row per day in sequence order
func (e *CSVExporter) Export(w io.Writer, values []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{HeaderDay, HeaderValue}); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	for i, v := range values {
		row := []string{strconv.Itoa(i + 1), strconv.FormatFloat(v, 'f', 2, 64)}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write CSV row %d", i+1)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush CSV")
}

// XLSXExporter writes the same two columns into a workbook
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (e *XLSXExporter) Extension() string { return ".xlsx" }

// Export stores values as numbers formatted to two decimals
func (e *XLSXExporter) Export(w io.Writer, values []float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.Wrap(err, "failed to name sheet")
	}

	for i, h := range []string{HeaderDay, HeaderValue} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return errors.Wrap(err, "failed to write header")
		}
	}

	for i, v := range values {
		rowIdx := i + 2
		dayCell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		valueCell, _ := excelize.CoordinatesToCellName(2, rowIdx)
		if err := f.SetCellValue(SheetName, dayCell, i+1); err != nil {
			return errors.Wrapf(err, "failed to write day %d", i+1)
		}
		if err := f.SetCellFloat(SheetName, valueCell, v, 2, 64); err != nil {
			return errors.Wrapf(err, "failed to write value %d", i+1)
		}
	}

	if len(values) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
		if err != nil {
			return errors.Wrap(err, "failed to create number style")
		}
		last, _ := excelize.CoordinatesToCellName(2, len(values)+1)
		if err := f.SetCellStyle(SheetName, "B2", last, style); err != nil {
			return errors.Wrap(err, "failed to apply number style")
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}
