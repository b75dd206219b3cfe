package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"qcgen/internal"
	"qcgen/internal/errors"
)

// DataReader loads a QC sequence from an exported CSV or XLSX file
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadSequence reads values in row order
func (r *DataReader) ReadSequence() ([]float64, error) {
	start := time.Now()

	file, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
		}
		return nil, errors.Wrapf(err, "failed to open %s", r.filePath)
	}
	defer file.Close()

	var values []float64
	switch r.fileType {
	case "csv":
		values, err = ReadCSV(file)
	default:
		values, err = ReadXLSX(file)
	}
	if err != nil {
		return nil, err
	}

	internal.DefaultLogger.With("DataReader").Debug("%s read in %.2fms (%d values)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(values))
	return values, nil
}

// ReadCSV parses Day,QC_Value rows (or a single value column)
func ReadCSV(in io.Reader) ([]float64, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &errors.AppError{Code: errors.CodeParseFailure, Message: "malformed CSV", Cause: err}
	}
	return processRows(rows)
}

// ReadXLSX parses the first sheet of a workbook
func ReadXLSX(in io.Reader) ([]float64, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, &errors.AppError{Code: errors.CodeParseFailure, Message: "malformed workbook", Cause: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	return processRows(rows)
}

// processRows takes the value from the second column when a day column is
// present and skips a leading header row and blank rows
func processRows(rows [][]string) ([]float64, error) {
	var values []float64
	for i, row := range rows {
		cells := trimCells(row)
		if len(cells) == 0 {
			continue
		}
		col := 0
		if len(cells) > 1 {
			col = 1
		}
		raw := cells[col]
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if i == 0 && len(values) == 0 {
				continue // header
			}
			return nil, errors.ParseFailure(fmt.Sprintf("row %d", i+1), raw, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, errors.InvalidInput("file contains no QC values")
	}
	return values, nil
}

func trimCells(row []string) []string {
	cells := make([]string, 0, len(row))
	for _, c := range row {
		cells = append(cells, strings.TrimSpace(c))
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
