// Package tables is the file-backed storage adapter: it reads raw survey
// exports (.csv and .xlsx) and serves the normalized data directory the
// preprocessing run maintains. All normalized tables are written as CSV.
package tables

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tamslo/pharme-study-result-analyses/domain/survey"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// DataReader reads one tabular file, CSV or Excel, into the shared result
// table shape. Excel files are read from their first sheet; short rows are
// padded because Excel exports drop trailing empty cells.
type DataReader struct {
	path     string
	fileType string
}

// NewDataReader creates a reader for the given file, detecting the format
// from the extension.
func NewDataReader(path string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{path: path, fileType: fileType}
}

// Read loads the file into a result table.
func (r *DataReader) Read() (*survey.ResultTable, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, errors.LookupErrorf("table file not found: %s", r.path)
	}
	var rows [][]string
	var err error
	if r.fileType == "csv" {
		rows, err = r.readCSV()
	} else {
		rows, err = r.readExcel()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.LookupErrorf("table file is empty: %s", r.path)
	}
	return buildTable(rows), nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", r.path)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", r.path)
	}
	return rows, nil
}

func (r *DataReader) readExcel() ([][]string, error) {
	file, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", r.path)
	}
	defer file.Close()
	sheet := file.GetSheetName(0)
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s of %s", sheet, r.path)
	}
	return rows, nil
}

func buildTable(rows [][]string) *survey.ResultTable {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}
	table := survey.NewResultTable(headers)
	for _, raw := range rows[1:] {
		row := make(survey.Row, len(headers))
		for i, header := range headers {
			if i < len(raw) {
				row[header] = raw[i]
			} else {
				row[header] = ""
			}
		}
		table.Append(row)
	}
	return table
}

// WriteCSV writes a result table to a CSV file, creating parent
// directories as needed.
func WriteCSV(path string, table *survey.ResultTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()
	writer := csv.NewWriter(file)
	if err := writer.Write(table.Headers); err != nil {
		return errors.Wrapf(err, "failed to write headers to %s", path)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i, header := range table.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write row to %s", path)
		}
	}
	writer.Flush()
	return writer.Error()
}
