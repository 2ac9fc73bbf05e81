package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"air_quality_monitor/internal/models"

	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	errNoHeader          = errors.New("export has no header row")
	errNoTimestampColumn = errors.New("timestamp column not found")
)

var zipMagic = []byte("PK\x03\x04")

// Columns names the header cells of the three fields.
type Columns struct {
	Timestamp   string
	Temperature string
	Humidity    string
}

// DefaultColumns matches the sensor logger's export.
var DefaultColumns = Columns{
	Timestamp:   "Timestamp",
	Temperature: "Temperature",
	Humidity:    "Humidity",
}

// DetectFormat resolves FormatAuto from the name, the content type and
// finally the payload's magic bytes.
func DetectFormat(p Payload, format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return FormatCSV
	case FormatXLSX:
		return FormatXLSX
	}
	switch strings.ToLower(filepath.Ext(p.Name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	}
	ct := strings.ToLower(p.ContentType)
	switch {
	case strings.Contains(ct, "spreadsheetml"):
		return FormatXLSX
	case strings.Contains(ct, "csv"):
		return FormatCSV
	}
	if bytes.HasPrefix(p.Data, zipMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// Parse decodes a payload into raw records, first sheet only.
func Parse(p Payload, format string, cols Columns) ([]models.RawRecord, error) {
	switch DetectFormat(p, format) {
	case FormatXLSX:
		return ParseXLSX(p.Data, cols)
	default:
		return ParseCSV(p.Data, cols)
	}
}

// ParseCSV reads a header row followed by data rows.
func ParseCSV(data []byte, cols Columns) ([]models.RawRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsToRecords(rows, cols)
}

// ParseXLSX reads the first worksheet. Raw cell values are used so date cells
// keep their serial number.
func ParseXLSX(data []byte, cols Columns) ([]models.RawRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoHeader
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsToRecords(rows, cols)
}

func rowsToRecords(rows [][]string, cols Columns) ([]models.RawRecord, error) {
	if len(rows) == 0 {
		return nil, errNoHeader
	}
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	tsIdx := columnIndex(header, cols.Timestamp)
	if tsIdx < 0 {
		return nil, fmt.Errorf("%w: %q", errNoTimestampColumn, cols.Timestamp)
	}
	tempIdx := columnIndex(header, cols.Temperature)
	humIdx := columnIndex(header, cols.Humidity)

	out := make([]models.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		out = append(out, models.RawRecord{
			Timestamp:   cellValue(row, tsIdx),
			Temperature: cellValue(row, tempIdx),
			Humidity:    cellValue(row, humIdx),
		})
	}
	return out, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// cellValue types a cell the way a spreadsheet would: numbers become float64,
// empty cells nil, everything else stays a string.
func cellValue(row []string, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	s := strings.TrimSpace(row[idx])
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
