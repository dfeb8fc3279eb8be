// Package peers loads peer compensation tables into equity rows. Column
// names are passed through untouched; equity.Analyze normalizes them.
package peers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/spigell/salary-evaluator/internal/equity"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported peer table format")

// FormatOf guesses the table format from a file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadFile reads a peer table from disk. Sheet selects the XLSX worksheet;
// empty means the first one.
func LoadFile(path, sheet string) ([]equity.Row, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		return loadXLSX(path, sheet)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(format, data)
}

// Decode parses an in-memory table of the given format. XLSX is file only.
func Decode(format string, data []byte) ([]equity.Row, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(bytes.NewReader(data))
	case FormatYAML, FormatJSON:
		return decodeObjects(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeCSV(r io.Reader) ([]equity.Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return fromRecords(records), nil
}

func loadXLSX(path, sheet string) ([]equity.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	return fromRecords(records), nil
}

// fromRecords treats the first record as the header. Blank lines are
// skipped and short rows leave trailing columns absent.
func fromRecords(records [][]string) []equity.Row {
	if len(records) == 0 {
		return nil
	}

	header := records[0]
	rows := make([]equity.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		row := make(equity.Row, len(header))
		for i, name := range header {
			if strings.TrimSpace(name) == "" || i >= len(record) {
				continue
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type itemsEnvelope struct {
	Items []map[string]any `yaml:"items"`
}

// decodeObjects accepts a list of objects or an object with an items list.
// JSON goes through the same decoder since it is valid YAML.
func decodeObjects(data []byte) ([]equity.Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var list []map[string]any
	if err := yaml.Unmarshal(data, &list); err == nil {
		return toRows(list), nil
	}

	var envelope itemsEnvelope
	if err := yaml.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode peer objects: %w", err)
	}
	return toRows(envelope.Items), nil
}

func toRows(list []map[string]any) []equity.Row {
	rows := make([]equity.Row, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		rows = append(rows, equity.Row(item))
	}
	return rows
}
