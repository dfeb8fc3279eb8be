package equity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ColumnID            = "id"
	ColumnPositionTitle = "position title"
	ColumnHireDate      = "hire date"
	ColumnCompRate      = "comp rate"
)

var requiredColumns = []string{ColumnID, ColumnPositionTitle, ColumnCompRate}

var hireDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"02.01.2006",
}

var (
	errEmptyValue    = errors.New("value is empty")
	errNotNumber     = errors.New("not a number")
	errNegative      = errors.New("must not be negative")
	errNotDate       = errors.New("not a recognized date")
	errMissingColumn = errors.New("column is absent in this row")
	errDuplicateKey  = errors.New("more than one column normalizes to this name")
)

// NormalizeKey trims and lower-cases a column name and collapses runs of
// whitespace and underscores into a single space.
func NormalizeKey(key string) string {
	fields := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == '_' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return strings.Join(fields, " ")
}

// NormalizeTitle prepares a position title for case-insensitive comparison.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// normalizeRow returns a copy of the row with normalized keys and the
// smallest normalized key that more than one raw key maps to, if any.
func normalizeRow(row Row) (map[string]any, string) {
	out := make(map[string]any, len(row))
	var dups []string
	for k, v := range row {
		key := NormalizeKey(k)
		if _, ok := out[key]; ok {
			dups = append(dups, key)
		}
		out[key] = v
	}
	if len(dups) == 0 {
		return out, ""
	}
	sort.Strings(dups)
	return out, dups[0]
}

func missingColumns(rows []map[string]any) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// parseRecord converts a normalized row into a PeerRecord. idx is 1-based.
// An unreadable hire date keeps the record and comes back as a warning.
func parseRecord(idx int, row map[string]any) (PeerRecord, *RowError, *RowError) {
	rawID, ok := row[ColumnID]
	if !ok {
		return PeerRecord{}, &RowError{Row: idx, Column: ColumnID, Err: errMissingColumn}, nil
	}
	id := strings.TrimSpace(valueAsString(rawID))
	if id == "" {
		return PeerRecord{}, &RowError{Row: idx, Column: ColumnID, Err: errEmptyValue}, nil
	}

	rawRate, ok := row[ColumnCompRate]
	if !ok {
		return PeerRecord{}, &RowError{Row: idx, Column: ColumnCompRate, Err: errMissingColumn}, nil
	}
	rate, err := ParseRate(rawRate)
	if err != nil {
		return PeerRecord{}, &RowError{Row: idx, Column: ColumnCompRate, Value: valueAsString(rawRate), Err: err}, nil
	}

	var warning *RowError
	hired, err := parseHireDate(row[ColumnHireDate])
	if err != nil {
		warning = &RowError{Row: idx, Column: ColumnHireDate, Value: valueAsString(row[ColumnHireDate]), Err: err}
	}

	return PeerRecord{
		ID:            id,
		PositionTitle: strings.TrimSpace(valueAsString(row[ColumnPositionTitle])),
		HireDate:      hired,
		CompRate:      rate,
	}, nil, warning
}

// ParseRate converts a raw compensation value into a non-negative decimal.
// Strings may carry a leading currency sign and thousands separators.
func ParseRate(v any) (decimal.Decimal, error) {
	var d decimal.Decimal

	switch val := v.(type) {
	case nil:
		return decimal.Decimal{}, errEmptyValue
	case decimal.Decimal:
		d = val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, errNotNumber
		}
		d = decimal.NewFromFloat(val)
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, errNotNumber
		}
		d = decimal.NewFromFloat32(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int32:
		d = decimal.NewFromInt32(val)
	case int64:
		d = decimal.NewFromInt(val)
	case json.Number:
		parsed, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Decimal{}, errNotNumber
		}
		d = parsed
	case string:
		cleaned := strings.TrimSpace(val)
		cleaned = strings.TrimPrefix(cleaned, "$")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			return decimal.Decimal{}, errEmptyValue
		}
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Decimal{}, errNotNumber
		}
		d = parsed
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: unsupported type %T", errNotNumber, v)
	}

	if d.IsNegative() {
		return decimal.Decimal{}, errNegative
	}
	return d, nil
}

func parseHireDate(v any) (*time.Time, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if val.IsZero() {
			return nil, nil
		}
		t := val
		return &t, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		for _, layout := range hireDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t, nil
			}
		}
		return nil, errNotDate
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", errNotDate, v)
	}
}

func valueAsString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case time.Time:
		return typed.Format("2006-01-02")
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
