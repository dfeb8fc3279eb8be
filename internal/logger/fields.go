package logger

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// FieldCandidate is the structured log field key for the candidate name.
	FieldCandidate = "candidate"
	// FieldPosition is the structured log field key for the position title.
	FieldPosition = "position"
	// FieldRunID is the structured log field key for an evaluation run.
	FieldRunID = "run_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CandidateFields describes who is being evaluated and for which position.
func CandidateFields(name, position string) []zap.Field {
	return StringFields(
		StringField{Key: FieldCandidate, Value: name},
		StringField{Key: FieldPosition, Value: position},
	)
}

// WithCandidate attaches the candidate fields to the logger.
func WithCandidate(logger *zap.Logger, name, position string) *zap.Logger {
	return WithFields(logger, CandidateFields(name, position)...)
}

// Money logs a decimal amount as its exact string form.
func Money(key string, amount decimal.Decimal) zap.Field {
	return zap.String(key, amount.String())
}
