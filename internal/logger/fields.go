package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProgram is the structured log field key for a program name.
	FieldProgram = "program"
	// FieldProgramType is the structured log field key for the program jurisdiction.
	FieldProgramType = "program_type"
	// FieldProvince is the structured log field key for the program province.
	FieldProvince = "province"
	// FieldCriterion is the structured log field key for a criterion name.
	FieldCriterion = "criterion"
	// FieldRequestID is the structured log field key for an HTTP request id.
	FieldRequestID = "request_id"
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

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ProgramFields describes a program. Empty values are dropped.
func ProgramFields(name, kind, province string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProgram, Value: name},
		StringField{Key: FieldProgramType, Value: kind},
		StringField{Key: FieldProvince, Value: province},
	)
}

// WithProgram attaches the program fields to the provided logger.
func WithProgram(logger *zap.Logger, name, kind, province string) *zap.Logger {
	return WithFields(logger, ProgramFields(name, kind, province)...)
}
