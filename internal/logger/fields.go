package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared by every package.
const (
	FieldRunID    = "run_id"
	FieldRFPID    = "rfp_id"
	FieldStage    = "stage"
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
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
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// RunFields describes a workflow run.
func RunFields(runID, rfpID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldRFPID, Value: rfpID},
	)
}

func WithRunFields(logger *zap.Logger, runID, rfpID string) *zap.Logger {
	return WithFields(logger, RunFields(runID, rfpID)...)
}

// GeneratorFields describes the text-generation provider and model.
func GeneratorFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithGeneratorFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, GeneratorFields(provider, model)...)
}
