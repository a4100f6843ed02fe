package logging

import (
	"context"
	"log/slog"

	"autocollect/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRule is the standardized structured logging key for rule names.
	FieldRule = "rule"
	// FieldRuleKind is the standardized structured logging key for the rule kind (collection/actor).
	FieldRuleKind = "rule_kind"
	// FieldItem is the standardized structured logging key for catalog item rating keys.
	FieldItem = "item"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if kind, name, ok := services.RuleFromContext(ctx); ok {
		if kind != "" {
			fields = append(fields, slog.String(FieldRuleKind, kind))
		}
		fields = append(fields, slog.String(FieldRule, name))
	}
	if key, ok := services.ItemFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItem, key))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
