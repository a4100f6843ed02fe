package services

import "context"

type contextKey string

const (
	ruleKey     contextKey = "rule"
	ruleKindKey contextKey = "rule_kind"
	itemKey     contextKey = "item"
)

// WithRule annotates context with the rule currently being dispatched and its
// kind ("collection" or "actor").
func WithRule(ctx context.Context, kind, name string) context.Context {
	if name == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, ruleKey, name)
	if kind != "" {
		ctx = context.WithValue(ctx, ruleKindKey, kind)
	}
	return ctx
}

// RuleFromContext returns the rule kind and name if present.
func RuleFromContext(ctx context.Context) (string, string, bool) {
	name, ok := ctx.Value(ruleKey).(string)
	if !ok || name == "" {
		return "", "", false
	}
	kind, _ := ctx.Value(ruleKindKey).(string)
	return kind, name, true
}

// WithItem annotates context with the catalog item (rating key) being processed.
func WithItem(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, itemKey, key)
}

// ItemFromContext extracts the catalog item key if present.
func ItemFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(itemKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
