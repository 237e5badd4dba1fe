package middleware

import "context"

type contextKey string

const (
	ctxRegisterID contextKey = "register_id"
	ctxOperatorID contextKey = "operator_id"
)

func RegisterIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRegisterID).(string); ok {
		return v
	}
	return ""
}

func OperatorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperatorID).(string); ok {
		return v
	}
	return ""
}

// WithRegisterID injects the register identifier into the context.
func WithRegisterID(ctx context.Context, registerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRegisterID, registerID)
}

// WithOperatorID injects the operator identifier into the context for downstream handlers.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperatorID, operatorID)
}
