package auth

import (
	"context"
	"errors"
)

type ctxKey int

const ctxVisitorID ctxKey = iota

func WithVisitor(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, ctxVisitorID, visitorID)
}

func VisitorID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxVisitorID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("visitor_id not in context")
}
