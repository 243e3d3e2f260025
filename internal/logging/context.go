// Package logging carries request-scoped slog attributes on the context and
// logs one line per HTTP request.
package logging

import (
	"context"
	"maps"
	"sync"
)

type ctxAttrs struct {
	mu         sync.RWMutex
	attributes map[string]any
}

type ctxAttrsKey struct{}

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
	UserAttributeKey  = "user_id"
)

// ContextWithAttributes returns a context able to collect attributes. Every
// record logged with it carries them once the default logger is wrapped in
// an AttributesHandler.
func ContextWithAttributes(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxAttrsKey{}, &ctxAttrs{
		attributes: make(map[string]any),
	})
}

func AddAttribute(ctx context.Context, key string, value any) {
	l, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attributes[key] = value
}

func AddAttributes(ctx context.Context, attributes map[string]any) {
	l, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	maps.Copy(l.attributes, attributes)
}

func GetAttributes(ctx context.Context) map[string]any {
	l, ok := ctx.Value(ctxAttrsKey{}).(*ctxAttrs)
	if !ok {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.attributes)
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}
