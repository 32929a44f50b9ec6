package credential

import (
	"context"
	"strings"
)

// Provider yields an API key, or "" when it has none.
type Provider interface {
	Name() string
	Credential(ctx context.Context) (string, error)
}

type ctxKey struct{}

// WithKey attaches a key supplied by the host (the browser bridge) to ctx.
func WithKey(ctx context.Context, key string) context.Context {
	key = strings.TrimSpace(key)
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, key)
}

// ContextProvider reads the key the API layer attached from the request.
type ContextProvider struct{}

func (ContextProvider) Name() string { return "host" }

func (ContextProvider) Credential(ctx context.Context) (string, error) {
	key, _ := ctx.Value(ctxKey{}).(string)
	return key, nil
}

// EnvProvider serves the key configured for the process.
type EnvProvider struct {
	Key string
}

func (p EnvProvider) Name() string { return "env" }

func (p EnvProvider) Credential(context.Context) (string, error) {
	return strings.TrimSpace(p.Key), nil
}

// StoreProvider serves the key persisted by a previous "connect" action.
type StoreProvider struct {
	Store *SQLiteStore
}

func (p StoreProvider) Name() string { return "persisted" }

func (p StoreProvider) Credential(ctx context.Context) (string, error) {
	if p.Store == nil {
		return "", nil
	}
	return p.Store.APIKey(ctx)
}

// Chain queries providers in priority order; the first non-empty key wins.
type Chain []Provider

func (c Chain) Resolve(ctx context.Context) (key, source string, err error) {
	var firstErr error
	for _, p := range c {
		k, err := p.Credential(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			return k, p.Name(), nil
		}
	}
	return "", "", firstErr
}
