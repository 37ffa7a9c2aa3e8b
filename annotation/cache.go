package annotation

import (
	"context"
	"net/http"
	"sync"
)

type requestCacheKey struct{}

// RequestCache memoizes lookups for the lifetime of one HTTP request, so a
// page rendering the same query twice reaches the database once
type RequestCache struct {
	mu     sync.Mutex
	values map[string]any
}

// WithRequestCache adds an empty request cache to the context
func WithRequestCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestCacheKey{}, &RequestCache{values: map[string]any{}})
}

// GetRequestCache retrieves the request cache from context
func GetRequestCache(ctx context.Context) *RequestCache {
	if cache, ok := ctx.Value(requestCacheKey{}).(*RequestCache); ok {
		return cache
	}
	return nil
}

// cached returns the value stored under key in the request cache of ctx,
// calling load on a miss. Errors are not cached and without a cache load
// runs every time.
func cached[T any](ctx context.Context, key string, load func() (T, error)) (T, error) {
	cache := GetRequestCache(ctx)
	if cache == nil {
		return load()
	}
	cache.mu.Lock()
	v, ok := cache.values[key]
	cache.mu.Unlock()
	if value, isT := v.(T); ok && isT {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	cache.mu.Lock()
	cache.values[key] = value
	cache.mu.Unlock()
	return value, nil
}

// requestCacheMiddleware adds a request cache to the context for each request
func requestCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequestCache(r.Context())))
	})
}
