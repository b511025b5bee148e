package cache

import "context"

// Store caches search results keyed by tool and query. Implementations decide
// how long entries live; a miss is ("", false, nil), not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
