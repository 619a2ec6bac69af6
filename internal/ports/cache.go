package ports

import (
	"context"
	"time"
)

// Cache defines a generic key-value capability for usecases. The sync core
// uses it as the last-known circuit snapshot store; adapters may be backed
// by SQLite or any other store.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
