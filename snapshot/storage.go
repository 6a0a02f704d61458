package snapshot

import (
	"context"
)

// PrimitiveStorage is the key/value backend snapshots are written to.
type PrimitiveStorage interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	// Keys lists the keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
	StartTransaction(ctx context.Context) (Transaction, error)
	EndTransaction(ctx context.Context) error
	Close(ctx context.Context) error
}

// Transaction buffers writes until EndTransaction. Reads inside a transaction are not
// supported.
type Transaction interface {
	PrimitiveStorage
}
