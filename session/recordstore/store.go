package recordstore

import (
	"context"
	"time"
)

// RecordTTL matches the backend session cookie lifetime.
const RecordTTL = 7 * 24 * time.Hour

// Store persists the durable session record (the signed token produced by
// the sessionjwt codec) between application runs. Load returns
// internal/errors.ErrNotFound when no record exists.
type Store interface {
	Save(ctx context.Context, key, value string) error
	Load(ctx context.Context, key string) (string, error)
	Clear(ctx context.Context, key string) error
}
