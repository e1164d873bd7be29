package config

type Storage struct{}

var _ StorageConfig = Storage{}

// GetRedisAddr returns the redis address for the durable session record
// store. Empty means "use the in-memory store".
func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}
