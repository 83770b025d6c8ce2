package storage

// Store is a durable string key-value store. Each value is an opaque blob;
// structuring is the caller's business.
type Store interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Clear removes every key.
	Clear() error
	Keys() ([]string, error)

	// Utils
	Path() string
}
