package repository

import (
	"fmt"
	"sync"

	"github.com/julianstephens/strive/internal/codec"
	"github.com/julianstephens/strive/internal/logger"
	"github.com/julianstephens/strive/internal/storage"
)

// cached is one collection's lazily loaded copy. Every method expects mu to be held.
type cached[T any] struct {
	mu     sync.Mutex
	key    string
	loaded bool
	value  T

	// absent builds the value used when the key is missing, and reports
	// whether that value should be written back.
	absent func() (T, bool)
}

// load returns the cached value, reading and decoding it on first use.
// A blob that fails to decode is reported as ErrCorruptState and is neither
// cached nor overwritten.
func (c *cached[T]) load(store storage.Store) (T, error) {
	if c.loaded {
		return c.value, nil
	}

	var zero T
	raw, ok, err := store.Get(c.key)
	if err != nil {
		return zero, fmt.Errorf("failed to read %s: %w", c.key, err)
	}

	if !ok {
		v, persist := c.absent()
		if persist {
			if err := c.put(store, v); err != nil {
				return zero, err
			}
			return v, nil
		}
		c.value, c.loaded = v, true
		return v, nil
	}

	v, err := codec.Decode[T](raw)
	if err != nil {
		logger.Error("Stored collection failed to decode", "key", c.key, "error", err)
		return zero, fmt.Errorf("%w: %s: %v", ErrCorruptState, c.key, err)
	}
	c.value, c.loaded = v, true
	return v, nil
}

// put persists v and only then swaps it into the cache.
func (c *cached[T]) put(store storage.Store, v T) error {
	raw, err := codec.Encode(v)
	if err != nil {
		return err
	}
	if err := store.Set(c.key, raw); err != nil {
		return fmt.Errorf("failed to persist %s: %w", c.key, err)
	}
	c.value, c.loaded = v, true
	return nil
}

// reset drops the cached copy.
func (c *cached[T]) reset() {
	var zero T
	c.value, c.loaded = zero, false
}
