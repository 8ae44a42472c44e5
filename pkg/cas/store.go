package cas

import "context"

// Store persists turn sequences under their content key.
//
// Put is idempotent: writing the same key twice leaves byte-identical content.
// Keys are never overwritten with different content since the key is derived
// from the content itself.
type Store interface {
	// Put persists turns under key. Implementations must not report success
	// unless the content is durably retrievable via Get.
	Put(ctx context.Context, key string, turns []Turn) error

	// Get retrieves the turns stored under key.
	// Returns NotFoundError when the key is absent.
	Get(ctx context.Context, key string) ([]Turn, error)

	// Has checks whether content exists under key.
	Has(ctx context.Context, key string) (bool, error)

	// Locate returns the reference locator for key. The locator is what
	// metadata records and vector entries point at.
	Locate(key string) string

	// Close releases any resources held by the store.
	Close() error
}
