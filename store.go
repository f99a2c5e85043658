package storefront

// Store defines the interface for the persisted key-value storage that
// backs client state. A Store keeps opaque values under fixed keys so the
// cart and the authenticated session survive process restarts.
// Implementations may keep values in memory, databases, caches, or any
// other durable storage system.
type Store interface {
	// Get retrieves the value associated with the given key. It returns
	// the raw data, a boolean indicating whether the key was found, and
	// an error if the lookup failed.
	Get(key string) (data []byte, found bool, err error)

	// Set stores the value under the given key. If a value with the same
	// key already exists, it is overwritten.
	Set(key string, data []byte) error

	// Delete removes the value associated with the given key. It returns
	// an error if the deletion fails, but should not return an error if
	// the key does not exist.
	Delete(key string) error
}

// Keys under which the client state is persisted. Each consumer only ever
// touches its own key.
const (
	CartKey    = "cart-items"
	SessionKey = "auth-session"
)
