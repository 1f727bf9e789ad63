// Package credstore provides durable key-value storage for session
// credentials, surviving process restarts.
package credstore

import "context"

// Well-known keys used by the SDK.
const (
	KeyToken = "session_token"
	KeyUser  = "user_profile"
)

// Store defines the interface for persisting credentials.
type Store interface {
	// Get retrieves the value for key. The boolean reports whether the
	// key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any underlying resources.
	Close() error
}
