// Package kvstore provides the local key-value persistence used by the tag
// editors and the rate limiter. Values are stored JSON-encoded.
package kvstore

import (
	"errors"
	"fmt"
	"strings"
)

// Namespace prefixes every key written by this tool.
const Namespace = "bulk_tag_editor"

// Store is a key-value store with JSON-encoded values.
type Store interface {
	// Get decodes the value for key into dst. It returns false, nil when the
	// key is absent and leaves dst untouched.
	Get(key string, dst any) (bool, error)

	// Set encodes value and stores it under key.
	Set(key string, value any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Key builds a namespaced key: <namespace>__<id>.
func Key(parts ...string) string {
	return Namespace + "__" + strings.Join(parts, "__")
}

// Supported drivers
const (
	DriverMemory = "memory"
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// ErrUnknownDriver is returned by Open for unsupported drivers.
var ErrUnknownDriver = errors.New("unknown store driver")

// Open creates a store for the given driver. path is ignored for the memory driver.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverJSON, "":
		return NewFileStore(path)
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q (supported: json, sqlite, memory)", ErrUnknownDriver, driver)
	}
}
