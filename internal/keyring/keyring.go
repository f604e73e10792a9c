package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/flowmind/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested user
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Secret names a value flowmind keeps in the OS keyring.
type Secret string

const (
	Connection Secret = constants.DefaultKeyringUser
	APIKey     Secret = constants.APIKeyKeyringUser
)

func (s Secret) String() string {
	return string(s)
}

// ParseSecret maps the CLI names "connection" and "api-key" to a Secret.
func ParseSecret(name string) (Secret, error) {
	switch name {
	case "connection", string(Connection):
		return Connection, nil
	case "api-key", string(APIKey):
		return APIKey, nil
	}
	return "", fmt.Errorf("unknown secret %q (want connection or api-key)", name)
}

// Get retrieves a secret from the OS keyring.
// Returns ErrNotFound if nothing is stored.
func Get(secret Secret) (string, error) {
	value, err := keyring.Get(constants.AppName, string(secret))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores a secret in the OS keyring.
func Set(secret Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", secret)
	}
	if err := keyring.Set(constants.AppName, string(secret), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", secret, err)
	}
	return nil
}

// Delete removes a secret from the OS keyring.
func Delete(secret Secret) error {
	if err := keyring.Delete(constants.AppName, string(secret)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", secret, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) {
	return Get(Connection)
}

// GetAPIKey retrieves the interpreter API key.
func GetAPIKey() (string, error) {
	return Get(APIKey)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
