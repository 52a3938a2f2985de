package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// EnvInitData overrides the stored launch data.
	EnvInitData = "SUBKILLER_INIT_DATA"

	defaultService = "subkill"
	defaultAccount = "init_data"
)

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// LoadInitData returns the host launch data.
//
// Order of precedence:
// 1) SUBKILLER_INIT_DATA environment variable.
// 2) OS keyring item written by SaveInitData.
//
// A missing keyring item is not an error; it yields "".
func LoadInitData() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvInitData)); v != "" {
		return v, nil
	}

	service, account := keyringNames()
	secret, err := keyringGet(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring item service=%q account=%q: %w", service, account, err)
	}
	return strings.TrimSpace(secret), nil
}

// SaveInitData stores launch data in the OS keyring.
func SaveInitData(initData string) error {
	trimmed := strings.TrimSpace(initData)
	if trimmed == "" {
		return errors.New("init data cannot be empty")
	}
	if _, err := UserIDFromInitData(trimmed); err != nil {
		return fmt.Errorf("init data carries no user id: %w", err)
	}

	service, account := keyringNames()
	if err := keyringSet(service, account, trimmed); err != nil {
		return fmt.Errorf("failed to store keyring item service=%q account=%q: %w", service, account, err)
	}
	return nil
}

// DeleteInitData removes stored launch data. Deleting nothing succeeds.
func DeleteInitData() error {
	service, account := keyringNames()
	if err := keyringDelete(service, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring item service=%q account=%q: %w", service, account, err)
	}
	return nil
}

func keyringNames() (string, string) {
	return envOrDefault("SUBKILLER_KEYRING_SERVICE", defaultService),
		envOrDefault("SUBKILLER_KEYRING_ACCOUNT", defaultAccount)
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
