// Package secrets resolves the completion-service credential: environment
// first, then the OS keychain.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups this app's secrets in the OS keychain.
	KeyringService = "dealtrack"
	// KeyringAccount holds the Anthropic API key.
	KeyringAccount = "anthropic-api-key"

	envAPIKey = "ANTHROPIC_API_KEY"
)

// APIKey returns the Anthropic API key, or "" when unconfigured. An absent
// key is not an error — the pipeline reports it and does no work.
func APIKey() string {
	if k := strings.TrimSpace(os.Getenv(envAPIKey)); k != "" {
		return k
	}
	if k, err := keyring.Get(KeyringService, KeyringAccount); err == nil {
		return strings.TrimSpace(k)
	}
	return ""
}

// SetAPIKey stores the key in the OS keychain.
func SetAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, KeyringAccount, key)
}

// DeleteAPIKey removes the key from the OS keychain.
func DeleteAPIKey() error {
	return keyring.Delete(KeyringService, KeyringAccount)
}
