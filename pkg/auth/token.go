// Package auth stores the cloud storage OAuth token securely, trying
// the system keychain first, an encrypted file second and environment
// variables as a last resort.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultAccount is the account label used when none is given
const DefaultAccount = "default"

// Storage errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenNotFound    = errors.New("token not found")
	ErrStoreUnavailable = errors.New("store does not support this operation")
)

// Token is a stored cloud storage API token
type Token struct {
	Account      string    `json:"account"`
	OAuth        string    `json:"oauth_token"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for storing and retrieving tokens
type TokenStore interface {
	// Store saves the token
	Store(token *Token) error

	// Retrieve gets the token for an account
	Retrieve(account string) (*Token, error)

	// Delete removes the token for an account
	Delete(account string) error

	// Exists checks whether a token is stored for an account
	Exists(account string) bool
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available backends
func NewManager() (*Manager, error) {
	var stores []TokenStore

	// System keychain first, when available
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "token.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves the token using the first store that accepts it
func (m *Manager) Store(token *Token) error {
	if token == nil || token.OAuth == "" {
		return ErrInvalidToken
	}
	if token.Account == "" {
		token.Account = DefaultAccount
	}
	token.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets the token from the first store that has it
func (m *Manager) Retrieve(account string) (*Token, error) {
	if account == "" {
		account = DefaultAccount
	}
	for _, store := range m.stores {
		if token, err := store.Retrieve(account); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, ErrTokenNotFound
}

// Delete removes the token from every store that has it
func (m *Manager) Delete(account string) error {
	if account == "" {
		account = DefaultAccount
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(account); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrTokenNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return ErrTokenNotFound
}

// Exists checks whether any store holds a token for the account
func (m *Manager) Exists(account string) bool {
	if account == "" {
		account = DefaultAccount
	}
	for _, store := range m.stores {
		if store.Exists(account) {
			return true
		}
	}
	return false
}

// Masked returns the token value with all but the edges hidden
func (t *Token) Masked() string {
	if len(t.OAuth) <= 8 {
		return "********"
	}
	return t.OAuth[:4] + "..." + t.OAuth[len(t.OAuth)-4:]
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "breedmirror")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "breedmirror")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "breedmirror")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "breedmirror")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}
