package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements TokenStore using environment variables.
// It is read-only and exists for parity with plain env-var workflows.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(token *Token) error {
	return ErrStoreUnavailable
}

// Retrieve gets the token from the environment
func (e *EnvironmentStore) Retrieve(account string) (*Token, error) {
	oauth := os.Getenv("BREEDMIRROR_OAUTH_TOKEN")
	if oauth == "" {
		return nil, ErrTokenNotFound
	}

	if account == "" {
		account = DefaultAccount
	}
	return &Token{
		Account:      account,
		OAuth:        oauth,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(account string) error {
	return ErrStoreUnavailable
}

// Exists checks whether the environment carries a token
func (e *EnvironmentStore) Exists(account string) bool {
	return os.Getenv("BREEDMIRROR_OAUTH_TOKEN") != ""
}
