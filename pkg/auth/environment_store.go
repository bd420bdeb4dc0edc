package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvSessionID = "IGCOMMENTS_SESSION_ID"
	EnvCSRFToken = "IGCOMMENTS_CSRF_TOKEN"
	EnvUserAgent = "IGCOMMENTS_USER_AGENT"
	EnvAccount   = "IGCOMMENTS_ACCOUNT"
)

// EnvironmentStore is a read-only store over IGCOMMENTS_* variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment session for any username; the account
// is named after IGCOMMENTS_ACCOUNT, the requested name, or "env"
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := os.Getenv(EnvSessionID)
	csrfToken := os.Getenv(EnvCSRFToken)
	if sessionID == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	name := os.Getenv(EnvAccount)
	if name == "" {
		name = username
	}
	if name == "" {
		name = "env"
	}
	if username != "" && name != username {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     name,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Time{},
	}, nil
}

// List returns the environment account when one is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}
