package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"igcomments/pkg/config"
	"igcomments/pkg/logger"
)

// Account is a saved Instagram browser session
type Account struct {
	Username     string    `json:"username"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"csrf_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Validate checks that the session cookies are present
func (a *Account) Validate() error {
	switch {
	case a == nil || a.Username == "":
		return errors.New("username is required")
	case a.SessionID == "":
		return errors.New("session ID is required")
	case a.CSRFToken == "":
		return errors.New("CSRF token is required")
	}
	return nil
}

// ApplyTo fills the session fields of cfg that are still empty
func (a *Account) ApplyTo(cfg *config.InstagramConfig) {
	if cfg.SessionID == "" {
		cfg.SessionID = a.SessionID
	}
	if cfg.CSRFToken == "" {
		cfg.CSRFToken = a.CSRFToken
	}
	if cfg.UserAgent == "" && a.UserAgent != "" {
		cfg.UserAgent = a.UserAgent
	}
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific username
	Retrieve(username string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific username
	Delete(username string) error
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
	logger logger.Logger
}

// NewManager creates a manager over the system keyring (when it works), an
// encrypted file in the config directory and the environment
func NewManager(log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	var stores []CredentialStore
	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	} else {
		log.WithError(err).Debug("System keyring unavailable, using encrypted file")
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	passphrase, err := LoadPassphrase(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	encrypted, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encrypted, NewEnvironmentStore())

	return NewManagerWithStores(log, stores...), nil
}

// NewManagerWithStores creates a manager trying stores in order
func NewManagerWithStores(log logger.Logger, stores ...CredentialStore) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{stores: stores, logger: log}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			m.logger.WithField("username", account.Username).Info("Credentials stored")
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
}

// RetrieveDefault returns the named account, or the most recently modified
// one when username is empty
func (m *Manager) RetrieveDefault(username string) (*Account, error) {
	if username != "" {
		return m.Retrieve(username)
	}

	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}

	latest := accounts[0]
	for _, a := range accounts[1:] {
		if a.LastModified.After(latest.LastModified) {
			latest = a
		}
	}
	return latest, nil
}

// List returns the accounts of all stores sorted by username. When several
// stores hold the same username the most recently modified copy wins.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			m.logger.WithError(err).Debug("Skipping unreadable credential store")
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Username] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

// Delete removes credentials from every store holding them
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete(username)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrCredentialsNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
	}
	return nil
}

// ConfigDir returns the igcomments configuration directory, creating it
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igcomments")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igcomments")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igcomments")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igcomments")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeAccount returns a copy of the account with secrets masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Username:     account.Username,
		SessionID:    MaskSecret(account.SessionID),
		CSRFToken:    MaskSecret(account.CSRFToken),
		UserAgent:    account.UserAgent,
		LastModified: account.LastModified,
	}
}

// MaskSecret keeps the first and last four characters of s
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
