package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"igcomments/pkg/config"
	"igcomments/pkg/logger"
)

// memStore is an in-memory CredentialStore
type memStore struct {
	accounts map[string]Account
	storeErr error
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]Account)}
}

func (m *memStore) Store(account *Account) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.accounts[account.Username] = *account
	return nil
}

func (m *memStore) Retrieve(username string) (*Account, error) {
	a, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &a, nil
}

func (m *memStore) List() ([]*Account, error) {
	out := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		acc := a
		out = append(out, &acc)
	}
	return out, nil
}

func (m *memStore) Delete(username string) error {
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	return nil
}

func testAccount(name string) *Account {
	return &Account{
		Username:  name,
		SessionID: "12345678%3Aabcdefgh%3A26",
		CSRFToken: "YTQHujAgMhyveLvvuwCfw9CPI8ROAHoy",
	}
}

func TestAccountValidate(t *testing.T) {
	assert.NoError(t, testAccount("alice").Validate())

	var nilAccount *Account
	assert.Error(t, nilAccount.Validate())

	noSession := testAccount("alice")
	noSession.SessionID = ""
	assert.ErrorContains(t, noSession.Validate(), "session ID")

	noToken := testAccount("alice")
	noToken.CSRFToken = ""
	assert.ErrorContains(t, noToken.Validate(), "CSRF token")
}

func TestAccountApplyTo(t *testing.T) {
	account := testAccount("alice")
	account.UserAgent = "agent/1.0"

	cfg := config.InstagramConfig{CSRFToken: "from-config"}
	account.ApplyTo(&cfg)

	assert.Equal(t, account.SessionID, cfg.SessionID)
	assert.Equal(t, "from-config", cfg.CSRFToken)
	assert.Equal(t, "agent/1.0", cfg.UserAgent)
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	store := newMemStore()
	m := NewManagerWithStores(logger.NewNopLogger(), store)

	require.NoError(t, m.Store(testAccount("alice")))
	assert.False(t, store.accounts["alice"].LastModified.IsZero())

	got, err := m.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = m.Retrieve("bob")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = m.Store(&Account{Username: "bob"})
	assert.Error(t, err)
	assert.NotContains(t, store.accounts, "bob")
}

func TestManagerStoreFallsBack(t *testing.T) {
	broken := newMemStore()
	broken.storeErr = errors.New("keychain locked")
	backup := newMemStore()
	m := NewManagerWithStores(logger.NewNopLogger(), broken, backup)

	require.NoError(t, m.Store(testAccount("alice")))
	assert.Contains(t, backup.accounts, "alice")

	backup.storeErr = errors.New("disk full")
	err := m.Store(testAccount("bob"))
	assert.ErrorContains(t, err, "disk full")
}

func TestManagerListAndDefault(t *testing.T) {
	first := newMemStore()
	second := newMemStore()
	m := NewManagerWithStores(logger.NewNopLogger(), first, second)

	old := testAccount("carol")
	old.LastModified = time.Now().Add(-time.Hour)
	first.accounts["carol"] = *old

	newer := testAccount("carol")
	newer.SessionID = "newer-session-value"
	newer.LastModified = time.Now()
	second.accounts["carol"] = *newer

	alice := testAccount("alice")
	alice.LastModified = time.Now().Add(-2 * time.Hour)
	second.accounts["alice"] = *alice

	accounts, err := m.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)
	assert.Equal(t, "carol", accounts[1].Username)
	assert.Equal(t, "newer-session-value", accounts[1].SessionID)

	def, err := m.RetrieveDefault("")
	require.NoError(t, err)
	assert.Equal(t, "carol", def.Username)

	named, err := m.RetrieveDefault("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", named.Username)

	_, err = NewManagerWithStores(logger.NewNopLogger(), newMemStore()).RetrieveDefault("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerDelete(t *testing.T) {
	store := newMemStore()
	m := NewManagerWithStores(logger.NewNopLogger(), store, NewEnvironmentStore())
	require.NoError(t, m.Store(testAccount("alice")))

	require.NoError(t, m.Delete("alice"))
	assert.Empty(t, store.accounts)

	assert.ErrorIs(t, m.Delete("alice"), ErrCredentialsNotFound)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path, "correct horse")
	require.NoError(t, err)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	require.NoError(t, store.Store(testAccount("bob")))
	require.NoError(t, store.Store(testAccount("alice")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "YTQHujAgMhyveLvvuwCfw9CPI8ROAHoy")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, testAccount("alice").SessionID, got.SessionID)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)

	_, err = store.Retrieve("nobody")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	wrong, err := NewEncryptedFileStore(path, "wrong passphrase")
	require.NoError(t, err)
	_, err = wrong.Retrieve("alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Delete("alice"))
	require.NoError(t, store.Delete("bob"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, store.Delete("bob"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreRequiresPassphrase(t *testing.T) {
	_, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "c.enc"), "")
	assert.Error(t, err)
}

func TestLoadPassphrase(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(PassphraseEnv, "")
	generated, err := LoadPassphrase(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, generated)

	again, err := LoadPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, generated, again)

	info, err := os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	t.Setenv(PassphraseEnv, "from-env")
	fromEnv, err := LoadPassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", fromEnv)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvSessionID, "")
	t.Setenv(EnvCSRFToken, "")
	t.Setenv(EnvAccount, "")
	_, err := store.Retrieve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	t.Setenv(EnvSessionID, "env-session")
	t.Setenv(EnvCSRFToken, "env-token")
	t.Setenv(EnvUserAgent, "env-agent")

	got, err := store.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "env-session", got.SessionID)
	assert.Equal(t, "env-agent", got.UserAgent)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "env", accounts[0].Username)

	t.Setenv(EnvAccount, "carol")
	_, err = store.Retrieve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	assert.ErrorIs(t, store.Store(testAccount("alice")), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("alice"), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(testAccount("bob")))
	require.NoError(t, store.Store(testAccount("alice")))
	require.NoError(t, store.Store(testAccount("alice")))

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)
	assert.Equal(t, "bob", accounts[1].Username)

	require.NoError(t, store.Delete("bob"))
	_, err = store.Retrieve("bob")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.ErrorIs(t, store.Delete("bob"), ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestKeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))

	_, err := NewKeyringStore()
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "********", MaskSecret("short"))
	assert.Equal(t, "1234...wxyz", MaskSecret("1234567890wxyz"))

	sanitized := SanitizeAccount(testAccount("alice"))
	assert.Equal(t, "alice", sanitized.Username)
	assert.Equal(t, "1234...3A26", sanitized.SessionID)
	assert.Nil(t, SanitizeAccount(nil))
}

func TestPrompterAccount(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompterWith(strings.NewReader("alice\nsess-value\ntok-value\n\n"), &out)

	account, err := p.Account("")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "sess-value", account.SessionID)
	assert.Equal(t, "tok-value", account.CSRFToken)
	assert.Empty(t, account.UserAgent)
	assert.Contains(t, out.String(), "sessionid cookie value")

	p = NewPrompterWith(strings.NewReader("sess-value\n\n\n"), &out)
	_, err = p.Account("bob")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPrompterConfirm(t *testing.T) {
	p := NewPrompterWith(strings.NewReader("\ny\nno\n"), &bytes.Buffer{})

	ok, err := p.Confirm("? ", true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm("? ", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm("? ", true)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Confirm("? ", true)
	assert.Error(t, err)
}

func TestShowCookieGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowCookieGuide(&buf)
	assert.Contains(t, buf.String(), "sessionid")
	assert.Contains(t, buf.String(), "csrftoken")

	buf.Reset()
	ShowQuickGuide(&buf, "alice")
	assert.Contains(t, buf.String(), "--account alice")
}
