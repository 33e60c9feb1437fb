package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"igserve/pkg/config"
	"igserve/pkg/logger"
)

// Store persists opaque Instagram session blobs keyed by username
type Store interface {
	// Get returns the blob for username or ErrSessionNotFound
	Get(username string) ([]byte, error)

	// Put saves or replaces the blob for username
	Put(username string, blob []byte) error

	// Delete removes the blob for username
	Delete(username string) error
}

// Errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidUsername  = errors.New("username is required")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Manager chains several stores. Reads return the first hit, writes go
// to the first store that accepts them and deletes reach every store.
type Manager struct {
	stores []Store
	logger logger.Logger
}

// NewManager creates a manager over the given stores, in priority order
func NewManager(log logger.Logger, stores ...Store) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{stores: stores, logger: log}
}

// NewManagerFromConfig builds the store chain described by cfg: the
// system keyring when enabled and reachable, then an encrypted file.
func NewManagerFromConfig(cfg *config.SessionConfig, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	var stores []Store

	if cfg.UseKeyring {
		keyringStore, err := NewKeyringStore()
		if err != nil {
			log.WithError(err).Warn("system keyring unavailable, falling back to encrypted file")
		} else {
			stores = append(stores, keyringStore)
		}
	}

	dir := cfg.Directory
	if dir == "" {
		var err error
		dir, err = getConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
	}

	fileStore, err := NewEncryptedFileStore(filepath.Join(dir, "sessions.enc"), cfg.Passphrase, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, fileStore)

	return NewManager(log, stores...), nil
}

// Get returns the first stored blob for username
func (m *Manager) Get(username string) ([]byte, error) {
	if username == "" {
		return nil, ErrInvalidUsername
	}

	for _, store := range m.stores {
		blob, err := store.Get(username)
		if err == nil {
			return blob, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			m.logger.WithError(err).WarnWithFields("session store read failed", map[string]interface{}{
				"store":    fmt.Sprintf("%T", store),
				"username": username,
			})
		}
	}
	return nil, ErrSessionNotFound
}

// Put saves the blob in the first store that accepts it
func (m *Manager) Put(username string, blob []byte) error {
	if username == "" {
		return ErrInvalidUsername
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Put(username, blob); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Delete removes the blob from every store
func (m *Manager) Delete(username string) error {
	if username == "" {
		return ErrInvalidUsername
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		err := store.Delete(username)
		switch {
		case err == nil:
			deleted = true
		case !errors.Is(err, ErrSessionNotFound):
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	return ErrSessionNotFound
}

// getConfigDir returns the per-user configuration directory
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "igserve")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "igserve")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "igserve")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "igserve")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}
