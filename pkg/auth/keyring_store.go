package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "igserve"
	keyringPrefix  = "instagram_session_"
)

// KeyringStore keeps session blobs in the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store after checking that a
// keyring is reachable
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

func (k *KeyringStore) Get(username string) ([]byte, error) {
	if username == "" {
		return nil, ErrInvalidUsername
	}

	data, err := keyring.Get(keyringService, keyringPrefix+username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	return []byte(data), nil
}

func (k *KeyringStore) Put(username string, blob []byte) error {
	if username == "" {
		return ErrInvalidUsername
	}

	if err := keyring.Set(keyringService, keyringPrefix+username, string(blob)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidUsername
	}

	if err := keyring.Delete(keyringService, keyringPrefix+username); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
