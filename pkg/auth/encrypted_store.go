package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"igserve/pkg/logger"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	// PassphraseEnv overrides the generated passphrase file
	PassphraseEnv = "IGSERVE_PASSPHRASE"
)

// EncryptedFileStore keeps all session blobs in one AES-GCM encrypted
// file, keyed with a PBKDF2-derived key
type EncryptedFileStore struct {
	filepath   string
	passphrase string
	logger     logger.Logger
	mu         sync.RWMutex
}

type encryptedFile struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a store at filePath. An empty passphrase
// falls back to IGSERVE_PASSPHRASE, then to a generated .passphrase file
// next to the store.
func NewEncryptedFileStore(filePath, passphrase string, log logger.Logger) (*EncryptedFileStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	dir := filepath.Dir(filePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if passphrase == "" {
		var err error
		passphrase, err = loadPassphrase(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to get passphrase: %w", err)
		}
	}

	return &EncryptedFileStore{
		filepath:   filePath,
		passphrase: passphrase,
		logger:     log,
	}, nil
}

// Path returns the location of the encrypted file
func (e *EncryptedFileStore) Path() string {
	return e.filepath
}

func (e *EncryptedFileStore) Get(username string) ([]byte, error) {
	if username == "" {
		return nil, ErrInvalidUsername
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions, _, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	blob, ok := sessions[username]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return blob, nil
}

func (e *EncryptedFileStore) Put(username string, blob []byte) error {
	if username == "" {
		return ErrInvalidUsername
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// An unreadable file (other passphrase, corruption) is replaced and its sessions dropped
	sessions, salt, err := e.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		e.logger.WithError(err).WarnWithFields("session file unreadable, replacing it", map[string]interface{}{
			"path": e.filepath,
		})
		sessions, salt = nil, nil
	}
	if sessions == nil {
		sessions = make(map[string][]byte)
	}

	sessions[username] = blob
	return e.save(sessions, salt)
}

func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidUsername
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, salt, err := e.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	if _, ok := sessions[username]; !ok {
		return ErrSessionNotFound
	}
	delete(sessions, username)

	if len(sessions) == 0 {
		return os.Remove(e.filepath)
	}
	return e.save(sessions, salt)
}

// load reads and decrypts the file, returning the sessions and the salt in use
func (e *EncryptedFileStore) load() (map[string][]byte, []byte, error) {
	content, err := os.ReadFile(e.filepath)
	if err != nil {
		return nil, nil, err
	}

	var file encryptedFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(file.Encrypted)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)

	plaintext, err := decrypt(ciphertext, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	var sessions map[string][]byte
	if err := json.Unmarshal(plaintext, &sessions); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sessions: %w", err)
	}

	return sessions, salt, nil
}

// save encrypts sessions and atomically replaces the file.
// A nil salt generates a fresh one.
func (e *EncryptedFileStore) save(sessions map[string][]byte, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)

	plaintext, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	ciphertext, err := encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	content, err := json.MarshalIndent(encryptedFile{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		Version:   1,
		Modified:  time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tempFile := e.filepath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tempFile, e.filepath)
}

// loadPassphrase reads the passphrase from the environment or from a
// .passphrase file in dir, generating the file on first use
func loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	passphraseFile := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
