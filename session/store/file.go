package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sessionFileName = "session.bin"
	keyFileName     = "session.key"
)

// FileStore is the persistent tier: the record is sealed with
// ChaCha20-Poly1305 under a per-install key and written under the data
// folder. Both files are owner-only.
type FileStore struct {
	mu          sync.Mutex
	sessionFile string
	keyFile     string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dataFolder string) *FileStore {
	return &FileStore{
		sessionFile: filepath.Join(dataFolder, sessionFileName),
		keyFile:     filepath.Join(dataFolder, keyFileName),
	}
}

func (f *FileStore) Load() (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sealed, err := os.ReadFile(f.sessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NoSessionErr
		}
		return nil, errors.Wrap(err, "[FileStore.Load] read session file")
	}

	key, err := f.loadKey()
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.Load] chacha20poly1305.NewX")
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("[FileStore.Load] session file truncated")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.Load] unseal session")
	}

	var record Record
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return nil, errors.Wrap(err, "[FileStore.Load] unmarshal record")
	}
	return &record, nil
}

func (f *FileStore) Save(record *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.sessionFile), 0700); err != nil {
		return errors.Wrap(err, "[FileStore.Save] create data folder")
	}

	key, err := f.loadOrCreateKey()
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[FileStore.Save] marshal record")
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return errors.Wrap(err, "[FileStore.Save] chacha20poly1305.NewX")
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "[FileStore.Save] rand.Read")
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)

	if err := os.WriteFile(f.sessionFile, sealed, 0600); err != nil {
		return errors.Wrap(err, "[FileStore.Save] write session file")
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.sessionFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove session file")
	}
	return nil
}

func (f *FileStore) loadKey() ([]byte, error) {
	encoded, err := os.ReadFile(f.keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore] read key file")
	}
	key, err := hex.DecodeString(string(encoded))
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("[FileStore] malformed key file")
	}
	return key, nil
}

func (f *FileStore) loadOrCreateKey() ([]byte, error) {
	if key, err := f.loadKey(); err == nil {
		return key, nil
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "[FileStore] generate key")
	}
	if err := os.WriteFile(f.keyFile, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return nil, errors.Wrap(err, "[FileStore] write key file")
	}
	return key, nil
}
