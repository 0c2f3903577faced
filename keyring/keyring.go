// Package keyring provides secure storage for the lookup token.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/yllada/vpn-detector/common"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = common.AppBinary

	// sentinelKey is read, never written, to tell an empty keyring from an
	// unreachable one.
	sentinelKey = "vpn-detector-sentinel"
)

// Backend names reported by Store.Backend.
const (
	BackendSystem = "system keyring"
	BackendFile   = "encrypted file"
)

// provider is the system keyring API.
type provider interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

type systemKeyring struct{}

func (systemKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (systemKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (systemKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// Store keeps small secrets in the system keyring, or in an encrypted file
// under the config directory when no keyring service is reachable.
// Reads never write to the keyring: the file backend is chosen when a read
// or a write reports the keyring unavailable.
type Store struct {
	service string
	path    string
	system  provider

	mu      sync.Mutex
	useFile bool
	loaded  bool
	local   map[string]string
	key     []byte
}

// Option configures a Store.
type Option func(*Store)

// WithService overrides the keyring service name.
func WithService(name string) Option {
	return func(s *Store) { s.service = name }
}

// WithFile sets the path of the encrypted fallback file.
func WithFile(path string) Option {
	return func(s *Store) { s.path = path }
}

func withProvider(p provider) Option {
	return func(s *Store) { s.system = p }
}

// New returns a Store for the application service.
func New(opts ...Option) *Store {
	s := &Store{service: serviceName, system: systemKeyring{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.path == "" {
		if dir, err := common.ConfigDir(); err == nil {
			s.path = filepath.Join(dir, common.CredentialsFileName)
		}
	}
	return s
}

// Backend reports which storage backend is in use. It only reads from the
// system keyring.
func (s *Store) Backend() string {
	if s.usingFile() {
		return BackendFile
	}
	_, err := s.system.Get(s.service, sentinelKey)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return BackendSystem
	}
	s.fallBack(err)
	return BackendFile
}

func (s *Store) usingFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useFile
}

// fallBack switches to the file backend after the keyring failed with err.
func (s *Store) fallBack(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.useFile {
		common.LogDebug("System keyring unavailable, using %s: %v", s.path, err)
		s.useFile = true
	}
}

// ensureLoaded reads the fallback file once. Caller holds mu.
func (s *Store) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.key = deriveKey(s.service)
	s.local = make(map[string]string)
	s.loadLocal()
}

// deriveKey binds the fallback file to this machine and user.
func deriveKey(service string) []byte {
	hostname, _ := os.Hostname()
	secret := fmt.Sprintf("%s-%s-%s-%d", service, hostname, machineID(), os.Getuid())

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(service+" credentials"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		// hkdf only fails past 255 blocks of output.
		panic(err)
	}
	return key
}

func machineID() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return "default-machine-id"
}

// loadLocal reads the fallback file. Caller holds mu.
func (s *Store) loadLocal() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	plain, err := decrypt(s.key, data)
	if err != nil {
		common.LogWarn("Ignoring unreadable credentials file %s: %v", s.path, err)
		return
	}
	if err := json.Unmarshal(plain, &s.local); err != nil {
		common.LogWarn("Ignoring corrupt credentials file %s: %v", s.path, err)
	}
}

// saveLocal writes the fallback file. Caller holds mu.
func (s *Store) saveLocal() error {
	if s.path == "" {
		return fmt.Errorf("%w: no credentials file path", common.ErrCredentialStorage)
	}
	data, err := json.Marshal(s.local)
	if err != nil {
		return err
	}
	sealed, err := encrypt(s.key, data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	if err := os.WriteFile(s.path, sealed, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

func encrypt(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(sealed)), nil
}

func decrypt(key, data []byte) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

// Store saves a secret under key.
func (s *Store) Store(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if value == "" {
		return errors.New("value cannot be empty")
	}

	if !s.usingFile() {
		err := s.system.Set(s.service, key, value)
		if err == nil {
			return nil
		}
		common.LogWarn("System keyring write failed, falling back to file: %v", err)
		s.fallBack(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	s.local[key] = value
	return s.saveLocal()
}

// Get returns the secret stored under key, or common.ErrCredentialsNotFound.
// The system keyring is consulted first, then the fallback file.
func (s *Store) Get(key string) (string, error) {
	if key == "" {
		return "", errors.New("key cannot be empty")
	}

	if !s.usingFile() {
		value, err := s.system.Get(s.service, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			s.fallBack(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	value, ok := s.local[key]
	if !ok {
		return "", common.ErrCredentialsNotFound
	}
	return value, nil
}

// Delete removes the secret stored under key from both backends. Deleting a
// missing key is not an error.
func (s *Store) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	var systemErr error
	if !s.usingFile() {
		if err := s.system.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			systemErr = err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	if _, ok := s.local[key]; ok {
		delete(s.local, key)
		return s.saveLocal()
	}
	if systemErr != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, systemErr)
	}
	return nil
}
