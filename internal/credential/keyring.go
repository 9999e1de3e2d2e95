// Package credential keeps PSA API secrets in the system keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/engineer-metrics/internal/model"
)

const serviceName = "metricsync"

// Keyring keys of the PSA secrets.
const (
	KeyClientID   = "psa-client-id"
	KeyPublicKey  = "psa-public-key"
	KeyPrivateKey = "psa-private-key"
)

// Store reads and writes credentials in a keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open opens the system keyring, falling back to an encrypted file under
// ~/.config/metricsync/credentials.
func Open() (*Store, error) {
	fileDir := "~/.config/metricsync/credentials"
	if home, err := os.UserHomeDir(); err == nil {
		fileDir = filepath.Join(home, ".config", "metricsync", "credentials")
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("metricsync-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// Get retrieves a credential value by key. A missing key yields "" and no
// error.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "metricsync " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// SavePSA stores the non-empty secrets of cfg.
func (s *Store) SavePSA(cfg model.PSAConfig) error {
	for _, kv := range psaFields(&cfg) {
		if *kv.value == "" {
			continue
		}
		if err := s.Set(kv.key, *kv.value); err != nil {
			return err
		}
	}
	return nil
}

// FillPSA copies keyring secrets into the fields of cfg left empty by the
// config file and environment. It returns the keys it filled.
func (s *Store) FillPSA(cfg *model.PSAConfig) ([]string, error) {
	var filled []string
	for _, kv := range psaFields(cfg) {
		if *kv.value != "" {
			continue
		}
		v, err := s.Get(kv.key)
		if err != nil {
			return filled, err
		}
		if v != "" {
			*kv.value = v
			filled = append(filled, kv.key)
		}
	}
	return filled, nil
}

type field struct {
	key   string
	value *string
}

func psaFields(cfg *model.PSAConfig) []field {
	return []field{
		{KeyClientID, &cfg.ClientID},
		{KeyPublicKey, &cfg.PublicKey},
		{KeyPrivateKey, &cfg.PrivateKey},
	}
}
