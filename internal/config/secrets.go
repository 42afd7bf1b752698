package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SecretStore keeps API keys per provider id in a 0600 JSON file, apart
// from the main config so the config can be shared without leaking keys.
type SecretStore struct {
	path string
	mu   sync.Mutex
}

// NewSecretStore uses ~/.gitmsg/credentials.json when path is empty.
func NewSecretStore(path string) *SecretStore {
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".gitmsg", "credentials.json")
		} else {
			path = filepath.Join(".gitmsg", "credentials.json")
		}
	}
	return &SecretStore{path: path}
}

// Get returns the stored key, or "" when none is stored.
func (s *SecretStore) Get(providerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.read()
	if err != nil {
		return "", err
	}
	return keys[providerID], nil
}

func (s *SecretStore) Set(providerID, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.read()
	if err != nil {
		return err
	}
	keys[providerID] = apiKey
	return s.write(keys)
}

func (s *SecretStore) Delete(providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := keys[providerID]; !ok {
		return nil
	}
	delete(keys, providerID)
	return s.write(keys)
}

func (s *SecretStore) read() (map[string]string, error) {
	keys := map[string]string{}
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if keys == nil {
		keys = map[string]string{}
	}
	return keys, nil
}

func (s *SecretStore) write(keys map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}
	b, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename credentials: %w", err)
	}
	return nil
}
