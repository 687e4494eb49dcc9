package storage

import (
	"github.com/zalando/go-keyring"
)

const keyringService = "easyapply-automation"

// SecretStore keeps sensitive keys (profile contact details, CV data) in
// the OS keyring so they are encrypted at rest instead of sitting in a
// plain JSON file next to the queue snapshots.
type SecretStore struct {
	service string
}

func NewSecretStore() *SecretStore {
	return &SecretStore{service: keyringService}
}

func (s *SecretStore) Get(key string) ([]byte, error) {
	v, err := keyring.Get(s.service, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(v), nil
}

func (s *SecretStore) Put(key string, value []byte) error {
	return keyring.Set(s.service, key, string(value))
}

func (s *SecretStore) Delete(key string) error {
	err := keyring.Delete(s.service, key)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}
