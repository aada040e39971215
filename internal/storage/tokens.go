package storage

import (
	"errors"
	"io/fs"
	"os"

	"voxel-launcher/internal/models"
)

// ErrNoAccount is returned when no token document has been saved.
var ErrNoAccount = errors.New("no saved account")

// TokenStore persists the identity-provider token document.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

func (ts *TokenStore) Load() (*models.Account, error) {
	var account models.Account
	if err := readJSON(ts.path, &account); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoAccount
		}
		return nil, err
	}
	if account.AccessToken == "" && account.RefreshToken == "" {
		return nil, ErrNoAccount
	}
	return &account, nil
}

// Save writes the document readable by the current user only.
func (ts *TokenStore) Save(account *models.Account) error {
	return writeJSON(ts.path, account, 0o600, false)
}

func (ts *TokenStore) Clear() error {
	if err := os.Remove(ts.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
