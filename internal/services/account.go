package services

import (
	"context"
	"errors"

	"voxel-launcher/internal/auth"
	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/storage"
)

// AccountService keeps the signed-in Microsoft account current.
type AccountService struct {
	auth   Authenticator
	logger logger.Logger
}

func NewAccountService(a Authenticator, log logger.Logger) *AccountService {
	return &AccountService{auth: a, logger: log}
}

// Restore loads the saved account and refreshes it when its token has
// expired. It returns nil without error when nobody is signed in.
func (as *AccountService) Restore(ctx context.Context) (*models.Account, error) {
	account, err := as.auth.LoadAccount()
	if errors.Is(err, storage.ErrNoAccount) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !as.auth.IsTokenExpired() {
		return account, nil
	}

	as.logger.Info("AccountService", "token expired, refreshing", map[string]interface{}{
		"username": account.Username,
	})
	refreshed, err := as.auth.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}

// Login starts the browser login; see auth.MicrosoftAuth.StartLogin.
func (as *AccountService) Login(ctx context.Context) (string, <-chan auth.LoginResult, error) {
	return as.auth.StartLogin(ctx)
}

// Current returns the saved account without refreshing it.
func (as *AccountService) Current() *models.Account {
	account, err := as.auth.LoadAccount()
	if err != nil {
		return nil
	}
	return account
}

func (as *AccountService) Logout() error {
	return as.auth.Logout()
}
