package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/models"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	loginTimeout = 5 * time.Minute
	httpTimeout  = 30 * time.Second
)

var scopes = []string{"XboxLive.signin", "offline_access"}

// ErrNoRefreshToken is returned by Refresh when the stored account cannot be renewed.
var ErrNoRefreshToken = errors.New("no refresh token, please log in again")

// Endpoints are the services involved in a login. Tests point them at fakes.
type Endpoints struct {
	OAuth        oauth2.Endpoint
	XboxUserURL  string
	XSTSURL      string
	GameLoginURL string
	ProfileURL   string
}

func DefaultEndpoints() Endpoints {
	oauth := microsoft.AzureADEndpoint("consumers")
	oauth.AuthStyle = oauth2.AuthStyleInParams
	return Endpoints{
		OAuth:        oauth,
		XboxUserURL:  "https://user.auth.xboxlive.com/user/authenticate",
		XSTSURL:      "https://xsts.auth.xboxlive.com/xsts/authorize",
		GameLoginURL: "https://api.minecraftservices.com/authentication/login_with_xbox",
		ProfileURL:   "https://api.minecraftservices.com/minecraft/profile",
	}
}

// AccountStore persists the signed-in account.
type AccountStore interface {
	Load() (*models.Account, error)
	Save(*models.Account) error
	Clear() error
}

// LoginResult is delivered once per StartLogin.
type LoginResult struct {
	Account *models.Account
	Err     error
}

// MicrosoftAuth runs the authorization-code flow against Microsoft and
// exchanges the result for a game session.
type MicrosoftAuth struct {
	oauth     *oauth2.Config
	endpoints Endpoints
	http      *http.Client
	store     AccountStore
	logger    logger.Logger
	now       func() time.Time
}

func NewMicrosoftAuth(clientID, redirectURL string, endpoints Endpoints, store AccountStore, log logger.Logger) *MicrosoftAuth {
	return &MicrosoftAuth{
		oauth: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Scopes:      scopes,
			Endpoint:    endpoints.OAuth,
		},
		endpoints: endpoints,
		http:      &http.Client{Timeout: httpTimeout},
		store:     store,
		logger:    log,
		now:       time.Now,
	}
}

// StartLogin listens on the redirect address and returns the URL the user
// must open. The result channel receives exactly one value: the saved
// account, or the reason the login failed.
func (a *MicrosoftAuth) StartLogin(ctx context.Context) (string, <-chan LoginResult, error) {
	redirect, err := url.Parse(a.oauth.RedirectURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid redirect url: %w", err)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", nil, fmt.Errorf("start login listener on %s: %w", redirect.Host, err)
	}

	state := uuid.NewString()
	authURL := a.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))

	results := make(chan LoginResult, 1)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, loginTimeout)
		defer cancel()

		code, err := a.awaitCallback(ctx, listener, state)
		if err != nil {
			results <- LoginResult{Err: err}
			return
		}
		account, err := a.CompleteLogin(ctx, code)
		results <- LoginResult{Account: account, Err: err}
	}()

	a.logger.Info("Auth", "waiting for browser login", map[string]interface{}{
		"redirect": a.oauth.RedirectURL,
	})
	return authURL, results, nil
}

// CompleteLogin exchanges an authorization code and stores the account.
func (a *MicrosoftAuth) CompleteLogin(ctx context.Context, code string) (*models.Account, error) {
	token, err := a.oauth.Exchange(a.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return a.finish(ctx, token, "")
}

// Refresh renews the stored account with its refresh token.
func (a *MicrosoftAuth) Refresh(ctx context.Context) (*models.Account, error) {
	account, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if account.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	source := a.oauth.TokenSource(a.oauthContext(ctx), &oauth2.Token{
		RefreshToken: account.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh Microsoft token: %w", err)
	}
	return a.finish(ctx, token, account.RefreshToken)
}

func (a *MicrosoftAuth) finish(ctx context.Context, token *oauth2.Token, previousRefresh string) (*models.Account, error) {
	login, profile, err := a.xboxChain(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	account := &models.Account{
		AccessToken:  login.AccessToken,
		RefreshToken: refresh,
		Username:     profile.Name,
		UUID:         profile.ID,
		ExpiresIn:    login.ExpiresIn,
		LoginTime:    a.now().Unix(),
	}
	if err := a.store.Save(account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	a.logger.Info("Auth", "signed in", map[string]interface{}{
		"username": account.Username,
		"expires":  account.ExpiresAt().Format(time.RFC3339),
	})
	return account, nil
}

func (a *MicrosoftAuth) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.http)
}

// LoadAccount returns the stored account, if any.
func (a *MicrosoftAuth) LoadAccount() (*models.Account, error) {
	return a.store.Load()
}

// IsTokenExpired reports whether the stored account needs a refresh. A
// missing account counts as expired.
func (a *MicrosoftAuth) IsTokenExpired() bool {
	account, err := a.store.Load()
	if err != nil {
		return true
	}
	return account.IsExpired(a.now())
}

func (a *MicrosoftAuth) Logout() error {
	if err := a.store.Clear(); err != nil {
		return err
	}
	a.logger.Info("Auth", "signed out", nil)
	return nil
}
