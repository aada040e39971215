package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voxel-launcher/internal/logger"
	"voxel-launcher/internal/models"
	"voxel-launcher/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeServices plays Microsoft, Xbox Live and the game services.
type fakeServices struct {
	srv *httptest.Server

	mu            sync.Mutex
	xstsStatus    int
	xstsBody      string
	profileStatus int
	grants        []string
	identityToken string
}

func newFakeServices(t *testing.T) *fakeServices {
	t.Helper()
	f := &fakeServices{xstsStatus: http.StatusOK, profileStatus: http.StatusOK}

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		f.mu.Lock()
		f.grants = append(f.grants, r.Form.Get("grant_type"))
		f.mu.Unlock()

		refresh := "refresh-1"
		if r.Form.Get("grant_type") == "refresh_token" {
			refresh = "refresh-2"
		}
		writeJSON(w, map[string]interface{}{
			"access_token":  "ms-token",
			"refresh_token": refresh,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Properties struct {
				RpsTicket string `json:"RpsTicket"`
			} `json:"Properties"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Properties.RpsTicket != "d=ms-token" {
			http.Error(w, "bad ticket", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]interface{}{
			"Token":         "xbl-token",
			"DisplayClaims": map[string]interface{}{"xui": []map[string]string{{"uhs": "uhs-1"}}},
		})
	})
	mux.HandleFunc("/xsts", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status, body := f.xstsStatus, f.xstsBody
		f.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			io.WriteString(w, body)
			return
		}
		writeJSON(w, map[string]interface{}{
			"Token":         "xsts-token",
			"DisplayClaims": map[string]interface{}{"xui": []map[string]string{{"uhs": "uhs-1"}}},
		})
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IdentityToken string `json:"identityToken"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.identityToken = body.IdentityToken
		f.mu.Unlock()
		writeJSON(w, map[string]interface{}{"access_token": "game-token", "expires_in": 86400})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.profileStatus
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer game-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, map[string]string{"id": "069a79f444e94726a5befca90e38aaf5", "name": "Notch"})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServices) endpoints() Endpoints {
	return Endpoints{
		OAuth: oauth2.Endpoint{
			AuthURL:   f.srv.URL + "/authorize",
			TokenURL:  f.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		XboxUserURL:  f.srv.URL + "/user",
		XSTSURL:      f.srv.URL + "/xsts",
		GameLoginURL: f.srv.URL + "/login",
		ProfileURL:   f.srv.URL + "/profile",
	}
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAuth(t *testing.T, f *fakeServices, redirect string) (*MicrosoftAuth, *storage.TokenStore) {
	t.Helper()
	store := storage.NewTokenStore(filepath.Join(t.TempDir(), "microsoft_info.json"))
	a := NewMicrosoftAuth("client-id", redirect, f.endpoints(), store, logger.Nop())
	a.now = func() time.Time { return fixedNow }
	return a, store
}

func TestCompleteLoginSavesAccount(t *testing.T) {
	f := newFakeServices(t)
	a, store := newTestAuth(t, f, "http://localhost:8000")

	account, err := a.CompleteLogin(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "Notch", account.Username)
	assert.Equal(t, "069a79f444e94726a5befca90e38aaf5", account.UUID)
	assert.Equal(t, "game-token", account.AccessToken)
	assert.Equal(t, "refresh-1", account.RefreshToken)
	assert.Equal(t, int64(86400), account.ExpiresIn)
	assert.Equal(t, fixedNow.Unix(), account.LoginTime)
	assert.Equal(t, "XBL3.0 x=uhs-1;xsts-token", f.identityToken)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, account, saved)
}

func TestCompleteLoginXboxErrors(t *testing.T) {
	tests := []struct {
		name string
		code int64
		want string
	}{
		{"no xbox account", 2148916233, "no Xbox account"},
		{"child account", 2148916238, "child account"},
		{"unknown", 42, "xbox authorization failed (42)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeServices(t)
			f.xstsStatus = http.StatusUnauthorized
			body, _ := json.Marshal(map[string]interface{}{"XErr": tt.code, "Redirect": "https://start.ui.xboxlive.com/"})
			f.xstsBody = string(body)
			a, store := newTestAuth(t, f, "http://localhost:8000")

			_, err := a.CompleteLogin(context.Background(), "auth-code")
			var xerr *XboxError
			require.True(t, errors.As(err, &xerr))
			assert.Equal(t, tt.code, xerr.Code)
			assert.Contains(t, err.Error(), tt.want)

			_, err = store.Load()
			assert.True(t, errors.Is(err, storage.ErrNoAccount))
		})
	}
}

func TestCompleteLoginGameNotOwned(t *testing.T) {
	f := newFakeServices(t)
	f.profileStatus = http.StatusNotFound
	a, _ := newTestAuth(t, f, "http://localhost:8000")

	_, err := a.CompleteLogin(context.Background(), "auth-code")
	assert.True(t, errors.Is(err, ErrGameNotOwned))
}

func TestRefreshRenewsStoredAccount(t *testing.T) {
	f := newFakeServices(t)
	a, store := newTestAuth(t, f, "http://localhost:8000")
	require.NoError(t, store.Save(&models.Account{
		AccessToken:  "old",
		RefreshToken: "refresh-1",
		Username:     "Notch",
		ExpiresIn:    10,
		LoginTime:    fixedNow.Add(-time.Hour).Unix(),
	}))
	assert.True(t, a.IsTokenExpired())

	account, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "game-token", account.AccessToken)
	assert.Equal(t, "refresh-2", account.RefreshToken)
	assert.Equal(t, []string{"refresh_token"}, f.grants)
	assert.False(t, a.IsTokenExpired())
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	f := newFakeServices(t)
	a, store := newTestAuth(t, f, "http://localhost:8000")
	require.NoError(t, store.Save(&models.Account{AccessToken: "old"}))

	_, err := a.Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrNoRefreshToken))
}

func TestRefreshWithoutAccount(t *testing.T) {
	f := newFakeServices(t)
	a, _ := newTestAuth(t, f, "http://localhost:8000")

	_, err := a.Refresh(context.Background())
	assert.True(t, errors.Is(err, storage.ErrNoAccount))
	assert.True(t, a.IsTokenExpired())
}

func TestLogoutClearsAccount(t *testing.T) {
	f := newFakeServices(t)
	a, store := newTestAuth(t, f, "http://localhost:8000")
	require.NoError(t, store.Save(&models.Account{AccessToken: "tok", RefreshToken: "r"}))

	require.NoError(t, a.Logout())
	_, err := a.LoadAccount()
	assert.True(t, errors.Is(err, storage.ErrNoAccount))
}

func freeLoopbackAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestStartLoginLoopback(t *testing.T) {
	f := newFakeServices(t)
	redirect := "http://" + freeLoopbackAddr(t)
	a, _ := newTestAuth(t, f, redirect)

	authURL, results, err := a.StartLogin(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "/authorize", parsed.Path)
	assert.Equal(t, "client-id", parsed.Query().Get("client_id"))
	assert.Equal(t, "XboxLive.signin offline_access", parsed.Query().Get("scope"))
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	get := func(query string) (int, string) {
		resp, err := http.Get(redirect + "/?" + query)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, strings.TrimSpace(string(body))
	}

	status, body := get("state=" + state)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request.", body)

	status, _ = get("code=abc&state=forged")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = get("code=abc&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "You can now close this window.", body)

	select {
	case result := <-results:
		require.NoError(t, result.Err)
		assert.Equal(t, "Notch", result.Account.Username)
	case <-time.After(5 * time.Second):
		t.Fatal("login did not complete")
	}
}

func TestStartLoginProviderError(t *testing.T) {
	f := newFakeServices(t)
	redirect := "http://" + freeLoopbackAddr(t)
	a, _ := newTestAuth(t, f, redirect)

	authURL, results, err := a.StartLogin(context.Background())
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	client := &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
		Timeout:   2 * time.Second,
	}

	resp, err := client.Get(redirect + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	select {
	case result := <-results:
		t.Fatalf("stray request ended the login: %v", result.Err)
	case <-time.After(100 * time.Millisecond):
	}

	resp, err = client.Get(redirect + "/?error=access_denied" +
		"&error_description=" + url.QueryEscape("The user has denied access.") +
		"&state=" + url.QueryEscape(state))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login was not completed. You can close this window.", strings.TrimSpace(string(body)))

	select {
	case result := <-results:
		var providerErr *ProviderError
		require.True(t, errors.As(result.Err, &providerErr), "got %v", result.Err)
		assert.Equal(t, "access_denied", providerErr.Code)
		assert.Equal(t, "The user has denied access.", providerErr.Description)
		assert.True(t, errors.Is(result.Err, ErrLoginCancelled))
		assert.Nil(t, result.Account)
	case <-time.After(5 * time.Second):
		t.Fatal("provider error did not end the login")
	}

	assert.Eventually(t, func() bool {
		resp, err := client.Get(redirect + "/?code=abc&state=" + url.QueryEscape(state))
		if err != nil {
			return true
		}
		resp.Body.Close()
		return false
	}, 5*time.Second, 20*time.Millisecond, "listener closes once the login ends")
}

func TestProviderErrorMessage(t *testing.T) {
	assert.Equal(t, "microsoft login failed (server_error): try later",
		(&ProviderError{Code: "server_error", Description: "try later"}).Error())
	assert.Equal(t, "microsoft login failed (invalid_scope)", (&ProviderError{Code: "invalid_scope"}).Error())
	assert.False(t, errors.Is(&ProviderError{Code: "server_error"}, ErrLoginCancelled))
}

func TestStartLoginCancelled(t *testing.T) {
	f := newFakeServices(t)
	a, _ := newTestAuth(t, f, "http://"+freeLoopbackAddr(t))

	ctx, cancel := context.WithCancel(context.Background())
	_, results, err := a.StartLogin(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case result := <-results:
		assert.True(t, errors.Is(result.Err, ErrLoginCancelled))
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled login did not return")
	}
}
