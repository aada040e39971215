package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrGameNotOwned is returned when the profile endpoint has no profile for
// the signed-in account.
var ErrGameNotOwned = errors.New("this account does not own the game")

// XboxError is an XSTS authorization refusal.
type XboxError struct {
	Code     int64
	Message  string
	Redirect string
}

func (e *XboxError) Error() string {
	switch e.Code {
	case 2148916233:
		return "this Microsoft account has no Xbox account; sign in at xbox.com once to create one"
	case 2148916235:
		return "Xbox Live is not available in your country"
	case 2148916236, 2148916237:
		return "this account needs adult verification on xbox.com"
	case 2148916238:
		return "this is a child account; an adult must add it to a Microsoft family"
	}
	if e.Message != "" {
		return fmt.Sprintf("xbox authorization failed (%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("xbox authorization failed (%d)", e.Code)
}

// HTTPError is an unexpected status from one of the authentication services.
type HTTPError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Step, e.StatusCode, e.Body)
}

type xboxTokenResponse struct {
	Token         string `json:"Token"`
	DisplayClaims struct {
		XUI []struct {
			UHS string `json:"uhs"`
		} `json:"xui"`
	} `json:"DisplayClaims"`
}

func (r *xboxTokenResponse) userHash() string {
	if len(r.DisplayClaims.XUI) == 0 {
		return ""
	}
	return r.DisplayClaims.XUI[0].UHS
}

type gameLogin struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type gameProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// xboxChain turns a Microsoft access token into a game token and profile.
func (a *MicrosoftAuth) xboxChain(ctx context.Context, msToken string) (*gameLogin, *gameProfile, error) {
	var user xboxTokenResponse
	err := a.postJSON(ctx, "xbox user authentication", a.endpoints.XboxUserURL, map[string]interface{}{
		"Properties": map[string]interface{}{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + msToken,
		},
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
	}, &user)
	if err != nil {
		return nil, nil, err
	}

	var xsts xboxTokenResponse
	err = a.postJSON(ctx, "xsts authorization", a.endpoints.XSTSURL, map[string]interface{}{
		"Properties": map[string]interface{}{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{user.Token},
		},
		"RelyingParty": "rp://api.minecraftservices.com/",
		"TokenType":    "JWT",
	}, &xsts)
	if err != nil {
		return nil, nil, err
	}

	uhs := xsts.userHash()
	if uhs == "" {
		uhs = user.userHash()
	}

	var login gameLogin
	err = a.postJSON(ctx, "game login", a.endpoints.GameLoginURL, map[string]string{
		"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", uhs, xsts.Token),
	}, &login)
	if err != nil {
		return nil, nil, err
	}

	profile, err := a.profile(ctx, login.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return &login, profile, nil
}

func (a *MicrosoftAuth) profile(ctx context.Context, token string) (*gameProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoints.ProfileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("game profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrGameNotOwned
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readHTTPError("game profile", resp)
	}

	var profile gameProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("game profile: %w", err)
	}
	if profile.ID == "" {
		return nil, ErrGameNotOwned
	}
	return &profile, nil
}

func (a *MicrosoftAuth) postJSON(ctx context.Context, step, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		var xerr struct {
			XErr     int64  `json:"XErr"`
			Message  string `json:"Message"`
			Redirect string `json:"Redirect"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &xerr) == nil && xerr.XErr != 0 {
			return &XboxError{Code: xerr.XErr, Message: xerr.Message, Redirect: xerr.Redirect}
		}
		return &HTTPError{Step: step, StatusCode: resp.StatusCode, Body: string(data)}
	}
	if resp.StatusCode != http.StatusOK {
		return readHTTPError(step, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}

func readHTTPError(step string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &HTTPError{Step: step, StatusCode: resp.StatusCode, Body: string(data)}
}
