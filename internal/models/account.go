package models

import "time"

// Account is the cached identity-provider token document.
type Account struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
	UUID         string `json:"uuid"`
	ExpiresIn    int64  `json:"expires_in"`
	LoginTime    int64  `json:"login_time"`
}

// ExpiresAt is the wall-clock expiry of the access token.
func (a *Account) ExpiresAt() time.Time {
	return time.Unix(a.LoginTime+a.ExpiresIn, 0)
}

// IsExpired reports whether now is past login_time + expires_in.
func (a *Account) IsExpired(now time.Time) bool {
	if a == nil {
		return true
	}
	return now.Unix() > a.LoginTime+a.ExpiresIn
}
