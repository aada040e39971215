package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNoVersion  = errors.New("no version selected")
	ErrNoUsername = errors.New("no username entered")
	ErrNoAccount  = errors.New("not logged in with Microsoft")
)

// LaunchRequest is the state captured from the launch form.
type LaunchRequest struct {
	Version    string
	Loader     LoaderType
	AuthMethod AuthMethod
	Username   string
	Account    *Account
	Settings   Settings
}

// LaunchOptions are the player and JVM parameters handed to the command builder.
// Zero values mean "use the builder default".
type LaunchOptions struct {
	Username         string
	UUID             string
	Token            string
	UserType         string
	JavaPath         string
	JVMArgs          []string
	MinMemoryMB      int
	MaxMemoryMB      int
	ResolutionWidth  int
	ResolutionHeight int
	LauncherName     string
	LauncherVersion  string
}

// Options validates the request and derives launch options from it.
func (r LaunchRequest) Options() (LaunchOptions, error) {
	version := strings.TrimSpace(r.Version)
	if version == "" || strings.HasPrefix(version, "Loading") {
		return LaunchOptions{}, ErrNoVersion
	}

	opts := LaunchOptions{
		JavaPath:         strings.TrimSpace(r.Settings.JavaPath),
		JVMArgs:          r.Settings.JVMArgList(),
		MinMemoryMB:      r.Settings.MinMemoryMB,
		MaxMemoryMB:      r.Settings.MaxMemoryMB,
		ResolutionWidth:  r.Settings.ResolutionWidth,
		ResolutionHeight: r.Settings.ResolutionHeight,
	}

	switch r.AuthMethod {
	case AuthMicrosoft:
		if r.Account == nil || r.Account.AccessToken == "" {
			return LaunchOptions{}, ErrNoAccount
		}
		opts.Username = r.Account.Username
		opts.UUID = r.Account.UUID
		opts.Token = r.Account.AccessToken
		opts.UserType = "msa"
	default:
		name := strings.TrimSpace(r.Username)
		if name == "" {
			return LaunchOptions{}, ErrNoUsername
		}
		opts.Username = name
		opts.UUID = uuid.NewString()
		opts.UserType = "legacy"
	}

	return opts, nil
}
