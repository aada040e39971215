package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMaxMemoryMB(t *testing.T) {
	const gb = 1024 * 1024 * 1024
	assert.Equal(t, 1024, DefaultMaxMemoryMB(0))
	assert.Equal(t, 1024, DefaultMaxMemoryMB(2*gb))
	assert.Equal(t, 4096, DefaultMaxMemoryMB(16*gb))
	assert.Equal(t, 8192, DefaultMaxMemoryMB(128*gb))
	assert.Equal(t, 0, DefaultMaxMemoryMB(10*gb)%256)
}

func TestRandomUsername(t *testing.T) {
	name := RandomUsername()
	assert.True(t, strings.HasPrefix(name, "Player"))
	assert.Len(t, name, len("Player")+6)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, AuthOffline, s.AuthMethod)
	assert.Equal(t, LoaderVanilla, s.Loader)
	assert.GreaterOrEqual(t, s.MaxMemoryMB, 1024)
}

func TestLoaderRepositoryName(t *testing.T) {
	assert.Empty(t, LoaderVanilla.RepositoryName())
	assert.Equal(t, "fabric", LoaderFabric.RepositoryName())
	assert.Equal(t, "neoforge", LoaderNeoForge.RepositoryName())
}

func TestAccountExpiry(t *testing.T) {
	acc := &Account{LoginTime: 1000, ExpiresIn: 3600}
	assert.False(t, acc.IsExpired(time.Unix(4600, 0)))
	assert.True(t, acc.IsExpired(time.Unix(4601, 0)))

	var missing *Account
	assert.True(t, missing.IsExpired(time.Now()))
}

func TestLaunchRequestOptionsOffline(t *testing.T) {
	req := LaunchRequest{
		Version:    "1.20.1",
		AuthMethod: AuthOffline,
		Username:   "  Steve ",
		Settings:   Settings{JVMArgs: "-XX:+UseG1GC  -Dfoo=bar", MaxMemoryMB: 2048},
	}

	opts, err := req.Options()
	require.NoError(t, err)
	assert.Equal(t, "Steve", opts.Username)
	assert.NotEmpty(t, opts.UUID)
	assert.Empty(t, opts.Token)
	assert.Equal(t, "legacy", opts.UserType)
	assert.Equal(t, []string{"-XX:+UseG1GC", "-Dfoo=bar"}, opts.JVMArgs)
	assert.Equal(t, 2048, opts.MaxMemoryMB)
}

func TestLaunchRequestOptionsValidation(t *testing.T) {
	_, err := LaunchRequest{Version: "", AuthMethod: AuthOffline, Username: "a"}.Options()
	assert.ErrorIs(t, err, ErrNoVersion)

	_, err = LaunchRequest{Version: "Loading versions...", Username: "a"}.Options()
	assert.ErrorIs(t, err, ErrNoVersion)

	_, err = LaunchRequest{Version: "1.20.1", AuthMethod: AuthOffline, Username: " "}.Options()
	assert.ErrorIs(t, err, ErrNoUsername)

	_, err = LaunchRequest{Version: "1.20.1", AuthMethod: AuthMicrosoft}.Options()
	assert.ErrorIs(t, err, ErrNoAccount)
}

func TestLaunchRequestOptionsMicrosoft(t *testing.T) {
	req := LaunchRequest{
		Version:    "1.21",
		AuthMethod: AuthMicrosoft,
		Account:    &Account{AccessToken: "tok", Username: "Alex", UUID: "abc"},
	}
	opts, err := req.Options()
	require.NoError(t, err)
	assert.Equal(t, "Alex", opts.Username)
	assert.Equal(t, "abc", opts.UUID)
	assert.Equal(t, "tok", opts.Token)
	assert.Equal(t, "msa", opts.UserType)
}

func TestVersionPrimaryFile(t *testing.T) {
	v := Version{Files: []VersionFile{
		{Filename: "a-sources.jar", URL: "https://x/a-sources.jar"},
		{Filename: "a.jar", URL: "https://x/a.jar", Primary: true, Hashes: FileHashes{SHA1: "h1"}},
	}}
	f, ok := v.PrimaryFile()
	require.True(t, ok)
	assert.Equal(t, "a.jar", f.Filename)
	assert.True(t, v.HasHash("h1"))
	assert.False(t, v.HasHash("h2"))

	f, ok = Version{Files: []VersionFile{{Filename: "b.jar", URL: "https://x/b.jar"}}}.PrimaryFile()
	require.True(t, ok)
	assert.Equal(t, "b.jar", f.Filename)

	_, ok = Version{}.PrimaryFile()
	assert.False(t, ok)
}

func TestLaunchRecordDuration(t *testing.T) {
	start := time.Unix(100, 0)
	assert.Zero(t, LaunchRecord{StartedAt: start}.Duration())
	assert.Equal(t, 5*time.Second, LaunchRecord{StartedAt: start, EndedAt: start.Add(5 * time.Second)}.Duration())
}
