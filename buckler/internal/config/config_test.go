package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sf6scout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  locale: en
timeouts:
  tab_settle: 1500ms
cache:
  enabled: true
  ttl: 2m
labels:
  confirm: Change
server:
  trusted_proxies: [10.0.0.0/8, 127.0.0.1]
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://www.streetfighter.com", cfg.Site.Origin)
	assert.Equal(t, "en", cfg.Site.Locale)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeouts.TabSettle)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Navigation)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeouts.NetworkIdle)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.ConfirmSettle)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 256, cfg.Cache.Size)
	assert.Equal(t, "Change", cfg.Labels.Confirm)
	assert.Equal(t, "キャラクター別リーグポイント", cfg.Labels.LeaguePointTab)
	assert.Equal(t, DefaultCredentialEnv, cfg.CredentialEnv)
	assert.Equal(t, []string{"fonts", "media"}, cfg.Browser.ResourceBlocking)
	assert.Equal(t, 20, cfg.Server.RateLimit)
	assert.Equal(t, time.Minute, cfg.Server.RateWindow)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	t.Setenv("SCOUT_TEST_COOKIE", "a=1")
	cfg := Default()
	cfg.CredentialEnv = "SCOUT_TEST_COOKIE"
	cfg.Resolve()
	assert.Equal(t, "a=1", cfg.Credential)
}

func TestParseCookies(t *testing.T) {
	cookies, err := ParseCookies(" buckler_id=abc; buckler_r_id=x=y==;; =orphan; flag ", ".streetfighter.com")
	require.NoError(t, err)
	assert.Equal(t, []Cookie{
		{Name: "buckler_id", Value: "abc", Domain: ".streetfighter.com"},
		{Name: "buckler_r_id", Value: "x=y==", Domain: ".streetfighter.com"},
		{Name: "flag", Value: "", Domain: ".streetfighter.com"},
	}, cookies)
}

func TestParseCookies_Empty(t *testing.T) {
	_, err := ParseCookies(" ; ;", ".example.com")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestCookieDomain(t *testing.T) {
	cfg := Default()
	domain, err := cfg.CookieDomain()
	require.NoError(t, err)
	assert.Equal(t, ".streetfighter.com", domain)

	cfg.Site.Origin = "http://127.0.0.1:8081"
	domain, err = cfg.CookieDomain()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", domain)

	cfg.Site.CookieDomain = ".override.test"
	domain, err = cfg.CookieDomain()
	require.NoError(t, err)
	assert.Equal(t, ".override.test", domain)
}

func TestCookies_NoCredential(t *testing.T) {
	cfg := Default()
	_, err := cfg.Cookies()
	assert.ErrorIs(t, err, ErrNoCredential)
}
