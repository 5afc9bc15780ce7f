// Package config handles sf6scout configuration from YAML files and the
// environment.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCredentialEnv is the environment variable holding the session cookie string.
const DefaultCredentialEnv = "SF6_COOKIE"

// Config is the top-level configuration.
type Config struct {
	Site          SiteConfig    `yaml:"site"`
	Browser       BrowserConfig `yaml:"browser"`
	Timeouts      TimeoutConfig `yaml:"timeouts"`
	Labels        LabelConfig   `yaml:"labels"`
	Cache         CacheConfig   `yaml:"cache"`
	Server        ServerConfig  `yaml:"server"`
	MetricsDB     string        `yaml:"metrics_db"`
	CredentialEnv string        `yaml:"credential_env"`

	// Credential is the raw cookie string. It is read from CredentialEnv by
	// Resolve and is never loaded from the YAML file.
	Credential string `yaml:"-"`
}

// SiteConfig locates the target site.
type SiteConfig struct {
	Origin       string `yaml:"origin"`
	Locale       string `yaml:"locale"`
	CookieDomain string `yaml:"cookie_domain"` // empty = derived from Origin
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	UserAgent        string        `yaml:"user_agent"`
	WindowSize       string        `yaml:"window_size"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
}

// TimeoutConfig holds the navigation bound and the settle delays. Settle
// delays stand in for a render-complete signal the site does not expose; a
// render slower than the delay is missed.
type TimeoutConfig struct {
	Navigation    time.Duration `yaml:"navigation"`
	NetworkIdle   time.Duration `yaml:"network_idle"`
	TabSettle     time.Duration `yaml:"tab_settle"`
	ModalSettle   time.Duration `yaml:"modal_settle"`
	SelectSettle  time.Duration `yaml:"select_settle"`
	ConfirmSettle time.Duration `yaml:"confirm_settle"`
	SearchSettle  time.Duration `yaml:"search_settle"`
}

// LabelConfig holds the visible UI labels of the locale in use.
type LabelConfig struct {
	LeaguePointTab string   `yaml:"league_point_tab"`
	MasterRateTab  string   `yaml:"master_rate_tab"`
	MatchupTab     string   `yaml:"matchup_tab"`
	Confirm        string   `yaml:"confirm"`
	SearchHints    []string `yaml:"search_hints"`
}

// CacheConfig controls the stats result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Size    int           `yaml:"size"`
	Path    string        `yaml:"path"` // SQLite file; empty = memory only
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	StaticDir  string        `yaml:"static_dir"` // served under /characters/
	MCP        bool          `yaml:"mcp"`        // mount the MCP endpoint at /mcp
	RateLimit  int           `yaml:"rate_limit"` // requests per client and route per window; < 0 disables
	RateWindow time.Duration `yaml:"rate_window"`

	// TrustedProxies are the reverse proxies, as CIDRs or addresses, whose
	// X-Forwarded-For header identifies the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Resolve reads the credential from the environment.
func (c *Config) Resolve() {
	c.Credential = os.Getenv(c.CredentialEnv)
}

func (c *Config) applyDefaults() {
	if c.Site.Origin == "" {
		c.Site.Origin = "https://www.streetfighter.com"
	}
	if c.Site.Locale == "" {
		c.Site.Locale = "ja-jp"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.UserAgent == "" {
		c.Browser.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Browser.WindowSize == "" {
		c.Browser.WindowSize = "1280,800"
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"fonts", "media"}
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Timeouts.Navigation <= 0 {
		c.Timeouts.Navigation = 60 * time.Second
	}
	if c.Timeouts.NetworkIdle <= 0 {
		c.Timeouts.NetworkIdle = 500 * time.Millisecond
	}
	if c.Timeouts.TabSettle <= 0 {
		c.Timeouts.TabSettle = 3 * time.Second
	}
	if c.Timeouts.ModalSettle <= 0 {
		c.Timeouts.ModalSettle = time.Second
	}
	if c.Timeouts.SelectSettle <= 0 {
		c.Timeouts.SelectSettle = 500 * time.Millisecond
	}
	if c.Timeouts.ConfirmSettle <= 0 {
		c.Timeouts.ConfirmSettle = 5 * time.Second
	}
	if c.Timeouts.SearchSettle <= 0 {
		c.Timeouts.SearchSettle = 4 * time.Second
	}
	if c.Labels.LeaguePointTab == "" {
		c.Labels.LeaguePointTab = "キャラクター別リーグポイント"
	}
	if c.Labels.MasterRateTab == "" {
		c.Labels.MasterRateTab = "キャラクター別マスターレート"
	}
	if c.Labels.MatchupTab == "" {
		c.Labels.MatchupTab = "キャラクター別対戦数"
	}
	if c.Labels.Confirm == "" {
		c.Labels.Confirm = "変更する"
	}
	if len(c.Labels.SearchHints) == 0 {
		c.Labels.SearchHints = []string{"ID", "Fighter", "検索"}
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 256
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 20
	}
	if c.Server.RateWindow <= 0 {
		c.Server.RateWindow = time.Minute
	}
	if c.CredentialEnv == "" {
		c.CredentialEnv = DefaultCredentialEnv
	}
}
