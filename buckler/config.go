package buckler

import (
	"github.com/hazyhaar/sf6scout/buckler/internal/config"
)

// Config is the scout configuration; see LoadConfigFile.
type Config = config.Config

// Cookie is one credential cookie.
type Cookie = config.Cookie

// DefaultCredentialEnv names the environment variable read by Resolve.
const DefaultCredentialEnv = config.DefaultCredentialEnv

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config { return config.Default() }

// LoadConfigFile reads a YAML configuration and applies defaults.
func LoadConfigFile(path string) (*Config, error) { return config.LoadFile(path) }
