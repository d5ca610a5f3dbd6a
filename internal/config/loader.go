package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".campuscrawl"

// Environment variable names that override file-sourced credentials.
const (
	EnvUsername      = "CAMPUSCRAWL_USERNAME"
	EnvPassword      = "CAMPUSCRAWL_PASSWORD"
	EnvSessionCookie = "CAMPUSCRAWL_SESSION"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML shape of the configuration.
type File struct {
	// PortalURL is the web portal base URL.
	PortalURL string `yaml:"portal_url"`

	// AuthorityURL is the OpenID Connect realm base URL.
	AuthorityURL string `yaml:"authority_url"`

	// DirectoryURL is the directory API base URL.
	DirectoryURL string `yaml:"directory_url"`

	// ClientID is the OAuth client id.
	ClientID string `yaml:"client_id"`

	// RedirectURI is the registered OAuth redirect URI.
	RedirectURI string `yaml:"redirect_uri"`

	// Username and Password are the account credentials. Prefer the
	// CAMPUSCRAWL_USERNAME / CAMPUSCRAWL_PASSWORD environment variables
	// over storing these on disk.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// SessionCookie is the portal session cookie value.
	SessionCookie string `yaml:"session_cookie"`
}

// LoadFile loads a configuration file from path.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .campuscrawl in the current directory
//  3. Look for .campuscrawl in the user's home directory
//
// Returns the path to the configuration file, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply copies the file values into cfg and then applies environment
// overrides for the credential fields. Empty file fields leave the
// existing config value untouched.
func (f *File) Apply(cfg *Config) {
	if f.PortalURL != "" {
		cfg.PortalURL = f.PortalURL
	}
	if f.AuthorityURL != "" {
		cfg.AuthorityURL = f.AuthorityURL
	}
	if f.DirectoryURL != "" {
		cfg.DirectoryURL = f.DirectoryURL
	}
	if f.ClientID != "" {
		cfg.ClientID = f.ClientID
	}
	if f.RedirectURI != "" {
		cfg.RedirectURI = f.RedirectURI
	}
	if f.Username != "" {
		cfg.Username = f.Username
	}
	if f.Password != "" {
		cfg.Password = f.Password
	}
	if f.SessionCookie != "" {
		cfg.SessionCookie = f.SessionCookie
	}
	applyEnvOverrides(cfg)
}

// ApplyEnv applies only the environment overrides, for runs without a
// config file.
func ApplyEnv(cfg *Config) {
	applyEnvOverrides(cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv(EnvSessionCookie); v != "" {
		cfg.SessionCookie = v
	}
}
