package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	secretService  = "helm"
	tokenAccount   = "api_token"
	BackendCatalog = "catalog"
	BackendSQLite  = "sqlite"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Catalog CatalogConfig
	Search  SearchConfig
	Voice   VoiceConfig
	Ingest  IngestConfig
	API     APIConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type CatalogConfig struct {
	// Path to a YAML catalog; empty uses the built-in one.
	Path string
}

type SearchConfig struct {
	Backend string
	Delay   time.Duration
}

type VoiceConfig struct {
	PromptDuration time.Duration
}

type IngestConfig struct {
	PollInterval time.Duration
}

type APIConfig struct {
	Token string
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 4100},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info"},
		Search:  SearchConfig{Backend: BackendSQLite, Delay: 500 * time.Millisecond},
		Voice:   VoiceConfig{PromptDuration: 3 * time.Second},
		Ingest:  IngestConfig{PollInterval: 500 * time.Millisecond},
	}
}

// Load reads configuration from the platform-native backend, then applies
// HELM_* environment overrides. The API token comes from HELM_API_TOKEN or
// the platform secret store and may be empty; see EnsureAPIToken.
//
// On macOS the backend is UserDefaults (domain: com.kalambet.helm) and the
// secret store is the Keychain. Elsewhere the backend is a JSON file at
// $XDG_CONFIG_HOME/helm/config.json and secrets live in
// $XDG_DATA_HOME/helm/secrets.json.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), platformSecrets{})
}

// secretStore abstracts the platform secret store for testing.
type secretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

func loadWith(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.API.Token == "" {
		if tok, err := secrets.Get(secretService, tokenAccount); err == nil {
			cfg.API.Token = tok
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports values no component can run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Search.Backend {
	case BackendCatalog, BackendSQLite:
	default:
		return fmt.Errorf("search.backend must be %q or %q, got %q", BackendCatalog, BackendSQLite, c.Search.Backend)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// EnsureAPIToken returns cfg's API token, generating and storing a new one
// when none is configured. created reports whether a token was generated.
func EnsureAPIToken(cfg *Config) (token string, created bool, err error) {
	return ensureAPIToken(cfg, platformSecrets{})
}

func ensureAPIToken(cfg *Config, secrets secretStore) (string, bool, error) {
	if cfg.API.Token != "" {
		return cfg.API.Token, false, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", false, fmt.Errorf("generating API token: %w", err)
	}
	tok := hex.EncodeToString(buf)
	if err := secrets.Set(secretService, tokenAccount, tok); err != nil {
		return "", false, fmt.Errorf("storing API token: %w", err)
	}
	cfg.API.Token = tok
	return tok, true, nil
}

// platformSecrets reads and writes the platform secret store.
type platformSecrets struct{}

func (platformSecrets) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (platformSecrets) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}
