package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joshsymonds/inboxtriage/internal/rate"
	"github.com/joshsymonds/inboxtriage/internal/region"
	"github.com/joshsymonds/inboxtriage/internal/secrets"
)

// Credential sources.
const (
	SourceSecretsManager = "secretsmanager"
	SourceLocal          = "local"
)

// Environment variable names. Region variables live in the region package.
const (
	EnvSecretName       = "GMAIL_SECRET_NAME"
	EnvMetadataEndpoint = "TRIAGE_METADATA_ENDPOINT"
	EnvMetadataTimeout  = "TRIAGE_METADATA_TIMEOUT"
	EnvCredentialSource = "TRIAGE_CREDENTIAL_SOURCE"
	EnvLocalDir         = "TRIAGE_LOCAL_CONFIG_DIR"
	EnvCacheTTL         = "TRIAGE_CREDENTIAL_CACHE_TTL"
	EnvRPS              = "TRIAGE_RPS"
	EnvAddr             = "TRIAGE_ADDR"
	EnvAllowedOrigins   = "TRIAGE_ALLOWED_ORIGINS"
	EnvLogLevel         = "TRIAGE_LOG_LEVEL"
)

// Config holds all inboxtriage configuration.
type Config struct {
	SecretName       string
	CredentialSource string
	LocalDir         string
	MetadataEndpoint string
	MetadataTimeout  time.Duration
	CacheTTL         time.Duration
	RPS              int
	Addr             string
	AllowedOrigins   []string
	LogLevel         slog.Level

	// Lookup reads environment variables; region resolution uses it too.
	Lookup region.LookupFunc
}

func defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		SecretName:       secrets.DefaultSecretName,
		CredentialSource: SourceSecretsManager,
		LocalDir:         filepath.Join(home, ".inboxtriage"),
		MetadataEndpoint: "http://169.254.169.254",
		MetadataTimeout:  region.DefaultProbeTimeout,
		Addr:             ":8000",
		AllowedOrigins:   []string{"*"},
		LogLevel:         slog.LevelInfo,
	}
}

// LoadDotEnv seeds the process environment from path. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration through lookup (os.LookupEnv when nil).
// Blank values count as unset.
func Load(lookup region.LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := defaults()
	cfg.Lookup = lookup

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvSecretName); ok {
		cfg.SecretName = v
	}
	if v, ok := get(EnvCredentialSource); ok {
		switch strings.ToLower(v) {
		case SourceSecretsManager, SourceLocal:
			cfg.CredentialSource = strings.ToLower(v)
		default:
			return nil, fmt.Errorf("invalid %s %q: want %s or %s", EnvCredentialSource, v, SourceSecretsManager, SourceLocal)
		}
	}
	if v, ok := get(EnvLocalDir); ok {
		cfg.LocalDir = os.ExpandEnv(v)
	}
	if v, ok := get(EnvMetadataEndpoint); ok {
		cfg.MetadataEndpoint = v
	}
	if v, ok := get(EnvMetadataTimeout); ok {
		d, err := parseDuration(EnvMetadataTimeout, v)
		if err != nil {
			return nil, err
		}
		cfg.MetadataTimeout = d
	}
	if v, ok := get(EnvCacheTTL); ok {
		d, err := parseDuration(EnvCacheTTL, v)
		if err != nil {
			return nil, err
		}
		cfg.CacheTTL = d
	}
	if v, ok := get(EnvRPS); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > rate.MaxRPS {
			return nil, fmt.Errorf("invalid %s %q: want an integer between 0 and %d", EnvRPS, v, rate.MaxRPS)
		}
		cfg.RPS = n
	}
	if v, ok := get(EnvAddr); ok {
		cfg.Addr = v
	}
	if v, ok := get(EnvAllowedOrigins); ok {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := get(EnvLogLevel); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvLogLevel, v, err)
		}
	}
	return &cfg, nil
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q: want a non-negative duration", key, v)
	}
	return d, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
