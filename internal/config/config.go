package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration for punch, stored in ~/.punch/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// DataDir holds the ledger files. Empty = ~/.punch.
	DataDir string `json:"data_dir"`
	// Backend is the key-value store: "file" or "sqlite".
	Backend string `json:"backend"`
	// StorageKey is the namespaced key the ledger snapshot is stored under.
	StorageKey string `json:"storage_key"`
	// Timezone is the IANA zone punches are recorded in. Empty = local time.
	Timezone string `json:"timezone"`
	// LogLevel is the zap level for diagnostics on stderr.
	LogLevel string `json:"log_level"`
	// ListenAddr is the address `punch serve` binds to.
	ListenAddr string `json:"listen_addr"`
}

const (
	DefaultBackend    = "file"
	DefaultStorageKey = "punch-storage"
	DefaultLogLevel   = "warn"
	DefaultListenAddr = ":8080"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		Backend:    DefaultBackend,
		StorageKey: DefaultStorageKey,
		LogLevel:   DefaultLogLevel,
		ListenAddr: DefaultListenAddr,
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// punch configuration – ~/.punch/config.json
//
// All settings are optional. Environment variables (PUNCH_DATA_DIR,
// PUNCH_BACKEND, PUNCH_STORAGE_KEY, PUNCH_TIMEZONE, PUNCH_LOG_LEVEL,
// PUNCH_ADDR) and a .env file in the working directory override this file.
{
  // Directory holding the ledger. Leave empty for ~/.punch.
  "data_dir": "",

  // Storage backend: "file" (one JSON file per key) or "sqlite" (punch.db).
  "backend": "file",

  // Key the ledger snapshot is stored under.
  "storage_key": "punch-storage",

  // IANA timezone punches are recorded in, e.g. "America/Sao_Paulo".
  // Leave empty to use the machine's local time.
  "timezone": "",

  // Diagnostics level on stderr: debug, info, warn, error.
  "log_level": "warn",

  // Listen address for: punch serve
  "listen_addr": ":8080"
}
`

// homeDir returns ~/.punch.
func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".punch"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.punch/config.json (creating it with annotated defaults on
// first run), then applies .env and PUNCH_* environment overrides.
func Load() (Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	dir, err := homeDir()
	if err != nil {
		return defaultConfig(), err
	}
	cfg, err := LoadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return cfg, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// LoadFile reads the config at path and applies environment overrides.
// A missing file is created from the annotated template.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	case err != nil:
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
			return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	applyEnv(&cfg)
	fillDefaults(&cfg)

	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves Timezone. Empty means time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// applyEnv overrides file values with non-empty PUNCH_* variables.
func applyEnv(cfg *Config) {
	for env, field := range map[string]*string{
		"PUNCH_DATA_DIR":    &cfg.DataDir,
		"PUNCH_BACKEND":     &cfg.Backend,
		"PUNCH_STORAGE_KEY": &cfg.StorageKey,
		"PUNCH_TIMEZONE":    &cfg.Timezone,
		"PUNCH_LOG_LEVEL":   &cfg.LogLevel,
		"PUNCH_ADDR":        &cfg.ListenAddr,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*field = v
		}
	}
}

// fillDefaults fills zero-value fields with built-in defaults so callers
// always get a usable Config even if the user only partially fills in the file.
func fillDefaults(cfg *Config) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
