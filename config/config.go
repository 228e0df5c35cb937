// Package config loads the service configuration from ./config.toml,
// creating the file from an embedded default when it does not exist.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
)

//go:embed config.toml
var defaultConfig []byte

// DefaultPath is where the configuration file is expected.
const DefaultPath = "./config.toml"

// ErrCreatedDefault is returned by Load after writing the default
// configuration file. The operator is expected to review it before the
// service is started again.
var ErrCreatedDefault = errors.New("created default configuration file")

const defaultContentLengthLimit = 10 * 1024 * 1024

type Server struct {
	Host string `toml:"host"`
	Port uint16 `toml:"port"`
}

type Security struct {
	SecretKey         string `toml:"secret_key"`
	BlockNonGlobalIPs bool   `toml:"block_non_global_ips"`
}

type General struct {
	ResponseTimeout    uint64 `toml:"response_timeout"`  // milliseconds
	OperationTimeout   uint64 `toml:"operation_timeout"` // milliseconds
	MaxRedirectHops    uint   `toml:"max_redirect_hops"`
	ContentLengthLimit string `toml:"content_length_limit"`
	DefaultLang        string `toml:"default_lang"`
	IgnoreRobotsTxt    bool   `toml:"ignore_robots_txt"`
}

type Plugins struct {
	Disabled []string `toml:"disabled"`
}

type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     uint16 `toml:"port"`
	Prefix   string `toml:"prefix"`
	DB       int    `toml:"db"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type Sentry struct {
	DSN string `toml:"dsn"`
}

type Debug struct {
	LogLevel string `toml:"log_level"`
}

type Config struct {
	Server   Server   `toml:"server"`
	Security Security `toml:"security"`
	General  General  `toml:"general"`
	Plugins  Plugins  `toml:"plugins"`
	Cache    Cache    `toml:"cache"`
	Sentry   Sentry   `toml:"sentry"`
	Debug    Debug    `toml:"debug"`
}

// Load reads the configuration from DefaultPath. When the file is missing
// it is created from the embedded default and ErrCreatedDefault is
// returned; the caller should exit so the operator can review the file.
func Load() (*Config, error) {
	if _, err := os.Stat(DefaultPath); os.IsNotExist(err) {
		if err := os.WriteFile(DefaultPath, defaultConfig, 0o644); err != nil {
			return nil, fmt.Errorf("writing default configuration: %w", err)
		}
		return nil, ErrCreatedDefault
	}
	return LoadFile(DefaultPath)
}

// LoadFile reads the configuration from path. The embedded default is
// decoded first so keys absent from the user's file keep their defaults.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("decoding embedded default configuration: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// ContentLengthBytes parses general.content_length_limit. A value that
// does not parse falls back to 10 MiB; the returned error reports the
// fallback so the caller can log it.
func (g General) ContentLengthBytes() (int64, error) {
	n, err := humanize.ParseBytes(g.ContentLengthLimit)
	if err != nil {
		return defaultContentLengthLimit, fmt.Errorf("invalid content_length_limit %q: %w", g.ContentLengthLimit, err)
	}
	return int64(n), nil
}
