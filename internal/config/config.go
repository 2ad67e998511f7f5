// Package config resolves the client's settings from defaults, a YAML file,
// a .env file, SCANNERLOG_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the client reads.
const EnvPrefix = "SCANNERLOG_"

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultListenAddr     = "127.0.0.1:8080"
	DefaultDownloadDir    = "."
	DefaultLogLevel       = "info"
	DefaultRequestTimeout = 30 * time.Second
)

// Config holds the resolved settings.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	ListenAddr     string        `yaml:"listen_addr"`
	StatePath      string        `yaml:"state_path"`
	DownloadDir    string        `yaml:"download_dir"`
	LogPath        string        `yaml:"log_path"`
	LogLevel       string        `yaml:"log_level"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// File is the config file that was read, "" if none.
	File string `yaml:"-"`
}

// Dir returns the per-user directory holding the config and state files.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "scannerlog")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		ListenAddr:     DefaultListenAddr,
		StatePath:      filepath.Join(Dir(), "state.sqlite3"),
		DownloadDir:    DefaultDownloadDir,
		LogLevel:       DefaultLogLevel,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Sources says where Load looks besides flags.
type Sources struct {
	// LookupEnv reads the environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// DotenvPath is an optional .env file. Variables already set in the
	// environment win over it. A missing file is not an error.
	DotenvPath string
	// DefaultFile is read when no config file is named explicitly. A
	// missing file is not an error.
	DefaultFile string
}

// DefaultSources reads the process environment, ./.env and the per-user
// config.yaml.
func DefaultSources() Sources {
	return Sources{
		LookupEnv:   os.LookupEnv,
		DotenvPath:  ".env",
		DefaultFile: filepath.Join(Dir(), "config.yaml"),
	}
}

// Load resolves the configuration. flags may be nil.
func Load(flags *Flags, src Sources) (*Config, error) {
	if src.LookupEnv == nil {
		src.LookupEnv = os.LookupEnv
	}

	dotenv := map[string]string{}
	if src.DotenvPath != "" {
		vals, err := godotenv.Read(src.DotenvPath)
		switch {
		case err == nil:
			dotenv = vals
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading %s: %w", src.DotenvPath, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := src.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := Default()

	path, explicit := src.DefaultFile, false
	if v, ok := lookup(EnvPrefix + "CONFIG"); ok && v != "" {
		path, explicit = v, true
	}
	if flags != nil && flags.changed("config") {
		path, explicit = flags.configFile, true
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		} else {
			cfg.File = path
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if flags != nil {
		flags.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"API_URL":      &c.APIURL,
		"LISTEN_ADDR":  &c.ListenAddr,
		"STATE_PATH":   &c.StatePath,
		"DOWNLOAD_DIR": &c.DownloadDir,
		"LOG_PATH":     &c.LogPath,
		"LOG_LEVEL":    &c.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %sREQUEST_TIMEOUT: %w", EnvPrefix, err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if c.APIURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an http or https URL", c.APIURL)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("invalid request_timeout %s: must not be negative", c.RequestTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.StatePath == "" {
		return errors.New("state_path must not be empty")
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: want debug, info, warn or error", s)
	}
	return level, nil
}
