// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for provpack configuration.
	DefaultConfigDir = ".provpack"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite file name inside the config dir.
	DefaultDatabaseFile = "provpack.db"
	// DefaultPagesDir is the default page image directory inside the config dir.
	DefaultPagesDir = "pages"
)

// Page backends and extractor providers.
const (
	PagesBackendFS  = "fs"
	PagesBackendGCS = "gcs"

	ExtractorMock   = "mock"
	ExtractorOpenAI = "openai"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Archive   ArchiveConfig   `yaml:"archive,omitempty"`
	SQLite    SQLiteConfig    `yaml:"sqlite,omitempty"`
	Pages     PagesConfig     `yaml:"pages,omitempty"`
	Extractor ExtractorConfig `yaml:"extractor,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
}

// ArchiveConfig holds packet locator and case source settings.
type ArchiveConfig struct {
	RepoTag        string `yaml:"repo_tag,omitempty"`
	KindTag        string `yaml:"kind_tag,omitempty"`
	RefPrefix      string `yaml:"ref_prefix,omitempty"`
	DefaultYear    int    `yaml:"default_year,omitempty"`
	SuggestedPages []int  `yaml:"suggested_pages,omitempty"`
	// SourceRepo is recorded on the Source of every approved case.
	SourceRepo string `yaml:"source_repo,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite case store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. When empty the database
	// lives in the config directory; see DatabasePath.
	Path string `yaml:"path,omitempty"`
}

// PagesConfig selects where scanned page images are read from.
type PagesConfig struct {
	Backend string `yaml:"backend,omitempty"`
	// Dir is the root of the fs backend, relative to the project directory.
	Dir    string `yaml:"dir,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	// CacheTTL enables an in-memory page cache when positive.
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// ExtractorConfig holds configuration for the field extractor.
type ExtractorConfig struct {
	Provider          string  `yaml:"provider,omitempty"`
	Model             string  `yaml:"model,omitempty"`
	APIKey            string  `yaml:"api_key,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// AllowOrigins lists the browser origins allowed by CORS.
	AllowOrigins []string `yaml:"allow_origins,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Mode is "dev" or "prod".
	Mode string `yaml:"mode,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Archive: ArchiveConfig{
			RepoTag:        "fs",
			KindTag:        "tab",
			RefPrefix:      "mhg",
			DefaultYear:    1960,
			SuggestedPages: []int{1, 2, 3},
			SourceRepo:     "familysearch-tab",
		},
		Pages: PagesConfig{
			Backend:  PagesBackendFS,
			Dir:      filepath.Join(DefaultConfigDir, DefaultPagesDir),
			CacheTTL: 10 * time.Minute,
		},
		Extractor: ExtractorConfig{
			Provider:          ExtractorMock,
			Model:             "gpt-4o-mini",
			RequestsPerSecond: 1,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Load loads configuration from the .provpack directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'provpack init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Extractor.APIKey == "" {
		c.Extractor.APIKey = key
	}
	if mode := os.Getenv("PROVPACK_LOG_MODE"); mode != "" {
		c.Log.Mode = mode
	}
	if bucket := os.Getenv("PROVPACK_PAGES_BUCKET"); bucket != "" {
		c.Pages.Bucket = bucket
	}
}

// Validate checks that the selected backends are known and configured.
func (c *Config) Validate() error {
	switch c.Pages.Backend {
	case PagesBackendFS:
	case PagesBackendGCS:
		if c.Pages.Bucket == "" {
			return fmt.Errorf("pages backend %q requires pages.bucket", PagesBackendGCS)
		}
	default:
		return fmt.Errorf("unknown pages backend %q (want %s or %s)", c.Pages.Backend, PagesBackendFS, PagesBackendGCS)
	}

	switch c.Extractor.Provider {
	case ExtractorMock, ExtractorOpenAI:
	default:
		return fmt.Errorf("unknown extractor provider %q (want %s or %s)", c.Extractor.Provider, ExtractorMock, ExtractorOpenAI)
	}

	if c.Archive.DefaultYear < 0 {
		return fmt.Errorf("archive.default_year must not be negative, got %d", c.Archive.DefaultYear)
	}
	for _, p := range c.Archive.SuggestedPages {
		if p < 1 {
			return fmt.Errorf("archive.suggested_pages must be positive, got %d", p)
		}
	}
	return nil
}

// DatabasePath returns the SQLite path, resolving the default location.
func (c *Config) DatabasePath(basePath string) string {
	if c.SQLite.Path == "" {
		return filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)
	}
	if filepath.IsAbs(c.SQLite.Path) {
		return c.SQLite.Path
	}
	return filepath.Join(basePath, c.SQLite.Path)
}

// PagesDir returns the root directory of the fs page backend.
func (c *Config) PagesDir(basePath string) string {
	if filepath.IsAbs(c.Pages.Dir) {
		return c.Pages.Dir
	}
	return filepath.Join(basePath, c.Pages.Dir)
}

// ConfigDir returns the path to the .provpack config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SanitizePacketID converts a packet id to a safe directory or object name.
func SanitizePacketID(packetID string) string {
	// Convert to lowercase
	name := strings.ToLower(packetID)

	// Replace separators with underscores
	name = strings.NewReplacer(" ", "_", "-", "_", ":", "_", "/", "_").Replace(name)

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return "unknown"
	}

	return name
}
