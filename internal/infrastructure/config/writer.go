package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# provpack configuration

archive:
  repo_tag: fs
  kind_tag: tab
  ref_prefix: mhg
  default_year: 1960
  suggested_pages: [1, 2, 3]
  source_repo: familysearch-tab

sqlite:
  # path: .provpack/provpack.db

pages:
  backend: fs            # fs or gcs
  dir: .provpack/pages   # <dir>/<packet>/0001.jpg
  # bucket: my-scans     # gcs backend (or set PROVPACK_PAGES_BUCKET)
  # prefix: estate-files
  cache_ttl: 10m

extractor:
  provider: mock         # mock or openai
  model: gpt-4o-mini
  requests_per_second: 1
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

server:
  addr: ":8080"
  allow_origins:
    - http://localhost:3000
    - http://127.0.0.1:3000

log:
  mode: dev              # dev or prod (or set PROVPACK_LOG_MODE)
`

// WriteDefault creates the .provpack directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(filepath.Join(configDir, DefaultPagesDir), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Exists checks if a provpack config exists in the given path.
func Exists(basePath string) bool {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
	_, err := os.Stat(configFile)
	return err == nil
}
