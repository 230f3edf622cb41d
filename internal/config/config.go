// Package config reads the textfeat configuration file
// (~/.config/textfeat/config.yaml).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvDataDir overrides DataDir from the file.
const EnvDataDir = "TEXTFEAT_DATA_DIR"

// Config mirrors the config file. Pointer fields distinguish "not set" from
// zero values so CLI flags only fall back to values that were written down.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Feature string `yaml:"feature"`

	// Encoder defaults
	Encoder        string   `yaml:"encoder"`
	VocabSize      *int     `yaml:"vocab_size"`
	ReservedTokens []string `yaml:"reserved_tokens"`
	MinPairCount   *int     `yaml:"min_pair_count"`
	MaxCorpusChars *int     `yaml:"max_corpus_chars"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// DefaultPath is the config file location under the user config dir, or ""
// when there is none.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "textfeat", "config.yaml")
}

// Load reads path. A missing file yields a zero Config; a malformed one is
// an error. The data dir environment variable is applied last.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}
