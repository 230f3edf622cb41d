package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv(EnvDataDir, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/data
feature: title
encoder: subword
vocab_size: 8192
reserved_tokens: ["<eos>", "<sep>"]
min_pair_count: 0
log_level: debug
server_address: 127.0.0.1:9090
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, "title", cfg.Feature)
	assert.Equal(t, "subword", cfg.Encoder)
	require.NotNil(t, cfg.VocabSize)
	assert.Equal(t, 8192, *cfg.VocabSize)
	assert.Equal(t, []string{"<eos>", "<sep>"}, cfg.ReservedTokens)
	require.NotNil(t, cfg.MinPairCount, "explicit zero is kept")
	assert.Zero(t, *cfg.MinPairCount)
	assert.Nil(t, cfg.MaxCorpusChars)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9090", cfg.ServerAddress)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvDataDir, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadMalformed(t *testing.T) {
	t.Setenv(EnvDataDir, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vocab_size: [not, an, int]\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestLoadEnvOverridesDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "/from/env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /from/file\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if p := DefaultPath(); p != "" {
		assert.Equal(t, filepath.Join("textfeat", "config.yaml"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))
	}
}
