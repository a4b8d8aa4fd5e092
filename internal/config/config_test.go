package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "deepseek-chat", cfg.Model)
	assert.InDelta(t, 1.0, cfg.Temperature, 0.001)
	assert.Equal(t, "https://api.deepseek.com", cfg.BaseURL)
	assert.Equal(t, "line", cfg.Strategy)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Empty(t, cfg.APIKey)
}

func TestResolveAPIKey_Missing(t *testing.T) {
	_, err := Config{}.ResolveAPIKey()
	require.Error(t, err)

	var mk *MissingKeyError
	require.ErrorAs(t, err, &mk)
	assert.Equal(t, EnvAPIKey, mk.Variable)

	// The message walks the user through setup on each platform.
	msg := err.Error()
	assert.Contains(t, msg, "DEEPSEEK_API_KEY is not set")
	assert.Contains(t, msg, "export DEEPSEEK_API_KEY")
	assert.Contains(t, msg, "set DEEPSEEK_API_KEY")
	assert.Contains(t, msg, "$env:DEEPSEEK_API_KEY")
}

func TestResolveAPIKey_WhitespaceOnly(t *testing.T) {
	_, err := Config{APIKey: "   \t"}.ResolveAPIKey()
	var mk *MissingKeyError
	require.ErrorAs(t, err, &mk)
}

func TestResolveAPIKey_Trims(t *testing.T) {
	key, err := Config{APIKey: "  sk-test-123  "}.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", key)
}

func TestWithEnv_Overlay(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "env-key")
	t.Setenv("TESTSMITH_MODEL", "deepseek-coder")
	t.Setenv("TESTSMITH_BASE_URL", "http://localhost:8080")

	cfg, err := Default().WithEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "deepseek-coder", cfg.Model)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
}

func TestWithEnv_UnsetLeavesDefaults(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("TESTSMITH_MODEL", "")
	t.Setenv("TESTSMITH_BASE_URL", "")

	cfg, err := Default().WithEnv(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "deepseek-chat", cfg.Model)
	assert.Equal(t, "https://api.deepseek.com", cfg.BaseURL)
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	content := "model: deepseek-coder\ntemperature: 0.5\nstrategy: blocks\nconcurrency: 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileNameYAML), []byte(content), 0o644))

	fc, err := LoadFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-coder", fc.Model)
	require.NotNil(t, fc.Temperature)
	assert.InDelta(t, 0.5, *fc.Temperature, 0.001)
	assert.Equal(t, "blocks", fc.Strategy)
	assert.Equal(t, 4, fc.Concurrency)
}

func TestLoadFile_TOML(t *testing.T) {
	dir := t.TempDir()
	content := "model = \"deepseek-coder\"\nstrategy = \"line\"\nbase_url = \"http://localhost:9999\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileNameTOML), []byte(content), 0o644))

	fc, err := LoadFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-coder", fc.Model)
	assert.Equal(t, "line", fc.Strategy)
	assert.Equal(t, "http://localhost:9999", fc.BaseURL)
}

func TestLoadFile_YAMLWinsOverTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileNameYAML), []byte("model: from-yaml\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileNameTOML), []byte("model = \"from-toml\"\n"), 0o644))

	fc, err := LoadFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", fc.Model)
}

func TestLoadFile_Absent(t *testing.T) {
	fc, err := LoadFile(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{}, fc)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileNameYAML), []byte(":\n\t: bad"), 0o644))

	_, err := LoadFile(dir)
	require.Error(t, err)
}

func TestWithFile_Overlay(t *testing.T) {
	temp := 0.2
	cfg := Default().WithFile(&FileConfig{
		Model:       "deepseek-coder",
		Temperature: &temp,
		Strategy:    "blocks",
		Concurrency: 8,
	})
	assert.Equal(t, "deepseek-coder", cfg.Model)
	assert.InDelta(t, 0.2, cfg.Temperature, 0.001)
	assert.Equal(t, "blocks", cfg.Strategy)
	assert.Equal(t, 8, cfg.Concurrency)
	// Untouched fields keep their defaults.
	assert.Equal(t, "https://api.deepseek.com", cfg.BaseURL)
}

func TestWithFile_ZeroFieldsIgnored(t *testing.T) {
	cfg := Default().WithFile(&FileConfig{})
	assert.Equal(t, Default(), cfg)

	cfg = Default().WithFile(nil)
	assert.Equal(t, Default(), cfg)
}
