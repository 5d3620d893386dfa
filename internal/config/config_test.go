package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config dir and the working directory at empty
// temp dirs and clears moodtrack variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	for _, k := range []string{EnvDB, EnvLogLevel, EnvLogFile, EnvLocale, EnvConfig} {
		t.Setenv(k, "")
	}
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "moodtrack.db", filepath.Base(cfg.DBPath))
	assert.Equal(t, "moodtrack.log", filepath.Base(cfg.LogFile))
	assert.Equal(t, log.InfoLevel, cfg.Level())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "db: /tmp/mood.db\nlog_level: debug\nlocale: ru\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/mood.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Equal(t, log.DebugLevel, cfg.Level())
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "env.yaml")
	writeFile(t, path, "locale: ru\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ru", cfg.Locale)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "db: [unterminated\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.yaml")
	writeFile(t, path, "db: /from/file.db\nlog_level: warn\n")
	t.Setenv(EnvDB, "/from/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestDotEnvLoaded(t *testing.T) {
	dir := isolate(t)
	// godotenv does not override variables that are already set, so the
	// isolated empty value is removed first.
	os.Unsetenv(EnvLocale)
	t.Cleanup(func() { os.Unsetenv(EnvLocale) })
	writeFile(t, filepath.Join(dir, ".env"), EnvLocale+"=ru\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ru", cfg.Locale)
}

func TestValidateRejectsBadValues(t *testing.T) {
	isolate(t)

	t.Setenv(EnvLocale, "fr")
	_, err := Load("")
	assert.ErrorContains(t, err, "invalid config")

	t.Setenv(EnvLocale, "")
	t.Setenv(EnvLogLevel, "loud")
	_, err = Load("")
	assert.ErrorContains(t, err, "invalid config")
}

func TestValidateRequiresDB(t *testing.T) {
	cfg := &Config{LogLevel: "info", Locale: "en"}
	assert.Error(t, cfg.Validate())
}
