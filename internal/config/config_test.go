// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  http_addr: "0.0.0.0:9090"
  shutdown_timeout: "10s"
  idempotency_ttl: "2m"

database:
  path: "./students.db"
  driver: "sqlite3"

enrollment:
  code_prefix: "ABC"
  date_layout: "2006-01-02"

cass:
  entry_page: "/scores/entry.html"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Server.IdempotencyTTL)
	assert.Equal(t, "./students.db", cfg.Database.Path)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "ABC", cfg.Enrollment.CodePrefix)
	assert.Equal(t, "2006-01-02", cfg.Enrollment.DateLayout)
	assert.Equal(t, "/scores/entry.html", cfg.CASS.EntryPage)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: "/tmp/students.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DefaultIdempotencyTTL, cfg.Server.IdempotencyTTL)
	assert.Equal(t, DefaultDriver, cfg.Database.Driver)
	assert.Equal(t, DefaultCodePrefix, cfg.Enrollment.CodePrefix)
	assert.Equal(t, DefaultDateLayout, cfg.Enrollment.DateLayout)
	assert.Equal(t, DefaultEntryPage, cfg.CASS.EntryPage)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
http_addr = "localhost:8181"

[database]
path = "/var/lib/student-portal/students.db"

[logging]
level = "warn"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8181", cfg.Server.HTTPAddr)
	assert.Equal(t, "/var/lib/student-portal/students.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, DefaultDriver, cfg.Database.Driver)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_PORTAL_DATA", "/srv/portal")

	path := writeConfig(t, "config.yaml", `
database:
  path: "${TEST_PORTAL_DATA}/students.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/portal/students.db", cfg.Database.Path)
}

func TestLoad_UnsetEnvVarFailsValidation(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: "${TEST_PORTAL_UNSET_VAR_XYZ}"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path is required")
}

func TestLoad_InvalidDriver(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: "./students.db"
  driver: "postgres"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver must be one of [sqlite sqlite3]")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database:
  path: "./students.db"
logging:
  level: "verbose"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoad_InvalidAddr(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  http_addr: "not an address"
database:
  path: "./students.db"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.http_addr")
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  shutdown_timeout: "soon"
database:
  path: "./students.db"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown_timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "database: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	path := filepath.Join(dir, "nested", "config.yaml")

	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)
	assert.Equal(t, cfg.Server.ShutdownTimeout, loaded.Server.ShutdownTimeout)
	assert.Equal(t, cfg.Server.IdempotencyTTL, loaded.Server.IdempotencyTTL)
	assert.Equal(t, cfg.Enrollment, loaded.Enrollment)
	assert.Equal(t, cfg.Logging, loaded.Logging)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_A", "alpha")
	assert.Equal(t, "x-alpha-y", expandEnvVars("x-${TEST_A}-y"))
	assert.Equal(t, "no vars", expandEnvVars("no vars"))
}
