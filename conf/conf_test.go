package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgConnStrLocalDefaults(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_PW", "secret")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("POSTGRES_SSLMODE", "")

	connStr := GetPgConnStrFromEnv()
	assert.Equal(t,
		"host=localhost port=5432 user=codeclash password=secret dbname=codeclash sslmode=disable",
		connStr)
}

func TestPgConnStrEnvOverrides(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_PW", "secret")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "judge")
	t.Setenv("POSTGRES_DB", "matches")
	t.Setenv("POSTGRES_SSLMODE", "require")

	connStr := GetPgConnStrFromEnv()
	assert.Equal(t,
		"host=localhost port=5433 user=judge password=secret dbname=matches sslmode=require",
		connStr)
}

func TestReadWorkerConfMissingFile(t *testing.T) {
	c, err := ReadWorkerConf(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Zero(t, c.Concurrency)
	assert.Zero(t, c.MaxAttempts)
	assert.Zero(t, c.BackoffBaseS)
}

func TestReadWorkerConf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.toml")
	content := "concurrency = 8\nmax_attempts = 5\nbackoff_base_seconds = 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := ReadWorkerConf(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Concurrency)
	assert.Equal(t, 5, c.MaxAttempts)
	assert.Equal(t, 3*time.Second, c.BackoffBase())
}

func TestReadWorkerConfRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0644))

	_, err := ReadWorkerConf(path)
	require.Error(t, err)
}
