package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.True(t, cfg.Board.PersistEmpty)
	assert.True(t, cfg.Board.ResetPageOnSearch)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postboard.yaml")
	data := `
storage:
  driver: redis
  redis:
    addr: cache:6379
remote:
  url: http://seed.local/posts
  timeout: 3s
board:
  persist_empty: false
  reset_page_on_search: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "postboard:", cfg.Storage.Redis.Prefix, "unset fields keep defaults")
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout())
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout())
	assert.False(t, cfg.Board.PersistEmpty)
	assert.False(t, cfg.Board.ResetPageOnSearch)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("POSTBOARD_STORAGE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "posts")
	t.Setenv("ELASTICSEARCH_URL", "http://es:9200")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "db", cfg.Storage.Postgres.Host)
	assert.Equal(t, 6543, cfg.Storage.Postgres.Port)
	assert.Equal(t, "posts", cfg.Storage.Postgres.Name)
	assert.True(t, cfg.Search.Enabled)
	assert.Equal(t, "http://es:9200", cfg.Search.URL)
}

func TestValidate(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Driver = "mongo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing remote url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Remote.URL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Remote.Timeout = "soon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "postboard.yaml")
	cfg := DefaultConfig()
	cfg.Storage.Driver = DriverMemory

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, loaded.Storage.Driver)
}
