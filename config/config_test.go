package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/manojoshi/plainelastic/cache"
	"github.com/manojoshi/plainelastic/driver"
	q "github.com/manojoshi/plainelastic/query"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`index: orders`))
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.Index)
	assert.Equal(t, "http://localhost:9200", cfg.URL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "normal", cfg.Logging.Level)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plainelastic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: http://es:9200
index: orders
timeout: 2s
field_naming: snake
redis:
  addr: localhost:6379
  ttl: 30s
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://es:9200", cfg.URL)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, err := Parse([]byte("url: ''\nfield_naming: kebab\nlogging:\n  level: loud\ntimeout: -1s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
	assert.Contains(t, err.Error(), `field_naming "kebab"`)
	assert.Contains(t, err.Error(), `logging level "loud"`)
	assert.Contains(t, err.Error(), "timeout")

	_, err = Parse([]byte("url: [1"))
	assert.Error(t, err)
}

type sample struct {
	UserID string
}

func TestApply(t *testing.T) {
	prev := q.DefaultResolver()
	defer q.SetDefaultResolver(prev)

	cfg := Default()
	cfg.FieldNaming = "snake"
	cfg.Apply()

	p, err := q.PathOf(func(s *sample) any { return &s.UserID })
	require.NoError(t, err)
	assert.Equal(t, "user_id", p)
}

func TestPrepare(t *testing.T) {
	for _, lvl := range []string{"none", "normal", "debug"} {
		l, err := (&LoggingConfig{Level: lvl}).Prepare()
		require.NoError(t, err, lvl)
		require.NotNil(t, l)
	}
	_, err := (&LoggingConfig{Level: "loud"}).Prepare()
	assert.Error(t, err)
}

func TestExecutor(t *testing.T) {
	cfg := Default()
	ex, closeFn, err := cfg.Executor(zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &driver.HTTPConn{}, ex)
	assert.NoError(t, closeFn())

	cfg.Redis.Addr = "localhost:6379"
	ex, closeFn, err = cfg.Executor(zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &cache.Cache{}, ex)
	assert.NoError(t, closeFn())
}
