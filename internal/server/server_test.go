package server_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/victornm/standings/internal/config"
	"github.com/victornm/standings/internal/server"
)

func TestConfig_Load(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
log:
  format: json
redis:
  ranking:
    addrs: ["redis-ranking:6379"]
    ttl: 2m
  pubsub:
    prefix: prod:pubsub
postgres:
  result:
    addr: pg-result:5432
ranking:
  includestaff: true
`), 0o600))
	t.Setenv("POSTGRES_CONTEST_PASS", "secret")

	c := server.DefaultConfig()
	require.NoError(t, config.Load(p, &c))

	require.Equal(t, "json", c.Log.Format)
	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, int32(8080), c.HTTP.Port)
	require.Equal(t, []string{"redis-ranking:6379"}, c.Redis.Ranking.Addrs)
	require.Equal(t, "local:ranking", c.Redis.Ranking.Prefix)
	require.Equal(t, 2*time.Minute, c.Redis.Ranking.TTL)
	require.Equal(t, "prod:pubsub", c.Redis.Pubsub.Prefix)
	require.Equal(t, "secret", c.Postgres.Contest.Pass)
	require.Equal(t, "pg-result:5432", c.Postgres.Result.Addr)
	require.Equal(t, "standings", c.Postgres.Result.Name)
	require.True(t, c.Ranking.IncludeStaff)
}
