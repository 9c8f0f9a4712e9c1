package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"group-promoter/promotion/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limpa as variáveis que o teste não define, para não herdar do ambiente
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "") // restaura o valor original no fim do teste
		require.NoError(t, os.Unsetenv(k))
	}
}

var configKeys = []string{
	"PORT", "LISTEN_ADDR", "LOG_LEVEL", "API_KEY", "ROBLOX_COOKIE", "GROUP_ID",
	"ROBLOX_USERS_URL", "ROBLOX_GROUPS_URL", "ROBLOX_AUTH_URL", "REMOTE_TIMEOUT",
	"ROBLOX_RPS", "ROBLOX_BURST",
	"PROMOTION_STATS_ENABLED", "PROMOTION_STATS_REDIS_ADDR", "PROMOTION_STATS_REDIS_PASSWORD",
	"PROMOTION_STATS_REDIS_DB", "PROMOTION_STATS_PREFIX", "PROMOTION_STATS_TTL", "PROMOTION_STATS_BUCKET",
	"TEST_PROMOTER_COOKIE",
}

func TestReadConfig_Defaults(t *testing.T) {
	clearEnv(t, configKeys...)

	cfg, err := readConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.listenAddr)
	assert.False(t, cfg.apiKeySet)
	assert.Equal(t, infra.DefaultGroupsURL, cfg.groupsURL)
	assert.Zero(t, cfg.remoteTimeout)
	assert.Zero(t, cfg.robloxRPS)
	assert.False(t, cfg.statsEnabled)
	assert.Equal(t, "promoter:promotions", cfg.statsPrefix)
}

func TestReadConfig_Env(t *testing.T) {
	clearEnv(t, configKeys...)
	t.Setenv("PORT", "8080")
	t.Setenv("API_KEY", "")
	t.Setenv("GROUP_ID", "12345")
	t.Setenv("ROBLOX_COOKIE", "cookie")
	t.Setenv("REMOTE_TIMEOUT", "15s")

	cfg, err := readConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.listenAddr)
	assert.True(t, cfg.apiKeySet, "empty API_KEY is still set")
	assert.Equal(t, "", cfg.apiKey)
	assert.Equal(t, "12345", cfg.groupID)
	assert.Equal(t, "cookie", cfg.robloxCookie)
	assert.Equal(t, 15*time.Second, cfg.remoteTimeout)
}

func TestReadConfig_FileWithExpansionAndEnvOverride(t *testing.T) {
	clearEnv(t, configKeys...)
	t.Setenv("TEST_PROMOTER_COOKIE", "from-env-expansion")
	t.Setenv("GROUP_ID", "999")

	path := filepath.Join(t.TempDir(), "promoter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "4000"
apiKey: file-key
roblox:
  cookie: ${TEST_PROMOTER_COOKIE}
  groupId: "111"
  timeout: 5s
  rps: "2"
  burst: "3"
stats:
  enabled: "true"
`), 0o600))

	cfg, err := readConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.listenAddr)
	assert.Equal(t, "file-key", cfg.apiKey)
	assert.True(t, cfg.apiKeySet)
	assert.Equal(t, "from-env-expansion", cfg.robloxCookie)
	assert.Equal(t, "999", cfg.groupID)
	assert.Equal(t, 5*time.Second, cfg.remoteTimeout)
	assert.Equal(t, 2.0, cfg.robloxRPS)
	assert.Equal(t, 3, cfg.robloxBurst)
	assert.True(t, cfg.statsEnabled)
	assert.Empty(t, cfg.statsRedisAddr, "no redis: memory stats")
}

func TestReadConfig_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"REMOTE_TIMEOUT": {"REMOTE_TIMEOUT": "-1s"},
		"ROBLOX_RPS":     {"ROBLOX_RPS": "-2"},
		"ROBLOX_BURST":   {"ROBLOX_RPS": "5", "ROBLOX_BURST": "0"},
	}
	for want, env := range cases {
		t.Run(want, func(t *testing.T) {
			clearEnv(t, configKeys...)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := readConfig("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestReadConfig_StatsWithoutRedisIsAllowed(t *testing.T) {
	clearEnv(t, configKeys...)
	t.Setenv("PROMOTION_STATS_ENABLED", "true")

	cfg, err := readConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.statsEnabled)
	assert.Empty(t, cfg.statsRedisAddr)
}

func TestReadConfig_MissingFile(t *testing.T) {
	clearEnv(t, configKeys...)
	_, err := readConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))

	l, err = newLogger("info", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
