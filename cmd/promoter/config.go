package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"group-promoter/promotion/infra"

	uberconfig "go.uber.org/config"
)

type config struct {
	listenAddr string
	logLevel   string

	apiKey    string
	apiKeySet bool

	robloxCookie  string
	groupID       string
	usersURL      string
	groupsURL     string
	authURL       string
	remoteTimeout time.Duration
	robloxRPS     float64
	robloxBurst   int

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
}

// fileConfig é o arquivo YAML opcional. Valores aceitam ${VAR} e o ambiente
// sempre vence o arquivo.
type fileConfig struct {
	Listen   string `yaml:"listen"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`
	APIKey   string `yaml:"apiKey"`
	Roblox   struct {
		Cookie    string `yaml:"cookie"`
		GroupID   string `yaml:"groupId"`
		UsersURL  string `yaml:"usersUrl"`
		GroupsURL string `yaml:"groupsUrl"`
		AuthURL   string `yaml:"authUrl"`
		Timeout   string `yaml:"timeout"`
		RPS       string `yaml:"rps"`
		Burst     string `yaml:"burst"`
	} `yaml:"roblox"`
	Stats struct {
		Enabled  string `yaml:"enabled"`
		Addr     string `yaml:"redisAddr"`
		Password string `yaml:"redisPassword"`
		DB       string `yaml:"redisDb"`
		Prefix   string `yaml:"prefix"`
		TTL      string `yaml:"ttl"`
		Bucket   string `yaml:"bucket"`
	} `yaml:"stats"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fc, fmt.Errorf("open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	yaml, err := uberconfig.NewYAML(uberconfig.Source(f), uberconfig.Expand(os.LookupEnv))
	if err != nil {
		return fc, fmt.Errorf("failed to read yaml config %w", err)
	}
	if err := yaml.Get(uberconfig.Root).Populate(&fc); err != nil {
		return fc, fmt.Errorf("failed to populate yaml config %w", err)
	}
	return fc, nil
}

func readConfig(path string) (config, error) {
	fc, err := loadFileConfig(path)
	if err != nil {
		return config{}, err
	}

	cfg := config{}
	port := getenvDefault("PORT", valueOr(fc.Port, "3000"))
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", valueOr(fc.Listen, ":"+port))
	cfg.logLevel = getenvDefault("LOG_LEVEL", valueOr(fc.LogLevel, "info"))

	cfg.apiKey, cfg.apiKeySet = lookupSecret("API_KEY", fc.APIKey)
	cfg.robloxCookie, _ = lookupSecret("ROBLOX_COOKIE", fc.Roblox.Cookie)
	cfg.groupID = getenvDefault("GROUP_ID", fc.Roblox.GroupID)
	cfg.usersURL = getenvDefault("ROBLOX_USERS_URL", valueOr(fc.Roblox.UsersURL, infra.DefaultUsersURL))
	cfg.groupsURL = getenvDefault("ROBLOX_GROUPS_URL", valueOr(fc.Roblox.GroupsURL, infra.DefaultGroupsURL))
	cfg.authURL = getenvDefault("ROBLOX_AUTH_URL", valueOr(fc.Roblox.AuthURL, infra.DefaultAuthURL))
	// 0 = sem timeout nas chamadas remotas
	cfg.remoteTimeout = getenvDurationDefault("REMOTE_TIMEOUT", parseDuration(fc.Roblox.Timeout, 0))

	// 0 = sem espaçamento das chamadas à Roblox
	cfg.robloxRPS = getenvFloatDefault("ROBLOX_RPS", parseFloat(fc.Roblox.RPS, 0))
	cfg.robloxBurst = getenvIntDefault("ROBLOX_BURST", parseInt(fc.Roblox.Burst, 1))

	// sem PROMOTION_STATS_REDIS_ADDR os contadores ficam em memória
	cfg.statsEnabled = getenvBoolDefault("PROMOTION_STATS_ENABLED", parseBool(fc.Stats.Enabled, false))
	cfg.statsRedisAddr = strings.TrimSpace(getenvDefault("PROMOTION_STATS_REDIS_ADDR", fc.Stats.Addr))
	cfg.statsRedisPassword = getenvDefault("PROMOTION_STATS_REDIS_PASSWORD", fc.Stats.Password)
	cfg.statsRedisDB = getenvIntDefault("PROMOTION_STATS_REDIS_DB", parseInt(fc.Stats.DB, 0))
	cfg.statsPrefix = getenvDefault("PROMOTION_STATS_PREFIX", valueOr(fc.Stats.Prefix, "promoter:promotions"))
	cfg.statsTTL = getenvDurationDefault("PROMOTION_STATS_TTL", parseDuration(fc.Stats.TTL, 24*time.Hour))
	cfg.statsBucket = getenvDefault("PROMOTION_STATS_BUCKET", valueOr(fc.Stats.Bucket, "minute"))

	if cfg.robloxRPS < 0 {
		return config{}, errors.New("ROBLOX_RPS must be >= 0")
	}
	if cfg.robloxRPS > 0 && cfg.robloxBurst <= 0 {
		return config{}, errors.New("ROBLOX_BURST must be > 0")
	}
	if cfg.remoteTimeout < 0 {
		return config{}, errors.New("REMOTE_TIMEOUT must be >= 0")
	}
	return cfg, nil
}

// lookupSecret distingue "ausente" de "vazio": API_KEY ausente rejeita tudo.
func lookupSecret(k, fileValue string) (string, bool) {
	if v, ok := os.LookupEnv(k); ok {
		return v, true
	}
	if fileValue != "" {
		return fileValue, true
	}
	return "", false
}

func valueOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	return parseInt(os.Getenv(k), def)
}

func getenvFloatDefault(k string, def float64) float64 {
	return parseFloat(os.Getenv(k), def)
}

func getenvBoolDefault(k string, def bool) bool {
	return parseBool(os.Getenv(k), def)
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	return parseDuration(os.Getenv(k), def)
}

func parseInt(v string, def int) int {
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func parseBool(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
