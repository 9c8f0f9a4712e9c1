package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"group-promoter/promotion"
	"group-promoter/promotion/application"
	"group-promoter/promotion/domain"
	"group-promoter/promotion/infra"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool

	cfg    config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "promoter",
	Short:         "HTTP bridge that promotes users inside a Roblox group",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile == "" {
			cfgFile = os.Getenv("CONFIG_FILE")
		}
		cfg, err = readConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger, err = newLogger(cfg.logLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Authenticate with ROBLOX_COOKIE and print the account name",
	RunE: func(cmd *cobra.Command, args []string) error {
		session := application.SessionInitializer{
			Session:    newRobloxClient(),
			Credential: cfg.robloxCookie,
			Logger:     logger,
		}
		id, err := session.Login(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (id %d)\n", id.Name, id.ID)
		return nil
	},
}

var statsGroup string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print promotion counters stored in Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.statsRedisAddr == "" {
			return errors.New("PROMOTION_STATS_REDIS_ADDR is required")
		}
		rdb := newRedis()
		defer func() { _ = rdb.Close() }()
		stats := newRedisStats(rdb)

		total, err := stats.Total(cmd.Context())
		if err != nil {
			return fmt.Errorf("read stats: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total promoted=%d failed=%d\n", total.Promoted, total.Failed)

		group := domain.ParseGroupID(valueOr(statsGroup, cfg.groupID))
		if group == domain.InvalidGroupID {
			return nil
		}
		counts, err := stats.Group(cmd.Context(), group)
		if err != nil {
			return fmt.Errorf("read group stats: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "group %s promoted=%d failed=%d\n", group, counts.Promoted, counts.Failed)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (env: CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	statsCmd.Flags().StringVar(&statsGroup, "group", "", "group id (default: GROUP_ID)")
	rootCmd.AddCommand(serveCmd, whoamiCmd, statsCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	client := newRobloxClient()

	// sessão em background: o listener sobe mesmo se a autenticação falhar
	go application.SessionInitializer{
		Session:    client,
		Credential: cfg.robloxCookie,
		Logger:     logger,
	}.Initialize(context.WithoutCancel(ctx))

	var stats domain.PromotionStatsStore
	switch {
	case !cfg.statsEnabled:
	case cfg.statsRedisAddr == "":
		mem := infra.NewMemoryPromotionStats()
		defer logMemoryStats(mem)
		stats = mem
	default:
		rdb := newRedis()
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis stats ping error: %w", err)
		}
		stats = newRedisStats(rdb)
	}

	groupID := cfg.groupID
	handler := &promotion.Handler{
		Promoter: application.Service{Promoter: client, Stats: stats, Logger: logger},
		GroupID: func() domain.GroupID {
			return domain.ParseGroupID(getenvDefault("GROUP_ID", groupID))
		},
		Logger: logger,
	}

	srv := &http.Server{
		Addr: cfg.listenAddr,
		Handler: promotion.NewRouter(promotion.RouterOptions{
			Promote: handler,
			Guard: promotion.AccessGuard(promotion.GuardOptions{
				Key:    cfg.apiKey,
				KeySet: cfg.apiKeySet,
			}),
			Logger: logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if !cfg.apiKeySet {
		logger.Warn("API_KEY is not set; every request to /promote will be rejected")
	}
	logger.Info("Server running",
		zap.String("addr", cfg.listenAddr),
		zap.String("group_id", cfg.groupID))
	logger.Info("roblox-pacing",
		zap.Float64("rps", cfg.robloxRPS),
		zap.Int("burst", cfg.robloxBurst))
	logger.Info("promotion-stats",
		zap.Bool("enabled", cfg.statsEnabled),
		zap.String("redis_addr", cfg.statsRedisAddr),
		zap.String("bucket", cfg.statsBucket),
		zap.Duration("ttl", cfg.statsTTL))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newRobloxClient() *infra.RobloxClient {
	return infra.NewRobloxClient(
		infra.WithUsersURL(cfg.usersURL),
		infra.WithGroupsURL(cfg.groupsURL),
		infra.WithAuthURL(cfg.authURL),
		infra.WithTimeout(cfg.remoteTimeout),
		infra.WithRateLimit(cfg.robloxRPS, cfg.robloxBurst),
	)
}

func newRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.statsRedisAddr,
		Password: cfg.statsRedisPassword,
		DB:       cfg.statsRedisDB,
	})
}

func newRedisStats(rdb *redis.Client) *infra.RedisPromotionStats {
	return infra.NewRedisPromotionStats(
		rdb,
		infra.WithStatsPrefix(cfg.statsPrefix),
		infra.WithStatsTTL(cfg.statsTTL),
		infra.WithStatsBucket(cfg.statsBucket),
	)
}

// logMemoryStats registra os contadores em memória no fim do serve.
func logMemoryStats(mem *infra.MemoryPromotionStats) {
	total := mem.Total()
	logger.Info("promotion stats",
		zap.Int64("promoted", total.Promoted),
		zap.Int64("failed", total.Failed))
	for group, c := range mem.ByGroup() {
		logger.Info("promotion stats by group",
			zap.Stringer("group", group),
			zap.Int64("promoted", c.Promoted),
			zap.Int64("failed", c.Failed))
	}
}
