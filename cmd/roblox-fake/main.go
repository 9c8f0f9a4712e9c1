// roblox-fake sobe a API falsa do Roblox para validar o promoter localmente.
// Aponte ROBLOX_USERS_URL, ROBLOX_GROUPS_URL e ROBLOX_AUTH_URL do promoter
// para o endereço deste servidor.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"group-promoter/internal/robloxtest"
	"group-promoter/promotion/domain"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	addr := getenvDefault("LISTEN_ADDR", ":8081")
	cookie := getenvDefault("FAKE_COOKIE", "fake-cookie")
	group, err := strconv.ParseInt(getenvDefault("FAKE_GROUP_ID", "1"), 10, 64)
	if err != nil {
		logger.Fatal("invalid FAKE_GROUP_ID", zap.Error(err))
	}

	api := robloxtest.New(cookie, getenvDefault("FAKE_CSRF", "fake-csrf"), domain.Identity{
		ID: 1, Name: "PromoterBot", DisplayName: "Promoter Bot",
	})
	api.AddGroup(group,
		domain.Role{ID: 10, Name: "Guest", Rank: 0},
		domain.Role{ID: 11, Name: "Member", Rank: 1},
		domain.Role{ID: 12, Name: "Officer", Rank: 100},
		domain.Role{ID: 13, Name: "Owner", Rank: 255},
	)
	// 111 pode subir; 222 já está no topo
	api.AddMember(group, 111, 11)
	api.AddMember(group, 222, 13)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("fake roblox api listening",
			zap.String("addr", addr),
			zap.Int64("group", group),
			zap.String("cookie", cookie),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("bye")
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
