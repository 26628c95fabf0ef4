package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/cheese-rooms/internal/config"
	"github.com/park285/cheese-rooms/internal/game"
	"github.com/park285/cheese-rooms/internal/msgcat"
	"github.com/park285/cheese-rooms/internal/notify"
	"github.com/park285/cheese-rooms/internal/obslog"
	"github.com/park285/cheese-rooms/internal/render"
	"github.com/park285/cheese-rooms/internal/room"
	"github.com/park285/cheese-rooms/internal/session"
	"github.com/park285/cheese-rooms/internal/stats"
	"github.com/park285/cheese-rooms/internal/wsapi"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("msgcat_init_error", zap.Error(err))
	}

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	rdb, err := room.Connect(cctx, cfg.RedisURL)
	cancel()
	if err != nil {
		logger.Fatal("redis_connect_error", zap.Error(err))
	}
	rooms := room.NewManager(rdb, game.NewManager(),
		room.WithTTL(cfg.RoomTTL()),
		room.WithRetries(cfg.MoveRetry),
		room.WithMaxRooms(cfg.MaxRooms),
	)

	// without DATABASE_URL standings live in memory
	var repo stats.Repository
	if cfg.DatabaseURL != "" {
		if repo, err = stats.Open(cfg.DatabaseURL); err != nil {
			logger.Fatal("stats_repo_init_error", zap.Error(err))
		}
	} else {
		repo = stats.NewMemoryRepository()
		logger.Info("stats_memory_repository")
	}
	rooms.OnFinish(stats.Hook(repo))
	if cfg.ResultWebhookURL != "" {
		rooms.OnFinish(notify.Hook(notify.NewClient(cfg.ResultWebhookURL)))
	}

	hub := wsapi.NewHub(rooms, session.NewRegistry(),
		wsapi.WithOriginAllowlist(cfg.OriginAllowlist),
		wsapi.WithCatalog(msgs),
		wsapi.WithHiddenHands(cfg.HideOpponentHands),
		wsapi.WithPingInterval(cfg.WSPingInterval()),
		wsapi.WithQueueSize(cfg.WSQueueSize),
	)
	a := &api{rooms: rooms, standings: repo, boards: render.NewRenderer(render.Options{}), now: time.Now}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           cors(cfg.OriginAllowlist, a.routes(hub)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server_listen", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("server_shutdown", zap.String("signal", sig.String()))

	logger.Info("ws_close_all", zap.Int("connections", hub.Connections()))
	hub.Close()
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("server_shutdown_error", zap.Error(err))
	}
	_ = rooms.Close()
	_ = repo.Close()
}
