package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"repcount/internal/config"
	"repcount/internal/database/db_client"
	"repcount/internal/http/http_server"
	"repcount/internal/redis/redis_client"
	"repcount/internal/services/results"
	"repcount/internal/syncboard"
	"repcount/internal/syncresults"
	"repcount/internal/ws"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var resultsService results.IResultsService

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(ctx, cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres db client
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()
	if err := db_client.EnsureSchema(ctx, pgDb); err != nil {
		Log.Fatal("pg-schema", zap.Error(err))
	}

	// 5. Round results: stream writer + stream ➜ Postgres tail
	resultsService = results.NewResultsService(redisClient, pgDb)
	syncresults.Run(ctx, redisClient, pgDb)

	// 6. Room registry + websocket sessions
	clock := clockwork.NewRealClock()
	hub := ws.NewHub(cfg.RoomTarget, clock)
	wsSrv := ws.NewWsServer(hub, resultsService, ws.Options{
		MaxNameLen: cfg.MaxNameLen,
		WriteWait:  cfg.WriteWait,
		PongWait:   cfg.PongWait,
		PingPeriod: cfg.PingPeriod,
	})

	// 7. Background: stale sweep + live leaderboard mirror
	go ws.NewSweeper(hub, clock, cfg.StaleAfter, cfg.SweepInterval).Run(ctx)
	syncboard.Run(ctx, redisClient, hub, cfg.BoardSyncInterval, cfg.BoardTTL)

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, resultsService)
	go func() {
		<-ctx.Done()
		Log.Info("shutting down")
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
