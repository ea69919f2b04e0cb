package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"tickboard/internal/domain"
	"tickboard/internal/infrastructure/config"
	"tickboard/internal/infrastructure/logger"
	"tickboard/internal/infrastructure/svc"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("info")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context initialization failed")
	}
	defer sc.Close()

	if err := sc.Store().SeedDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed defaults failed")
	}

	// 远端同步失败不挡启动，本地 watchlist 照常可用
	if err := sc.PullRemoteConfig(ctx); err != nil {
		log.Warn().Err(err).Msg("remote config pull failed, using local watchlist")
	}

	if err := sc.Watchlist.StartAll(ctx); err != nil {
		log.Fatal().Err(err).Msg("start feeds failed")
	}

	// 金属面板先渲染一轮占位：白银没配凭证时立刻给出提示，而不是一直空着
	if entries, err := sc.Store().ListEntries(ctx, domain.CategoryMetal); err == nil {
		for _, e := range entries {
			sc.Sink.Notify(e.Symbol)
		}
	}

	log.Info().
		Str("config", *configPath).
		Str("store", cfg.Store.Backend).
		Bool("redis", cfg.Redis.Enabled).
		Bool("sync", cfg.Sync.Enabled).
		Msg("tickboard started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sc.Supervisor.StopAll()
}
