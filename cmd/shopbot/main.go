package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/alchomarket/shopbot/bot"
	"github.com/alchomarket/shopbot/core/bootstrap"
	coreconfig "github.com/alchomarket/shopbot/core/config"
	"github.com/alchomarket/shopbot/core/logger"
	"github.com/alchomarket/shopbot/core/telegram"
	"github.com/alchomarket/shopbot/shop/flow"
	"github.com/alchomarket/shopbot/shop/session"
	"github.com/alchomarket/shopbot/shop/store"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	// .env is optional; a missing file means env vars come from the host.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := coreconfig.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer func() {
		_ = res.DB.Close()
		_ = logger.Shutdown()
	}()

	machine := flow.NewMachine(
		store.NewPostgres(res.DB),
		session.NewStore(),
		flow.Config{
			PageSize:      cfg.Shop.PageSize,
			UsersPageSize: cfg.Shop.UsersPageSize,
			Currency:      cfg.Shop.Currency,
			ShopName:      cfg.Shop.Name,
			ContactPhone:  cfg.Shop.ContactPhone,
			AdminIDs:      cfg.Telegram.AdminIDs,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := telegram.RunTelegram(ctx, bot.BuildRunOptions(cfg, machine)); err != nil {
		logger.L.LogAttrs(ctx, slog.LevelError, "bot stopped",
			slog.String("component", "app"),
			slog.String("event", "shutdown"),
			slog.String("err", err.Error()),
		)
		os.Exit(1)
	}

	logger.L.LogAttrs(ctx, slog.LevelInfo, "bot stopped",
		slog.String("component", "app"),
		slog.String("event", "shutdown"),
	)
}
