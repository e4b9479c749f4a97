package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aq2208/gorder-seed/cmd/order-seed/app"
	"github.com/aq2208/gorder-seed/configs"
	"github.com/aq2208/gorder-seed/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // .env is optional

	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}
	cfgDir := os.Getenv("ORDERSEED_CONFIG_DIR")
	if cfgDir == "" {
		cfgDir = "configs"
	}

	flags, err := app.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := configs.Load(cfgDir, env, flags.Overrides)
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := app.InitWithConfig(ctx, cfg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	err = a.Run(ctx, flags, os.Stdout)
	cleanup()
	if err != nil {
		logger.Error("order-seed failed", "error", err)
		os.Exit(1)
	}
}
