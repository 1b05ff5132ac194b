package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/agrisense/crop-advisor/internal/app"
	"github.com/agrisense/crop-advisor/internal/config"
	"github.com/agrisense/crop-advisor/internal/telegram"
)

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[bot] ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.HasTelegram() {
		log.Fatal("TELEGRAM_BOT_TOKEN is required for the bot")
	}

	adv, err := app.BuildAdvisor(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	bot, err := telegram.NewBot(cfg.TelegramBotToken, adv)
	if err != nil {
		log.Fatalf("failed to initialize telegram bot: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("bot running, press Ctrl+C to stop")
	if err := bot.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("bot stopped: %v", err)
	}
	log.Println("bot stopped")
}
