package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agrisense/crop-advisor/internal/app"
	"github.com/agrisense/crop-advisor/internal/config"
	"github.com/agrisense/crop-advisor/internal/server"
)

const banner = `
   ____ ____   ___  ____     _    ______     _____ ____   ___  ____
  / ___|  _ \ / _ \|  _ \   / \  |  _ \ \   / /_ _/ ___| / _ \|  _ \
 | |   | |_) | | | | |_) | / _ \ | | | \ \ / / | |\___ \| | | | |_) |
 | |___|  _ <| |_| |  __/ / ___ \| |_| |\ V /  | | ___) | |_| |  _ <
  \____|_| \_\\___/|_|   /_/   \_\____/  \_/  |___|____/ \___/|_| \_\

Crop Advisor API v0.1.0
Season-aware crop recommendations for Indian districts
`

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[server] ")

	fmt.Print(banner)
	fmt.Println(strings.Repeat("-", 60))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("port:            %s", cfg.Port)
	log.Printf("districts:       %s", cfg.DistrictsPath)
	log.Printf("crop info:       %s", cfg.CropInfoPath)
	log.Printf("weather API:     %s", cfg.WeatherBaseURL)
	log.Printf("weather timeout: %s", cfg.WeatherTimeout)
	log.Printf("weather retries: %d", cfg.WeatherRetries)
	log.Printf("cache TTL:       %s", cfg.WeatherCacheTTL)

	adv, err := app.BuildAdvisor(cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(adv).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	log.Println("shutdown complete")
}
