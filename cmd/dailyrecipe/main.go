package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/bradykim7/cooknet/internal/bot"
	"github.com/bradykim7/cooknet/internal/catalog"
	"github.com/bradykim7/cooknet/internal/digest"
	"github.com/bradykim7/cooknet/internal/storage"
	"github.com/bradykim7/cooknet/pkg/config"
	"github.com/bradykim7/cooknet/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "send a single digest and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New("dailyrecipe", logger.Options{Dir: cfg.LogDir, Level: cfg.LogLevel})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Create context that will be canceled on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing store", zap.Error(err))
		}
	}()

	// Messages go out over REST, so the gateway is never opened
	session, err := bot.NewSession(cfg)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	service := digest.New(catalog.New(store, log), store, bot.NewMessenger(session, log), digest.Options{
		Interval: cfg.DailyInterval,
		Pace:     cfg.BroadcastInterval,
	}, log)
	defer service.Close()

	if *once {
		res, err := service.Send(ctx)
		if err != nil {
			log.Error("Digest failed", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed), zap.Error(err))
			return
		}
		log.Info("Digest sent", zap.Int64("recipe_id", res.RecipeID), zap.Int("sent", res.Sent))
		return
	}

	// Start scheduled runs (this blocks until context is canceled)
	service.Run(ctx)

	stats := service.GetStats()
	log.Info("Daily recipe service shut down successfully", zap.Int("runs", stats.RunCount))
}
