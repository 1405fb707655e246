package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bradykim7/cooknet/internal/antispam"
	"github.com/bradykim7/cooknet/internal/bot"
	"github.com/bradykim7/cooknet/internal/bot/commands"
	"github.com/bradykim7/cooknet/internal/catalog"
	"github.com/bradykim7/cooknet/internal/conversation"
	"github.com/bradykim7/cooknet/internal/dispatch"
	"github.com/bradykim7/cooknet/internal/media"
	"github.com/bradykim7/cooknet/internal/router"
	"github.com/bradykim7/cooknet/internal/storage"
	"github.com/bradykim7/cooknet/internal/web"
	"github.com/bradykim7/cooknet/pkg/config"
	"github.com/bradykim7/cooknet/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// sweepInterval is how often expired sessions and cooldowns are dropped
const sweepInterval = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New("cooknet", logger.Options{Dir: cfg.LogDir, Level: cfg.LogLevel})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Create context that will be canceled on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing store", zap.Error(err))
		}
	}()

	session, err := bot.NewSession(cfg)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}
	msgr := bot.NewMessenger(session, log)
	recipes := catalog.New(store, log)

	machine := conversation.New(store, msgr, media.NewResolver(log), conversation.NewSessionStore(),
		conversation.Options{Timeout: cfg.SessionTimeout}, log)

	registry := commands.NewRegistry(cfg.CommandPrefix, log)
	commands.RegisterAll(registry, commands.Deps{
		Submissions: machine,
		Recipes:     recipes,
		Users:       store,
		Chats:       store,
		Messenger:   msgr,
		TopLimit:    cfg.TopLimit,
		WebURL:      cfg.PublicURL,
	}, log)

	cooldown := antispam.NewCooldown(cfg.ActionCooldown)
	rt := router.New(machine, registry, cooldown, msgr, log)

	dispatcher := dispatch.New(cfg.DispatchWorkers, cfg.DispatchQueueSize, rt.Route, log)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	server, err := web.New(recipes, dispatcher, web.Options{
		Addr:          cfg.HTTPAddr,
		WebhookToken:  cfg.WebhookToken,
		CommandPrefix: cfg.CommandPrefix,
		PageLimit:     cfg.TopLimit,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize web server", zap.Error(err))
	}

	discordBot := bot.New(session, cfg, dispatcher, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return discordBot.Start(ctx) })
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error {
		sweep(ctx, machine, cooldown, log)
		return nil
	})

	log.Info("CookNet started",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
		zap.String("http", cfg.HTTPAddr))

	if err := g.Wait(); err != nil {
		log.Error("CookNet stopped with error", zap.Error(err))
		return
	}
	log.Info("CookNet shut down successfully")
}

// sweep drops abandoned submissions and stale cooldown entries until ctx ends
func sweep(ctx context.Context, machine *conversation.Machine, cooldown *antispam.Cooldown, log *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sessions := machine.EvictExpired()
			entries := cooldown.Prune(now)
			if sessions > 0 || entries > 0 {
				log.Debug("Sweep finished", zap.Int("sessions", sessions), zap.Int("cooldowns", entries))
			}
		}
	}
}
