// Package digest sends a random recipe to every daily subscriber.
package digest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bradykim7/cooknet/internal/bot/commands"
	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

const (
	// DefaultInterval is one digest a day
	DefaultInterval = 24 * time.Hour
	// DefaultPace keeps sends under the chat platform's rate limits
	// (1 message per 2 seconds)
	DefaultPace = 2 * time.Second

	msgDigestHeading = "📅 Today's recipe"
)

// RandomPicker picks the recipe of the day
type RandomPicker interface {
	Random(ctx context.Context) (*models.Recipe, error)
}

// Subscribers lists the chats that receive the digest
type Subscribers interface {
	DailySubscribers(ctx context.Context) ([]string, error)
}

// Options tunes a Service
type Options struct {
	// Interval between two digests
	Interval time.Duration
	// Pace is the minimum gap between two sends
	Pace time.Duration
	// RunOnStart sends one digest as soon as Run starts
	RunOnStart bool
}

// Result is the outcome of one digest
type Result struct {
	RecipeID int64
	Sent     int
	Failed   int
}

// Stats tracks what the digest has done so far
type Stats struct {
	RunCount  int       `json:"run_count"`
	LastRun   time.Time `json:"last_run"`
	LastSent  int       `json:"last_sent"`
	LastFail  int       `json:"last_failed"`
	LastError string    `json:"last_error,omitempty"`
}

// Service sends the daily digest
type Service struct {
	recipes     RandomPicker
	subscribers Subscribers
	messenger   messenger.Messenger
	opts        Options
	logger      *zap.Logger
	rateLimiter *time.Ticker

	stats      Stats
	statsMutex sync.RWMutex
}

// New creates a digest service
func New(recipes RandomPicker, subscribers Subscribers, msgr messenger.Messenger, opts Options, log *zap.Logger) *Service {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Pace <= 0 {
		opts.Pace = DefaultPace
	}

	return &Service{
		recipes:     recipes,
		subscribers: subscribers,
		messenger:   msgr,
		opts:        opts,
		logger:      log.Named("digest"),
		rateLimiter: time.NewTicker(opts.Pace),
	}
}

// Send delivers one digest to every subscriber. A failed send does not stop
// the others; the returned error summarizes them.
func (s *Service) Send(ctx context.Context) (Result, error) {
	var res Result

	recipe, err := s.recipes.Random(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Info("No recipes yet, skipping digest")
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to pick recipe: %w", err)
	}
	res.RecipeID = recipe.ID

	chats, err := s.subscribers.DailySubscribers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load subscribers: %w", err)
	}
	if len(chats) == 0 {
		s.logger.Info("No daily subscribers")
		return res, nil
	}

	s.logger.Info("Sending daily recipe",
		zap.Int64("recipe_id", recipe.ID),
		zap.Int("subscribers", len(chats)))

	text := msgDigestHeading + "\n\n" + commands.FormatRecipe(*recipe)
	like := commands.LikeButton(recipe.ID)

	for _, chatID := range chats {
		// Wait for rate limiter to avoid rate limits
		select {
		case <-s.rateLimiter.C:
		case <-ctx.Done():
			return res, ctx.Err()
		}

		if err := s.deliver(ctx, chatID, *recipe, text, like); err != nil {
			s.logger.Error("Failed to send daily recipe",
				zap.Error(err),
				zap.String("chat_id", chatID))
			res.Failed++
			continue
		}
		res.Sent++
	}

	if res.Failed > 0 {
		return res, fmt.Errorf("%d of %d digests failed", res.Failed, len(chats))
	}
	return res, nil
}

func (s *Service) deliver(ctx context.Context, chatID string, r models.Recipe, text string, like messenger.Button) error {
	if r.HasPhoto() {
		photo := messenger.Photo{ID: r.PhotoID, URL: r.PhotoURL}
		return s.messenger.SendPhoto(ctx, chatID, photo, text, like)
	}
	return s.messenger.SendText(ctx, chatID, text, like)
}

// Run sends a digest every Interval until ctx is cancelled
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.logger.Info("Starting scheduled digests", zap.Duration("interval", s.opts.Interval))

	if s.opts.RunOnStart {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("Stopping scheduled digests")
			return
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	res, err := s.Send(ctx)
	if err != nil {
		s.logger.Error("Digest run failed", zap.Error(err))
	} else {
		s.logger.Info("Digest run completed",
			zap.Int64("recipe_id", res.RecipeID),
			zap.Int("sent", res.Sent))
	}

	// Store the outcome in stats
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()
	s.stats.RunCount++
	s.stats.LastRun = time.Now()
	s.stats.LastSent = res.Sent
	s.stats.LastFail = res.Failed
	s.stats.LastError = ""
	if err != nil {
		s.stats.LastError = err.Error()
	}
}

// GetStats returns a copy of the current statistics
func (s *Service) GetStats() Stats {
	s.statsMutex.RLock()
	defer s.statsMutex.RUnlock()
	return s.stats
}

// Close stops the rate limiter
func (s *Service) Close() {
	s.rateLimiter.Stop()
}
