// Package router decides what happens to each inbound chat event: the
// cooldown check, the submission conversation or a bot command.
package router

import (
	"context"
	"time"

	"github.com/bradykim7/cooknet/internal/antispam"
	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"go.uber.org/zap"
)

const msgSlowDown = "⏳ Slow down a little and try again in a moment."

// Conversation is the submission dialog as the router sees it
type Conversation interface {
	Handle(ctx context.Context, ev models.Event) bool
}

// Commands executes commands and button actions
type Commands interface {
	Handle(ctx context.Context, ev models.Event) bool
	HandleAction(ctx context.Context, ev models.Event) bool
}

// Router routes events. It must be called with the events of one user in
// the order they arrived; the dispatcher guarantees that.
type Router struct {
	conversation Conversation
	commands     Commands
	cooldown     *antispam.Cooldown
	messenger    messenger.Messenger
	now          func() time.Time
	log          *zap.Logger
}

// New creates a Router. cooldown may be nil to accept everything.
func New(conv Conversation, cmds Commands, cooldown *antispam.Cooldown, msgr messenger.Messenger, log *zap.Logger) *Router {
	if cooldown == nil {
		cooldown = antispam.NewCooldown(0)
	}
	return &Router{
		conversation: conv,
		commands:     cmds,
		cooldown:     cooldown,
		messenger:    msgr,
		now:          time.Now,
		log:          log.Named("router"),
	}
}

// Route handles one event
func (r *Router) Route(ctx context.Context, ev models.Event) {
	now := r.now()
	if !r.cooldown.Allow(ev.UserID, now) {
		r.drop(ctx, ev, now)
		return
	}

	switch ev.Kind {
	case models.EventCommand:
		r.commands.Handle(ctx, ev)
	case models.EventAction:
		r.commands.HandleAction(ctx, ev)
	case models.EventText, models.EventPhoto:
		if !r.conversation.Handle(ctx, ev) {
			r.log.Debug("Ignoring input outside a submission",
				zap.String("user_id", ev.UserID),
				zap.String("kind", string(ev.Kind)))
		}
	default:
		r.log.Warn("Unknown event kind",
			zap.String("event_id", ev.ID),
			zap.String("kind", string(ev.Kind)))
	}
}

// drop discards an event that arrived inside the cooldown window. Only
// interactive actions hear about it.
func (r *Router) drop(ctx context.Context, ev models.Event, now time.Time) {
	r.log.Debug("Dropped event inside cooldown",
		zap.String("event_id", ev.ID),
		zap.String("user_id", ev.UserID),
		zap.String("kind", string(ev.Kind)),
		zap.Duration("remaining", r.cooldown.Remaining(ev.UserID, now)))

	if !ev.Interactive() || ev.ReplyToken == "" {
		return
	}
	if err := r.messenger.Answer(ctx, ev.ReplyToken, msgSlowDown); err != nil {
		r.log.Warn("Failed to answer dropped action",
			zap.String("user_id", ev.UserID),
			zap.Error(err))
	}
}
