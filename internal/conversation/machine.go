// Package conversation drives the multi-step recipe submission dialog:
// photo, then title, then description.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// DefaultTimeout is how long a submission may stay open
const DefaultTimeout = 300 * time.Second

// ErrSessionConflict is returned when a user starts a submission while one
// is already open
var ErrSessionConflict = errors.New("submission already in progress")

// PhotoResolver turns a candidate photo URL into a durable public URL
type PhotoResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Options tunes a Machine
type Options struct {
	Timeout time.Duration
	Now     func() time.Time
}

// Machine is the per-user submission state machine
type Machine struct {
	recipes   storage.RecipeStore
	messenger messenger.Messenger
	resolver  PhotoResolver
	sessions  *SessionStore
	timeout   time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// New creates a Machine. resolver may be nil, in which case photos keep the
// URL they arrived with.
func New(recipes storage.RecipeStore, msgr messenger.Messenger, resolver PhotoResolver, sessions *SessionStore, opts Options, log *zap.Logger) *Machine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if sessions == nil {
		sessions = NewSessionStore()
	}
	return &Machine{
		recipes:   recipes,
		messenger: msgr,
		resolver:  resolver,
		sessions:  sessions,
		timeout:   opts.Timeout,
		now:       opts.Now,
		log:       log.Named("conversation"),
	}
}

// Stage returns the current stage for userID without evicting anything
func (m *Machine) Stage(userID string) Stage {
	sess, ok := m.sessions.Get(userID)
	if !ok {
		return Idle
	}
	return sess.Stage
}

// HasSession reports whether userID has an open, unexpired submission
func (m *Machine) HasSession(userID string) bool {
	sess, ok := m.sessions.Get(userID)
	return ok && !sess.Expired(m.now(), m.timeout)
}

// Start opens a submission for the sender of ev. An open submission is
// never replaced: the user is told to finish or cancel it and
// ErrSessionConflict is returned.
func (m *Machine) Start(ctx context.Context, ev models.Event) error {
	now := m.now()
	m.evictIfExpired(ctx, ev, now, false)

	sess := Session{
		UserID:    ev.UserID,
		ChatID:    ev.ChatID,
		Stage:     AwaitingPhoto,
		StartedAt: now,
	}
	if !m.sessions.Insert(sess) {
		m.log.Info("Rejected submission start, session already open", zap.String("user_id", ev.UserID))
		m.send(ctx, ev.ChatID, msgConflict)
		return ErrSessionConflict
	}

	m.log.Info("Submission started", zap.String("user_id", ev.UserID))
	m.send(ctx, ev.ChatID, promptPhoto)
	return nil
}

// Cancel drops the open submission of the sender without saving anything
func (m *Machine) Cancel(ctx context.Context, ev models.Event) bool {
	m.evictIfExpired(ctx, ev, m.now(), false)

	if !m.sessions.Delete(ev.UserID) {
		m.send(ctx, ev.ChatID, msgNothingToCancel)
		return false
	}

	m.log.Info("Submission cancelled", zap.String("user_id", ev.UserID))
	m.send(ctx, ev.ChatID, msgCancelled)
	return true
}

// Handle feeds a text or photo event into the sender's submission. It
// returns false when the sender has no open submission, including when a
// stale one was just evicted; the caller then treats the event as it would
// from Idle.
func (m *Machine) Handle(ctx context.Context, ev models.Event) bool {
	now := m.now()
	if m.evictIfExpired(ctx, ev, now, true) {
		return false
	}

	sess, ok := m.sessions.Get(ev.UserID)
	if !ok {
		return false
	}

	switch sess.Stage {
	case AwaitingPhoto:
		m.handlePhoto(ctx, sess, ev)
	case AwaitingTitle:
		m.handleTitle(ctx, sess, ev)
	case AwaitingDescription:
		m.handleDescription(ctx, sess, ev)
	default:
		m.log.Error("Session in unexpected stage, dropping it",
			zap.String("user_id", ev.UserID),
			zap.Stringer("stage", sess.Stage))
		m.sessions.Delete(ev.UserID)
		return false
	}
	return true
}

// EvictExpired removes every stale session. Idle users are otherwise only
// evicted when their next input arrives.
func (m *Machine) EvictExpired() int {
	evicted := m.sessions.EvictExpired(m.now(), m.timeout)
	for _, sess := range evicted {
		m.log.Info("Evicted expired submission",
			zap.String("user_id", sess.UserID),
			zap.Stringer("stage", sess.Stage))
	}
	return len(evicted)
}

func (m *Machine) handlePhoto(ctx context.Context, sess Session, ev models.Event) {
	if ev.Kind != models.EventPhoto || (ev.PhotoID == "" && ev.PhotoURL == "") {
		m.send(ctx, ev.ChatID, promptPhotoAgain)
		return
	}

	sess.PhotoID = ev.PhotoID
	sess.PhotoURL = m.resolvePhoto(ctx, ev)
	sess.Stage = AwaitingTitle
	m.sessions.Update(sess)

	m.log.Debug("Photo accepted",
		zap.String("user_id", ev.UserID),
		zap.Bool("resolved", sess.PhotoURL != ""))
	m.send(ctx, ev.ChatID, promptTitle)
}

// resolvePhoto is best effort: any failure leaves the URL empty
func (m *Machine) resolvePhoto(ctx context.Context, ev models.Event) string {
	if ev.PhotoURL == "" {
		return ""
	}
	if m.resolver == nil {
		return ev.PhotoURL
	}

	url, err := m.resolver.Resolve(ctx, ev.PhotoURL)
	if err != nil {
		m.log.Warn("Failed to resolve photo URL",
			zap.String("user_id", ev.UserID),
			zap.String("url", ev.PhotoURL),
			zap.Error(err))
		return ""
	}
	return url
}

func (m *Machine) handleTitle(ctx context.Context, sess Session, ev models.Event) {
	if ev.Kind != models.EventText {
		m.send(ctx, ev.ChatID, promptTitleAgain)
		return
	}

	title := strings.TrimSpace(ev.Payload)
	if title == "" {
		m.send(ctx, ev.ChatID, promptTitleAgain)
		return
	}

	sess.Title = title
	sess.Stage = AwaitingDescription
	m.sessions.Update(sess)
	m.send(ctx, ev.ChatID, promptDescription)
}

func (m *Machine) handleDescription(ctx context.Context, sess Session, ev models.Event) {
	if ev.Kind != models.EventText {
		m.send(ctx, ev.ChatID, promptDescriptionTx)
		return
	}

	// The session ends here whatever the store says.
	m.sessions.Delete(ev.UserID)

	recipe, err := m.recipes.CreateRecipe(ctx, models.NewRecipe{
		AuthorID:    ev.UserID,
		Author:      ev.Author(),
		Title:       sess.Title,
		Description: strings.TrimSpace(ev.Payload),
		PhotoID:     sess.PhotoID,
		PhotoURL:    sess.PhotoURL,
	})
	if err != nil {
		if errors.Is(err, storage.ErrValidation) {
			m.log.Warn("Recipe rejected", zap.String("user_id", ev.UserID), zap.Error(err))
		} else {
			m.log.Error("Failed to save recipe", zap.String("user_id", ev.UserID), zap.Error(err))
		}
		m.send(ctx, ev.ChatID, msgSaveFailed)
		return
	}

	m.log.Info("Submission completed",
		zap.String("user_id", ev.UserID),
		zap.Int64("recipe_id", recipe.ID))
	m.send(ctx, ev.ChatID, fmt.Sprintf(msgSaved, recipe.ID, recipe.Caption))
}

// evictIfExpired drops the sender's session when it is too old. notify sends
// the timeout notice; it is only wanted when the eviction is the whole
// outcome of the input.
func (m *Machine) evictIfExpired(ctx context.Context, ev models.Event, now time.Time, notify bool) bool {
	sess, ok := m.sessions.Get(ev.UserID)
	if !ok || !sess.Expired(now, m.timeout) {
		return false
	}

	m.sessions.Delete(ev.UserID)
	m.log.Info("Evicted expired submission",
		zap.String("user_id", ev.UserID),
		zap.Stringer("stage", sess.Stage),
		zap.Duration("age", now.Sub(sess.StartedAt)))

	if notify {
		m.send(ctx, ev.ChatID, msgExpired)
	}
	return true
}

// send delivers text and logs failures; the state change already happened
func (m *Machine) send(ctx context.Context, chatID, text string) {
	if err := m.messenger.SendText(ctx, chatID, text); err != nil {
		m.log.Error("Failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err))
	}
}
