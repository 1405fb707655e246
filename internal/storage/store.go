package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bradykim7/cooknet/internal/caption"
	"github.com/bradykim7/cooknet/internal/models"
)

// RecipeStore persists recipes. It is the only writer of ids, timestamps and
// like counters.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, in models.NewRecipe) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*models.Recipe, error)
	ListRecent(ctx context.Context, limit int) ([]models.Recipe, error)
	ListTop(ctx context.Context, limit int) ([]models.Recipe, error)
	LikeRecipe(ctx context.Context, id int64) error
	RandomRecipe(ctx context.Context) (*models.Recipe, error)
}

// UserStore persists chat users and their subscriptions
type UserStore interface {
	UpsertUser(ctx context.Context, id, username, chatID string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetChatSubscription(ctx context.Context, id string, on bool) error
	SetDailySubscription(ctx context.Context, id string, on bool) error
	ChatSubscribers(ctx context.Context, excludeUserID string) ([]string, error)
	DailySubscribers(ctx context.Context) ([]string, error)
}

// ChatStore persists community chat history
type ChatStore interface {
	SaveChatMessage(ctx context.Context, userID, username, text string) (*models.ChatMessage, error)
	RecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

// Store is everything the bot persists
type Store interface {
	RecipeStore
	UserStore
	ChatStore
	Close() error
}

// prepareRecipe validates the input and fills the fields computed at creation
func prepareRecipe(in models.NewRecipe, now time.Time) (models.Recipe, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Recipe{}, ErrEmptyTitle
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = models.AnonymousAuthor
	}
	description := strings.TrimSpace(in.Description)

	return models.Recipe{
		AuthorID:    in.AuthorID,
		Author:      author,
		Title:       title,
		Description: description,
		PhotoID:     strings.TrimSpace(in.PhotoID),
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
		Caption:     caption.Generate(title, description),
		Likes:       0,
		CreatedAt:   now.UTC(),
	}, nil
}

// checkRecipe rejects records that came back from storage without the fields
// every recipe must have
func checkRecipe(r *models.Recipe) error {
	if r.ID <= 0 {
		return fmt.Errorf("corrupt recipe record: missing id")
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("corrupt recipe record %d: missing title", r.ID)
	}
	if r.Likes < 0 {
		return fmt.Errorf("corrupt recipe record %d: negative likes", r.ID)
	}
	if r.Author == "" {
		r.Author = models.AnonymousAuthor
	}
	return nil
}
