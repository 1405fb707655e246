package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"go.uber.org/zap"
)

// LikeActionName is the button id prefix of like buttons
const LikeActionName = "like"

// Recipes is the read side the recipe commands need
type Recipes interface {
	Recent(ctx context.Context, limit int) ([]models.Recipe, error)
	Top(ctx context.Context, limit int) ([]models.Recipe, error)
	ByAuthor(ctx context.Context, author string, limit int) ([]models.Recipe, error)
	Get(ctx context.Context, id int64) (*models.Recipe, error)
	Random(ctx context.Context) (*models.Recipe, error)
	Like(ctx context.Context, id int64) (*models.Recipe, error)
}

// LikeButton returns the ❤️ button for a recipe
func LikeButton(id int64) messenger.Button {
	return messenger.Button{
		Label: "❤️ Like",
		ID:    LikeActionName + "_" + strconv.FormatInt(id, 10),
	}
}

// FormatRecipe renders a recipe as message text
func FormatRecipe(r models.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🍽 #%d %s\n", r.ID, r.Title)
	fmt.Fprintf(&b, "👨‍🍳 @%s · ❤️ %d\n", r.Author, r.Likes)
	if r.Caption != "" {
		b.WriteString("\n")
		b.WriteString(r.Caption)
	}
	return b.String()
}

// sendRecipe sends one recipe with a like button, as a photo when it has one
func sendRecipe(ctx context.Context, msgr messenger.Messenger, chatID string, r models.Recipe) error {
	text := FormatRecipe(r)
	if r.HasPhoto() {
		photo := messenger.Photo{ID: r.PhotoID, URL: r.PhotoURL}
		return msgr.SendPhoto(ctx, chatID, photo, text, LikeButton(r.ID))
	}
	return msgr.SendText(ctx, chatID, text, LikeButton(r.ID))
}

// sendRecipes sends a heading followed by each recipe. A failed send is
// logged and the rest still go out.
func sendRecipes(ctx context.Context, msgr messenger.Messenger, log *zap.Logger, chatID, heading string, recipes []models.Recipe) {
	if len(recipes) == 0 {
		reply(ctx, msgr, log, chatID, msgNoRecipes)
		return
	}

	reply(ctx, msgr, log, chatID, heading)
	for _, r := range recipes {
		if err := sendRecipe(ctx, msgr, chatID, r); err != nil {
			log.Warn("Failed to send recipe",
				zap.String("chat_id", chatID),
				zap.Int64("recipe_id", r.ID),
				zap.Error(err))
		}
	}
}

// reply sends text and logs a failure
func reply(ctx context.Context, msgr messenger.Messenger, log *zap.Logger, chatID, text string, buttons ...messenger.Button) {
	if err := msgr.SendText(ctx, chatID, text, buttons...); err != nil {
		log.Warn("Failed to send reply",
			zap.String("chat_id", chatID),
			zap.Error(err))
	}
}

// answer responds to a button press, falling back to the chat when the
// event carries no reply token
func answer(ctx context.Context, msgr messenger.Messenger, log *zap.Logger, ev models.Event, text string) {
	if ev.ReplyToken == "" {
		reply(ctx, msgr, log, ev.ChatID, text)
		return
	}
	if err := msgr.Answer(ctx, ev.ReplyToken, text); err != nil {
		log.Warn("Failed to answer action",
			zap.String("user_id", ev.UserID),
			zap.Error(err))
	}
}
