package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// DefaultListLimit is how many recipes a listing shows by default
const DefaultListLimit = 5

// ListKind selects which listing a ListCommand shows
type ListKind string

const (
	ListTop    ListKind = "top"
	ListRecent ListKind = "recent"
	ListMine   ListKind = "mine"
)

// ListCommand sends a list of recipes, each with a like button
type ListCommand struct {
	kind      ListKind
	recipes   Recipes
	messenger messenger.Messenger
	limit     int
	log       *zap.Logger
}

// NewListCommand creates a listing command. limit <= 0 uses DefaultListLimit.
func NewListCommand(kind ListKind, recipes Recipes, msgr messenger.Messenger, limit int, log *zap.Logger) *ListCommand {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return &ListCommand{
		kind:      kind,
		recipes:   recipes,
		messenger: msgr,
		limit:     limit,
		log:       log.Named(string(kind) + "-command"),
	}
}

// Execute sends the listing
func (c *ListCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	var (
		list    []models.Recipe
		heading string
		err     error
	)

	switch c.kind {
	case ListTop:
		heading = msgTopHeading
		list, err = c.recipes.Top(ctx, c.limit)
	case ListRecent:
		heading = msgRecentHeading
		list, err = c.recipes.Recent(ctx, c.limit)
	case ListMine:
		heading = msgMineHeading
		list, err = c.recipes.ByAuthor(ctx, ev.Author(), c.limit)
		if err == nil && len(list) == 0 {
			reply(ctx, c.messenger, c.log, ev.ChatID, msgNoMine)
			return nil
		}
	default:
		return fmt.Errorf("unknown listing %q", c.kind)
	}

	if err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgLoadFailed)
		return fmt.Errorf("failed to load %s recipes: %w", c.kind, err)
	}

	sendRecipes(ctx, c.messenger, c.log, ev.ChatID, heading, list)
	return nil
}

// Press handles listing buttons such as "top"
func (c *ListCommand) Press(ctx context.Context, ev models.Event, arg string) error {
	return c.Execute(ctx, ev, nil)
}

// Help returns the help line
func (c *ListCommand) Help() string {
	switch c.kind {
	case ListTop:
		return fmt.Sprintf("top: the %d most liked recipes", c.limit)
	case ListRecent:
		return fmt.Sprintf("recent: the %d newest recipes", c.limit)
	default:
		return "mine: recipes you published"
	}
}

// RandomCommand sends one random recipe
type RandomCommand struct {
	recipes   Recipes
	messenger messenger.Messenger
	log       *zap.Logger
}

// NewRandomCommand creates the random command
func NewRandomCommand(recipes Recipes, msgr messenger.Messenger, log *zap.Logger) *RandomCommand {
	return &RandomCommand{
		recipes:   recipes,
		messenger: msgr,
		log:       log.Named("random-command"),
	}
}

// Execute sends a random recipe
func (c *RandomCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	r, err := c.recipes.Random(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgNoRecipes)
		return nil
	}
	if err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgLoadFailed)
		return fmt.Errorf("failed to pick a random recipe: %w", err)
	}
	return sendRecipe(ctx, c.messenger, ev.ChatID, *r)
}

// Help returns the help line
func (c *RandomCommand) Help() string {
	return "random: a random recipe for when you can't decide"
}

// RecipeCommand shows one recipe by number
type RecipeCommand struct {
	recipes   Recipes
	messenger messenger.Messenger
	log       *zap.Logger
}

// NewRecipeCommand creates the recipe command
func NewRecipeCommand(recipes Recipes, msgr messenger.Messenger, log *zap.Logger) *RecipeCommand {
	return &RecipeCommand{
		recipes:   recipes,
		messenger: msgr,
		log:       log.Named("recipe-command"),
	}
}

// Execute sends the recipe named by the first argument
func (c *RecipeCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	if len(args) == 0 {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgRecipeUsage)
		return nil
	}
	id, err := parseRecipeID(args[0])
	if err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgRecipeUsage)
		return nil
	}

	r, err := c.recipes.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		reply(ctx, c.messenger, c.log, ev.ChatID, fmt.Sprintf(msgRecipeMissing, id))
		return nil
	}
	if err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgLoadFailed)
		return fmt.Errorf("failed to load recipe %d: %w", id, err)
	}
	return sendRecipe(ctx, c.messenger, ev.ChatID, *r)
}

// Help returns the help line
func (c *RecipeCommand) Help() string {
	return "recipe <number>: show one recipe"
}

// LikeAction handles ❤️ button presses
type LikeAction struct {
	recipes   Recipes
	messenger messenger.Messenger
	log       *zap.Logger
}

// NewLikeAction creates the like button handler
func NewLikeAction(recipes Recipes, msgr messenger.Messenger, log *zap.Logger) *LikeAction {
	return &LikeAction{
		recipes:   recipes,
		messenger: msgr,
		log:       log.Named("like-action"),
	}
}

// Press likes the recipe whose id is arg
func (a *LikeAction) Press(ctx context.Context, ev models.Event, arg string) error {
	id, err := parseRecipeID(arg)
	if err != nil {
		answer(ctx, a.messenger, a.log, ev, msgLikeMissing)
		return nil
	}

	r, err := a.recipes.Like(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// A stale button is an expected outcome, not an error.
		answer(ctx, a.messenger, a.log, ev, msgLikeMissing)
		return nil
	case err != nil:
		answer(ctx, a.messenger, a.log, ev, msgLikeFailed)
		return fmt.Errorf("failed to like recipe %d: %w", id, err)
	}

	a.log.Info("Recipe liked",
		zap.Int64("recipe_id", r.ID),
		zap.Int64("likes", r.Likes),
		zap.String("user_id", ev.UserID))
	answer(ctx, a.messenger, a.log, ev, fmt.Sprintf(msgLiked, r.Title, r.Likes))
	return nil
}

func parseRecipeID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid recipe id %d", id)
	}
	return id, nil
}
