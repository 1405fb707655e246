// Package catalog answers read-side questions about published recipes for
// the bot commands and the web pages.
package catalog

import (
	"context"
	"fmt"

	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// Catalog is a thin query layer over a RecipeStore. Nothing is cached.
type Catalog struct {
	recipes storage.RecipeStore
	log     *zap.Logger
}

// New creates a Catalog
func New(recipes storage.RecipeStore, log *zap.Logger) *Catalog {
	return &Catalog{
		recipes: recipes,
		log:     log.Named("catalog"),
	}
}

// Recent returns up to limit recipes, newest first. limit <= 0 means all.
func (c *Catalog) Recent(ctx context.Context, limit int) ([]models.Recipe, error) {
	return c.recipes.ListRecent(ctx, limit)
}

// Top returns up to limit recipes by likes, ties broken by newest first
func (c *Catalog) Top(ctx context.Context, limit int) ([]models.Recipe, error) {
	return c.recipes.ListTop(ctx, limit)
}

// ByAuthor returns up to limit recipes whose author handle equals author
// exactly, newest first
func (c *Catalog) ByAuthor(ctx context.Context, author string, limit int) ([]models.Recipe, error) {
	all, err := c.recipes.ListRecent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes of %q: %w", author, err)
	}

	var out []models.Recipe
	for _, r := range all {
		if r.Author != author {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	c.log.Debug("Listed recipes by author",
		zap.String("author", author),
		zap.Int("scanned", len(all)),
		zap.Int("matched", len(out)))
	return out, nil
}

// Get returns one recipe or storage.ErrNotFound
func (c *Catalog) Get(ctx context.Context, id int64) (*models.Recipe, error) {
	return c.recipes.GetRecipe(ctx, id)
}

// Random returns a random recipe or storage.ErrNotFound when there is none
func (c *Catalog) Random(ctx context.Context) (*models.Recipe, error) {
	return c.recipes.RandomRecipe(ctx)
}

// Like adds one like to the recipe and returns it with the new count
func (c *Catalog) Like(ctx context.Context, id int64) (*models.Recipe, error) {
	if err := c.recipes.LikeRecipe(ctx, id); err != nil {
		return nil, err
	}
	return c.recipes.GetRecipe(ctx, id)
}
