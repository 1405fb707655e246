package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bradykim7/cooknet/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	recentSort = bson.D{{Key: "_id", Value: -1}}
	topSort    = bson.D{{Key: "likes", Value: -1}, {Key: "_id", Value: -1}}
)

// CreateRecipe validates and inserts a recipe
func (m *MongoDB) CreateRecipe(ctx context.Context, in models.NewRecipe) (*models.Recipe, error) {
	recipe, err := prepareRecipe(in, m.now())
	if err != nil {
		return nil, err
	}

	id, err := m.nextSequence(ctx, recipesCollection)
	if err != nil {
		return nil, wrap("allocate recipe id", err)
	}
	recipe.ID = id
	// BSON dates have millisecond precision.
	recipe.CreatedAt = recipe.CreatedAt.Truncate(time.Millisecond)

	// Insert with the default write concern of the client
	if _, err := m.Collection(recipesCollection).InsertOne(ctx, recipe); err != nil {
		return nil, wrap("insert recipe", err)
	}

	m.log.Info("Recipe created", zap.Int64("id", id), zap.String("author", recipe.Author))
	return &recipe, nil
}

// GetRecipe returns the recipe with the given id
func (m *MongoDB) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	err := m.Collection(recipesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&recipe)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, wrap("get recipe", err)
	}
	if err := checkRecipe(&recipe); err != nil {
		return nil, wrap("get recipe", err)
	}
	return &recipe, nil
}

// ListRecent returns recipes newest first. A limit <= 0 returns all of them.
func (m *MongoDB) ListRecent(ctx context.Context, limit int) ([]models.Recipe, error) {
	return m.findRecipes(ctx, "list recent", recentSort, limit)
}

// ListTop returns recipes by likes, newest first among equal likes
func (m *MongoDB) ListTop(ctx context.Context, limit int) ([]models.Recipe, error) {
	return m.findRecipes(ctx, "list top", topSort, limit)
}

func (m *MongoDB) findRecipes(ctx context.Context, op string, sort bson.D, limit int) ([]models.Recipe, error) {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.Collection(recipesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrap(op, err)
	}
	return decodeRecipes(ctx, op, cursor)
}

func decodeRecipes(ctx context.Context, op string, cursor *mongo.Cursor) ([]models.Recipe, error) {
	defer cursor.Close(ctx)

	var recipes []models.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, wrap(op, err)
	}
	for i := range recipes {
		if err := checkRecipe(&recipes[i]); err != nil {
			return nil, wrap(op, err)
		}
	}
	return recipes, nil
}

// LikeRecipe increments the like counter with $inc
func (m *MongoDB) LikeRecipe(ctx context.Context, id int64) error {
	result, err := m.Collection(recipesCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"likes": int64(1)}},
	)
	if err != nil {
		return wrap("like recipe", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RandomRecipe returns any recipe, or ErrNotFound when there are none
func (m *MongoDB) RandomRecipe(ctx context.Context) (*models.Recipe, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	}
	cursor, err := m.Collection(recipesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrap("random recipe", err)
	}

	recipes, err := decodeRecipes(ctx, "random recipe", cursor)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, ErrNotFound
	}
	return &recipes[0], nil
}
