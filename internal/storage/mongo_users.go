package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bradykim7/cooknet/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertUser records a user and the chat they talk to the bot from
func (m *MongoDB) UpsertUser(ctx context.Context, id, username, chatID string) error {
	update := bson.M{
		"$set": bson.M{
			"username": username,
			"chat_id":  chatID,
		},
		"$setOnInsert": bson.M{
			"chat_sub":  false,
			"daily_sub": true,
		},
	}
	_, err := m.Collection(usersCollection).UpdateByID(ctx, id, update, options.Update().SetUpsert(true))
	return wrap("upsert user", err)
}

// GetUser returns a user by id
func (m *MongoDB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := m.Collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, wrap("get user", err)
	}
	return &user, nil
}

// SetChatSubscription toggles relaying of community chat messages
func (m *MongoDB) SetChatSubscription(ctx context.Context, id string, on bool) error {
	return m.setFlag(ctx, "set chat subscription", id, "chat_sub", on)
}

// SetDailySubscription toggles the daily recipe digest
func (m *MongoDB) SetDailySubscription(ctx context.Context, id string, on bool) error {
	return m.setFlag(ctx, "set daily subscription", id, "daily_sub", on)
}

func (m *MongoDB) setFlag(ctx context.Context, op, id, field string, on bool) error {
	result, err := m.Collection(usersCollection).UpdateByID(ctx, id, bson.M{"$set": bson.M{field: on}})
	if err != nil {
		return wrap(op, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ChatSubscribers returns the chat ids of chat subscribers other than excludeUserID
func (m *MongoDB) ChatSubscribers(ctx context.Context, excludeUserID string) ([]string, error) {
	filter := bson.M{
		"chat_sub": true,
		"chat_id":  bson.M{"$nin": bson.A{nil, ""}},
		"_id":      bson.M{"$ne": excludeUserID},
	}
	return m.chatIDs(ctx, "chat subscribers", filter)
}

// DailySubscribers returns the chat ids subscribed to the daily digest
func (m *MongoDB) DailySubscribers(ctx context.Context) ([]string, error) {
	filter := bson.M{
		"daily_sub": true,
		"chat_id":   bson.M{"$nin": bson.A{nil, ""}},
	}
	return m.chatIDs(ctx, "daily subscribers", filter)
}

func (m *MongoDB) chatIDs(ctx context.Context, op string, filter bson.M) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"chat_id": 1})

	cursor, err := m.Collection(usersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, wrap(op, err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ChatID)
	}
	return ids, nil
}

// SaveChatMessage stores a community chat message
func (m *MongoDB) SaveChatMessage(ctx context.Context, userID, username, text string) (*models.ChatMessage, error) {
	id, err := m.nextSequence(ctx, chatCollection)
	if err != nil {
		return nil, wrap("allocate chat message id", err)
	}

	msg := models.ChatMessage{
		ID:       id,
		UserID:   userID,
		Username: username,
		Text:     text,
		SentAt:   m.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := m.Collection(chatCollection).InsertOne(ctx, msg); err != nil {
		return nil, wrap("save chat message", err)
	}
	return &msg, nil
}

// RecentChatMessages returns the last limit messages, oldest first
func (m *MongoDB) RecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 30
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.Collection(chatCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrap("recent chat messages", err)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, wrap("recent chat messages", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
