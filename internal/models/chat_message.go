package models

import "time"

// ChatMessage is a message posted to the community chat
type ChatMessage struct {
	ID       int64     `bson:"_id" json:"id"`
	UserID   string    `bson:"user_id" json:"user_id"`
	Username string    `bson:"username" json:"username"`
	Text     string    `bson:"text" json:"text"`
	SentAt   time.Time `bson:"ts" json:"ts"`
}
