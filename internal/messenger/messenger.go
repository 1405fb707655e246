// Package messenger defines the outbound side of the chat transport.
package messenger

import "context"

// Button is an inline button attached to a message. Exactly one of ID or URL
// is set.
type Button struct {
	Label string
	ID    string
	URL   string
}

// Photo references an image the transport can display
type Photo struct {
	ID  string
	URL string
}

// Empty reports whether there is nothing to display
func (p Photo) Empty() bool {
	return p.ID == "" && p.URL == ""
}

// Messenger sends messages to chats
type Messenger interface {
	SendText(ctx context.Context, chatID, text string, buttons ...Button) error
	SendPhoto(ctx context.Context, chatID string, photo Photo, caption string, buttons ...Button) error
	// Answer replies privately to an interactive action
	Answer(ctx context.Context, replyToken, text string) error
}
