// Package messengertest provides an in-memory Messenger for tests.
package messengertest

import (
	"context"
	"sync"

	"github.com/bradykim7/cooknet/internal/messenger"
)

// Message is one recorded outbound message
type Message struct {
	ChatID     string
	Text       string
	Photo      messenger.Photo
	IsPhoto    bool
	IsAnswer   bool
	ReplyToken string
	Buttons    []messenger.Button
}

// Recorder records every message. Set Err to make every send fail.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

var _ messenger.Messenger = (*Recorder)(nil)

func (r *Recorder) record(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return r.Err
}

// SendText records a text message
func (r *Recorder) SendText(ctx context.Context, chatID, text string, buttons ...messenger.Button) error {
	return r.record(Message{ChatID: chatID, Text: text, Buttons: buttons})
}

// SendPhoto records a photo message
func (r *Recorder) SendPhoto(ctx context.Context, chatID string, photo messenger.Photo, caption string, buttons ...messenger.Button) error {
	return r.record(Message{ChatID: chatID, Text: caption, Photo: photo, IsPhoto: true, Buttons: buttons})
}

// Answer records a private answer
func (r *Recorder) Answer(ctx context.Context, replyToken, text string) error {
	return r.record(Message{Text: text, IsAnswer: true, ReplyToken: replyToken})
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset forgets recorded messages
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
