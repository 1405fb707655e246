package models

import "time"

// EventKind classifies an inbound chat event
type EventKind string

const (
	// EventText is a plain text message
	EventText EventKind = "text"
	// EventPhoto is a message carrying an image
	EventPhoto EventKind = "photo"
	// EventCommand is a message starting with the command prefix
	EventCommand EventKind = "command"
	// EventAction is a button press
	EventAction EventKind = "action"
)

// Event is an inbound chat event translated from whatever transport carried it
type Event struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	ChatID   string    `json:"chat_id"`
	Username string    `json:"username"`
	Kind     EventKind `json:"kind"`

	// Command is the command name without prefix for EventCommand
	Command string `json:"command,omitempty"`
	// Payload is the text, the command arguments or the button id
	Payload string `json:"payload,omitempty"`

	PhotoID  string `json:"photo_id,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`

	// ReplyToken lets interactive actions be answered privately
	ReplyToken string    `json:"-"`
	ReceivedAt time.Time `json:"received_at"`
}

// Interactive reports whether the event is an explicit user action such as a
// button press
func (e *Event) Interactive() bool {
	return e.Kind == EventAction
}

// Author returns the display handle for the sender
func (e *Event) Author() string {
	if e.Username == "" {
		return AnonymousAuthor
	}
	return e.Username
}
