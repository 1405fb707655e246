package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// HistoryLimit is how many chat messages !history shows
const HistoryLimit = 30

// ChatCommand relays community chat messages between subscribed users
type ChatCommand struct {
	users     storage.UserStore
	chats     storage.ChatStore
	messenger messenger.Messenger
	log       *zap.Logger
}

// NewChatCommand creates the chat command
func NewChatCommand(users storage.UserStore, chats storage.ChatStore, msgr messenger.Messenger, log *zap.Logger) *ChatCommand {
	return &ChatCommand{
		users:     users,
		chats:     chats,
		messenger: msgr,
		log:       log.Named("chat-command"),
	}
}

// Execute toggles the subscription with "on"/"off", otherwise posts the
// whole payload as a message
func (c *ChatCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	if err := c.users.UpsertUser(ctx, ev.UserID, ev.Username, ev.ChatID); err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgChatFailed)
		return fmt.Errorf("failed to record user %s: %w", ev.UserID, err)
	}

	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			return c.subscribe(ctx, ev, true)
		case "off":
			return c.subscribe(ctx, ev, false)
		}
	}

	text := strings.TrimSpace(ev.Payload)
	if text == "" {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgChatUsage)
		return nil
	}
	return c.post(ctx, ev, text)
}

// Press handles the "chat_on" and "chat_off" buttons
func (c *ChatCommand) Press(ctx context.Context, ev models.Event, arg string) error {
	if err := c.users.UpsertUser(ctx, ev.UserID, ev.Username, ev.ChatID); err != nil {
		answer(ctx, c.messenger, c.log, ev, msgSettingsFailed)
		return fmt.Errorf("failed to record user %s: %w", ev.UserID, err)
	}
	on := arg != "off"
	if err := c.users.SetChatSubscription(ctx, ev.UserID, on); err != nil {
		answer(ctx, c.messenger, c.log, ev, msgSettingsFailed)
		return fmt.Errorf("failed to set chat subscription: %w", err)
	}
	if on {
		answer(ctx, c.messenger, c.log, ev, msgChatOn)
	} else {
		answer(ctx, c.messenger, c.log, ev, msgChatOff)
	}
	return nil
}

func (c *ChatCommand) subscribe(ctx context.Context, ev models.Event, on bool) error {
	if err := c.users.SetChatSubscription(ctx, ev.UserID, on); err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgSettingsFailed)
		return fmt.Errorf("failed to set chat subscription: %w", err)
	}
	c.log.Info("Chat subscription changed", zap.String("user_id", ev.UserID), zap.Bool("on", on))
	if on {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgChatOn)
	} else {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgChatOff)
	}
	return nil
}

// post saves the message and relays it to every other subscriber. A failed
// relay does not stop the others.
func (c *ChatCommand) post(ctx context.Context, ev models.Event, text string) error {
	msg, err := c.chats.SaveChatMessage(ctx, ev.UserID, ev.Author(), text)
	if err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgChatFailed)
		return fmt.Errorf("failed to save chat message: %w", err)
	}

	recipients, err := c.users.ChatSubscribers(ctx, ev.UserID)
	if err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgChatFailed)
		return fmt.Errorf("failed to load chat subscribers: %w", err)
	}

	relay := fmt.Sprintf(msgChatRelay, msg.Username, msg.Text)
	sent := 0
	for _, chatID := range recipients {
		if err := c.messenger.SendText(ctx, chatID, relay); err != nil {
			c.log.Warn("Failed to relay chat message",
				zap.String("chat_id", chatID),
				zap.Error(err))
			continue
		}
		sent++
	}

	c.log.Info("Chat message relayed",
		zap.Int64("message_id", msg.ID),
		zap.Int("recipients", len(recipients)),
		zap.Int("sent", sent))
	reply(ctx, c.messenger, c.log, ev.ChatID, fmt.Sprintf(msgChatSent, sent))
	return nil
}

// Help returns the help line
func (c *ChatCommand) Help() string {
	return "chat <message>: talk to other cooks · chat on|off: join or leave"
}

// HistoryCommand shows the latest community chat messages
type HistoryCommand struct {
	chats     storage.ChatStore
	messenger messenger.Messenger
	log       *zap.Logger
}

// NewHistoryCommand creates the history command
func NewHistoryCommand(chats storage.ChatStore, msgr messenger.Messenger, log *zap.Logger) *HistoryCommand {
	return &HistoryCommand{
		chats:     chats,
		messenger: msgr,
		log:       log.Named("history-command"),
	}
}

// Execute sends the last HistoryLimit messages, oldest first
func (c *HistoryCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	messages, err := c.chats.RecentChatMessages(ctx, HistoryLimit)
	if err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgLoadFailed)
		return fmt.Errorf("failed to load chat history: %w", err)
	}
	if len(messages) == 0 {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgHistoryEmpty)
		return nil
	}

	var b strings.Builder
	b.WriteString(msgHistoryHeading)
	for _, m := range messages {
		fmt.Fprintf(&b, "\n[%s] @%s: %s", m.SentAt.Format("01-02 15:04"), m.Username, m.Text)
	}
	reply(ctx, c.messenger, c.log, ev.ChatID, b.String())
	return nil
}

// Help returns the help line
func (c *HistoryCommand) Help() string {
	return fmt.Sprintf("history: the last %d chat messages", HistoryLimit)
}
