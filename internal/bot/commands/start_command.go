package commands

import (
	"context"
	"fmt"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// StartCommand는 사용자를 등록하고 환영 메시지를 보냅니다
type StartCommand struct {
	users     storage.UserStore
	messenger messenger.Messenger
	prefix    string
	webURL    string
	log       *zap.Logger
}

// NewStartCommand는 새로운 start 명령어를 생성합니다. webURL이 비어 있으면
// 웹 버튼을 생략합니다.
func NewStartCommand(users storage.UserStore, msgr messenger.Messenger, prefix, webURL string, log *zap.Logger) *StartCommand {
	return &StartCommand{
		users:     users,
		messenger: msgr,
		prefix:    prefix,
		webURL:    webURL,
		log:       log.Named("start-command"),
	}
}

// Execute records the user and sends the welcome message with shortcut buttons
func (c *StartCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	// 사용자 등록 실패해도 환영 메시지는 보냄
	if err := c.users.UpsertUser(ctx, ev.UserID, ev.Username, ev.ChatID); err != nil {
		c.log.Error("사용자 등록 실패", zap.String("user_id", ev.UserID), zap.Error(err))
	}

	buttons := []messenger.Button{
		{Label: "➕ Add recipe", ID: "add"},
		{Label: "🏆 Top recipes", ID: string(ListTop)},
		{Label: "💬 Join chat", ID: "chat_on"},
	}
	if c.webURL != "" {
		buttons = append(buttons, messenger.Button{Label: "🌐 Open CookNet", URL: c.webURL})
	}

	text := fmt.Sprintf(msgWelcome, ev.Author(), c.prefix, c.prefix)
	return c.messenger.SendText(ctx, ev.ChatID, text, buttons...)
}

// Help returns the help line
func (c *StartCommand) Help() string {
	return "start: introduction and shortcuts"
}
