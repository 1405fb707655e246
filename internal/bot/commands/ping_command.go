package commands

import (
	"context"
	"time"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
)

// PingCommand는 "pong"으로 응답하는 간단한 명령어입니다
type PingCommand struct {
	messenger messenger.Messenger
	now       func() time.Time
}

// NewPingCommand는 새로운 ping 명령어를 생성합니다
func NewPingCommand(msgr messenger.Messenger) *PingCommand {
	return &PingCommand{
		messenger: msgr,
		now:       time.Now,
	}
}

// Execute replies with how long the event waited before being handled
func (c *PingCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	// 응답 시간 계산
	text := "🏓 Pong!"
	if !ev.ReceivedAt.IsZero() {
		elapsed := c.now().Sub(ev.ReceivedAt)
		text += " Latency: " + elapsed.Round(time.Millisecond).String()
	}
	return c.messenger.SendText(ctx, ev.ChatID, text)
}

// Help returns the help line
func (c *PingCommand) Help() string {
	return "ping: check that the bot is alive"
}
