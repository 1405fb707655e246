package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// DailyCommand는 오늘의 레시피 구독을 켜고 끕니다
type DailyCommand struct {
	users     storage.UserStore
	messenger messenger.Messenger
	log       *zap.Logger
}

// NewDailyCommand는 새로운 daily 명령어를 생성합니다
func NewDailyCommand(users storage.UserStore, msgr messenger.Messenger, log *zap.Logger) *DailyCommand {
	return &DailyCommand{
		users:     users,
		messenger: msgr,
		log:       log.Named("daily-command"),
	}
}

// Execute handles "daily on", "daily off" and plain "daily" (status)
func (c *DailyCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	if err := c.users.UpsertUser(ctx, ev.UserID, ev.Username, ev.ChatID); err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgSettingsFailed)
		return fmt.Errorf("failed to record user %s: %w", ev.UserID, err)
	}

	if len(args) == 0 {
		return c.status(ctx, ev)
	}

	var on bool
	switch strings.ToLower(args[0]) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return c.status(ctx, ev)
	}

	if err := c.users.SetDailySubscription(ctx, ev.UserID, on); err != nil {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgSettingsFailed)
		return fmt.Errorf("failed to set daily subscription: %w", err)
	}

	c.log.Info("구독 설정 변경", zap.String("user_id", ev.UserID), zap.Bool("on", on))
	if on {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgDailyOn)
	} else {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgDailyOff)
	}
	return nil
}

func (c *DailyCommand) status(ctx context.Context, ev models.Event) error {
	user, err := c.users.GetUser(ctx, ev.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		reply(ctx, c.messenger, c.log, ev.ChatID, msgLoadFailed)
		return fmt.Errorf("failed to load user %s: %w", ev.UserID, err)
	}

	state := "off"
	if user != nil && user.DailySub {
		state = "on"
	}
	reply(ctx, c.messenger, c.log, ev.ChatID, fmt.Sprintf(msgDailyStatus, state))
	return nil
}

// Help returns the help line
func (c *DailyCommand) Help() string {
	return "daily on|off: get a random recipe every day"
}
