package commands

import (
	"context"
	"errors"

	"github.com/bradykim7/cooknet/internal/conversation"
	"github.com/bradykim7/cooknet/internal/models"
)

// Submissions starts and cancels recipe submissions
type Submissions interface {
	Start(ctx context.Context, ev models.Event) error
	Cancel(ctx context.Context, ev models.Event) bool
}

// AddCommand는 레시피 등록 대화를 시작합니다
type AddCommand struct {
	submissions Submissions
}

// NewAddCommand는 새로운 add 명령어를 생성합니다
func NewAddCommand(submissions Submissions) *AddCommand {
	return &AddCommand{submissions: submissions}
}

// Execute starts a submission. A conflict is already reported to the user.
func (c *AddCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	err := c.submissions.Start(ctx, ev)
	if errors.Is(err, conversation.ErrSessionConflict) {
		return nil
	}
	return err
}

// Press handles the "add" button
func (c *AddCommand) Press(ctx context.Context, ev models.Event, arg string) error {
	return c.Execute(ctx, ev, nil)
}

// Help returns the help line
func (c *AddCommand) Help() string {
	return "add: publish a new recipe (photo, name, description)"
}

// CancelCommand는 진행 중인 레시피 등록을 취소합니다
type CancelCommand struct {
	submissions Submissions
}

// NewCancelCommand는 새로운 cancel 명령어를 생성합니다
func NewCancelCommand(submissions Submissions) *CancelCommand {
	return &CancelCommand{submissions: submissions}
}

// Execute cancels the open submission, if any
func (c *CancelCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	c.submissions.Cancel(ctx, ev)
	return nil
}

// Help returns the help line
func (c *CancelCommand) Help() string {
	return "cancel: stop the recipe you are adding"
}
