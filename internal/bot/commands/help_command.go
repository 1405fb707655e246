package commands

import (
	"context"
	"strings"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
)

// HelpCommand lists every registered command
type HelpCommand struct {
	registry  *Registry
	messenger messenger.Messenger
}

// NewHelpCommand creates the help command
func NewHelpCommand(registry *Registry, msgr messenger.Messenger) *HelpCommand {
	return &HelpCommand{registry: registry, messenger: msgr}
}

// Execute sends one line per command
func (c *HelpCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	var b strings.Builder
	b.WriteString("📖 Commands")
	for _, name := range c.registry.Names() {
		cmd, _ := c.registry.Lookup(name)
		b.WriteString("\n")
		b.WriteString(c.registry.Prefix())
		b.WriteString(cmd.Help())
	}
	return c.messenger.SendText(ctx, ev.ChatID, b.String())
}

// Help returns the help line
func (c *HelpCommand) Help() string {
	return "help: this list"
}
