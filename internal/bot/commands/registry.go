package commands

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/bradykim7/cooknet/internal/models"
	"go.uber.org/zap"
)

// Command represents a bot command
type Command interface {
	Execute(ctx context.Context, ev models.Event, args []string) error
	Help() string
}

// Action handles a button press. The button id is "<name>_<arg>" or just
// "<name>".
type Action interface {
	Press(ctx context.Context, ev models.Event, arg string) error
}

// Registry manages all bot commands
type Registry struct {
	prefix   string
	commands map[string]Command
	actions  map[string]Action
	log      *zap.Logger
}

// NewRegistry creates a new command registry
func NewRegistry(prefix string, log *zap.Logger) *Registry {
	return &Registry{
		prefix:   prefix,
		commands: make(map[string]Command),
		actions:  make(map[string]Action),
		log:      log.Named("commands"),
	}
}

// Prefix returns the command prefix
func (r *Registry) Prefix() string {
	return r.prefix
}

// Register registers a command with the registry
func (r *Registry) Register(name string, cmd Command) {
	r.commands[strings.ToLower(name)] = cmd
	r.log.Debug("Registered command", zap.String("name", name))
}

// RegisterAction registers a button handler for ids starting with name
func (r *Registry) RegisterAction(name string, action Action) {
	r.actions[name] = action
	r.log.Debug("Registered action", zap.String("name", name))
}

// Handle executes the command named by a command event. It reports whether
// a command was found.
func (r *Registry) Handle(ctx context.Context, ev models.Event) bool {
	cmd, ok := r.commands[strings.ToLower(ev.Command)]
	if !ok {
		r.log.Debug("Unknown command", zap.String("command", ev.Command))
		return false
	}

	// Execute the command
	r.log.Info("Executing command",
		zap.String("command", ev.Command),
		zap.String("user_id", ev.UserID))
	if err := cmd.Execute(ctx, ev, strings.Fields(ev.Payload)); err != nil {
		r.log.Error("Command failed",
			zap.String("command", ev.Command),
			zap.String("user_id", ev.UserID),
			zap.Error(err))
	}
	return true
}

// HandleAction runs the handler for a button press event
func (r *Registry) HandleAction(ctx context.Context, ev models.Event) bool {
	name, arg, _ := strings.Cut(ev.Payload, "_")
	action, ok := r.actions[name]
	if !ok {
		r.log.Debug("Unknown action", zap.String("id", ev.Payload))
		return false
	}

	if err := action.Press(ctx, ev, arg); err != nil {
		r.log.Error("Action failed",
			zap.String("id", ev.Payload),
			zap.String("user_id", ev.UserID),
			zap.Error(err))
	}
	return true
}

// Names returns the registered command names in order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a registered command
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Parse splits a raw message into a command name and its argument text.
// ok is false when the message does not start with prefix.
func Parse(prefix, content string) (name, args string, ok bool) {
	// Check if the message starts with the command prefix
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}

	// Split the message into command and arguments
	content = strings.TrimSpace(strings.TrimPrefix(content, prefix))
	if content == "" {
		return "", "", false
	}
	i := strings.IndexFunc(content, unicode.IsSpace)
	if i < 0 {
		return strings.ToLower(content), "", true
	}
	return strings.ToLower(content[:i]), strings.TrimSpace(content[i:]), true
}
