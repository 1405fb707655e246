package commands

import (
	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// Deps are the collaborators of the built-in commands
type Deps struct {
	Submissions Submissions
	Recipes     Recipes
	Users       storage.UserStore
	Chats       storage.ChatStore
	Messenger   messenger.Messenger
	TopLimit    int
	WebURL      string
}

// RegisterAll registers every built-in command and button action
func RegisterAll(r *Registry, d Deps, log *zap.Logger) {
	add := NewAddCommand(d.Submissions)
	top := NewListCommand(ListTop, d.Recipes, d.Messenger, d.TopLimit, log)
	chat := NewChatCommand(d.Users, d.Chats, d.Messenger, log)

	r.Register("start", NewStartCommand(d.Users, d.Messenger, r.Prefix(), d.WebURL, log))
	r.Register("add", add)
	r.Register("cancel", NewCancelCommand(d.Submissions))
	r.Register("top", top)
	r.Register("recent", NewListCommand(ListRecent, d.Recipes, d.Messenger, d.TopLimit, log))
	r.Register("mine", NewListCommand(ListMine, d.Recipes, d.Messenger, 0, log))
	r.Register("random", NewRandomCommand(d.Recipes, d.Messenger, log))
	r.Register("recipe", NewRecipeCommand(d.Recipes, d.Messenger, log))
	r.Register("chat", chat)
	r.Register("history", NewHistoryCommand(d.Chats, d.Messenger, log))
	r.Register("daily", NewDailyCommand(d.Users, d.Messenger, log))
	r.Register("ping", NewPingCommand(d.Messenger))
	r.Register("help", NewHelpCommand(r, d.Messenger))

	r.RegisterAction(LikeActionName, NewLikeAction(d.Recipes, d.Messenger, log))
	r.RegisterAction("add", add)
	r.RegisterAction(string(ListTop), top)
	r.RegisterAction("chat", chat)
}
