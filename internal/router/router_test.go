package router

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bradykim7/cooknet/internal/antispam"
	"github.com/bradykim7/cooknet/internal/bot/commands"
	"github.com/bradykim7/cooknet/internal/catalog"
	"github.com/bradykim7/cooknet/internal/conversation"
	"github.com/bradykim7/cooknet/internal/messenger/messengertest"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type env struct {
	router  *Router
	store   *storage.SQLite
	machine *conversation.Machine
	out     *messengertest.Recorder
	clock   *testClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop()

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "router.db"), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	out := &messengertest.Recorder{}
	machine := conversation.New(store, out, nil, conversation.NewSessionStore(),
		conversation.Options{Timeout: 300 * time.Second, Now: clock.Now}, log)

	registry := commands.NewRegistry("!", log)
	commands.RegisterAll(registry, commands.Deps{
		Submissions: machine,
		Recipes:     catalog.New(store, log),
		Users:       store,
		Chats:       store,
		Messenger:   out,
		TopLimit:    5,
	}, log)

	r := New(machine, registry, antispam.NewCooldown(3*time.Second), out, log)
	r.now = clock.Now

	return &env{router: r, store: store, machine: machine, out: out, clock: clock}
}

// send routes ev and then lets the cooldown pass
func (e *env) send(ev models.Event) {
	e.router.Route(context.Background(), ev)
	e.clock.Advance(5 * time.Second)
}

func ev(kind models.EventKind) models.Event {
	return models.Event{UserID: "u1", ChatID: "c1", Username: "chef", Kind: kind}
}

func cmd(name string) models.Event {
	e := ev(models.EventCommand)
	e.Command = name
	return e
}

func textEv(s string) models.Event {
	e := ev(models.EventText)
	e.Payload = s
	return e
}

func TestSubmissionThroughRouter(t *testing.T) {
	e := newEnv(t)

	photo := ev(models.EventPhoto)
	photo.PhotoID = "file-1"
	photo.PhotoURL = "https://cdn.example/pasta.jpg"

	e.send(cmd("add"))
	e.send(photo)
	e.send(textEv("Pasta"))
	e.send(textEv("Garlic and oil"))

	recipes, err := e.store.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(recipes))
	}
	r := recipes[0]
	if r.Title != "Pasta" || r.Likes != 0 || r.Caption == "" || r.CreatedAt.IsZero() {
		t.Fatalf("unexpected recipe %+v", r)
	}
	if r.PhotoURL != "https://cdn.example/pasta.jpg" {
		t.Fatalf("expected photo URL to be kept, got %q", r.PhotoURL)
	}
	if got := e.machine.Stage("u1"); got != conversation.Idle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestCooldownDropsPassiveInputSilently(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.router.Route(ctx, cmd("add"))
	e.out.Reset()

	photo := ev(models.EventPhoto)
	photo.PhotoID = "file-1"
	e.clock.Advance(time.Second)
	e.router.Route(ctx, photo)

	if n := len(e.out.Messages()); n != 0 {
		t.Fatalf("expected no reply to a dropped message, got %d", n)
	}
	if got := e.machine.Stage("u1"); got != conversation.AwaitingPhoto {
		t.Fatalf("expected no transition, got %s", got)
	}

	// The dropped input does not extend the window.
	e.clock.Advance(2 * time.Second)
	e.router.Route(ctx, photo)
	if got := e.machine.Stage("u1"); got != conversation.AwaitingTitle {
		t.Fatalf("expected awaiting_title, got %s", got)
	}
}

func TestCooldownAnswersInteractiveActions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	recipe, err := e.store.CreateRecipe(ctx, models.NewRecipe{Title: "Soup"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	like := ev(models.EventAction)
	like.Payload = commands.LikeButton(recipe.ID).ID
	like.ReplyToken = "tok"

	e.router.Route(ctx, like)
	e.clock.Advance(time.Second)
	e.router.Route(ctx, like)

	msg, ok := e.out.Last()
	if !ok || !msg.IsAnswer || msg.Text != msgSlowDown {
		t.Fatalf("expected slow down answer, got %+v", msg)
	}

	got, err := e.store.GetRecipe(ctx, recipe.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Likes != 1 {
		t.Fatalf("expected the second like to be dropped, got %d likes", got.Likes)
	}
}

func TestCooldownIsPerUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.router.Route(ctx, cmd("add"))
	other := cmd("add")
	other.UserID, other.ChatID = "u2", "c2"
	e.router.Route(ctx, other)

	if e.machine.Stage("u2") != conversation.AwaitingPhoto {
		t.Fatal("another user's action must not be throttled")
	}
}

func TestStaleSessionInputStartsFromIdle(t *testing.T) {
	e := newEnv(t)

	photo := ev(models.EventPhoto)
	photo.PhotoID = "file-1"

	e.send(cmd("add"))
	e.send(photo)
	e.send(textEv("Pasta"))
	e.clock.Advance(10 * time.Minute)
	e.send(textEv("Garlic and oil"))

	if got := e.machine.Stage("u1"); got != conversation.Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	recipes, err := e.store.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recipes) != 0 {
		t.Fatalf("expected no recipe from a stale session, got %d", len(recipes))
	}
}

func TestTextOutsideSubmissionIsIgnored(t *testing.T) {
	e := newEnv(t)
	e.send(textEv("hello"))

	if n := len(e.out.Messages()); n != 0 {
		t.Fatalf("expected no reply, got %d", n)
	}
}
