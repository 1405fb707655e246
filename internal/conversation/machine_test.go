package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bradykim7/cooknet/internal/messenger/messengertest"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/internal/storage"
	"go.uber.org/zap"
)

// fakeRecipes is a RecipeStore that keeps recipes in memory and can be told
// to fail.
type fakeRecipes struct {
	mu      sync.Mutex
	recipes []models.Recipe
	err     error
	now     time.Time
}

func (f *fakeRecipes) CreateRecipe(ctx context.Context, in models.NewRecipe) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, storage.ErrEmptyTitle
	}
	r := models.Recipe{
		ID:          int64(len(f.recipes) + 1),
		AuthorID:    in.AuthorID,
		Author:      in.Author,
		Title:       in.Title,
		Description: in.Description,
		PhotoID:     in.PhotoID,
		PhotoURL:    in.PhotoURL,
		Caption:     in.Title + "!",
		CreatedAt:   f.now,
	}
	f.recipes = append(f.recipes, r)
	return &r, nil
}

func (f *fakeRecipes) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeRecipes) ListRecent(ctx context.Context, limit int) ([]models.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipes) ListTop(ctx context.Context, limit int) ([]models.Recipe, error) {
	return nil, nil
}

func (f *fakeRecipes) LikeRecipe(ctx context.Context, id int64) error {
	return storage.ErrNotFound
}

func (f *fakeRecipes) RandomRecipe(ctx context.Context) (*models.Recipe, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeRecipes) saved() []models.Recipe {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Recipe(nil), f.recipes...)
}

type fakeResolver struct {
	url string
	err error
}

func (f fakeResolver) Resolve(ctx context.Context, url string) (string, error) {
	return f.url, f.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	machine *Machine
	recipes *fakeRecipes
	out     *messengertest.Recorder
	clock   *clock
}

func setup(t *testing.T, resolver PhotoResolver) *harness {
	t.Helper()
	c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	recipes := &fakeRecipes{now: c.now}
	out := &messengertest.Recorder{}
	m := New(recipes, out, resolver, NewSessionStore(), Options{Timeout: 300 * time.Second, Now: c.Now}, zap.NewNop())
	return &harness{machine: m, recipes: recipes, out: out, clock: c}
}

func text(s string) models.Event {
	return models.Event{UserID: "u1", ChatID: "c1", Username: "chef", Kind: models.EventText, Payload: s}
}

func photo(id, url string) models.Event {
	return models.Event{UserID: "u1", ChatID: "c1", Username: "chef", Kind: models.EventPhoto, PhotoID: id, PhotoURL: url}
}

func start() models.Event {
	return models.Event{UserID: "u1", ChatID: "c1", Username: "chef", Kind: models.EventCommand, Command: "add"}
}

func (h *harness) lastText(t *testing.T) string {
	t.Helper()
	msg, ok := h.out.Last()
	if !ok {
		t.Fatal("expected an outbound message")
	}
	return msg.Text
}

func TestFullSubmission(t *testing.T) {
	h := setup(t, fakeResolver{url: "https://cdn.example/pasta.jpg"})
	ctx := context.Background()

	if err := h.machine.Start(ctx, start()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := h.machine.Stage("u1"); got != AwaitingPhoto {
		t.Fatalf("expected awaiting_photo, got %s", got)
	}

	steps := []struct {
		ev    models.Event
		stage Stage
	}{
		{photo("file-1", "https://discord.example/a.jpg"), AwaitingTitle},
		{text("Pasta"), AwaitingDescription},
		{text("Garlic and oil"), Idle},
	}
	for i, s := range steps {
		if !h.machine.Handle(ctx, s.ev) {
			t.Fatalf("step %d: event not handled", i)
		}
		if got := h.machine.Stage("u1"); got != s.stage {
			t.Fatalf("step %d: expected %s, got %s", i, s.stage, got)
		}
	}

	saved := h.recipes.saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(saved))
	}
	r := saved[0]
	if r.Title != "Pasta" || r.Description != "Garlic and oil" || r.Likes != 0 {
		t.Fatalf("unexpected recipe %+v", r)
	}
	if r.PhotoID != "file-1" || r.PhotoURL != "https://cdn.example/pasta.jpg" {
		t.Fatalf("unexpected photo reference %q / %q", r.PhotoID, r.PhotoURL)
	}
	if r.Author != "chef" || r.AuthorID != "u1" {
		t.Fatalf("unexpected author %q / %q", r.Author, r.AuthorID)
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	// One message per transition: start, photo, title, description.
	if n := len(h.out.Messages()); n != 4 {
		t.Fatalf("expected 4 messages, got %d", n)
	}
	if last := h.lastText(t); !strings.Contains(last, "Pasta!") {
		t.Fatalf("expected caption in completion message, got %q", last)
	}
}

func TestStartRejectsOpenSession(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	if err := h.machine.Start(ctx, start()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.machine.Handle(ctx, photo("file-1", ""))

	err := h.machine.Start(ctx, start())
	if !errors.Is(err, ErrSessionConflict) {
		t.Fatalf("expected ErrSessionConflict, got %v", err)
	}
	if got := h.lastText(t); got != msgConflict {
		t.Fatalf("expected conflict message, got %q", got)
	}
	// The open session is untouched.
	if got := h.machine.Stage("u1"); got != AwaitingTitle {
		t.Fatalf("expected awaiting_title, got %s", got)
	}
}

func TestStartReplacesExpiredSession(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	h.machine.Start(ctx, start())
	h.machine.Handle(ctx, photo("file-1", ""))
	h.clock.Advance(301 * time.Second)

	if err := h.machine.Start(ctx, start()); err != nil {
		t.Fatalf("expected fresh start after timeout, got %v", err)
	}
	if got := h.machine.Stage("u1"); got != AwaitingPhoto {
		t.Fatalf("expected awaiting_photo, got %s", got)
	}
}

func TestNonPhotoRepromptsForPhoto(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()
	h.machine.Start(ctx, start())

	for _, ev := range []models.Event{text("hello"), photo("", "")} {
		if !h.machine.Handle(ctx, ev) {
			t.Fatal("expected event to be handled")
		}
		if got := h.machine.Stage("u1"); got != AwaitingPhoto {
			t.Fatalf("expected awaiting_photo, got %s", got)
		}
		if got := h.lastText(t); got != promptPhotoAgain {
			t.Fatalf("expected photo re-prompt, got %q", got)
		}
	}
}

func TestPhotoResolutionFailureDoesNotBlock(t *testing.T) {
	h := setup(t, fakeResolver{err: errors.New("unreachable")})
	ctx := context.Background()

	h.machine.Start(ctx, start())
	h.machine.Handle(ctx, photo("file-1", "https://discord.example/a.jpg"))
	h.machine.Handle(ctx, text("Toast"))
	h.machine.Handle(ctx, text(""))

	saved := h.recipes.saved()
	if len(saved) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(saved))
	}
	if saved[0].PhotoID != "file-1" || saved[0].PhotoURL != "" {
		t.Fatalf("expected file id kept and URL dropped, got %q / %q", saved[0].PhotoID, saved[0].PhotoURL)
	}
	if saved[0].Description != "" {
		t.Fatalf("expected empty description, got %q", saved[0].Description)
	}
}

func TestEmptyTitleStaysInAwaitingTitle(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	h.machine.Start(ctx, start())
	h.machine.Handle(ctx, photo("file-1", ""))

	for _, in := range []string{"", "   ", "\n"} {
		h.machine.Handle(ctx, text(in))
		if got := h.machine.Stage("u1"); got != AwaitingTitle {
			t.Fatalf("title %q: expected awaiting_title, got %s", in, got)
		}
		if got := h.lastText(t); got != promptTitleAgain {
			t.Fatalf("expected title re-prompt, got %q", got)
		}
	}
	if n := len(h.recipes.saved()); n != 0 {
		t.Fatalf("expected no recipes, got %d", n)
	}
}

func TestTitleIsTrimmed(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	h.machine.Start(ctx, start())
	h.machine.Handle(ctx, photo("file-1", ""))
	h.machine.Handle(ctx, text("  Soup  "))
	h.machine.Handle(ctx, text("  hot  "))

	saved := h.recipes.saved()
	if len(saved) != 1 || saved[0].Title != "Soup" || saved[0].Description != "hot" {
		t.Fatalf("unexpected recipes %+v", saved)
	}
}

func TestCancel(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	if h.machine.Cancel(ctx, start()) {
		t.Fatal("expected nothing to cancel")
	}
	if got := h.lastText(t); got != msgNothingToCancel {
		t.Fatalf("unexpected message %q", got)
	}

	h.machine.Start(ctx, start())
	h.machine.Handle(ctx, photo("file-1", ""))
	h.machine.Handle(ctx, text("Soup"))

	if !h.machine.Cancel(ctx, start()) {
		t.Fatal("expected session to be cancelled")
	}
	if got := h.machine.Stage("u1"); got != Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	if h.machine.Handle(ctx, text("too late")) {
		t.Fatal("expected input after cancel to be unhandled")
	}
	if n := len(h.recipes.saved()); n != 0 {
		t.Fatalf("expected no recipes, got %d", n)
	}
}

func TestTimeoutEvictsBeforeProcessing(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	h.machine.Start(ctx, start())
	h.machine.Handle(ctx, photo("file-1", ""))
	h.machine.Handle(ctx, text("Soup"))

	h.clock.Advance(300 * time.Second)
	if !h.machine.HasSession("u1") {
		t.Fatal("session at exactly the timeout should still be open")
	}

	h.clock.Advance(time.Second)
	if h.machine.Handle(ctx, text("Would have been the description")) {
		t.Fatal("expected stale input to be evaluated from idle")
	}
	if got := h.machine.Stage("u1"); got != Idle {
		t.Fatalf("expected idle, got %s", got)
	}
	if n := len(h.recipes.saved()); n != 0 {
		t.Fatalf("stale session must not commit, got %d recipes", n)
	}
	if got := h.lastText(t); got != msgExpired {
		t.Fatalf("expected expiry notice, got %q", got)
	}
}

func TestStoreFailureEndsSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"storage error", &storage.StorageError{Op: "insert recipe", Err: errors.New("disk full")}},
		{"validation error", storage.ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t, nil)
			h.recipes.err = tt.err
			ctx := context.Background()

			h.machine.Start(ctx, start())
			h.machine.Handle(ctx, photo("file-1", ""))
			h.machine.Handle(ctx, text("Soup"))
			h.machine.Handle(ctx, text("hot"))

			if got := h.machine.Stage("u1"); got != Idle {
				t.Fatalf("expected idle, got %s", got)
			}
			if got := h.lastText(t); got != msgSaveFailed {
				t.Fatalf("expected failure message, got %q", got)
			}
		})
	}
}

func TestMessagingFailureDoesNotRollBack(t *testing.T) {
	h := setup(t, nil)
	h.out.Err = errors.New("gateway down")
	ctx := context.Background()

	if err := h.machine.Start(ctx, start()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.machine.Handle(ctx, photo("file-1", ""))
	if got := h.machine.Stage("u1"); got != AwaitingTitle {
		t.Fatalf("expected awaiting_title despite send failure, got %s", got)
	}
}

func TestSessionsAreIndependentPerUser(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	other := start()
	other.UserID, other.ChatID = "u2", "c2"

	h.machine.Start(ctx, start())
	if err := h.machine.Start(ctx, other); err != nil {
		t.Fatalf("second user start: %v", err)
	}
	h.machine.Handle(ctx, photo("file-1", ""))

	if got := h.machine.Stage("u2"); got != AwaitingPhoto {
		t.Fatalf("expected u2 awaiting_photo, got %s", got)
	}
	if got := h.machine.Stage("u1"); got != AwaitingTitle {
		t.Fatalf("expected u1 awaiting_title, got %s", got)
	}
}

func TestEvictExpired(t *testing.T) {
	h := setup(t, nil)
	ctx := context.Background()

	h.machine.Start(ctx, start())
	h.clock.Advance(200 * time.Second)
	other := start()
	other.UserID = "u2"
	h.machine.Start(ctx, other)

	h.clock.Advance(150 * time.Second)
	if n := h.machine.EvictExpired(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if h.machine.HasSession("u1") || !h.machine.HasSession("u2") {
		t.Fatal("expected only u1 to be evicted")
	}
}
