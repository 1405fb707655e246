package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/bradykim7/cooknet/internal/models"
	"go.uber.org/zap"
)

type stubCommand struct {
	calls []models.Event
	args  [][]string
	err   error
}

func (s *stubCommand) Execute(ctx context.Context, ev models.Event, args []string) error {
	s.calls = append(s.calls, ev)
	s.args = append(s.args, args)
	return s.err
}

func (s *stubCommand) Help() string { return "stub: does nothing" }

type stubAction struct {
	args []string
}

func (s *stubAction) Press(ctx context.Context, ev models.Event, arg string) error {
	s.args = append(s.args, arg)
	return nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		content  string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"!add", "add", "", true},
		{"!TOP", "top", "", true},
		{"!recipe 12", "recipe", "12", true},
		{"!chat hello there\nsecond line", "chat", "hello there\nsecond line", true},
		{"!chat\nhello", "chat", "hello", true},
		{"!  ping  ", "ping", "", true},
		{"!", "", "", false},
		{"hello !add", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			name, args, ok := Parse("!", tt.content)
			if ok != tt.wantOK || name != tt.wantName || args != tt.wantArgs {
				t.Fatalf("Parse(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.content, name, args, ok, tt.wantName, tt.wantArgs, tt.wantOK)
			}
		})
	}
}

func TestRegistryHandle(t *testing.T) {
	r := NewRegistry("!", zap.NewNop())
	cmd := &stubCommand{}
	r.Register("Recipe", cmd)

	ev := models.Event{Kind: models.EventCommand, Command: "recipe", Payload: "  12  extra "}
	if !r.Handle(context.Background(), ev) {
		t.Fatal("expected command to be found")
	}
	if len(cmd.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(cmd.calls))
	}
	if got := cmd.args[0]; len(got) != 2 || got[0] != "12" || got[1] != "extra" {
		t.Fatalf("unexpected args %q", got)
	}

	if r.Handle(context.Background(), models.Event{Kind: models.EventCommand, Command: "nope"}) {
		t.Fatal("expected unknown command to be reported")
	}
}

func TestRegistryHandleSwallowsCommandErrors(t *testing.T) {
	r := NewRegistry("!", zap.NewNop())
	r.Register("boom", &stubCommand{err: errors.New("boom")})

	if !r.Handle(context.Background(), models.Event{Command: "boom"}) {
		t.Fatal("a failing command is still a handled command")
	}
}

func TestRegistryHandleAction(t *testing.T) {
	r := NewRegistry("!", zap.NewNop())
	like := &stubAction{}
	top := &stubAction{}
	r.RegisterAction("like", like)
	r.RegisterAction("top", top)

	ctx := context.Background()
	r.HandleAction(ctx, models.Event{Kind: models.EventAction, Payload: "like_42"})
	r.HandleAction(ctx, models.Event{Kind: models.EventAction, Payload: "top"})

	if len(like.args) != 1 || like.args[0] != "42" {
		t.Fatalf("unexpected like args %q", like.args)
	}
	if len(top.args) != 1 || top.args[0] != "" {
		t.Fatalf("unexpected top args %q", top.args)
	}
	if r.HandleAction(ctx, models.Event{Kind: models.EventAction, Payload: "dislike_1"}) {
		t.Fatal("expected unknown action to be reported")
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry("!", zap.NewNop())
	for _, name := range []string{"top", "add", "help"} {
		r.Register(name, &stubCommand{})
	}

	got := r.Names()
	want := []string{"add", "help", "top"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
