package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bradykim7/cooknet/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestPerUserOrderIsPreserved(t *testing.T) {
	const (
		users  = 6
		events = 200
	)

	var (
		mu   sync.Mutex
		seen = make(map[string][]string)
		wg   sync.WaitGroup
	)
	wg.Add(users * events)

	d := New(4, 8, func(ctx context.Context, ev models.Event) {
		mu.Lock()
		seen[ev.UserID] = append(seen[ev.UserID], ev.Payload)
		mu.Unlock()
		wg.Done()
	}, zap.NewNop())
	d.Start(context.Background())
	defer d.Stop()

	var producers sync.WaitGroup
	for u := 0; u < users; u++ {
		producers.Add(1)
		go func(user string) {
			defer producers.Done()
			for i := 0; i < events; i++ {
				ev := models.Event{UserID: user, Kind: models.EventText, Payload: fmt.Sprint(i)}
				if err := d.Submit(context.Background(), ev); err != nil {
					t.Errorf("submit: %v", err)
					return
				}
			}
		}(fmt.Sprintf("user-%d", u))
	}
	producers.Wait()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for user, got := range seen {
		if len(got) != events {
			t.Fatalf("%s: expected %d events, got %d", user, events, len(got))
		}
		for i, payload := range got {
			if payload != fmt.Sprint(i) {
				t.Fatalf("%s: event %d arrived as %s", user, i, payload)
			}
		}
	}
}

func TestSubmitAssignsIDAndTime(t *testing.T) {
	got := make(chan models.Event, 1)
	d := New(1, 1, func(ctx context.Context, ev models.Event) { got <- ev }, zap.NewNop())
	d.Start(context.Background())
	defer d.Stop()

	if err := d.Submit(context.Background(), models.Event{UserID: "u1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case ev := <-got:
		if _, err := uuid.Parse(ev.ID); err != nil {
			t.Fatalf("expected a uuid event id, got %q", ev.ID)
		}
		if ev.ReceivedAt.IsZero() {
			t.Fatal("expected receive time to be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event was not handled")
	}
}

func TestSubmitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	d := New(1, 1, func(ctx context.Context, ev models.Event) {
		started <- struct{}{}
		<-release
	}, zap.NewNop())
	d.Start(context.Background())
	defer d.Stop()
	defer close(release)

	ctx := context.Background()
	if err := d.Submit(ctx, models.Event{UserID: "u1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started
	if err := d.Submit(ctx, models.Event{UserID: "u1"}); err != nil {
		t.Fatalf("submit into queue: %v", err)
	}

	timeout, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := d.Submit(timeout, models.Event{UserID: "u1"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSubmitAfterStop(t *testing.T) {
	d := New(2, 2, func(ctx context.Context, ev models.Event) {}, zap.NewNop())
	d.Start(context.Background())
	d.Stop()
	d.Stop()

	if err := d.Submit(context.Background(), models.Event{UserID: "u1"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestHandlerPanicDoesNotKillWorker(t *testing.T) {
	handled := make(chan string, 2)
	d := New(1, 4, func(ctx context.Context, ev models.Event) {
		if ev.Payload == "boom" {
			panic("boom")
		}
		handled <- ev.Payload
	}, zap.NewNop())
	d.Start(context.Background())
	defer d.Stop()

	ctx := context.Background()
	_ = d.Submit(ctx, models.Event{UserID: "u1", Payload: "boom"})
	_ = d.Submit(ctx, models.Event{UserID: "u1", Payload: "ok"})

	select {
	case got := <-handled:
		if got != "ok" {
			t.Fatalf("unexpected payload %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after a panic")
	}
}

func TestShardIsStable(t *testing.T) {
	d := New(8, 1, func(ctx context.Context, ev models.Event) {}, zap.NewNop())
	for _, user := range []string{"a", "b", "123456789", ""} {
		first := d.shard(user)
		for i := 0; i < 10; i++ {
			if got := d.shard(user); got != first {
				t.Fatalf("shard of %q changed from %d to %d", user, first, got)
			}
		}
		if first < 0 || first >= 8 {
			t.Fatalf("shard %d out of range", first)
		}
	}
}
