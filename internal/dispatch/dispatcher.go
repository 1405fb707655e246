// Package dispatch queues inbound events and hands them to a fixed pool of
// workers. All events of one user go to the same worker, so they are
// handled one at a time and in arrival order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/bradykim7/cooknet/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sizes used when New is given non-positive values
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

// ErrStopped is returned by Submit after Stop
var ErrStopped = errors.New("dispatcher stopped")

// Handler processes one event
type Handler func(ctx context.Context, ev models.Event)

// Dispatcher is a pool of workers with one queue each
type Dispatcher struct {
	queues  []chan models.Event
	handler Handler
	log     *zap.Logger
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a dispatcher; call Start to run the workers
func New(workers, queueSize int, handler Handler, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	queues := make([]chan models.Event, workers)
	for i := range queues {
		queues[i] = make(chan models.Event, queueSize)
	}

	return &Dispatcher{
		queues:  queues,
		handler: handler,
		log:     log.Named("dispatcher"),
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Start runs the workers until Stop is called or ctx is cancelled
func (d *Dispatcher) Start(ctx context.Context) {
	for i, q := range d.queues {
		d.wg.Add(1)
		go d.work(ctx, i, q)
	}
	d.log.Info("Dispatcher started", zap.Int("workers", len(d.queues)))
}

// Submit enqueues ev. It fills in the event id and receive time when they
// are missing, and blocks while the user's queue is full until ctx ends.
func (d *Dispatcher) Submit(ctx context.Context, ev models.Event) error {
	select {
	case <-d.done:
		return ErrStopped
	default:
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = d.now()
	}

	q := d.queues[d.shard(ev.UserID)]
	select {
	case q <- ev:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return fmt.Errorf("submit event %s: %w", ev.ID, ctx.Err())
	}
}

// Stop stops the workers and waits for the event in progress to finish.
// Events still queued are dropped.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()

	dropped := 0
	for _, q := range d.queues {
		dropped += len(q)
	}
	d.log.Info("Dispatcher stopped", zap.Int("dropped", dropped))
}

// shard maps a user to a worker
func (d *Dispatcher) shard(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.queues)))
}

func (d *Dispatcher) work(ctx context.Context, id int, q <-chan models.Event) {
	defer d.wg.Done()
	log := d.log.With(zap.Int("worker", id))

	for {
		// Stop wins over pending work.
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		select {
		case ev := <-q:
			d.handle(ctx, log, ev)
		case <-d.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, log *zap.Logger, ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Event handler panicked",
				zap.String("event_id", ev.ID),
				zap.String("user_id", ev.UserID),
				zap.Any("panic", r))
		}
	}()

	start := d.now()
	d.handler(ctx, ev)
	log.Debug("Event handled",
		zap.String("event_id", ev.ID),
		zap.String("user_id", ev.UserID),
		zap.String("kind", string(ev.Kind)),
		zap.Duration("elapsed", d.now().Sub(start)))
}
