package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/devoops/user-service/internal/api/metrics"
	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256

	eventUserCreated = "user.created"
)

// ErrQueueFull is returned when the worker for an event has no buffer left.
// The event is dropped; delivery is best-effort.
var ErrQueueFull = errors.New("event queue full")

// Guard ensures a given event id is handed to the sink at most once.
type Guard interface {
	Claim(ctx context.Context, scope, id string) (bool, error)
	Release(ctx context.Context, scope, id string) error
}

// Dispatcher decouples registration from the broker: events are queued and
// delivered by a fixed set of workers, sharded by user id so that events for
// the same account keep their order.
type Dispatcher struct {
	workers []chan domain.UserCreatedEvent
	sink    ports.UserEventPublisher
	guard   Guard
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// A nil guard disables the once check.
func NewDispatcher(numWorkers int, sink ports.UserEventPublisher, guard Guard, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.UserCreatedEvent, numWorkers),
		sink:    sink,
		guard:   guard,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.UserCreatedEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// PublishUserCreated queues the event without blocking the caller.
func (d *Dispatcher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	idx := d.shardIndex(event.UserID)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.EventsPublishedTotal.WithLabelValues(eventUserCreated, "dropped").Inc()
		return ErrQueueFull
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.UserCreatedEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.deliver(ctx, id, event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, event domain.UserCreatedEvent) {
	log := d.log.With().Str("user_id", event.UserID).Int("worker_id", workerID).Logger()

	if d.guard != nil {
		first, err := d.guard.Claim(ctx, eventUserCreated, event.UserID)
		if err != nil {
			// without the guard we cannot rule out a duplicate; skipping keeps delivery at most once
			log.Error().Err(err).Msg("event guard unavailable, event skipped")
			metrics.EventsPublishedTotal.WithLabelValues(eventUserCreated, "skipped").Inc()
			return
		}
		if !first {
			log.Debug().Msg("event already delivered")
			metrics.EventsPublishedTotal.WithLabelValues(eventUserCreated, "duplicate").Inc()
			return
		}
	}

	if err := d.sink.PublishUserCreated(ctx, event); err != nil {
		log.Error().Err(err).Msg("event delivery failed")
		metrics.EventsPublishedTotal.WithLabelValues(eventUserCreated, "error").Inc()
		if d.guard != nil {
			if rerr := d.guard.Release(ctx, eventUserCreated, event.UserID); rerr != nil {
				log.Warn().Err(rerr).Msg("event guard release failed")
			}
		}
		return
	}

	log.Info().Msg("user.created event published")
	metrics.EventsPublishedTotal.WithLabelValues(eventUserCreated, "ok").Inc()
}
