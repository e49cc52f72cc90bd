package audit

import (
	"context"
	"time"
)

// Publisher accepts audit events from domain logic. Implementations must not
// block request handling; persistence failures are the sink's problem.
type Publisher interface {
	Emit(ctx context.Context, event Event)
}

// StorePublisher writes events straight to a store, dropping errors. Useful
// for tests and single-process deployments.
type StorePublisher struct {
	store Store
}

func NewStorePublisher(store Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	_ = p.store.Append(ctx, event)
}

// ChannelPublisher hands events to a background worker over a buffered
// channel. When the buffer is full the event is dropped rather than stalling
// the request path.
type ChannelPublisher struct {
	outbox chan Event
}

func NewChannelPublisher(buffer int) *ChannelPublisher {
	return &ChannelPublisher{outbox: make(chan Event, buffer)}
}

func (p *ChannelPublisher) Emit(_ context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case p.outbox <- event:
	default:
	}
}

// Events exposes the channel for a Worker to consume.
func (p *ChannelPublisher) Events() <-chan Event { return p.outbox }

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations into
// the services.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
