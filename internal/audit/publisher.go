package audit

import (
	"context"
	"time"
)

// Store persists change events. Postgres writes the outbox; the in-memory
// store keeps them for inspection in tests and broker-less deployments.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured change events. It is append-only and uses
// the store layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return p.store.Append(ctx, event)
}
