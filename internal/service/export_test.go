package service

import "context"

// ProcessEvents runs a single outbox polling round.
func (w *OutboxWorker) ProcessEvents(ctx context.Context) {
	w.relay(ctx)
}
