package events

import "context"

// Publisher sends ledger events to whoever listens downstream
type Publisher interface {
	Publish(ctx context.Context, event *LedgerEvent) error
	Close() error
}
