// Package store persists the ledger and the pending queue. The Mongo
// implementation is the production path; the memory implementation
// backs demo mode and tests.
package store

import (
	"context"
	"errors"

	"github.com/lastmoment/tripfund-api/models"
)

// ErrNotFound is returned when a document id matches nothing.
var ErrNotFound = errors.New("document not found")

// Collection names, shared by both implementations and by change events.
const (
	CollPayments = "payments"
	CollPending  = "pending_payments"
)

// Event signals that a collection changed. Consumers re-fetch a full
// snapshot on every event; events carry no payload so coalescing or
// dropping them is always safe.
type Event struct {
	Collection string
}

// Store is the document-store collaborator: two independently
// consistent collections plus change notification. There is no
// transaction spanning both collections; multi-step operations order
// their writes so a crash duplicates rather than loses data.
type Store interface {
	ListPayments(ctx context.Context) ([]models.Payment, error)
	GetPayment(ctx context.Context, id string) (models.Payment, error)
	PutPayment(ctx context.Context, p models.Payment) error
	DeletePayment(ctx context.Context, id string) error

	ListPending(ctx context.Context) ([]models.PendingPayment, error)
	GetPending(ctx context.Context, id string) (models.PendingPayment, error)
	PutPending(ctx context.Context, p models.PendingPayment) error
	DeletePending(ctx context.Context, id string) error

	// Watch delivers change events until ctx is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)

	Close(ctx context.Context) error
}
