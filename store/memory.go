package store

import (
	"context"
	"sync"

	"github.com/lastmoment/tripfund-api/models"
)

// MemoryStore is the demo-mode store, used when no MONGO_URI is
// configured and by the handler tests. Everything lives in process
// memory and is lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	payments map[string]models.Payment
	pending  map[string]models.PendingPayment
	order    []string // payment insertion order, for stable listings
	pOrder   []string
	subs     map[chan Event]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments: map[string]models.Payment{},
		pending:  map[string]models.PendingPayment{},
		subs:     map[chan Event]struct{}{},
	}
}

func (s *MemoryStore) notify(collection string) {
	for ch := range s.subs {
		select {
		case ch <- Event{Collection: collection}:
		default:
		}
	}
}

func (s *MemoryStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Payment{}
	for _, id := range s.order {
		if p, ok := s.payments[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, id string) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return models.Payment{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) PutPayment(ctx context.Context, p models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.payments[p.ID] = p
	s.notify(CollPayments)
	return nil
}

func (s *MemoryStore) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[id]; !ok {
		return ErrNotFound
	}
	delete(s.payments, id)
	s.notify(CollPayments)
	return nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]models.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.PendingPayment{}
	for _, id := range s.pOrder {
		if p, ok := s.pending[id]; ok && p.Status == models.PendingStatus {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetPending(ctx context.Context, id string) (models.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok {
		return models.PendingPayment{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) PutPending(ctx context.Context, p models.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[p.ID]; !exists {
		s.pOrder = append(s.pOrder, p.ID)
	}
	s.pending[p.ID] = p
	s.notify(CollPending)
	return nil
}

func (s *MemoryStore) DeletePending(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[id]; !ok {
		return ErrNotFound
	}
	delete(s.pending, id)
	s.notify(CollPending)
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
