package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/model"
)

type updateCall struct {
	ID     uuid.UUID
	Fields model.Fields
}

// fakeStore records every call and serves products from memory.
type fakeStore struct {
	mu        sync.Mutex
	products  []model.Product
	fetchErr  error
	createErr error
	updateErr error
	deleteErr error
	fetches   int
	creates   []model.Fields
	updates   []updateCall
	deletes   []uuid.UUID
}

func (s *fakeStore) FetchAll(context.Context) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]model.Product(nil), s.products...), nil
}

func (s *fakeStore) Create(_ context.Context, fields model.Fields) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, fields)
	if s.createErr != nil {
		return nil, s.createErr
	}
	p := &model.Product{}
	if err := p.Apply(fields); err != nil {
		return nil, err
	}
	p.InitMeta()
	s.products = append(s.products, *p)
	return p, nil
}

func (s *fakeStore) Update(_ context.Context, id uuid.UUID, fields model.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, updateCall{ID: id, Fields: fields})
	return s.updateErr
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return s.deleteErr
}

func (s *fakeStore) recordedUpdates() []updateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]updateCall(nil), s.updates...)
}

func (s *fakeStore) recordedDeletes() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.deletes...)
}

// fakeSubscriber fires onChange once per value sent on changes.
type fakeSubscriber struct {
	changes chan struct{}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.changes:
			onChange()
		}
	}
}
