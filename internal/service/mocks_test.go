package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
	"github.com/iyhunko/shopping-list/internal/sqs"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of repository.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if fn, ok := args.Get(0).(func(context.Context, repository.Resource) (repository.Resource, error)); ok {
		return fn(ctx, resource)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id uuid.UUID, fields model.Fields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Resource), args.Error(1)
}

// MockEventStore is a mock implementation of repository.EventStore
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Create(ctx context.Context, event *model.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventStore) ListPending(ctx context.Context, limit int) ([]*model.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *MockEventStore) UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error {
	args := m.Called(ctx, eventID, status)
	return args.Error(0)
}

// MockPublisher is a mock implementation of the SQS publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishProductMessage(ctx context.Context, msg sqs.ProductMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// fakeTransactor runs the callback against the given repositories without a database.
type fakeTransactor struct {
	products repository.Repository
	events   repository.EventStore
	calls    int
}

func (f *fakeTransactor) WithinTransaction(_ context.Context, fn func(products repository.Repository, events repository.EventStore) error) error {
	f.calls++
	return fn(f.products, f.events)
}
