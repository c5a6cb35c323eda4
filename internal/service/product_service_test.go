package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
	"github.com/iyhunko/shopping-list/internal/service"
	"github.com/iyhunko/shopping-list/internal/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func productPage(n int, start time.Time) []repository.Resource {
	page := make([]repository.Resource, 0, n)
	for i := range n {
		page = append(page, &model.Product{
			ID:        uuid.New(),
			Name:      "Produto",
			Category:  "Geral",
			Quantity:  1,
			CreatedAt: start.Add(-time.Duration(i) * time.Second),
		})
	}
	return page
}

func TestFetchAll(t *testing.T) {
	t.Run("reads every page until a short one", func(t *testing.T) {
		ctx := context.Background()
		mockRepo := new(MockRepository)

		first := productPage(repository.MaxPaginationLimit, time.Now())
		second := productPage(3, time.Now().Add(-time.Hour))
		last := first[len(first)-1].(*model.Product)

		mockRepo.On("List", ctx, mock.MatchedBy(func(q repository.Query) bool {
			return q.Paginator == nil && q.Limit == repository.MaxPaginationLimit
		})).Return(first, nil).Once()
		mockRepo.On("List", ctx, mock.MatchedBy(func(q repository.Query) bool {
			return q.Paginator != nil && q.Paginator.LastID == last.ID && q.Paginator.LastCreatedAt.Equal(last.CreatedAt)
		})).Return(second, nil).Once()

		productService := service.NewProductService(mockRepo, nil)

		products, err := productService.FetchAll(ctx)

		require.NoError(t, err)
		assert.Len(t, products, repository.MaxPaginationLimit+3)
		mockRepo.AssertExpectations(t)
	})

	t.Run("empty table", func(t *testing.T) {
		ctx := context.Background()
		mockRepo := new(MockRepository)
		mockRepo.On("List", ctx, mock.Anything).Return([]repository.Resource{}, nil).Once()

		products, err := service.NewProductService(mockRepo, nil).FetchAll(ctx)

		require.NoError(t, err)
		assert.Empty(t, products)
		mockRepo.AssertExpectations(t)
	})

	t.Run("list error", func(t *testing.T) {
		ctx := context.Background()
		mockRepo := new(MockRepository)
		mockRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("connection reset"))

		products, err := service.NewProductService(mockRepo, nil).FetchAll(ctx)

		require.Error(t, err)
		assert.Nil(t, products)
		assert.Contains(t, err.Error(), "failed to list products")
	})
}

func TestPage(t *testing.T) {
	t.Run("full page carries next token", func(t *testing.T) {
		ctx := context.Background()
		mockRepo := new(MockRepository)
		page := productPage(2, time.Now())
		last := page[1].(*model.Product)

		query := repository.NewQuery().With(repository.CategoryField, "Geral")
		query.Limit = 2
		mockRepo.On("List", ctx, *query).Return(page, nil).Once()

		products, next, err := service.NewProductService(mockRepo, nil).Page(ctx, *query)

		require.NoError(t, err)
		assert.Len(t, products, 2)
		cursor, err := repository.DecodePageToken(next)
		require.NoError(t, err)
		assert.Equal(t, last.ID, cursor.LastID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("short page ends the listing", func(t *testing.T) {
		ctx := context.Background()
		mockRepo := new(MockRepository)
		query := repository.NewQuery()
		query.Limit = 10
		mockRepo.On("List", ctx, *query).Return(productPage(3, time.Now()), nil).Once()

		products, next, err := service.NewProductService(mockRepo, nil).Page(ctx, *query)

		require.NoError(t, err)
		assert.Len(t, products, 3)
		assert.Empty(t, next)
	})
}

func TestCreate(t *testing.T) {
	t.Run("writes product and outbox event", func(t *testing.T) {
		ctx := context.Background()
		mockRepo := new(MockRepository)
		mockEvents := new(MockEventStore)
		tx := &fakeTransactor{products: mockRepo, events: mockEvents}

		mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).
			Return(func(_ context.Context, resource repository.Resource) (repository.Resource, error) {
				product := resource.(*model.Product)
				product.InitMeta()
				return product, nil
			})

		var stored *model.Event
		mockEvents.On("Create", ctx, mock.AnythingOfType("*model.Event")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*model.Event) }).
			Return(nil)

		productService := service.NewProductService(new(MockRepository), tx)

		created, err := productService.Create(ctx, model.Fields{
			model.NameField:      "Arroz",
			model.CategoryField:  "Geral",
			model.QuantityField:  2.0,
			model.UnitPriceField: 25.9,
			model.ToBuyField:     true,
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, "Arroz", created.Name)
		assert.True(t, created.ToBuy)
		assert.Equal(t, 1, tx.calls)

		require.NotNil(t, stored)
		assert.Equal(t, model.EventProductCreated, stored.EventType)
		var msg sqs.ProductMessage
		require.NoError(t, json.Unmarshal(stored.EventData, &msg))
		assert.Equal(t, sqs.ActionCreated, msg.Action)
		assert.Equal(t, created.ID.String(), msg.ProductID)
		assert.Equal(t, "Arroz", msg.Name)
	})

	t.Run("rejects mistyped fields before writing", func(t *testing.T) {
		mockRepo := new(MockRepository)
		productService := service.NewProductService(mockRepo, nil)

		created, err := productService.Create(context.Background(), model.Fields{model.QuantityField: "dois"})

		assert.ErrorIs(t, err, model.ErrFieldType)
		assert.Nil(t, created)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("event failure fails the write", func(t *testing.T) {
		ctx := context.Background()
		mockRepo := new(MockRepository)
		mockEvents := new(MockEventStore)
		tx := &fakeTransactor{products: mockRepo, events: mockEvents}

		mockRepo.On("Create", ctx, mock.Anything).Return(&model.Product{ID: uuid.New(), Name: "Leite"}, nil)
		mockEvents.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))

		created, err := service.NewProductService(mockRepo, tx).Create(ctx, model.Fields{model.NameField: "Leite"})

		require.Error(t, err)
		assert.Nil(t, created)
		assert.Contains(t, err.Error(), "failed to create event")
	})
}

func TestUpdate(t *testing.T) {
	t.Run("passes fields through and records the event", func(t *testing.T) {
		ctx := context.Background()
		id := uuid.New()
		fields := model.Fields{model.InCartField: true}
		mockRepo := new(MockRepository)
		mockEvents := new(MockEventStore)
		tx := &fakeTransactor{products: mockRepo, events: mockEvents}

		mockRepo.On("Update", ctx, id, fields).Return(nil)
		mockEvents.On("Create", ctx, mock.MatchedBy(func(e *model.Event) bool {
			return e.EventType == model.EventProductUpdated
		})).Return(nil)

		err := service.NewProductService(mockRepo, tx).Update(ctx, id, fields)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockEvents.AssertExpectations(t)
	})

	t.Run("not found skips the event", func(t *testing.T) {
		ctx := context.Background()
		id := uuid.New()
		mockRepo := new(MockRepository)
		mockEvents := new(MockEventStore)
		tx := &fakeTransactor{products: mockRepo, events: mockEvents}

		mockRepo.On("Update", ctx, id, mock.Anything).Return(repository.ErrNotFound)

		err := service.NewProductService(mockRepo, tx).Update(ctx, id, model.Fields{model.ToBuyField: false})

		assert.ErrorIs(t, err, repository.ErrNotFound)
		mockEvents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDelete(t *testing.T) {
	t.Run("finds then deletes", func(t *testing.T) {
		ctx := context.Background()
		id := uuid.New()
		mockRepo := new(MockRepository)
		mockEvents := new(MockEventStore)
		tx := &fakeTransactor{products: mockRepo, events: mockEvents}

		mockRepo.On("FindByID", ctx, id).Return(&model.Product{ID: id, Name: "Sabão"}, nil)
		mockRepo.On("DeleteByID", ctx, id).Return(nil)
		mockEvents.On("Create", ctx, mock.MatchedBy(func(e *model.Event) bool {
			var msg sqs.ProductMessage
			return json.Unmarshal(e.EventData, &msg) == nil &&
				msg.Action == sqs.ActionDeleted && msg.Name == "Sabão"
		})).Return(nil)

		err := service.NewProductService(mockRepo, tx).Delete(ctx, id)

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockEvents.AssertExpectations(t)
	})

	t.Run("missing product", func(t *testing.T) {
		ctx := context.Background()
		id := uuid.New()
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, id).Return(nil, repository.ErrNotFound)

		err := service.NewProductService(mockRepo, nil).Delete(ctx, id)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		mockRepo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
	})
}
