package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/metrics"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
	"github.com/iyhunko/shopping-list/internal/sqs"
)

// ProductService is the collection store backed by the products table.
// Every write is paired with an outbox event when a transactor is set.
type ProductService struct {
	repo repository.Repository
	tx   repository.Transactor
}

func NewProductService(repo repository.Repository, tx repository.Transactor) *ProductService {
	return &ProductService{
		repo: repo,
		tx:   tx,
	}
}

// FetchAll reads the whole table page by page.
func (ps *ProductService) FetchAll(ctx context.Context) ([]model.Product, error) {
	var (
		products []model.Product
		cursor   *repository.Paginator
	)
	for {
		query := repository.NewQuery()
		query.Limit = repository.MaxPaginationLimit
		query.Paginator = cursor

		page, err := ps.list(ctx, *query)
		if err != nil {
			return nil, err
		}
		products = append(products, page...)
		if len(page) < query.Limit {
			return products, nil
		}
		last := products[len(products)-1]
		cursor = repository.After(last.ID, last.CreatedAt)
	}
}

// Page returns one page of stored rows, newest first, and the token of the
// next page. The token is empty on the last page.
func (ps *ProductService) Page(ctx context.Context, query repository.Query) ([]model.Product, string, error) {
	products, err := ps.list(ctx, query)
	if err != nil {
		return nil, "", err
	}

	var next string
	if len(products) > 0 && len(products) == query.Limit {
		last := products[len(products)-1]
		next = repository.After(last.ID, last.CreatedAt).Encode()
	}
	return products, next, nil
}

func (ps *ProductService) list(ctx context.Context, query repository.Query) ([]model.Product, error) {
	page, err := ps.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]model.Product, 0, len(page))
	for _, resource := range page {
		product, ok := resource.(*model.Product)
		if !ok {
			return nil, repository.ErrInvalidType
		}
		products = append(products, *product)
	}
	return products, nil
}

// Create inserts a product built from fields.
func (ps *ProductService) Create(ctx context.Context, fields model.Fields) (*model.Product, error) {
	product := &model.Product{}
	if err := product.Apply(fields); err != nil {
		return nil, err
	}

	var created *model.Product
	err := ps.write(ctx, model.EventProductCreated, func(products repository.Repository) (sqs.ProductMessage, error) {
		resource, err := products.Create(ctx, product)
		if err != nil {
			return sqs.ProductMessage{}, err
		}
		var ok bool
		if created, ok = resource.(*model.Product); !ok {
			return sqs.ProductMessage{}, repository.ErrInvalidType
		}
		return sqs.ProductMessage{Action: sqs.ActionCreated, ProductID: created.ID.String(), Name: created.Name}, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	return created, nil
}

// Update writes a partial set of fields.
func (ps *ProductService) Update(ctx context.Context, id uuid.UUID, fields model.Fields) error {
	err := ps.write(ctx, model.EventProductUpdated, func(products repository.Repository) (sqs.ProductMessage, error) {
		if err := products.Update(ctx, id, fields); err != nil {
			return sqs.ProductMessage{}, err
		}
		msg := sqs.ProductMessage{Action: sqs.ActionUpdated, ProductID: id.String()}
		if name, ok := fields[model.NameField].(string); ok {
			msg.Name = name
		}
		return msg, nil
	})
	if err != nil {
		return err
	}

	metrics.ProductsUpdated.Inc()
	return nil
}

// Delete removes a product by id.
func (ps *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	err := ps.write(ctx, model.EventProductDeleted, func(products repository.Repository) (sqs.ProductMessage, error) {
		// Find the product first to get its name for the message
		resource, err := products.FindByID(ctx, id)
		if err != nil {
			return sqs.ProductMessage{}, err
		}
		product, ok := resource.(*model.Product)
		if !ok {
			return sqs.ProductMessage{}, repository.ErrInvalidType
		}
		if err := products.DeleteByID(ctx, id); err != nil {
			return sqs.ProductMessage{}, err
		}
		return sqs.ProductMessage{Action: sqs.ActionDeleted, ProductID: id.String(), Name: product.Name}, nil
	})
	if err != nil {
		return err
	}

	metrics.ProductsDeleted.Inc()
	return nil
}

func (ps *ProductService) write(ctx context.Context, eventType string, fn func(products repository.Repository) (sqs.ProductMessage, error)) error {
	if ps.tx == nil {
		_, err := fn(ps.repo)
		return err
	}

	return ps.tx.WithinTransaction(ctx, func(products repository.Repository, events repository.EventStore) error {
		msg, err := fn(products)
		if err != nil {
			return err
		}
		event, err := model.NewEvent(eventType, msg)
		if err != nil {
			return err
		}
		if err := events.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		return nil
	})
}
