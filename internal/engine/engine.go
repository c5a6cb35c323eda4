// Package engine holds the authoritative in-memory product list and every
// operation the UI performs on it.
//
// Toggles, price edits, deletes and month resets are applied locally first and
// written to the store in the background with no retry and no rollback; a later
// refetch wins. Creates and updates wait for the store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/metrics"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
	"golang.org/x/text/language"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotConfirmed    = errors.New("operation not confirmed")
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidNumber   = errors.New("invalid number")
)

// Store is the remote product table.
type Store interface {
	FetchAll(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, fields model.Fields) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, fields model.Fields) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Subscriber reports that something in the product table changed.
// Subscribe blocks until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, onChange func()) error
}

// Options configures an Engine.
type Options struct {
	DefaultCategory   string
	DefaultCategories []string
	Locale            language.Tag
	WriteTimeout      time.Duration
}

// Engine owns the product collection. A nil store makes every store call a no-op.
type Engine struct {
	store Store
	opts  Options

	mu       sync.RWMutex
	products []model.Product
	loading  bool

	writes sync.WaitGroup
}

// New creates an Engine. The collection stays empty until Refresh.
func New(store Store, opts Options) *Engine {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Engine{
		store:   store,
		opts:    opts,
		loading: store != nil,
	}
}

// Offline reports whether the engine runs without a store.
func (e *Engine) Offline() bool {
	return e.store == nil
}

// Loading reports whether the first fetch has not finished yet.
func (e *Engine) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Products returns a copy of the collection.
func (e *Engine) Products() []model.Product {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.Product(nil), e.products...)
}

// Product returns one product by id.
func (e *Engine) Product(id uuid.UUID) (model.Product, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.indexOf(id)
	if i < 0 {
		return model.Product{}, ErrProductNotFound
	}
	return e.products[i], nil
}

// View returns the filtered and sorted list.
func (e *Engine) View(opts ViewOptions) []model.Product {
	opts.Locale = e.opts.Locale
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Filter(e.products, opts)
}

// Totals computes the list totals with the given margin.
func (e *Engine) Totals(marginPct float64) Totals {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ComputeTotals(e.products, marginPct)
}

// Categories returns the default categories merged with the ones in use.
func (e *Engine) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Categories(e.opts.DefaultCategories, e.products, e.opts.Locale)
}

// Refresh replaces the collection with the store contents.
// On failure the current collection is kept.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	fetched, err := e.store.FetchAll(ctx)
	if err != nil {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
		metrics.Refreshes.WithLabelValues("failed").Inc()
		slog.Error("failed to fetch products", slog.Any("err", err))
		return fmt.Errorf("failed to fetch products: %w", err)
	}

	e.mu.Lock()
	diverged := reconcile(e.products, fetched)
	e.products = fetched
	e.loading = false
	e.mu.Unlock()

	metrics.Refreshes.WithLabelValues("ok").Inc()
	if diverged > 0 {
		slog.Info("local state replaced by store state", slog.Int("diverged", diverged), slog.Int("count", len(fetched)))
	} else {
		slog.Debug("products refreshed", slog.Int("count", len(fetched)))
	}
	return nil
}

// reconcile counts products whose local state differs from the fetched one,
// including products that appeared or disappeared.
func reconcile(local, fetched []model.Product) int {
	byID := make(map[uuid.UUID]model.Product, len(local))
	for _, p := range local {
		byID[p.ID] = p
	}
	diverged := 0
	for _, p := range fetched {
		old, ok := byID[p.ID]
		if !ok || !old.SameState(p) {
			diverged++
		}
		delete(byID, p.ID)
	}
	return diverged + len(byID)
}

// Watch refetches the collection on every change signal until ctx is done.
func (e *Engine) Watch(ctx context.Context, sub Subscriber) error {
	if e.store == nil {
		return nil
	}
	return sub.Subscribe(ctx, func() {
		_ = e.Refresh(ctx)
	})
}

// ToggleToBuy flips the to-buy flag. Clearing it also takes the product out of the cart.
func (e *Engine) ToggleToBuy(ctx context.Context, id uuid.UUID) (model.Product, error) {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return model.Product{}, ErrProductNotFound
	}
	p := &e.products[i]
	p.ToBuy = !p.ToBuy
	fields := model.Fields{model.ToBuyField: p.ToBuy}
	if !p.ToBuy && p.InCart {
		p.InCart = false
		fields[model.InCartField] = false
	}
	updated := *p
	e.mu.Unlock()

	e.write(ctx, "toggle_to_buy", id, func(ctx context.Context) error {
		return e.store.Update(ctx, id, fields)
	})
	return updated, nil
}

// ToggleInCart flips the in-cart flag.
func (e *Engine) ToggleInCart(ctx context.Context, id uuid.UUID) (model.Product, error) {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return model.Product{}, ErrProductNotFound
	}
	p := &e.products[i]
	p.InCart = !p.InCart
	updated := *p
	e.mu.Unlock()

	e.write(ctx, "toggle_in_cart", id, func(ctx context.Context) error {
		return e.store.Update(ctx, id, model.Fields{model.InCartField: updated.InCart})
	})
	return updated, nil
}

// UpdateUnitPrice writes a new price to the store only. The local copy
// changes with the next refetch.
func (e *Engine) UpdateUnitPrice(ctx context.Context, id uuid.UUID, value any) error {
	price, err := parsePrice(value)
	if err != nil {
		return err
	}
	e.mu.RLock()
	found := e.indexOf(id) >= 0
	e.mu.RUnlock()
	if !found {
		return ErrProductNotFound
	}

	e.write(ctx, "update_unit_price", id, func(ctx context.Context) error {
		return e.store.Update(ctx, id, model.Fields{model.UnitPriceField: price})
	})
	return nil
}

// Delete removes a product once confirm accepts DeletePrompt.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID, confirm Confirmer) error {
	if !confirm.Confirm(DeletePrompt) {
		return ErrNotConfirmed
	}

	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrProductNotFound
	}
	e.products = append(e.products[:i:i], e.products[i+1:]...)
	e.mu.Unlock()

	e.write(ctx, "delete", id, func(ctx context.Context) error {
		return e.store.Delete(ctx, id)
	})
	return nil
}

// ResetMonth clears both flags on every product that has one set, once
// confirm accepts ResetPrompt. It returns how many products changed.
func (e *Engine) ResetMonth(ctx context.Context, confirm Confirmer) (int, error) {
	if !confirm.Confirm(ResetPrompt) {
		return 0, ErrNotConfirmed
	}

	e.mu.Lock()
	var ids []uuid.UUID
	for i := range e.products {
		p := &e.products[i]
		if p.ToBuy || p.InCart {
			ids = append(ids, p.ID)
			p.ToBuy = false
			p.InCart = false
		}
	}
	e.mu.Unlock()

	if len(ids) == 0 {
		return 0, nil
	}

	// one update per product, in order
	e.write(ctx, "reset_month", uuid.Nil, func(ctx context.Context) error {
		for _, id := range ids {
			err := e.store.Update(ctx, id, model.Fields{model.ToBuyField: false, model.InCartField: false})
			if err != nil {
				writeFailed("reset_month", id, err)
			}
		}
		return nil
	})
	return len(ids), nil
}

// Create stores a new product marked to buy and merges it into the list.
// Without a store the product is returned but not kept.
func (e *Engine) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	fields, err := e.formFields(in)
	if err != nil {
		return model.Product{}, err
	}
	fields[model.ToBuyField] = true

	if e.store == nil {
		var p model.Product
		if err := p.Apply(fields); err != nil {
			return model.Product{}, err
		}
		p.InitMeta()
		return p, nil
	}

	created, err := e.store.Create(ctx, fields)
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	e.mu.Lock()
	e.merge(*created)
	e.mu.Unlock()
	return *created, nil
}

// Update stores the form fields of an existing product and merges them into the list.
func (e *Engine) Update(ctx context.Context, id uuid.UUID, in ProductInput) (model.Product, error) {
	fields, err := e.formFields(in)
	if err != nil {
		return model.Product{}, err
	}

	if e.store == nil {
		if _, err := e.Product(id); err != nil {
			return model.Product{}, err
		}
	} else if err := e.store.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, ErrProductNotFound
		}
		return model.Product{}, fmt.Errorf("failed to update product: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		// not loaded yet; the next refetch brings the stored row
		saved := model.Product{ID: id, UpdatedAt: time.Now()}
		if err := saved.Apply(fields); err != nil {
			return model.Product{}, err
		}
		return saved, nil
	}
	if err := e.products[i].Apply(fields); err != nil {
		return model.Product{}, err
	}
	e.products[i].UpdatedAt = time.Now()
	return e.products[i], nil
}

// Wait blocks until every background write has finished.
func (e *Engine) Wait() {
	e.writes.Wait()
}

func (e *Engine) write(parent context.Context, operation string, id uuid.UUID, fn func(ctx context.Context) error) {
	if e.store == nil {
		return
	}
	e.writes.Add(1)
	go func() {
		defer e.writes.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), e.opts.WriteTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			writeFailed(operation, id, err)
		}
	}()
}

func writeFailed(operation string, id uuid.UUID, err error) {
	metrics.StoreWriteFailures.WithLabelValues(operation).Inc()
	slog.Error("store write failed",
		slog.String("operation", operation),
		slog.String("product_id", id.String()),
		slog.Any("err", err))
}

func (e *Engine) indexOf(id uuid.UUID) int {
	for i := range e.products {
		if e.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) merge(p model.Product) {
	if i := e.indexOf(p.ID); i >= 0 {
		e.products[i] = p
		return
	}
	e.products = append(e.products, p)
}
