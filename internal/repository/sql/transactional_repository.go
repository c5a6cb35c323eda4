package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iyhunko/shopping-list/internal/repository"
)

// TransactionalRepository binds product and outbox writes to one transaction.
type TransactionalRepository struct {
	db *sql.DB
}

func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

// WithinTransaction commits only when fn succeeds. A failing or panicking fn
// rolls back, and a failed rollback is joined to fn's error.
func (tr *TransactionalRepository) WithinTransaction(ctx context.Context, fn func(products repository.Repository, events repository.EventStore) error) (err error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
	}()

	if err = fn(&ProductRepository{db: tr.db, txn: tx}, &EventRepository{db: tr.db, txn: tx}); err != nil {
		return err
	}

	committed = true
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
