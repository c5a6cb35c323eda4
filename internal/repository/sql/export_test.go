package sql

import (
	"database/sql"

	"github.com/iyhunko/shopping-list/internal/repository"
)

// TxOf is a test helper to extract the transaction a repository is bound to.
func TxOf(products repository.Repository) *sql.Tx {
	repo, ok := products.(*ProductRepository)
	if !ok {
		return nil
	}
	return repo.txn
}

// EventTxOf is a test helper to extract the transaction an event store is bound to.
func EventTxOf(events repository.EventStore) *sql.Tx {
	repo, ok := events.(*EventRepository)
	if !ok {
		return nil
	}
	return repo.txn
}
