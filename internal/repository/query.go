package repository

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Filterable product columns.
const (
	CategoryField QueryField = "category"
	ToBuyField    QueryField = "to_buy"
)

// Query selects one page of products, newest first.
type Query struct {
	Values map[QueryField]string

	Limit int

	Paginator *Paginator
}

type QueryField string

func NewQuery() *Query {
	return &Query{
		Values: map[QueryField]string{},
	}
}

func (q *Query) With(field QueryField, val string) *Query {
	q.Values[field] = val
	return q
}

// InCategory keeps products of one category.
func (q *Query) InCategory(category string) *Query {
	return q.With(CategoryField, category)
}

// ToBuy keeps products whose to-buy flag equals toBuy.
func (q *Query) ToBuy(toBuy bool) *Query {
	return q.With(ToBuyField, strconv.FormatBool(toBuy))
}

// ApplyPagination sets the page size, capped at MaxPaginationLimit, and the
// cursor from a token returned with the previous page.
func (q *Query) ApplyPagination(limit int32, token string) error {
	q.Limit = DefaultPaginationLimit
	if limit > 0 {
		q.Limit = min(MaxPaginationLimit, int(limit))
	}

	if token == "" {
		return nil
	}
	paginator, err := DecodePageToken(token)
	if err != nil {
		slog.Warn("rejected page token", slog.Any("err", err))
		return fmt.Errorf("invalid page token: %w", err)
	}
	q.Paginator = paginator
	return nil
}
