package sql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{"id", "name", "brand", "category", "aisle", "quantity", "unit_price", "to_buy", "in_cart", "created_at", "updated_at"}

func TestProductRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		product := &model.Product{
			Name:      "Arroz",
			Brand:     "Tio João",
			Category:  "Geral",
			Aisle:     "3",
			Quantity:  2,
			UnitPrice: 25.9,
			ToBuy:     true,
		}

		mock.ExpectPrepare("INSERT INTO products").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), product.Name, product.Brand, product.Category, product.Aisle,
				product.Quantity, product.UnitPrice, true, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		result, err := repo.Create(ctx, product)
		require.NoError(t, err)

		createdProduct := result.(*model.Product)
		assert.NotEqual(t, uuid.Nil, createdProduct.ID)
		assert.Equal(t, product.Name, createdProduct.Name)
		assert.False(t, createdProduct.CreatedAt.IsZero())
		assert.False(t, createdProduct.UpdatedAt.IsZero())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		product := &model.Product{ID: uuid.New(), Name: "Leite", Category: "Geral", Quantity: 1}

		mock.ExpectPrepare("INSERT INTO products").
			ExpectExec().
			WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (id) already exists."})

		result, err := repo.Create(ctx, product)
		require.Error(t, err)
		assert.Nil(t, result)
		var uniqueErr *repository.UniqueConstraintError
		require.True(t, errors.As(err, &uniqueErr))
		assert.Contains(t, uniqueErr.Detail, "already exists")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong resource type", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Event{})
		assert.ErrorIs(t, err, repository.ErrInvalidType)
	})
}

func TestProductRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful find", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(productRowColumns).
			AddRow(id.String(), "Sabão", nil, "Limpeza", "7", 1.0, 12.5, true, false, now, now)

		mock.ExpectPrepare("SELECT id, name, brand, category, aisle, quantity, unit_price, to_buy, in_cart, created_at, updated_at FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(rows)

		result, err := repo.FindByID(ctx, id)
		require.NoError(t, err)

		found := result.(*model.Product)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, "Sabão", found.Name)
		assert.Empty(t, found.Brand)
		assert.Equal(t, "7", found.Aisle)
		assert.Equal(t, 12.5, found.UnitPrice)
		assert.True(t, found.ToBuy)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		result, err := repo.FindByID(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, result)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("list without filters", func(t *testing.T) {
		query := repository.NewQuery()
		query.Limit = 10

		now := time.Now()
		rows := sqlmock.NewRows(productRowColumns).
			AddRow(uuid.NewString(), "Feijão", "Camil", "Geral", "3", 1.0, 8.0, true, false, now, now).
			AddRow(uuid.NewString(), "Banana", "", "Hortifruti", "", 6.0, 0.5, false, false, now, now)

		mock.ExpectPrepare("FROM products WHERE 1=1 ORDER BY created_at DESC, id DESC LIMIT \\$1").
			ExpectQuery().
			WithArgs(10).
			WillReturnRows(rows)

		result, err := repo.List(ctx, *query)
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "Camil", result[0].(*model.Product).Brand)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list with filters and pagination", func(t *testing.T) {
		query := repository.NewQuery().
			InCategory("Limpeza").
			ToBuy(true)
		query.Limit = 10
		lastCreatedAt := time.Now().Add(-1 * time.Hour)
		lastID := uuid.New()
		query.Paginator = repository.After(lastID, lastCreatedAt)

		now := time.Now()
		rows := sqlmock.NewRows(productRowColumns).
			AddRow(uuid.NewString(), "Detergente", "Ypê", "Limpeza", "9", 1.0, 2.5, true, true, now, now)

		mock.ExpectPrepare(regexp.QuoteMeta("WHERE 1=1 AND category = $1 AND to_buy = $2 AND (created_at, id) < ($3, $4) ORDER BY created_at DESC, id DESC LIMIT $5")).
			ExpectQuery().
			WithArgs("Limpeza", true, lastCreatedAt, lastID, 10).
			WillReturnRows(rows)

		result, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Len(t, result, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("builds partial update in column order", func(t *testing.T) {
		id := uuid.New()
		fields := model.Fields{
			model.UnitPriceField: 5.5,
			model.NameField:      "Arroz integral",
		}

		mock.ExpectPrepare(regexp.QuoteMeta("UPDATE products SET name = $1, unit_price = $2, updated_at = $3 WHERE id = $4")).
			ExpectExec().
			WithArgs("Arroz integral", 5.5, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, id, fields))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("UPDATE products SET in_cart = \\$1").
			ExpectExec().
			WithArgs(false, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, id, model.Fields{model.InCartField: false})
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown and mistyped fields without a query", func(t *testing.T) {
		err := repo.Update(ctx, uuid.New(), model.Fields{"description": "x"})
		assert.ErrorIs(t, err, model.ErrUnknownField)

		err = repo.Update(ctx, uuid.New(), model.Fields{model.QuantityField: "2"})
		assert.ErrorIs(t, err, model.ErrFieldType)

		err = repo.Update(ctx, uuid.New(), model.Fields{})
		assert.ErrorIs(t, err, repository.ErrNoFields)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DeleteByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful delete", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("DELETE FROM products WHERE id").
			ExpectExec().
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteByID(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("DELETE FROM products WHERE id").
			ExpectExec().
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteByID(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
