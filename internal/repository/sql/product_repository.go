package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

const productColumns = "id, name, brand, category, aisle, quantity, unit_price, to_buy, in_cart, created_at, updated_at"

// ProductRepository implements the Repository interface for Product entities.
type ProductRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) repository.Repository {
	return &ProductRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *ProductRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	product, ok := resource.(*model.Product)
	if !ok {
		return nil, repository.ErrInvalidType
	}

	// Only initialize metadata if not already set
	if product.ID == uuid.Nil {
		product.InitMeta()
	}

	query := `INSERT INTO products (` + productColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		product.ID, product.Name, product.Brand, product.Category, product.Aisle,
		product.Quantity, product.UnitPrice, product.ToBuy, product.InCart,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgErr.Detail}
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return product, nil
}

// List retrieves products from the database based on the provided query.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + productColumns + " FROM products WHERE 1=1")

	var args []any
	argIndex := 1

	if category, ok := query.Values[repository.CategoryField]; ok {
		queryBuilder.WriteString(fmt.Sprintf(" AND category = $%d", argIndex))
		args = append(args, category)
		argIndex++
	}
	if toBuy, ok := query.Values[repository.ToBuyField]; ok {
		queryBuilder.WriteString(fmt.Sprintf(" AND to_buy = $%d", argIndex))
		args = append(args, toBuy == "true")
		argIndex++
	}

	// Apply pagination
	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
	args = append(args, limit)

	stmt, err := r.getExecutor().PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []repository.Resource
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// FindByID retrieves a single product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return product, nil
}

// Update writes the given fields of a product and bumps updated_at.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, fields model.Fields) error {
	if len(fields) == 0 {
		return repository.ErrNoFields
	}
	// type check against a scratch product before touching the database
	if err := (&model.Product{}).Apply(fields); err != nil {
		return err
	}

	columns := make([]string, 0, len(fields))
	for field := range fields {
		columns = append(columns, string(field))
	}
	slices.Sort(columns)

	var queryBuilder strings.Builder
	queryBuilder.WriteString("UPDATE products SET ")
	args := make([]any, 0, len(columns)+2)
	for i, column := range columns {
		queryBuilder.WriteString(fmt.Sprintf("%s = $%d, ", column, i+1))
		args = append(args, fields[model.Field(column)])
	}
	queryBuilder.WriteString(fmt.Sprintf("updated_at = $%d WHERE id = $%d", len(columns)+1, len(columns)+2))
	args = append(args, time.Now(), id)

	stmt, err := r.getExecutor().PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return checkAffected(result)
}

// DeleteByID deletes a product by ID.
func (r *ProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		product      model.Product
		brand, aisle sql.NullString
	)
	err := row.Scan(
		&product.ID, &product.Name, &brand, &product.Category, &aisle,
		&product.Quantity, &product.UnitPrice, &product.ToBuy, &product.InCart,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	product.Brand = brand.String
	product.Aisle = aisle.String
	return &product, nil
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
