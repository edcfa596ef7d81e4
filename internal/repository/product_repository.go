package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"product-catalog/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSlugExists      = errors.New("product with this slug already exists")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ListFilter restricts a listing to matching products. Nil/empty fields
// impose no restriction.
type ListFilter struct {
	Published *bool
	Name      string
}

// ListSort orders a listing. A zero value means provider-default order.
type ListSort struct {
	Field string
	Order SortOrder
}

// ListSortFields is the whitelist of sortable columns.
var ListSortFields = map[string]bool{
	"name":       true,
	"price":      true,
	"created_at": true,
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Publish(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter, sort ListSort) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = "id, slug, name, description, price, image_url, published, owner_id, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Slug,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.ImageURL,
		&product.Published,
		&product.OwnerID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, slug, name, description, price, image_url, published, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Slug,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Published,
		product.OwnerID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		// 23505 is the postgres unique violation code; the only unique
		// constraints on products are the primary key and the slug.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindBySlug retrieves a product by its slug using parameterized queries
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by slug: %w", err)
	}

	return product, nil
}

// Delete removes a product and returns the removed record. The DELETE with
// RETURNING is a single statement, so a concurrent delete on the same row
// surfaces here as ErrProductNotFound on the losing request.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`DELETE FROM products WHERE id = $1 RETURNING %s`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	return product, nil
}

// Publish marks a product as published and returns the updated record.
// The update is unconditional on the published flag, so publishing an
// already-published product succeeds without changing its state.
func (r *productRepository) Publish(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		UPDATE products
		SET published = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to publish product: %w", err)
	}

	return product, nil
}

// List retrieves products with optional filtering and sorting
func (r *productRepository) List(ctx context.Context, filter ListFilter, sort ListSort) ([]*domain.Product, error) {
	// Build the WHERE clause
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if filter.Published != nil {
		whereClause = fmt.Sprintf("WHERE published = $%d", argIndex)
		args = append(args, *filter.Published)
		argIndex++
	}

	if filter.Name != "" {
		if whereClause == "" {
			whereClause = fmt.Sprintf("WHERE name ILIKE $%d", argIndex)
		} else {
			whereClause += fmt.Sprintf(" AND name ILIKE $%d", argIndex)
		}
		args = append(args, "%"+filter.Name+"%")
		argIndex++
	}

	// Validate sort field against the whitelist to prevent SQL injection
	orderClause := ""
	if sort.Field != "" {
		sortBy := sort.Field
		if !ListSortFields[sortBy] {
			sortBy = "created_at"
		}
		sortOrder := sort.Order
		if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
			sortOrder = SortOrderAsc
		}
		orderClause = fmt.Sprintf("ORDER BY %s %s", sortBy, sortOrder)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		%s
	`, productColumns, whereClause, orderClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
