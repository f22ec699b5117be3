package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreFromDB wraps an existing connection pool
func NewStoreFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the readiness probe
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn inside a transaction and commits when fn returns nil
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const productColumns = `product_id, seller_id, title, description, category, price, stock, status, view_count,
	favorite_count, created_at, updated_at`

// qualify prefixes each column of a column list with a table alias
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

var productOrderings = map[models.ProductSort]string{
	models.SortNewest:    "created_at DESC",
	models.SortPriceAsc:  "price ASC, created_at DESC",
	models.SortPriceDesc: "price DESC, created_at DESC",
	models.SortPopular:   "view_count DESC, favorite_count DESC, created_at DESC",
}

// pageBounds falls back to def for a limit outside (0, ceiling] and drops negative offsets
func pageBounds(limit, offset, def, ceiling int) (int, int) {
	if limit <= 0 || limit > ceiling {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// CreateProduct inserts a new listing
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	ctx, span := util.StartSpan(ctx, "Store.CreateProduct")
	defer span.End()

	query := `
		INSERT INTO products (seller_id, title, description, category, price, stock, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING product_id, view_count, favorite_count, created_at, updated_at`

	return s.db.GetContext(ctx, product, query,
		product.SellerID, product.Title, product.Description, product.Category,
		product.Price, product.Stock, product.Status)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Store.GetProductByID")
	defer span.End()

	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT "+productColumns+" FROM products WHERE product_id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// IncrementProductViews bumps the view counter of a listing
func (s *Store) IncrementProductViews(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET view_count = view_count + 1 WHERE product_id = $1", id)
	return err
}

// SearchProducts lists available products matching the filter, newest first
func (s *Store) SearchProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "Store.SearchProducts")
	defer span.End()

	conds := []string{"status = $1"}
	args := []interface{}{models.ProductStatusAvailable}

	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	limit, offset := pageBounds(f.Limit, f.Offset, 20, 100)
	args = append(args, limit, offset)

	order, ok := productOrderings[f.Sort]
	if !ok {
		order = productOrderings[models.SortNewest]
	}

	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, strings.Join(conds, " AND "), order, len(args)-1, len(args))

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// ListProductsBySeller lists a seller's products. Removed listings are included on request.
func (s *Store) ListProductsBySeller(ctx context.Context, sellerID int64, includeRemoved bool) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE seller_id = $1"
	args := []interface{}{sellerID}
	if !includeRemoved {
		query += " AND status <> $2"
		args = append(args, models.ProductStatusRemoved)
	}
	query += " ORDER BY created_at DESC"

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// UpdateProductPrice changes the listed price. Existing orders keep their snapshot total.
func (s *Store) UpdateProductPrice(ctx context.Context, productID, sellerID int64, price decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET price = $1, updated_at = NOW() WHERE product_id = $2 AND seller_id = $3",
		price, productID, sellerID)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	return expectOneRow(res, fmt.Errorf("%w: %d", models.ErrProductNotFound, productID))
}

// RemoveProduct soft-deletes a listing
func (s *Store) RemoveProduct(ctx context.Context, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET status = $1, updated_at = NOW() WHERE product_id = $2 AND status <> $1",
		models.ProductStatusRemoved, productID)
	if err != nil {
		return fmt.Errorf("failed to remove product: %w", err)
	}
	return expectOneRow(res, fmt.Errorf("%w: %d", models.ErrProductNotFound, productID))
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
