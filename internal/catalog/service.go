package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" //postgres driver

	"github.com/quickcart/backend/internal/config"
	"github.com/quickcart/backend/internal/logger"
	"github.com/quickcart/backend/internal/memo"
)

// Product is a catalog read model; the schema is owned by the relational
// store, this service only reads and caches it.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	PriceCents  int64     `db:"price_cents" json:"price_cents"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SalesRow is one line of the top-sellers aggregate.
type SalesRow struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	UnitsSold int64  `db:"units_sold" json:"units_sold"`
}

// Service serves the product-catalog and analytics read paths, memoizing the
// expensive queries through the shared cache.
type Service struct {
	db   *sqlx.DB
	memo *memo.Memoizer
	l    logger.Logger
}

// NewService opens the catalog database connection and verifies it.
func NewService(cfg config.DatabaseConfig, m *memo.Memoizer, l logger.Logger) (*Service, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open db connection: %v", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("could not establish db connection: %v", err)
	}

	return &Service{db: db, memo: m, l: l}, nil
}

// Close releases the database connection.
func (s *Service) Close() error {
	return s.db.Close()
}

// GetProduct returns one product, served from cache within the default TTL.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	key := memo.Key("product", id)

	return memo.Cached(ctx, s.memo, key, 0, func(ctx context.Context) (*Product, error) {
		query := `
			SELECT id, name, description, price_cents, category_id, updated_at
			FROM products
			WHERE id = $1`

		product := &Product{}
		if err := s.db.GetContext(ctx, product, query, id); err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("product %d not found", id)
			}
			return nil, fmt.Errorf("failed to get product: %w", err)
		}

		return product, nil
	})
}

// TopSellers returns the best selling products over the trailing period.
// The aggregate is expensive, so results are memoized for an hour.
func (s *Service) TopSellers(ctx context.Context, days, limit int) ([]SalesRow, error) {
	key := memo.KeyMap("analytics:top_sellers", map[string]interface{}{
		"days":  days,
		"limit": limit,
	})

	return memo.Cached(ctx, s.memo, key, time.Hour, func(ctx context.Context) ([]SalesRow, error) {
		query := `
			SELECT p.id AS product_id, p.name, SUM(oi.quantity) AS units_sold
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			JOIN products p ON p.id = oi.product_id
			WHERE o.created_at > NOW() - ($1 * INTERVAL '1 day')
			GROUP BY p.id, p.name
			ORDER BY units_sold DESC
			LIMIT $2`

		var rows []SalesRow
		if err := s.db.SelectContext(ctx, &rows, query, days, limit); err != nil {
			return nil, fmt.Errorf("failed to query top sellers: %w", err)
		}

		return rows, nil
	})
}

// UpdateProductPrice writes the new price and drops every cached product
// entry so the next read sees it.
func (s *Service) UpdateProductPrice(ctx context.Context, id, priceCents int64) error {
	_, err := memo.Invalidate(ctx, s.memo, "product:*", func(ctx context.Context) (struct{}, error) {
		query := `
			UPDATE products
			SET price_cents = $1, updated_at = NOW()
			WHERE id = $2`

		result, err := s.db.ExecContext(ctx, query, priceCents, id)
		if err != nil {
			s.l.Error("Failed to update product price", logger.Error(err), logger.Int64("product_id", id))
			return struct{}{}, fmt.Errorf("failed to update product price: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return struct{}{}, fmt.Errorf("product %d not found", id)
		}

		s.l.Info("Product price updated",
			logger.Int64("product_id", id),
			logger.Int64("price_cents", priceCents))
		return struct{}{}, nil
	})

	return err
}
