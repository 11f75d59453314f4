package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alchomarket/shopbot/core/logger"
)

// Postgres implements Store on top of sqlx.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// UserExists reports whether a user has completed registration.
func (p *Postgres) UserExists(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := p.db.GetContext(ctx, &one, "SELECT 1 FROM users WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("user exists %d: %w", userID, err)
	}
	return true, nil
}

// GetUserProfile returns the stored registration profile, or nil when
// the user has never registered.
func (p *Postgres) GetUserProfile(ctx context.Context, userID int64) (*Profile, error) {
	var prof Profile
	err := p.db.GetContext(ctx, &prof,
		"SELECT full_name, phone_number FROM users WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user profile %d: %w", userID, err)
	}
	return &prof, nil
}

// RegisterUser stores a completed registration. Re-registering an
// existing id is a no-op.
func (p *Postgres) RegisterUser(ctx context.Context, userID int64, username, fullName, phone string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, full_name, phone_number)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, username, fullName, phone)
	if err != nil {
		return fmt.Errorf("register user %d: %w", userID, err)
	}
	logger.SVCUsers.Info("user registered",
		slog.String("event", "user.register"),
		slog.Int64("user_id", userID),
	)
	return nil
}

// ListUsers returns all registered users ordered by username.
func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := p.db.SelectContext(ctx, &users,
		"SELECT user_id, username FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListCategories returns all categories in insertion order.
func (p *Postgres) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	err := p.db.SelectContext(ctx, &cats,
		"SELECT category_id, name FROM categories ORDER BY category_id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// GetCategory returns one category, or nil when it no longer exists.
func (p *Postgres) GetCategory(ctx context.Context, categoryID int64) (*Category, error) {
	var cat Category
	err := p.db.GetContext(ctx, &cat,
		"SELECT category_id, name FROM categories WHERE category_id = $1", categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", categoryID, err)
	}
	return &cat, nil
}

// AddCategory inserts a category; duplicate names are a no-op.
func (p *Postgres) AddCategory(ctx context.Context, name string) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
	if err != nil {
		return fmt.Errorf("add category %q: %w", name, err)
	}
	return nil
}

// DeleteCategory removes a category and, via cascade, its products.
// It reports whether a row was actually deleted.
func (p *Postgres) DeleteCategory(ctx context.Context, categoryID int64) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		"DELETE FROM categories WHERE category_id = $1", categoryID)
	if err != nil {
		return false, fmt.Errorf("delete category %d: %w", categoryID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListProducts returns the products of one category sorted by name.
func (p *Postgres) ListProducts(ctx context.Context, categoryID int64) ([]Product, error) {
	var products []Product
	err := p.db.SelectContext(ctx, &products,
		`SELECT product_id, category_id, name, price
		 FROM products WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products of category %d: %w", categoryID, err)
	}
	return products, nil
}

// ListAllProducts returns every product in insertion order.
func (p *Postgres) ListAllProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	err := p.db.SelectContext(ctx, &products,
		"SELECT product_id, category_id, name, price FROM products ORDER BY product_id")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct returns one product, or nil when it no longer exists.
func (p *Postgres) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	var prod Product
	err := p.db.GetContext(ctx, &prod,
		"SELECT product_id, category_id, name, price FROM products WHERE product_id = $1", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	return &prod, nil
}

// AddProduct inserts a product into a category.
func (p *Postgres) AddProduct(ctx context.Context, categoryID int64, name string, price int64) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO products (category_id, name, price) VALUES ($1, $2, $3)",
		categoryID, name, price)
	if err != nil {
		return fmt.Errorf("add product %q: %w", name, err)
	}
	logger.SVCCatalog.Info("product added",
		slog.String("event", "catalog.product.add"),
		slog.Int64("admin_id", logger.UserIDFrom(ctx)),
		slog.Int64("category_id", categoryID),
		slog.String("name", name),
		slog.Int64("price", price),
	)
	return nil
}

// DeleteProduct removes a product and reports whether it existed.
func (p *Postgres) DeleteProduct(ctx context.Context, productID int64) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		"DELETE FROM products WHERE product_id = $1", productID)
	if err != nil {
		return false, fmt.Errorf("delete product %d: %w", productID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CreateOrder persists one order atomically: the order row plus one item
// row per unit of sale, all in a single transaction. The order id comes
// from the insert's RETURNING clause, so concurrent checkouts can never
// observe each other's ids.
func (p *Postgres) CreateOrder(ctx context.Context, userID int64, lines []OrderLine, location string) (int64, error) {
	if len(lines) == 0 {
		return 0, fmt.Errorf("create order for %d: empty line set", userID)
	}

	start := time.Now()
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create order for %d: begin: %w", userID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var orderID int64
	err = tx.GetContext(ctx, &orderID,
		`INSERT INTO orders (user_id, location, status)
		 VALUES ($1, $2, 'New') RETURNING order_id`,
		userID, location)
	if err != nil {
		return 0, fmt.Errorf("create order for %d: insert order: %w", userID, err)
	}

	units := 0
	for _, line := range lines {
		for q := 0; q < line.Quantity; q++ {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO order_items (order_id, product_id) VALUES ($1, $2)",
				orderID, line.ProductID); err != nil {
				return 0, fmt.Errorf("create order %d: insert item %d: %w", orderID, line.ProductID, err)
			}
			units++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create order %d: commit: %w", orderID, err)
	}

	logger.SVCOrders.Info("order created",
		slog.String("event", "order.create"),
		slog.Int64("order_id", orderID),
		slog.Int64("user_id", userID),
		slog.Int("lines", len(lines)),
		slog.Int("units", units),
		slog.Duration("duration", logger.Took(start)),
	)
	return orderID, nil
}

// ListOrders returns the user's orders, one entry per ordered unit,
// grouped by status then order id.
func (p *Postgres) ListOrders(ctx context.Context, userID int64) ([]OrderSummary, error) {
	var orders []OrderSummary
	err := p.db.SelectContext(ctx, &orders,
		`SELECT o.order_id, p.name, o.status
		 FROM orders o
		 JOIN order_items i ON i.order_id = o.order_id
		 JOIN products p ON p.product_id = i.product_id
		 WHERE o.user_id = $1
		 ORDER BY o.status, o.order_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders of %d: %w", userID, err)
	}
	return orders, nil
}

var _ Store = (*Postgres)(nil)
