// Package store defines the catalog/order storage contract the
// conversation engine depends on, plus its PostgreSQL implementation.
package store

import "context"

// User is one registered shop user as listed to administrators.
type User struct {
	ID       int64  `db:"user_id"`
	Username string `db:"username"`
}

// Profile is the registration data captured for a user.
type Profile struct {
	FullName string `db:"full_name"`
	Phone    string `db:"phone_number"`
}

// Category groups products. Names are unique.
type Category struct {
	ID   int64  `db:"category_id"`
	Name string `db:"name"`
}

// Product is a sellable catalog entry. Price is a non-negative integer
// in the smallest currency unit; the schema enforces the bound.
type Product struct {
	ID         int64  `db:"product_id"`
	CategoryID int64  `db:"category_id"`
	Name       string `db:"name"`
	Price      int64  `db:"price"`
}

// OrderLine is one cart position handed to CreateOrder. The storage
// representation explodes it into one item row per unit of sale.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// OrderSummary is one order as listed back to the customer.
type OrderSummary struct {
	OrderID     int64  `db:"order_id"`
	ProductName string `db:"name"`
	Status      string `db:"status"`
}

// Store is the CRUD collaborator of the conversation engine. All calls
// may block on the database; failures are returned wrapped and never
// mutate conversation state.
//
// CreateOrder must be atomic: either the order row and every item row
// persist, or nothing does, and the returned id comes from the insert
// itself rather than a separate follow-up read.
type Store interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	GetUserProfile(ctx context.Context, userID int64) (*Profile, error)
	RegisterUser(ctx context.Context, userID int64, username, fullName, phone string) error
	ListUsers(ctx context.Context) ([]User, error)

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, categoryID int64) (*Category, error)
	AddCategory(ctx context.Context, name string) error
	DeleteCategory(ctx context.Context, categoryID int64) (bool, error)

	ListProducts(ctx context.Context, categoryID int64) ([]Product, error)
	ListAllProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, productID int64) (*Product, error)
	AddProduct(ctx context.Context, categoryID int64, name string, price int64) error
	DeleteProduct(ctx context.Context, productID int64) (bool, error)

	CreateOrder(ctx context.Context, userID int64, lines []OrderLine, location string) (int64, error)
	ListOrders(ctx context.Context, userID int64) ([]OrderSummary, error)
}
