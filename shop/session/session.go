// Package session keeps per-actor conversation state between updates.
//
// One session exists per actor. The store serializes all work on a given
// actor's session while keeping different actors fully independent, which
// is what makes the inherently sequential conversation flows safe under
// concurrent update delivery.
package session

import (
	"github.com/alchomarket/shopbot/shop/cart"
	"github.com/alchomarket/shopbot/shop/store"
)

// Role distinguishes the two flow graphs an actor can run.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// State names one node of an actor's active flow graph.
type State string

// Customer flow states.
const (
	// StateIdle is the at-rest state: no conversation in progress.
	StateIdle          State = "idle"
	StateEnteringName  State = "entering_name"
	StateEnteringPhone State = "entering_phone"
	// StateMainMenu is the at-rest state of a registered customer.
	StateMainMenu          State = "main_menu"
	StateEnteringLocation  State = "entering_location"
	StateSelectingCategory State = "selecting_category"
	StateSelectingProduct  State = "selecting_product"
	StateViewingProduct    State = "viewing_product"
	StateShowingCart       State = "showing_cart"
	StateViewingOrders     State = "viewing_orders"
	StateViewingInfo       State = "viewing_info"
)

// Admin flow states.
const (
	StateAdminMenu                 State = "admin_menu"
	StateAdminSelectingProduct     State = "admin_selecting_product"
	StateAdminViewingProduct       State = "admin_viewing_product"
	StateAdminEnteringProductName  State = "admin_entering_product_name"
	StateAdminSelectingProdCat     State = "admin_selecting_product_category"
	StateAdminEnteringProductPrice State = "admin_entering_product_price"
	StateAdminSelectingCategory    State = "admin_selecting_category"
	StateAdminViewingCategory      State = "admin_viewing_category"
	StateAdminEnteringCategoryName State = "admin_entering_category_name"
	StateAdminViewingUserList      State = "admin_viewing_user_list"
)

// Registration accumulates input while a customer registers.
type Registration struct {
	Name string
}

// OrderDraft accumulates input while a customer assembles an order.
// Products is the exact snapshot captured at listing time; index-based
// selections resolve against it, never against a fresh query.
type OrderDraft struct {
	Location   string
	Categories []store.Category
	Category   *store.Category
	Products   []store.Product
	Page       int
	Product    *store.Product
	Quantity   int

	// Message ids of rendered views, kept so Back can delete stale
	// content before re-rendering the parent view.
	ListMessageID    int
	ProductMessageID int
	CartMessageID    int
}

// AdminDraft accumulates admin catalog-management input and snapshots.
type AdminDraft struct {
	Products   []store.Product
	Categories []store.Category
	Users      []store.User
	Page       int

	Product  *store.Product
	Category *store.Category

	// In-progress product creation.
	ProductName       string
	ProductCategoryID int64

	ListMessageID int
}

// Data is the working payload of a session, split per flow so each flow
// only sees its own fields. The cart is the one genuinely shared value:
// it survives listing round-trips within an order conversation.
type Data struct {
	Registration *Registration
	Order        *OrderDraft
	Admin        *AdminDraft
	Cart         cart.Cart
}

// Session is the per-actor conversation record. The session store owns
// it exclusively; handlers mutate it only inside Store.Do.
type Session struct {
	ActorID int64
	Role    Role
	State   State
	Data    Data
}

// Reset clears accumulated data and returns the session to idle. The
// role is kept: it is a property of the actor, not of the flow.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Data = Data{}
}

// Order returns the order draft, allocating it on first use.
func (s *Session) Order() *OrderDraft {
	if s.Data.Order == nil {
		s.Data.Order = &OrderDraft{}
	}
	return s.Data.Order
}

// Admin returns the admin draft, allocating it on first use.
func (s *Session) Admin() *AdminDraft {
	if s.Data.Admin == nil {
		s.Data.Admin = &AdminDraft{}
	}
	return s.Data.Admin
}

// Registration returns the registration draft, allocating it on first use.
func (s *Session) Registration() *Registration {
	if s.Data.Registration == nil {
		s.Data.Registration = &Registration{}
	}
	return s.Data.Registration
}
