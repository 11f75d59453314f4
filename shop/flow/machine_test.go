package flow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchomarket/shopbot/core/logger"
	"github.com/alchomarket/shopbot/shop/session"
	"github.com/alchomarket/shopbot/shop/store"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(logger.Options{Level: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// memStore is an in-memory store.Store used to drive full conversations.
type memStore struct {
	users      map[int64]store.Profile
	usernames  map[int64]string
	categories []store.Category
	products   []store.Product

	nextOrderID int64
	orders      []placedOrder

	failAll  bool
	orderErr error
}

type placedOrder struct {
	userID   int64
	lines    []store.OrderLine
	location string
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[int64]store.Profile),
		usernames:   make(map[int64]string),
		nextOrderID: 1,
	}
}

var errDown = errors.New("store down")

func (m *memStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	if m.failAll {
		return false, errDown
	}
	_, ok := m.users[userID]
	return ok, nil
}

func (m *memStore) GetUserProfile(ctx context.Context, userID int64) (*store.Profile, error) {
	if m.failAll {
		return nil, errDown
	}
	p, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) RegisterUser(ctx context.Context, userID int64, username, fullName, phone string) error {
	if m.failAll {
		return errDown
	}
	if _, ok := m.users[userID]; ok {
		return nil
	}
	m.users[userID] = store.Profile{FullName: fullName, Phone: phone}
	m.usernames[userID] = username
	return nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]store.User, error) {
	if m.failAll {
		return nil, errDown
	}
	var out []store.User
	for id, name := range m.usernames {
		out = append(out, store.User{ID: id, Username: name})
	}
	return out, nil
}

func (m *memStore) ListCategories(ctx context.Context) ([]store.Category, error) {
	if m.failAll {
		return nil, errDown
	}
	return append([]store.Category(nil), m.categories...), nil
}

func (m *memStore) GetCategory(ctx context.Context, categoryID int64) (*store.Category, error) {
	for _, c := range m.categories {
		if c.ID == categoryID {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

func (m *memStore) AddCategory(ctx context.Context, name string) error {
	if m.failAll {
		return errDown
	}
	m.categories = append(m.categories, store.Category{ID: int64(len(m.categories) + 1), Name: name})
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, categoryID int64) (bool, error) {
	for i, c := range m.categories {
		if c.ID == categoryID {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListProducts(ctx context.Context, categoryID int64) ([]store.Product, error) {
	if m.failAll {
		return nil, errDown
	}
	var out []store.Product
	for _, p := range m.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListAllProducts(ctx context.Context) ([]store.Product, error) {
	if m.failAll {
		return nil, errDown
	}
	return append([]store.Product(nil), m.products...), nil
}

func (m *memStore) GetProduct(ctx context.Context, productID int64) (*store.Product, error) {
	for _, p := range m.products {
		if p.ID == productID {
			pp := p
			return &pp, nil
		}
	}
	return nil, nil
}

func (m *memStore) AddProduct(ctx context.Context, categoryID int64, name string, price int64) error {
	if m.failAll {
		return errDown
	}
	m.products = append(m.products, store.Product{
		ID:         int64(len(m.products) + 1),
		CategoryID: categoryID,
		Name:       name,
		Price:      price,
	})
	return nil
}

func (m *memStore) DeleteProduct(ctx context.Context, productID int64) (bool, error) {
	for i, p := range m.products {
		if p.ID == productID {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateOrder(ctx context.Context, userID int64, lines []store.OrderLine, location string) (int64, error) {
	if m.failAll {
		return 0, errDown
	}
	if m.orderErr != nil {
		return 0, m.orderErr
	}
	id := m.nextOrderID
	m.nextOrderID++
	m.orders = append(m.orders, placedOrder{userID: userID, lines: lines, location: location})
	return id, nil
}

func (m *memStore) ListOrders(ctx context.Context, userID int64) ([]store.OrderSummary, error) {
	if m.failAll {
		return nil, errDown
	}
	var out []store.OrderSummary
	for i, o := range m.orders {
		if o.userID != userID {
			continue
		}
		for _, l := range o.lines {
			out = append(out, store.OrderSummary{
				OrderID:     int64(i + 1),
				ProductName: fmt.Sprintf("product-%d", l.ProductID),
				Status:      "New",
			})
		}
	}
	return out, nil
}

var _ store.Store = (*memStore)(nil)

func seededStore() *memStore {
	st := newMemStore()
	st.categories = []store.Category{
		{ID: 1, Name: "Drinks"},
		{ID: 2, Name: "Snacks"},
	}
	st.products = []store.Product{
		{ID: 1, CategoryID: 1, Name: "Tea", Price: 5000},
		{ID: 2, CategoryID: 1, Name: "Coffee", Price: 12000},
		{ID: 3, CategoryID: 2, Name: "Chips", Price: 8000},
	}
	return st
}

const (
	customerID = int64(100)
	adminID    = int64(900)
)

func newTestMachine(st store.Store) *Machine {
	return NewMachine(st, session.NewStore(), Config{
		PageSize:      2,
		UsersPageSize: 2,
		Currency:      "UZS",
		ShopName:      "Test Shop",
		AdminIDs:      []int64{adminID},
	})
}

func handle(t *testing.T, m *Machine, actorID int64, ev Event) Render {
	t.Helper()
	r, err := m.Handle(context.Background(), actorID, "tester", ev)
	require.NoError(t, err)
	return r
}

func stateOf(m *Machine, actorID int64) session.State {
	return m.sessions.Get(actorID).State
}

func register(t *testing.T, m *Machine, actorID int64) {
	t.Helper()
	handle(t, m, actorID, Event{Kind: KindCommand, Command: CmdStart})
	handle(t, m, actorID, Event{Kind: KindText, Text: "Anvar"})
	handle(t, m, actorID, Event{Kind: KindContact, Contact: &Contact{Phone: "998900000000"}})
}

func startOrder(t *testing.T, m *Machine, actorID int64, category string) {
	t.Helper()
	handle(t, m, actorID, Event{Kind: KindCommand, Command: CmdOrder})
	handle(t, m, actorID, Event{Kind: KindLocation, Location: &Location{Latitude: 41.3, Longitude: 69.2}})
	handle(t, m, actorID, Event{Kind: KindText, Text: category})
}

func TestRegistrationFlow(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)

	r := handle(t, m, customerID, Event{Kind: KindCommand, Command: CmdStart})
	require.NotEmpty(t, r.Prompts)
	assert.Equal(t, session.StateEnteringName, stateOf(m, customerID))

	handle(t, m, customerID, Event{Kind: KindText, Text: "  Anvar  "})
	assert.Equal(t, session.StateEnteringPhone, stateOf(m, customerID))

	// Typed text is not a contact card; the state must hold.
	handle(t, m, customerID, Event{Kind: KindText, Text: "998900000000"})
	assert.Equal(t, session.StateEnteringPhone, stateOf(m, customerID))

	handle(t, m, customerID, Event{Kind: KindContact, Contact: &Contact{Phone: "998900000000"}})
	assert.Equal(t, session.StateMainMenu, stateOf(m, customerID))
	assert.Equal(t, store.Profile{FullName: "Anvar", Phone: "998900000000"}, st.users[customerID])
}

func TestUnregisteredActorIsForcedIntoRegistration(t *testing.T) {
	m := newTestMachine(seededStore())

	handle(t, m, customerID, Event{Kind: KindCommand, Command: CmdOrder})
	assert.Equal(t, session.StateEnteringName, stateOf(m, customerID))
}

func TestOrderFlowToCheckout(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)
	register(t, m, customerID)

	startOrder(t, m, customerID, "Drinks")
	assert.Equal(t, session.StateSelectingProduct, stateOf(m, customerID))

	handle(t, m, customerID, Event{Kind: KindSelect, Index: 1})
	assert.Equal(t, session.StateViewingProduct, stateOf(m, customerID))

	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionIncQuantity})
	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionAddToCart})
	assert.Equal(t, session.StateShowingCart, stateOf(m, customerID))

	cart := m.sessions.Get(customerID).Data.Cart
	require.Len(t, cart, 1)
	assert.Equal(t, int64(2), cart[0].ProductID) // snapshot index 1 is Coffee
	assert.Equal(t, 2, cart[0].Quantity)

	r := handle(t, m, customerID, Event{Kind: KindAction, Action: ActionCheckout})
	require.NotNil(t, r.Notice)
	assert.True(t, r.Notice.HasLocation)
	assert.InDelta(t, 41.3, r.Notice.Latitude, 0.001)

	require.Len(t, st.orders, 1)
	assert.Equal(t, []store.OrderLine{{ProductID: 2, Quantity: 2}}, st.orders[0].lines)
	assert.Equal(t, "41.3, 69.2", st.orders[0].location)

	after := m.sessions.Get(customerID)
	assert.Equal(t, session.StateIdle, after.State)
	assert.True(t, after.Data.Cart.Empty())
}

func TestQuantityFloorIsOne(t *testing.T) {
	m := newTestMachine(seededStore())
	register(t, m, customerID)
	startOrder(t, m, customerID, "Drinks")
	handle(t, m, customerID, Event{Kind: KindSelect, Index: 0})

	r := handle(t, m, customerID, Event{Kind: KindAction, Action: ActionDecQuantity})
	assert.Empty(t, r.Prompts)

	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionAddToCart})
	cart := m.sessions.Get(customerID).Data.Cart
	require.Len(t, cart, 1)
	assert.Equal(t, 1, cart[0].Quantity)
}

func TestOutOfRangeSelectionIsIgnored(t *testing.T) {
	m := newTestMachine(seededStore())
	register(t, m, customerID)
	startOrder(t, m, customerID, "Drinks")

	r := handle(t, m, customerID, Event{Kind: KindSelect, Index: 99})
	assert.Empty(t, r.Prompts)
	assert.Empty(t, r.Deletes)
	assert.Equal(t, session.StateSelectingProduct, stateOf(m, customerID))

	r = handle(t, m, customerID, Event{Kind: KindPage, Page: 99})
	assert.Empty(t, r.Prompts)
	assert.Equal(t, session.StateSelectingProduct, stateOf(m, customerID))
}

func TestSelectionResolvesAgainstSnapshot(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)
	register(t, m, customerID)
	startOrder(t, m, customerID, "Drinks")

	// The catalog changes after the listing snapshot was taken.
	st.products = nil

	handle(t, m, customerID, Event{Kind: KindSelect, Index: 0})
	assert.Equal(t, session.StateViewingProduct, stateOf(m, customerID))
	sess := m.sessions.Get(customerID)
	assert.Equal(t, "Tea", sess.Data.Order.Product.Name)
}

func TestCheckoutFailureLeavesCartIntact(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)
	register(t, m, customerID)
	startOrder(t, m, customerID, "Drinks")
	handle(t, m, customerID, Event{Kind: KindSelect, Index: 0})
	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionAddToCart})

	st.orderErr = errors.New("deadlock detected")
	_, err := m.Handle(context.Background(), customerID, "tester", Event{Kind: KindAction, Action: ActionCheckout})
	require.Error(t, err)

	sess := m.sessions.Get(customerID)
	assert.Equal(t, session.StateShowingCart, sess.State)
	require.Len(t, sess.Data.Cart, 1)
	assert.Empty(t, st.orders)
}

func TestCartSurvivesContinueShopping(t *testing.T) {
	m := newTestMachine(seededStore())
	register(t, m, customerID)
	startOrder(t, m, customerID, "Drinks")
	handle(t, m, customerID, Event{Kind: KindSelect, Index: 0})
	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionAddToCart})

	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionContinue})
	assert.Equal(t, session.StateSelectingCategory, stateOf(m, customerID))

	handle(t, m, customerID, Event{Kind: KindText, Text: "Snacks"})
	handle(t, m, customerID, Event{Kind: KindSelect, Index: 0})
	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionAddToCart})

	cart := m.sessions.Get(customerID).Data.Cart
	require.Len(t, cart, 2)
	assert.Equal(t, int64(1), cart[0].ProductID)
	assert.Equal(t, int64(3), cart[1].ProductID)
}

func TestBackUnwindsOneLevel(t *testing.T) {
	m := newTestMachine(seededStore())
	register(t, m, customerID)
	startOrder(t, m, customerID, "Drinks")

	handle(t, m, customerID, Event{Kind: KindCommand, Command: CmdBack})
	assert.Equal(t, session.StateSelectingCategory, stateOf(m, customerID))

	handle(t, m, customerID, Event{Kind: KindCommand, Command: CmdBack})
	assert.Equal(t, session.StateEnteringLocation, stateOf(m, customerID))

	handle(t, m, customerID, Event{Kind: KindCommand, Command: CmdBack})
	assert.Equal(t, session.StateMainMenu, stateOf(m, customerID))
}

func TestRemoveItemAndClearCart(t *testing.T) {
	m := newTestMachine(seededStore())
	register(t, m, customerID)
	startOrder(t, m, customerID, "Drinks")
	handle(t, m, customerID, Event{Kind: KindSelect, Index: 0})
	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionAddToCart})

	handle(t, m, customerID, Event{Kind: KindAction, Action: ActionRemoveItem, TargetID: 1})
	assert.True(t, m.sessions.Get(customerID).Data.Cart.Empty())
}

func TestStoreOutageProducesTransientMessage(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)
	register(t, m, customerID)

	st.failAll = true
	r, err := m.Handle(context.Background(), customerID, "tester", Event{Kind: KindCommand, Command: CmdOrder})
	require.Error(t, err)
	assert.True(t, IsStoreUnavailable(err))
	require.NotEmpty(t, r.Prompts)
	assert.Equal(t, msgStoreUnavailable, r.Prompts[0].Text)
}

func TestAdminAccess(t *testing.T) {
	m := newTestMachine(seededStore())

	r := handle(t, m, customerID, Event{Kind: KindCommand, Command: CmdAdmin})
	require.NotEmpty(t, r.Prompts)
	assert.Contains(t, r.Prompts[0].Text, "administrators")
	assert.NotEqual(t, session.StateAdminMenu, stateOf(m, customerID))

	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdmin})
	assert.Equal(t, session.StateAdminMenu, stateOf(m, adminID))
	assert.Equal(t, session.RoleAdmin, m.sessions.Get(adminID).Role)
}

func TestAdminAddProductFlow(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)
	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdmin})

	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdminProducts})
	assert.Equal(t, session.StateAdminSelectingProduct, stateOf(m, adminID))

	handle(t, m, adminID, Event{Kind: KindAction, Action: ActionAddProduct})
	assert.Equal(t, session.StateAdminEnteringProductName, stateOf(m, adminID))

	handle(t, m, adminID, Event{Kind: KindText, Text: "Juice"})
	assert.Equal(t, session.StateAdminSelectingProdCat, stateOf(m, adminID))

	handle(t, m, adminID, Event{Kind: KindText, Text: "Drinks"})
	assert.Equal(t, session.StateAdminEnteringProductPrice, stateOf(m, adminID))

	// Invalid prices are rejected without a state change.
	handle(t, m, adminID, Event{Kind: KindText, Text: "cheap"})
	assert.Equal(t, session.StateAdminEnteringProductPrice, stateOf(m, adminID))
	handle(t, m, adminID, Event{Kind: KindText, Text: "-5"})
	assert.Equal(t, session.StateAdminEnteringProductPrice, stateOf(m, adminID))

	handle(t, m, adminID, Event{Kind: KindText, Text: "7000"})
	assert.Equal(t, session.StateAdminMenu, stateOf(m, adminID))

	last := st.products[len(st.products)-1]
	assert.Equal(t, "Juice", last.Name)
	assert.Equal(t, int64(7000), last.Price)
	assert.Equal(t, int64(1), last.CategoryID)
}

func TestAdminDeleteCategory(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)
	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdmin})
	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdminCategories})

	handle(t, m, adminID, Event{Kind: KindSelect, Index: 1})
	assert.Equal(t, session.StateAdminViewingCategory, stateOf(m, adminID))

	handle(t, m, adminID, Event{Kind: KindAction, Action: ActionDeleteCategory, TargetID: 2})
	require.Len(t, st.categories, 1)
	assert.Equal(t, "Drinks", st.categories[0].Name)
}

func TestAdminCancelReturnsToMenu(t *testing.T) {
	m := newTestMachine(seededStore())
	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdmin})
	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdminProducts})
	handle(t, m, adminID, Event{Kind: KindAction, Action: ActionAddProduct})

	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdCancel})
	assert.Equal(t, session.StateAdminMenu, stateOf(m, adminID))
}

func TestStartResetsAdminToCustomerFlow(t *testing.T) {
	st := seededStore()
	m := newTestMachine(st)
	st.users[adminID] = store.Profile{FullName: "Boss", Phone: "1"}
	st.usernames[adminID] = "boss"

	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdAdmin})
	assert.Equal(t, session.StateAdminMenu, stateOf(m, adminID))

	handle(t, m, adminID, Event{Kind: KindCommand, Command: CmdStart})
	assert.Equal(t, session.StateMainMenu, stateOf(m, adminID))
	assert.Equal(t, session.RoleCustomer, m.sessions.Get(adminID).Role)
}

func TestPagerNavigation(t *testing.T) {
	m := newTestMachine(seededStore()) // page size 2, Drinks has 2 products
	register(t, m, customerID)
	startOrder(t, m, customerID, "Snacks")

	sess := m.sessions.Get(customerID)
	require.NotNil(t, sess.Data.Order)
	assert.Equal(t, 1, sess.Data.Order.Page)

	// Single page: both arrows out of range.
	r := handle(t, m, customerID, Event{Kind: KindPage, Page: 2})
	assert.Empty(t, r.Prompts)
	r = handle(t, m, customerID, Event{Kind: KindPage, Page: 0})
	assert.Empty(t, r.Prompts)
}

func TestPriceFormatting(t *testing.T) {
	m := newTestMachine(seededStore())
	assert.Equal(t, "1 234 500 UZS", m.price(1234500))
	assert.Equal(t, "0 UZS", m.price(0))
	assert.Equal(t, "999 UZS", m.price(999))
	assert.Equal(t, "1 000 UZS", m.price(1000))
}
