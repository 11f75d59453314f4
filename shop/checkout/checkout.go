// Package checkout turns a session's cart into exactly one stored order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alchomarket/shopbot/core/logger"
	"github.com/alchomarket/shopbot/shop/cart"
	"github.com/alchomarket/shopbot/shop/store"
)

// Each precondition is a distinct rejectable condition so callers can
// message them separately. The machine's own transitions never violate
// them; hitting one means the API was driven directly.
var (
	ErrEmptyCart  = errors.New("checkout: cart is empty")
	ErrNoLocation = errors.New("checkout: no location captured")
	ErrNoProfile  = errors.New("checkout: actor has no stored profile")
)

// Receipt summarizes a successfully placed order for confirmation and
// operator notification.
type Receipt struct {
	OrderID       int64
	Lines         cart.Cart
	Total         int64
	CustomerName  string
	CustomerPhone string
	Location      string
}

// Place validates the checkout preconditions and requests a single
// atomic order creation from the store. Preconditions are checked before
// any collaborator call; an empty cart never reaches the store. On any
// error the caller's cart and session are untouched — the store contract
// guarantees either all lines persisted or none.
func Place(ctx context.Context, st store.Store, actorID int64, c cart.Cart, location string) (*Receipt, error) {
	if c.Empty() {
		return nil, ErrEmptyCart
	}
	if location == "" {
		return nil, ErrNoLocation
	}

	profile, err := st.GetUserProfile(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("checkout: load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNoProfile
	}

	lines := make([]store.OrderLine, len(c))
	for i, l := range c {
		lines[i] = store.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	orderID, err := st.CreateOrder(ctx, actorID, lines, location)
	if err != nil {
		return nil, fmt.Errorf("checkout: create order: %w", err)
	}

	logger.FromContext(ctx).Info("order placed",
		slog.String("event", "checkout.place"),
		slog.Int64("order_id", orderID),
		slog.Int64("user_id", actorID),
		slog.Int("lines", len(lines)),
		slog.Int64("total", c.Total()),
	)

	return &Receipt{
		OrderID:       orderID,
		Lines:         c,
		Total:         c.Total(),
		CustomerName:  profile.FullName,
		CustomerPhone: profile.Phone,
		Location:      location,
	}, nil
}

// IsPrecondition reports whether err is one of the rejectable checkout
// preconditions (as opposed to a store failure).
func IsPrecondition(err error) bool {
	return IsEmptyCart(err) || IsNoLocation(err) || IsNoProfile(err)
}

// IsEmptyCart reports an empty-cart rejection.
func IsEmptyCart(err error) bool { return errors.Is(err, ErrEmptyCart) }

// IsNoLocation reports a missing-location rejection.
func IsNoLocation(err error) bool { return errors.Is(err, ErrNoLocation) }

// IsNoProfile reports a missing-profile rejection.
func IsNoProfile(err error) bool { return errors.Is(err, ErrNoProfile) }
