package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/alchomarket/shopbot/shop/checkout"
	"github.com/alchomarket/shopbot/shop/pagination"
	"github.com/alchomarket/shopbot/shop/session"
)

const (
	msgStoreUnavailable = "⚠️ Service is temporarily unavailable, please try again."
	msgInvalidInput     = "❌ Invalid input, please use the buttons below."
)

func failRender() Render {
	var r Render
	r.text(msgStoreUnavailable)
	return r
}

// start handles /start: unregistered actors begin registration, everyone
// else lands on the main menu.
func (m *Machine) start(ctx context.Context, s *session.Session, actorID int64) (Render, error) {
	exists, err := m.store.UserExists(ctx, actorID)
	if err != nil {
		return failRender(), storeErr("user lookup", err)
	}
	if !exists {
		return m.beginRegistration(s), nil
	}
	return m.mainMenu(s, "👋 Welcome to "+m.cfg.ShopName+"!\nPick an option below to browse products or get help."), nil
}

func (m *Machine) beginRegistration(s *session.Session) Render {
	s.Reset()
	s.State = session.StateEnteringName
	var r Render
	r.text("👋 Welcome to " + m.cfg.ShopName + "!")
	r.prompt(Prompt{Text: "Please enter your name:", Keyboard: Keyboard{Kind: KbRemove}})
	return r
}

// mainMenu clears the working data and re-arms the menu. Completing or
// abandoning a flow always funnels through here.
func (m *Machine) mainMenu(s *session.Session, greeting string) Render {
	s.Data = session.Data{}
	s.State = session.StateMainMenu
	var r Render
	r.prompt(Prompt{Text: greeting, Keyboard: Keyboard{Kind: KbMainMenu}})
	return r
}

func (m *Machine) handleCustomer(ctx context.Context, s *session.Session, actorID int64, username string, ev Event) (Render, error) {
	// Registration guard: outside the registration sub-flow, any event
	// from an unregistered actor restarts registration no matter what
	// it asked for.
	if s.State != session.StateEnteringName && s.State != session.StateEnteringPhone {
		exists, err := m.store.UserExists(ctx, actorID)
		if err != nil {
			return failRender(), storeErr("user lookup", err)
		}
		if !exists {
			return m.beginRegistration(s), nil
		}
	}

	if ev.Kind == KindCommand && ev.Command == CmdBack {
		return m.customerBackStep(ctx, s, actorID)
	}

	switch s.State {
	case session.StateIdle, session.StateMainMenu:
		return m.customerMenu(ctx, s, actorID, ev)
	case session.StateEnteringName:
		return m.enterName(s, ev)
	case session.StateEnteringPhone:
		return m.enterPhone(ctx, s, actorID, username, ev)
	case session.StateEnteringLocation:
		return m.enterLocation(ctx, s, ev)
	case session.StateSelectingCategory:
		return m.selectCategory(ctx, s, ev)
	case session.StateSelectingProduct:
		return m.selectProduct(ctx, s, ev)
	case session.StateViewingProduct:
		return m.viewingProduct(ctx, s, ev)
	case session.StateShowingCart:
		return m.showingCart(ctx, s, actorID, ev)
	case session.StateViewingOrders, session.StateViewingInfo:
		// Only Back leads out of the leaf views; it is handled above.
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	var r Render
	r.text(msgInvalidInput)
	return r, nil
}

// customerBackStep unwinds one level per the predecessor table and
// re-renders the parent view, deleting stale tracked messages of the
// view being left.
func (m *Machine) customerBackStep(ctx context.Context, s *session.Session, actorID int64) (Render, error) {
	prev, ok := customerBack[s.State]
	if !ok {
		return m.mainMenu(s, "Pick an option below."), nil
	}

	var r Render
	switch s.State {
	case session.StateSelectingProduct:
		r.deleteMsg(&s.Order().ListMessageID)
	case session.StateViewingProduct:
		r.deleteMsg(&s.Order().ProductMessageID)
	case session.StateShowingCart:
		r.deleteMsg(&s.Order().CartMessageID)
	}

	switch prev {
	case session.StateEnteringName:
		s.State = session.StateEnteringName
		r.prompt(Prompt{Text: "Please enter your name:", Keyboard: Keyboard{Kind: KbRemove}})
		return r, nil
	case session.StateMainMenu:
		menu := m.mainMenu(s, "Pick an option below.")
		menu.Deletes = append(r.Deletes, menu.Deletes...)
		return menu, nil
	case session.StateEnteringLocation:
		next := m.requestLocation(s)
		next.Deletes = append(r.Deletes, next.Deletes...)
		return next, nil
	case session.StateSelectingCategory:
		next, err := m.categoryListing(ctx, s)
		next.Deletes = append(r.Deletes, next.Deletes...)
		return next, err
	case session.StateSelectingProduct:
		next, err := m.productListing(ctx, s)
		next.Deletes = append(r.Deletes, next.Deletes...)
		return next, err
	}
	return m.mainMenu(s, "Pick an option below."), nil
}

func (m *Machine) customerMenu(ctx context.Context, s *session.Session, actorID int64, ev Event) (Render, error) {
	if ev.Kind != KindCommand {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	switch ev.Command {
	case CmdOrder:
		return m.requestLocation(s), nil
	case CmdMyOrders:
		return m.viewOrders(ctx, s, actorID)
	case CmdAbout:
		return m.viewInfo(s), nil
	default:
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
}

func (m *Machine) enterName(s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindText || strings.TrimSpace(ev.Text) == "" {
		var r Render
		r.text("Please enter your name:")
		return r, nil
	}
	s.Registration().Name = strings.TrimSpace(ev.Text)
	s.State = session.StateEnteringPhone
	var r Render
	r.prompt(Prompt{Text: "📞 Please share your phone number", Keyboard: Keyboard{Kind: KbContact}})
	return r, nil
}

// enterPhone accepts a structured contact card (completing registration)
// or Back; everything else is rejected without a state change.
func (m *Machine) enterPhone(ctx context.Context, s *session.Session, actorID int64, username string, ev Event) (Render, error) {
	if ev.Kind != KindContact || ev.Contact == nil {
		var r Render
		r.prompt(Prompt{Text: "📞 Please use the button below to share your phone number", Keyboard: Keyboard{Kind: KbContact}})
		return r, nil
	}
	name := s.Registration().Name
	if err := m.store.RegisterUser(ctx, actorID, username, name, ev.Contact.Phone); err != nil {
		return failRender(), storeErr("register user", err)
	}
	return m.mainMenu(s, "✅ Registration complete!\nPick an option below to browse products or get help."), nil
}

func (m *Machine) requestLocation(s *session.Session) Render {
	// Entering the order flow discards a previous draft but keeps the
	// cart, so "continue ordering" round-trips do not lose lines.
	keep := s.Data.Cart
	s.Data = session.Data{Cart: keep}
	s.State = session.StateEnteringLocation
	var r Render
	r.prompt(Prompt{Text: "📍 Please share your location to continue.", Keyboard: Keyboard{Kind: KbLocation}})
	return r
}

func (m *Machine) enterLocation(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindLocation || ev.Location == nil {
		var r Render
		r.prompt(Prompt{Text: "📍 Please use the button below to share your location.", Keyboard: Keyboard{Kind: KbLocation}})
		return r, nil
	}
	s.Order().Location = fmt.Sprintf("%g, %g", ev.Location.Latitude, ev.Location.Longitude)
	return m.categoryListing(ctx, s)
}

// categoryListing captures a fresh category snapshot and prompts for a
// pick. An empty catalog renders a distinct "nothing here" view instead
// of an empty page.
func (m *Machine) categoryListing(ctx context.Context, s *session.Session) (Render, error) {
	cats, err := m.store.ListCategories(ctx)
	if err != nil {
		return failRender(), storeErr("list categories", err)
	}
	if len(cats) == 0 {
		return m.mainMenu(s, "⚠️ No categories yet."), nil
	}
	draft := s.Order()
	draft.Categories = cats
	s.State = session.StateSelectingCategory

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	var r Render
	r.prompt(Prompt{Text: "Choose a category:", Keyboard: Keyboard{Kind: KbCategories, Categories: names}})
	return r, nil
}

// selectCategory resolves the typed name against the snapshot captured
// at listing time, not against a fresh query.
func (m *Machine) selectCategory(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind == KindCommand && ev.Command == CmdCart {
		return m.showCart(s), nil
	}
	if ev.Kind != KindText {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	for i := range s.Order().Categories {
		if s.Order().Categories[i].Name == ev.Text {
			cat := s.Order().Categories[i]
			s.Order().Category = &cat
			s.Order().Page = 1
			return m.productListing(ctx, s)
		}
	}
	var r Render
	r.text("❌ Category not found. Try again.")
	return r, nil
}

// productListing fetches a fresh product snapshot for the selected
// category and renders its current page.
func (m *Machine) productListing(ctx context.Context, s *session.Session) (Render, error) {
	draft := s.Order()
	if draft.Category == nil {
		return m.categoryListing(ctx, s)
	}
	products, err := m.store.ListProducts(ctx, draft.Category.ID)
	if err != nil {
		return failRender(), storeErr("list products", err)
	}
	if len(products) == 0 {
		var r Render
		r.text("⚠️ No products in this category.")
		return r, nil
	}
	draft.Products = products
	if draft.Page < 1 || draft.Page > pagination.TotalPages(len(products), m.cfg.PageSize) {
		draft.Page = 1
	}
	s.State = session.StateSelectingProduct

	var r Render
	r.prompt(Prompt{Text: "📦 Pick a product to order:", Keyboard: Keyboard{Kind: KbCartBack}})
	r.prompt(m.productPagePrompt(s, false))
	return r, nil
}

// productPagePrompt renders the current snapshot page with numbered
// selection buttons and pager arrows.
func (m *Machine) productPagePrompt(s *session.Session, edit bool) Prompt {
	draft := s.Order()
	page := pagination.Paginate(draft.Products, m.cfg.PageSize, draft.Page)

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d\n\n", page.Number, page.Total)
	for i, p := range page.Items {
		fmt.Fprintf(&b, "%d. %s - %s\n", page.Start+i+1, p.Name, m.price(p.Price))
	}
	b.WriteString("\nPick a product to view")

	return Prompt{
		Text: b.String(),
		Keyboard: Keyboard{
			Kind:  KbPager,
			Page:  page.Number,
			Pages: page.Total,
			Count: len(page.Items),
			Start: page.Start,
		},
		Edit:  edit,
		Track: SlotOrderList,
	}
}

func (m *Machine) selectProduct(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	draft := s.Order()
	switch ev.Kind {
	case KindCommand:
		if ev.Command == CmdCart {
			return m.showCart(s), nil
		}
	case KindPage:
		// Only adjacent pages are reachable through the pager; anything
		// else is a stale or forged callback and is dropped.
		if ev.Page < 1 || ev.Page > pagination.TotalPages(len(draft.Products), m.cfg.PageSize) {
			return Render{}, nil
		}
		draft.Page = ev.Page
		var r Render
		r.prompt(m.productPagePrompt(s, true))
		return r, nil
	case KindSelect:
		// Resolve against the stored snapshot; an index past its end is
		// ignored without a state change.
		if ev.Index < 0 || ev.Index >= len(draft.Products) {
			return Render{}, nil
		}
		picked := draft.Products[ev.Index]
		draft.Product = &picked
		draft.Quantity = 1
		s.State = session.StateViewingProduct

		var r Render
		r.deleteMsg(&draft.ListMessageID)
		r.prompt(Prompt{Text: "Pick a quantity", Keyboard: Keyboard{Kind: KbBack}})
		r.prompt(m.productViewPrompt(s, false))
		return r, nil
	}
	var r Render
	r.text(msgInvalidInput)
	return r, nil
}

func (m *Machine) productViewPrompt(s *session.Session, edit bool) Prompt {
	draft := s.Order()
	p := draft.Product
	total := p.Price * int64(draft.Quantity)
	text := fmt.Sprintf("🛒 %s\nPrice: %s\nQuantity: %d\nSubtotal: %s",
		p.Name, m.price(p.Price), draft.Quantity, m.price(total))
	return Prompt{
		Text:     text,
		Keyboard: Keyboard{Kind: KbStepper, Quantity: draft.Quantity},
		Edit:     edit,
		Track:    SlotOrderProduct,
	}
}

func (m *Machine) viewingProduct(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	draft := s.Order()
	if ev.Kind != KindAction {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	switch ev.Action {
	case ActionIncQuantity:
		draft.Quantity++
	case ActionDecQuantity:
		if draft.Quantity > 1 {
			draft.Quantity--
		} else {
			// Already at the floor; nothing to re-render.
			return Render{}, nil
		}
	case ActionAddToCart:
		p := draft.Product
		s.Data.Cart = s.Data.Cart.Add(p.ID, p.Name, p.Price, draft.Quantity)
		var r Render
		r.deleteMsg(&draft.ProductMessageID)
		r.text(fmt.Sprintf("✅ Added to cart: %d pcs.", draft.Quantity))
		cartView := m.showCart(s)
		r.Deletes = append(r.Deletes, cartView.Deletes...)
		r.Prompts = append(r.Prompts, cartView.Prompts...)
		return r, nil
	default:
		return Render{}, nil
	}
	var r Render
	r.prompt(m.productViewPrompt(s, true))
	return r, nil
}

func (m *Machine) cartText(s *session.Session) string {
	var b strings.Builder
	b.WriteString("🛒 Your cart:\n\n")
	for _, l := range s.Data.Cart {
		fmt.Fprintf(&b, "%s - %d pcs x %s = %s\n",
			l.Name, l.Quantity, m.price(l.UnitPrice), m.price(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\nTotal: %s", m.price(s.Data.Cart.Total()))
	return b.String()
}

// showCart renders the cart view, replacing a stale product list.
func (m *Machine) showCart(s *session.Session) Render {
	var r Render
	if s.Data.Cart.Empty() {
		r.text("🛒 Your cart is empty.")
		return r
	}
	draft := s.Order()
	r.deleteMsg(&draft.ListMessageID)
	s.State = session.StateShowingCart
	r.prompt(Prompt{Text: "Cart:", Keyboard: Keyboard{Kind: KbBack}})
	r.prompt(Prompt{
		Text:     m.cartText(s),
		Keyboard: Keyboard{Kind: KbCart, Lines: s.Data.Cart},
		Track:    SlotOrderCart,
	})
	return r
}

func (m *Machine) showingCart(ctx context.Context, s *session.Session, actorID int64, ev Event) (Render, error) {
	if ev.Kind != KindAction {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	draft := s.Order()
	switch ev.Action {
	case ActionCheckout:
		return m.checkout(ctx, s, actorID)
	case ActionContinue:
		var r Render
		r.deleteMsg(&draft.CartMessageID)
		next, err := m.categoryListing(ctx, s)
		next.Deletes = append(r.Deletes, next.Deletes...)
		return next, err
	case ActionClearCart:
		s.Data.Cart = nil
		var r Render
		r.prompt(Prompt{Text: "🛒 Cart cleared.", Edit: true})
		return r, nil
	case ActionRemoveItem:
		s.Data.Cart = s.Data.Cart.Remove(ev.TargetID)
		var r Render
		if s.Data.Cart.Empty() {
			r.prompt(Prompt{Text: "🛒 Your cart is empty.", Edit: true})
			return r, nil
		}
		r.prompt(Prompt{
			Text:     m.cartText(s),
			Keyboard: Keyboard{Kind: KbCart, Lines: s.Data.Cart},
			Edit:     true,
			Track:    SlotOrderCart,
		})
		return r, nil
	}
	return Render{}, nil
}

// checkout delegates to the checkout transaction and translates its
// outcome. Failure leaves cart, location, and state exactly as they
// were; success clears the session and notifies the operator channel.
func (m *Machine) checkout(ctx context.Context, s *session.Session, actorID int64) (Render, error) {
	draft := s.Order()
	receipt, err := checkout.Place(ctx, m.store, actorID, s.Data.Cart, draft.Location)
	if err != nil {
		var r Render
		switch {
		case checkout.IsPrecondition(err):
			r.alert(preconditionMessage(err))
			return r, nil
		default:
			r.alert("Could not place the order, please try again.")
			return r, storeErr("create order", err)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🆕 New order #%d:\n\n", receipt.OrderID)
	for _, l := range receipt.Lines {
		fmt.Fprintf(&b, "🔹 %s - %d pcs x %s = %s\n",
			l.Name, l.Quantity, m.price(l.UnitPrice), m.price(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n💵 Total: %s\n\n", m.price(receipt.Total))
	fmt.Fprintf(&b, "👤 Name: %s\n📞 Phone: +%s\n📍 Location: %s",
		receipt.CustomerName, receipt.CustomerPhone, receipt.Location)

	lat, lon, hasLoc := parseLocation(receipt.Location)

	var r Render
	r.deleteMsg(&draft.CartMessageID)
	s.Reset()
	r.prompt(Prompt{
		Text:     "✅ Thank you for your order! We will contact you shortly to confirm.",
		Keyboard: Keyboard{Kind: KbMainMenu},
	})
	r.Notice = &Notice{Text: b.String(), Latitude: lat, Longitude: lon, HasLocation: hasLoc}
	return r, nil
}

func preconditionMessage(err error) string {
	switch {
	case checkout.IsEmptyCart(err):
		return "Your cart is empty."
	case checkout.IsNoLocation(err):
		return "Location is missing."
	case checkout.IsNoProfile(err):
		return "Could not load your profile."
	}
	return "Order cannot be placed."
}

func parseLocation(s string) (lat, lon float64, ok bool) {
	n, err := fmt.Sscanf(s, "%g, %g", &lat, &lon)
	return lat, lon, err == nil && n == 2
}

func (m *Machine) viewOrders(ctx context.Context, s *session.Session, actorID int64) (Render, error) {
	orders, err := m.store.ListOrders(ctx, actorID)
	if err != nil {
		return failRender(), storeErr("list orders", err)
	}
	var r Render
	if len(orders) == 0 {
		r.text("You have no orders yet.")
		return r, nil
	}
	var b strings.Builder
	b.WriteString("Your orders:\n\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "Order #%d (%s):\nProduct: %s\n\n", o.OrderID, o.Status, o.ProductName)
	}
	s.State = session.StateViewingOrders
	r.prompt(Prompt{Text: b.String(), Keyboard: Keyboard{Kind: KbBack}})
	return r, nil
}

func (m *Machine) viewInfo(s *session.Session) Render {
	s.State = session.StateViewingInfo
	var r Render
	r.prompt(Prompt{
		Text:     fmt.Sprintf("%s\n\nPhone:\n%s", m.cfg.ShopName, m.cfg.ContactPhone),
		Keyboard: Keyboard{Kind: KbBack},
	})
	return r
}
