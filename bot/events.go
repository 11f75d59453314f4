// Package bot adapts the Telegram transport to the conversation engine:
// it classifies inbound updates into flow events, materializes keyboard
// affordances into telebot markup, and executes render instructions.
package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/alchomarket/shopbot/core/telegram/callbacks"
	"github.com/alchomarket/shopbot/shop/flow"
)

// Reply keyboard button labels. Classification matches on these exact
// strings, so they live next to the classifier.
const (
	btnOrder    = "🛍 Order"
	btnMyOrders = "📒 My orders"
	btnAbout    = "ℹ️ About us"

	btnBack   = "⬅️ Back"
	btnCancel = "❌ Cancel"
	btnCart   = "🛒 Cart"

	btnSharePhone    = "📞 Share phone number"
	btnShareLocation = "📍 Share location"

	btnAdminProducts   = "📦 Products"
	btnAdminCategories = "🗂 Categories"
	btnAdminUsers      = "👥 Users"
)

// Callback uniques. The payload carries the index, page, or target id.
const (
	cbItem = "item"
	cbPage = "page"
	cbNoop = "noop"

	cbInc    = "qty_inc"
	cbDec    = "qty_dec"
	cbToCart = "to_cart"

	cbCheckout = "checkout"
	cbContinue = "continue"
	cbClear    = "clear_cart"
	cbRemove   = "rm_item"

	cbAddProduct  = "add_prod"
	cbDelProduct  = "del_prod"
	cbAddCategory = "add_cat"
	cbDelCategory = "del_cat"
)

var textCommands = map[string]flow.Command{
	btnOrder:    flow.CmdOrder,
	btnMyOrders: flow.CmdMyOrders,
	btnAbout:    flow.CmdAbout,
	btnBack:     flow.CmdBack,
	btnCancel:   flow.CmdCancel,
	btnCart:     flow.CmdCart,

	btnAdminProducts:   flow.CmdAdminProducts,
	btnAdminCategories: flow.CmdAdminCategories,
	btnAdminUsers:      flow.CmdAdminUsers,
}

// classifyText maps recognized menu button labels to commands and
// passes everything else through as free-form text.
func classifyText(text string) flow.Event {
	if cmd, ok := textCommands[text]; ok {
		return flow.Event{Kind: flow.KindCommand, Command: cmd}
	}
	return flow.Event{Kind: flow.KindText, Text: text}
}

func classifyContact(contact *tele.Contact) flow.Event {
	ev := flow.Event{Kind: flow.KindContact}
	if contact != nil {
		ev.Contact = &flow.Contact{Phone: contact.PhoneNumber}
	}
	return ev
}

func classifyLocation(loc *tele.Location) flow.Event {
	ev := flow.Event{Kind: flow.KindLocation}
	if loc != nil {
		ev.Location = &flow.Location{
			Latitude:  float64(loc.Lat),
			Longitude: float64(loc.Lng),
		}
	}
	return ev
}

// classifyCallback decodes an inline button press. The second return is
// false for noop buttons and undecodable payloads, which are answered
// silently without reaching the machine.
func classifyCallback(c tele.Context) (flow.Event, bool) {
	key := callbacks.CallbackKey(c)
	switch key {
	case cbItem:
		idx, err := callbacks.PayloadInt(c)
		if err != nil {
			return flow.Event{}, false
		}
		return flow.Event{Kind: flow.KindSelect, Index: idx}, true
	case cbPage:
		page, err := callbacks.PayloadInt(c)
		if err != nil {
			return flow.Event{}, false
		}
		return flow.Event{Kind: flow.KindPage, Page: page}, true
	case cbInc:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionIncQuantity}, true
	case cbDec:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionDecQuantity}, true
	case cbToCart:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionAddToCart}, true
	case cbCheckout:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionCheckout}, true
	case cbContinue:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionContinue}, true
	case cbClear:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionClearCart}, true
	case cbRemove:
		id, err := callbacks.PayloadInt64(c)
		if err != nil {
			return flow.Event{}, false
		}
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionRemoveItem, TargetID: id}, true
	case cbAddProduct:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionAddProduct}, true
	case cbDelProduct:
		id, err := callbacks.PayloadInt64(c)
		if err != nil {
			return flow.Event{}, false
		}
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionDeleteProduct, TargetID: id}, true
	case cbAddCategory:
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionAddCategory}, true
	case cbDelCategory:
		id, err := callbacks.PayloadInt64(c)
		if err != nil {
			return flow.Event{}, false
		}
		return flow.Event{Kind: flow.KindAction, Action: flow.ActionDeleteCategory, TargetID: id}, true
	}
	return flow.Event{}, false
}

func actionUnique(a flow.Action) string {
	switch a {
	case flow.ActionAddProduct:
		return cbAddProduct
	case flow.ActionAddCategory:
		return cbAddCategory
	case flow.ActionDeleteProduct:
		return cbDelProduct
	case flow.ActionDeleteCategory:
		return cbDelCategory
	}
	return cbNoop
}

func itoa64(v int64) string { return strconv.FormatInt(v, 10) }
