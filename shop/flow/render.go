package flow

import "github.com/alchomarket/shopbot/shop/cart"

// KeyboardKind tags the affordance set a prompt should be rendered with.
// The machine only describes affordances; the transport layer owns the
// actual markup.
type KeyboardKind string

const (
	KbNone     KeyboardKind = ""
	KbRemove   KeyboardKind = "remove"    // hide the reply keyboard
	KbMainMenu KeyboardKind = "main_menu" // order / my orders / about
	KbBack     KeyboardKind = "back"
	KbCartBack KeyboardKind = "cart_back" // cart shortcut + back
	KbContact  KeyboardKind = "contact"   // share-phone button + back
	KbLocation KeyboardKind = "location"  // share-location button + back

	KbCategories KeyboardKind = "categories" // category names + cart + back

	KbPager   KeyboardKind = "pager"   // numbered item buttons + arrows
	KbStepper KeyboardKind = "stepper" // -/qty/+ and add-to-cart
	KbCart    KeyboardKind = "cart"    // checkout/continue/clear + per-line delete

	KbAdminMenu       KeyboardKind = "admin_menu" // products / categories / users
	KbAdd             KeyboardKind = "add"        // single "add" button
	KbCancel          KeyboardKind = "cancel"
	KbAdminCategories KeyboardKind = "admin_categories" // category names + cancel
	KbDelete          KeyboardKind = "delete"           // single delete button
	KbUserPager       KeyboardKind = "user_pager"       // arrows only
)

// Keyboard describes one affordance set. Only the fields relevant to
// Kind are populated.
type Keyboard struct {
	Kind KeyboardKind

	// Pager views.
	Page  int
	Pages int
	Count int // item buttons on this page
	Start int // global index of the first item button
	// Extra "add" button appended to admin pagers.
	Add Action

	// Stepper views.
	Quantity int

	// Cart view.
	Lines []cart.Line

	// Category reply keyboards.
	Categories []string

	// Single delete button target.
	Delete   Action
	TargetID int64
}

// Slot names a session field that records the message id of a rendered
// view so a later Back can delete the stale content.
type Slot string

const (
	SlotNone         Slot = ""
	SlotOrderList    Slot = "order_list"
	SlotOrderProduct Slot = "order_product"
	SlotOrderCart    Slot = "order_cart"
	SlotAdminList    Slot = "admin_list"
)

// Prompt is one outbound message description.
type Prompt struct {
	Text     string
	Keyboard Keyboard
	// Edit asks the transport to edit the triggering message in place
	// instead of sending a new one (pager turns, quantity updates).
	Edit bool
	// Alert asks for a modal callback answer instead of a message.
	Alert bool
	// Track tells the transport to report the sent message's id back
	// via Machine.TrackMessage under this slot.
	Track Slot
}

// Notice is an operator-facing notification emitted on checkout success,
// delivered to a separate channel rather than to the acting customer.
type Notice struct {
	Text        string
	Latitude    float64
	Longitude   float64
	HasLocation bool
}

// Render is the full outcome of one handled event.
type Render struct {
	// Deletes lists stale message ids to remove before prompting.
	Deletes []int
	Prompts []Prompt
	Notice  *Notice
}

func (r *Render) prompt(p Prompt) {
	r.Prompts = append(r.Prompts, p)
}

func (r *Render) deleteMsg(id *int) {
	if id != nil && *id != 0 {
		r.Deletes = append(r.Deletes, *id)
		*id = 0
	}
}

// text appends a plain prompt without any keyboard change.
func (r *Render) text(msg string) {
	r.prompt(Prompt{Text: msg})
}

// alert appends a modal callback answer.
func (r *Render) alert(msg string) {
	r.prompt(Prompt{Text: msg, Alert: true})
}
