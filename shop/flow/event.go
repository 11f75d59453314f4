// Package flow implements the conversation state machine for the shop:
// it routes classified transport events through the customer and admin
// flow graphs, accumulates working data in per-actor sessions, and emits
// render instructions for the transport layer to materialize.
package flow

// Kind tags a classified inbound event. Classification happens once at
// the transport boundary; the machine matches kinds exhaustively and
// never inspects raw payload strings.
type Kind string

const (
	// KindCommand is a recognized menu button or slash command.
	KindCommand Kind = "command"
	// KindText is free-form text, meaningful only in entry states.
	KindText Kind = "text"
	// KindContact is a structured contact card (phone number).
	KindContact Kind = "contact"
	// KindLocation is a structured location pin.
	KindLocation Kind = "location"
	// KindSelect is a paginated-list click carrying the 0-based global
	// index into the snapshot captured at listing time.
	KindSelect Kind = "select"
	// KindPage is a pager arrow click carrying the requested page.
	KindPage Kind = "page"
	// KindAction is a named inline-keyboard action.
	KindAction Kind = "action"
)

// Command enumerates recognized menu commands.
type Command string

const (
	CmdStart    Command = "start"
	CmdAdmin    Command = "admin"
	CmdOrder    Command = "order"
	CmdMyOrders Command = "my_orders"
	CmdAbout    Command = "about"
	CmdCart     Command = "cart"
	CmdBack     Command = "back"
	CmdCancel   Command = "cancel"

	CmdAdminProducts   Command = "admin_products"
	CmdAdminCategories Command = "admin_categories"
	CmdAdminUsers      Command = "admin_users"
)

// Action enumerates named inline-keyboard actions.
type Action string

const (
	ActionIncQuantity Action = "inc_quantity"
	ActionDecQuantity Action = "dec_quantity"
	ActionAddToCart   Action = "add_to_cart"

	ActionCheckout   Action = "checkout"
	ActionContinue   Action = "continue"
	ActionClearCart  Action = "clear_cart"
	ActionRemoveItem Action = "remove_item" // TargetID = product id

	ActionAddProduct     Action = "add_product"
	ActionDeleteProduct  Action = "delete_product" // TargetID = product id
	ActionAddCategory    Action = "add_category"
	ActionDeleteCategory Action = "delete_category" // TargetID = category id
)

// Contact is the structured payload of a shared contact card.
type Contact struct {
	Phone string
}

// Location is the structured payload of a shared location pin.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Event is one classified inbound update. Exactly the fields implied by
// Kind are populated.
type Event struct {
	Kind     Kind
	Command  Command
	Text     string
	Contact  *Contact
	Location *Location
	Index    int
	Page     int
	Action   Action
	TargetID int64
}
