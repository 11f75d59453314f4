package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alchomarket/shopbot/core/logger"
	"github.com/alchomarket/shopbot/shop/session"
	"github.com/alchomarket/shopbot/shop/store"
)

// Config carries the few knobs the flows need.
type Config struct {
	// PageSize is the catalog page size, UsersPageSize the admin user
	// list page size.
	PageSize      int
	UsersPageSize int
	// Currency is the display currency suffix, e.g. "UZS".
	Currency string
	// ShopName and ContactPhone feed the About view.
	ShopName     string
	ContactPhone string
	// AdminIDs are the actors allowed into the admin flow.
	AdminIDs []int64
}

const (
	defaultPageSize      = 10
	defaultUsersPageSize = 20
)

// Machine is the conversation orchestrator. It owns no session copies:
// every mutation happens inside the session store's per-actor critical
// section, and a session is only changed after the collaborator calls a
// transition depends on have succeeded.
type Machine struct {
	store    store.Store
	sessions *session.Store
	cfg      Config
	admins   map[int64]struct{}
}

// NewMachine builds a machine over the given collaborators.
func NewMachine(st store.Store, sessions *session.Store, cfg Config) *Machine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.UsersPageSize <= 0 {
		cfg.UsersPageSize = defaultUsersPageSize
	}
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	return &Machine{store: st, sessions: sessions, cfg: cfg, admins: admins}
}

// IsAdmin reports whether the actor may enter the admin flow.
func (m *Machine) IsAdmin(actorID int64) bool {
	_, ok := m.admins[actorID]
	return ok
}

// Handle routes one classified event through the actor's flow graph and
// returns the render instruction for the transport layer. The returned
// error is non-nil only for store failures (the render already carries
// the user-facing transient message) — validation rejections resolve to
// plain re-prompt renders.
func (m *Machine) Handle(ctx context.Context, actorID int64, username string, ev Event) (Render, error) {
	var r Render
	start := time.Now()
	err := m.sessions.Do(actorID, func(s *session.Session) error {
		before := s.State
		var err error
		r, err = m.dispatch(ctx, s, actorID, username, ev)
		logger.FSM.LogAttrs(ctx, slog.LevelDebug, "event handled",
			slog.String("event", "fsm.transition"),
			slog.String("status", logger.Status(err)),
			slog.String("rid", logger.CompactRID(logger.RIDFrom(ctx))),
			slog.Int("update_id", logger.UpdateIDFrom(ctx)),
			slog.Int64("chat_id", logger.ChatIDFrom(ctx)),
			slog.Int64("user_id", actorID),
			slog.String("kind", string(ev.Kind)),
			slog.String("from", string(before)),
			slog.String("to", string(s.State)),
			slog.Duration("duration", logger.Took(start)),
		)
		return err
	})
	return r, err
}

func (m *Machine) dispatch(ctx context.Context, s *session.Session, actorID int64, username string, ev Event) (Render, error) {
	// /admin and /start switch flow graphs regardless of current state.
	if ev.Kind == KindCommand {
		switch ev.Command {
		case CmdAdmin:
			return m.enterAdmin(s, actorID)
		case CmdStart:
			s.Role = session.RoleCustomer
			return m.start(ctx, s, actorID)
		}
	}

	if isAdminState(s.State) {
		return m.handleAdmin(ctx, s, ev)
	}
	return m.handleCustomer(ctx, s, actorID, username, ev)
}

// TrackMessage records the transport-assigned message id of a rendered
// view so a later Back can delete the stale content.
func (m *Machine) TrackMessage(actorID int64, slot Slot, messageID int) {
	if slot == SlotNone || messageID == 0 {
		return
	}
	_ = m.sessions.Do(actorID, func(s *session.Session) error {
		switch slot {
		case SlotOrderList:
			s.Order().ListMessageID = messageID
		case SlotOrderProduct:
			s.Order().ProductMessageID = messageID
		case SlotOrderCart:
			s.Order().CartMessageID = messageID
		case SlotAdminList:
			s.Admin().ListMessageID = messageID
		}
		return nil
	})
}

func isAdminState(st session.State) bool {
	switch st {
	case session.StateAdminMenu,
		session.StateAdminSelectingProduct,
		session.StateAdminViewingProduct,
		session.StateAdminEnteringProductName,
		session.StateAdminSelectingProdCat,
		session.StateAdminEnteringProductPrice,
		session.StateAdminSelectingCategory,
		session.StateAdminViewingCategory,
		session.StateAdminEnteringCategoryName,
		session.StateAdminViewingUserList:
		return true
	}
	return false
}

// customerBack maps each customer state to the view Back re-renders.
// The observed behavior only ever unwinds one level, so a static
// predecessor table replaces a history stack on purpose.
var customerBack = map[session.State]session.State{
	session.StateEnteringPhone:     session.StateEnteringName,
	session.StateEnteringLocation:  session.StateMainMenu,
	session.StateSelectingCategory: session.StateEnteringLocation,
	session.StateSelectingProduct:  session.StateSelectingCategory,
	session.StateViewingProduct:    session.StateSelectingProduct,
	session.StateShowingCart:       session.StateSelectingCategory,
	session.StateViewingOrders:     session.StateMainMenu,
	session.StateViewingInfo:       session.StateMainMenu,
}

// adminBack unwinds admin list/detail views one level.
var adminBack = map[session.State]session.State{
	session.StateAdminSelectingProduct:  session.StateAdminMenu,
	session.StateAdminViewingProduct:    session.StateAdminMenu,
	session.StateAdminSelectingCategory: session.StateAdminMenu,
	session.StateAdminViewingCategory:   session.StateAdminMenu,
	session.StateAdminViewingUserList:   session.StateAdminMenu,
}

// price renders an integer amount as grouped thousands plus the
// configured currency, e.g. 1234500 -> "1 234 500 UZS".
func (m *Machine) price(v int64) string {
	return groupDigits(v) + " " + m.cfg.Currency
}

func groupDigits(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := []byte{}
	if v == 0 {
		digits = append(digits, '0')
	}
	for v > 0 {
		digits = append(digits, byte('0'+v%10))
		v /= 10
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
		if i > 0 && i%3 == 0 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
