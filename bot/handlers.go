package bot

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/alchomarket/shopbot/core/logger"
	tghelpers "github.com/alchomarket/shopbot/core/telegram/helpers"
	"github.com/alchomarket/shopbot/shop/flow"
)

// Handler owns the update handlers and the render executor.
type Handler struct {
	machine     *flow.Machine
	groupChatID int64
}

// NewHandler builds the transport handler set over the machine.
// groupChatID is the operator channel for order notices; 0 disables it.
func NewHandler(machine *flow.Machine, groupChatID int64) *Handler {
	return &Handler{machine: machine, groupChatID: groupChatID}
}

func (h *Handler) onStart(c tele.Context) error {
	return h.handle(c, "start", flow.Event{Kind: flow.KindCommand, Command: flow.CmdStart})
}

func (h *Handler) onAdmin(c tele.Context) error {
	return h.handle(c, "admin", flow.Event{Kind: flow.KindCommand, Command: flow.CmdAdmin})
}

func (h *Handler) onText(c tele.Context) error {
	return h.handle(c, "text", classifyText(c.Text()))
}

func (h *Handler) onContact(c tele.Context) error {
	return h.handle(c, "contact", classifyContact(c.Message().Contact))
}

func (h *Handler) onLocation(c tele.Context) error {
	return h.handle(c, "location", classifyLocation(c.Message().Location))
}

func (h *Handler) onCallback(c tele.Context) error {
	ev, ok := classifyCallback(c)
	if !ok {
		return c.Respond(&tele.CallbackResponse{})
	}
	return h.handle(c, "callback", ev)
}

// handle routes one classified event through the machine and executes
// the resulting render. The machine error is returned for the logging
// middleware after the user-facing render has been delivered.
func (h *Handler) handle(c tele.Context, name string, ev flow.Event) error {
	ctx := tghelpers.WithHandler(c, name)
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	render, err := h.machine.Handle(ctx, sender.ID, sender.Username, ev)
	if execErr := h.execute(c, sender.ID, render); execErr != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "render failed",
			slog.String("event", "tg.render"),
			slog.Int64("user_id", sender.ID),
			slog.String("err", execErr.Error()),
		)
		if err == nil {
			err = execErr
		}
	}
	return err
}

// execute materializes one render: stale deletes first, then prompts in
// order, then the operator notice. A tracked prompt reports its message
// id back to the machine.
func (h *Handler) execute(c tele.Context, actorID int64, r flow.Render) error {
	for _, id := range r.Deletes {
		tghelpers.DeleteMessage(c, id)
	}

	answered := false
	var firstErr error
	for _, p := range r.Prompts {
		switch {
		case p.Alert:
			if err := c.Respond(&tele.CallbackResponse{Text: p.Text, ShowAlert: true}); err != nil && firstErr == nil {
				firstErr = err
			}
			answered = true
		case p.Edit:
			if err := h.edit(c, actorID, p); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			if err := h.send(c, actorID, p); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	// Stop the button spinner when a callback produced no modal answer.
	if c.Callback() != nil && !answered {
		_ = c.Respond(&tele.CallbackResponse{})
	}

	if r.Notice != nil {
		h.notify(c, r.Notice)
	}
	return firstErr
}

func (h *Handler) send(c tele.Context, actorID int64, p flow.Prompt) error {
	markup := materializeKeyboard(p.Keyboard)
	if p.Track == flow.SlotNone {
		if markup == nil {
			return c.Send(p.Text)
		}
		return c.Send(p.Text, markup)
	}
	msg, err := tghelpers.SendTracked(c, p.Text, markup)
	if err != nil {
		return err
	}
	h.machine.TrackMessage(actorID, p.Track, msg.ID)
	return nil
}

func (h *Handler) edit(c tele.Context, actorID int64, p flow.Prompt) error {
	markup := materializeKeyboard(p.Keyboard)
	var err error
	if markup == nil {
		err = c.Edit(p.Text)
	} else {
		err = c.Edit(p.Text, markup)
	}
	if err != nil {
		return err
	}
	if p.Track != flow.SlotNone {
		if cb := c.Callback(); cb != nil && cb.Message != nil {
			h.machine.TrackMessage(actorID, p.Track, cb.Message.ID)
		}
	}
	return nil
}

// notify delivers the order notice to the operator group chat.
func (h *Handler) notify(c tele.Context, n *flow.Notice) {
	if h.groupChatID == 0 {
		return
	}
	chat := &tele.Chat{ID: h.groupChatID}
	if _, err := c.Bot().Send(chat, n.Text); err != nil {
		logger.TG.Warn("order notice failed",
			slog.String("event", "tg.notice"),
			slog.Int64("chat_id", h.groupChatID),
			slog.String("err", err.Error()),
		)
		return
	}
	if n.HasLocation {
		loc := &tele.Location{Lat: float32(n.Latitude), Lng: float32(n.Longitude)}
		if _, err := c.Bot().Send(chat, loc); err != nil {
			logger.TG.Warn("order location failed",
				slog.String("event", "tg.notice"),
				slog.Int64("chat_id", h.groupChatID),
				slog.String("err", err.Error()),
			)
		}
	}
}
