package bot

import (
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/alchomarket/shopbot/core/config"
	"github.com/alchomarket/shopbot/core/telegram"
	"github.com/alchomarket/shopbot/core/telegram/middleware"
	"github.com/alchomarket/shopbot/shop/flow"
)

// BuildRunOptions assembles the full transport wiring for RunTelegram:
// middleware chain, routes, and the published command menu.
func BuildRunOptions(cfg *coreconfig.Config, machine *flow.Machine) telegram.RunOptions {
	h := NewHandler(machine, cfg.Telegram.GroupChatID)

	// The machine rejects non-admins itself; the route guard stops them
	// one layer earlier so admin handlers never run for strangers.
	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminIDs: cfg.Telegram.AdminIDs,
		OnReject: func(c tele.Context) error {
			return c.Send("❌ This command is only available to administrators.")
		},
	})

	return telegram.RunOptions{
		Config:      cfg,
		Middlewares: telegram.DefaultMiddlewares(cfg, nil),
		Routes: []telegram.Route{
			{Endpoint: "/start", Handler: h.onStart},
			{Endpoint: "/admin", Handler: h.onAdmin, Middlewares: []tele.MiddlewareFunc{adminOnly}},
			{Endpoint: tele.OnText, Handler: h.onText},
			{Endpoint: tele.OnContact, Handler: h.onContact},
			{Endpoint: tele.OnLocation, Handler: h.onLocation},
			{Endpoint: tele.OnCallback, Handler: h.onCallback},
		},
		Commands: []tele.Command{
			{Text: "/start", Description: "Open the shop"},
		},
	}
}
