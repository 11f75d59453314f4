package middleware

import (
	"context"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/alchomarket/shopbot/core/logger"
	tghelpers "github.com/alchomarket/shopbot/core/telegram/helpers"
)

// LoggerMiddleware builds the per-update context (rid, update metadata)
// and logs a single summary line after the handler returns.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		chatID, userID := int64(0), int64(0)
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithRID(context.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		start := time.Now()
		err := next(c)

		// Handlers may have tagged the stored context since.
		if stored, ok := tghelpers.ContextFrom(c); ok {
			ctx = stored
		}

		messages, kb := GetCounters(c)
		attrs := []slog.Attr{
			slog.String("event", "update.handled"),
			slog.String("status", logger.Status(err)),
			slog.String("rid", logger.CompactRID(rid)),
			slog.Int("update_id", upd.ID),
			slog.Duration("duration", logger.Took(start)),
			slog.Int("messages", messages),
		}
		if hn := logger.HandlerFrom(ctx); hn != "" {
			attrs = append(attrs, slog.String("handler", hn))
		}
		if kb {
			attrs = append(attrs, slog.Bool("kb", true))
		}
		if userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", userID))
			if user != nil && user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
		}
		switch {
		case upd.Callback != nil:
			if data := upd.Callback.Data; data != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(data, 256)))
			}
		case upd.Message != nil:
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
		}
		logger.TG.LogAttrs(ctx, slog.LevelDebug, "update handled", attrs...)

		return err
	}
}
