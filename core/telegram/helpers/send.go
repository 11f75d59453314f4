package helpers

import (
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/alchomarket/shopbot/core/logger"
)

// SendTracked sends a message and returns it so the caller can record
// the assigned message id.
func SendTracked(c tele.Context, text string, markup *tele.ReplyMarkup) (*tele.Message, error) {
	var opts []interface{}
	if markup != nil {
		opts = append(opts, markup)
	}
	return c.Bot().Send(c.Recipient(), text, opts...)
}

// DeleteMessage removes a previously sent message by id in the current
// chat. Failures are logged and swallowed: a message the user already
// deleted must not break the flow.
func DeleteMessage(c tele.Context, messageID int) {
	if messageID == 0 {
		return
	}
	chat := c.Chat()
	if chat == nil {
		return
	}
	msg := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chat.ID}
	if err := c.Bot().Delete(&msg); err != nil {
		ctx := BuildContext(c)
		logger.TG.LogAttrs(ctx, slog.LevelDebug, "delete failed",
			slog.String("event", "tg.delete"),
			slog.Int("message_id", messageID),
			slog.String("err", err.Error()),
		)
	}
}
