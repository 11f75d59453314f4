package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const (
	keySent   = "sent"
	keySentKB = "sent_kb"
)

// metricsContext wraps tele.Context to count outgoing messages and note
// whether any carried a keyboard. The logging middleware reads the counters
// after the handler returns.
type metricsContext struct{ tele.Context }

func (m metricsContext) counted(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	n, _ := m.Get(keySent).(int)
	m.Set(keySent, n+1)
	if hasKeyboard(opts) {
		m.Set(keySentKB, true)
	}
	return nil
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	return m.counted(m.Context.Send(what, opts...), opts)
}

func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	return m.counted(m.Context.Reply(what, opts...), opts)
}

func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	return m.counted(m.Context.Edit(what, opts...), opts)
}

func (m metricsContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.counted(m.Context.EditOrSend(what, opts...), opts)
}

func (m metricsContext) EditOrReply(what interface{}, opts ...interface{}) error {
	return m.counted(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware instruments the context so per-update summaries
// can report how many messages a handler produced.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keySent, 0)
		c.Set(keySentKB, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads the message count and keyboard flag back out.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(keySent).(int)
	kb, _ := c.Get(keySentKB).(bool)
	return msgs, kb
}
