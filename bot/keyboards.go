package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/alchomarket/shopbot/core/telegram/keyboard"
	"github.com/alchomarket/shopbot/shop/flow"
)

// materializeKeyboard turns a keyboard affordance into telebot markup.
// A nil result means the message is sent without any markup change.
func materializeKeyboard(k flow.Keyboard) *tele.ReplyMarkup {
	switch k.Kind {
	case flow.KbNone:
		return nil
	case flow.KbRemove:
		return keyboard.RemoveKeyboard()
	case flow.KbMainMenu:
		return keyboard.ReplyButtons(
			[]string{btnOrder},
			[]string{btnMyOrders, btnAbout},
		)
	case flow.KbBack:
		return keyboard.ReplyButtons([]string{btnBack})
	case flow.KbCancel:
		return keyboard.ReplyButtons([]string{btnCancel})
	case flow.KbCartBack:
		return keyboard.ReplyButtons(
			[]string{btnCart},
			[]string{btnBack},
		)
	case flow.KbContact:
		return specialButtonMarkup(func(m *tele.ReplyMarkup) tele.Btn {
			return m.Contact(btnSharePhone)
		})
	case flow.KbLocation:
		return specialButtonMarkup(func(m *tele.ReplyMarkup) tele.Btn {
			return m.Location(btnShareLocation)
		})
	case flow.KbCategories:
		return categoryMarkup(k.Categories, btnCart, btnBack)
	case flow.KbAdminCategories:
		return categoryMarkup(k.Categories, "", btnCancel)
	case flow.KbAdminMenu:
		return keyboard.ReplyButtons(
			[]string{btnAdminProducts, btnAdminCategories},
			[]string{btnAdminUsers},
		)
	case flow.KbPager:
		return pagerMarkup(k)
	case flow.KbUserPager:
		return arrowsMarkup(k.Page, k.Pages)
	case flow.KbStepper:
		return stepperMarkup(k.Quantity)
	case flow.KbCart:
		return cartMarkup(k)
	case flow.KbAdd:
		markup := &tele.ReplyMarkup{}
		btn := markup.Data("➕ Add", actionUnique(k.Add), "add")
		markup.InlineKeyboard = [][]tele.InlineButton{{*btn.Inline()}}
		return markup
	case flow.KbDelete:
		markup := &tele.ReplyMarkup{}
		btn := markup.Data("🗑 Delete", actionUnique(k.Delete), itoa64(k.TargetID))
		markup.InlineKeyboard = [][]tele.InlineButton{{*btn.Inline()}}
		return markup
	}
	return nil
}

// specialButtonMarkup builds a one-off reply keyboard with a request
// button (contact or location) plus a back row.
func specialButtonMarkup(build func(*tele.ReplyMarkup) tele.Btn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(
		markup.Row(build(markup)),
		markup.Row(markup.Text(btnBack)),
	)
	return markup
}

// categoryMarkup lays category names out two per row and appends the
// given trailing buttons on a final row.
func categoryMarkup(names []string, extra, last string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	buttons := make([]tele.Btn, 0, len(names))
	for _, name := range names {
		buttons = append(buttons, markup.Text(name))
	}
	rows := keyboard.ChunkButtons(buttons, 2)
	tail := []tele.Btn{}
	if extra != "" {
		tail = append(tail, markup.Text(extra))
	}
	tail = append(tail, markup.Text(last))
	rows = append(rows, tail)

	teleRows := make([]tele.Row, len(rows))
	for i, row := range rows {
		teleRows[i] = markup.Row(row...)
	}
	markup.Reply(teleRows...)
	return markup
}

// pagerMarkup renders numbered selection buttons for the visible page
// plus pager arrows. Payloads carry global snapshot indexes so the
// machine resolves them against the snapshot, not the live catalog.
func pagerMarkup(k flow.Keyboard) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	numbers := make([]tele.Btn, 0, k.Count)
	for i := 0; i < k.Count; i++ {
		global := k.Start + i
		numbers = append(numbers, markup.Data(strconv.Itoa(global+1), cbItem, strconv.Itoa(global)))
	}
	rows := keyboard.ChunkButtons(numbers, 5)
	rows = append(rows, arrowsRow(markup, k.Page, k.Pages))
	if k.Add != "" {
		rows = append(rows, []tele.Btn{markup.Data("➕ Add", actionUnique(k.Add), "add")})
	}
	markup.InlineKeyboard = keyboard.ToInlineKeyboard(rows)
	return markup
}

func arrowsMarkup(page, pages int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = keyboard.ToInlineKeyboard([][]tele.Btn{arrowsRow(markup, page, pages)})
	return markup
}

func arrowsRow(markup *tele.ReplyMarkup, page, pages int) []tele.Btn {
	row := []tele.Btn{}
	if page > 1 {
		row = append(row, markup.Data("◀️", cbPage, strconv.Itoa(page-1)))
	}
	row = append(row, markup.Data(fmt.Sprintf("%d/%d", page, pages), cbNoop, "0"))
	if page < pages {
		row = append(row, markup.Data("▶️", cbPage, strconv.Itoa(page+1)))
	}
	return row
}

func stepperMarkup(quantity int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := [][]tele.Btn{
		{
			markup.Data("➖", cbDec, "1"),
			markup.Data(strconv.Itoa(quantity), cbNoop, "0"),
			markup.Data("➕", cbInc, "1"),
		},
		{markup.Data("🛒 Add to cart", cbToCart, "1")},
	}
	markup.InlineKeyboard = keyboard.ToInlineKeyboard(rows)
	return markup
}

func cartMarkup(k flow.Keyboard) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([][]tele.Btn, 0, len(k.Lines)+3)
	for _, line := range k.Lines {
		rows = append(rows, []tele.Btn{
			markup.Data("❌ "+line.Name, cbRemove, itoa64(line.ProductID)),
		})
	}
	rows = append(rows,
		[]tele.Btn{markup.Data("✅ Checkout", cbCheckout, "1")},
		[]tele.Btn{markup.Data("🛍 Continue shopping", cbContinue, "1")},
		[]tele.Btn{markup.Data("🗑 Clear cart", cbClear, "1")},
	)
	markup.InlineKeyboard = keyboard.ToInlineKeyboard(rows)
	return markup
}
