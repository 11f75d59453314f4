package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchomarket/shopbot/shop/cart"
	"github.com/alchomarket/shopbot/shop/flow"
)

func TestClassifyTextCommands(t *testing.T) {
	cases := map[string]flow.Command{
		btnOrder:           flow.CmdOrder,
		btnMyOrders:        flow.CmdMyOrders,
		btnAbout:           flow.CmdAbout,
		btnBack:            flow.CmdBack,
		btnCancel:          flow.CmdCancel,
		btnCart:            flow.CmdCart,
		btnAdminProducts:   flow.CmdAdminProducts,
		btnAdminCategories: flow.CmdAdminCategories,
		btnAdminUsers:      flow.CmdAdminUsers,
	}
	for label, want := range cases {
		ev := classifyText(label)
		assert.Equal(t, flow.KindCommand, ev.Kind, label)
		assert.Equal(t, want, ev.Command, label)
	}
}

func TestClassifyTextFreeForm(t *testing.T) {
	ev := classifyText("Drinks")
	assert.Equal(t, flow.KindText, ev.Kind)
	assert.Equal(t, "Drinks", ev.Text)
}

func TestActionUniqueRoundTrip(t *testing.T) {
	assert.Equal(t, cbAddProduct, actionUnique(flow.ActionAddProduct))
	assert.Equal(t, cbAddCategory, actionUnique(flow.ActionAddCategory))
	assert.Equal(t, cbDelProduct, actionUnique(flow.ActionDeleteProduct))
	assert.Equal(t, cbDelCategory, actionUnique(flow.ActionDeleteCategory))
	assert.Equal(t, cbNoop, actionUnique(flow.ActionCheckout))
}

func TestPagerMarkupMiddlePage(t *testing.T) {
	markup := materializeKeyboard(flow.Keyboard{
		Kind:  flow.KbPager,
		Page:  2,
		Pages: 3,
		Count: 2,
		Start: 2,
	})
	require.NotNil(t, markup)

	// Row 0: numbered buttons carrying global indexes.
	require.GreaterOrEqual(t, len(markup.InlineKeyboard), 2)
	numbers := markup.InlineKeyboard[0]
	require.Len(t, numbers, 2)
	assert.Equal(t, "3", numbers[0].Text)
	assert.Contains(t, numbers[0].Data, "2")
	assert.Equal(t, "4", numbers[1].Text)

	// Arrow row: prev, label, next.
	arrows := markup.InlineKeyboard[1]
	require.Len(t, arrows, 3)
	assert.Equal(t, "◀️", arrows[0].Text)
	assert.Equal(t, "2/3", arrows[1].Text)
	assert.Equal(t, "▶️", arrows[2].Text)
}

func TestPagerMarkupEdges(t *testing.T) {
	first := materializeKeyboard(flow.Keyboard{Kind: flow.KbPager, Page: 1, Pages: 2, Count: 1})
	arrows := first.InlineKeyboard[len(first.InlineKeyboard)-1]
	require.Len(t, arrows, 2)
	assert.Equal(t, "1/2", arrows[0].Text)
	assert.Equal(t, "▶️", arrows[1].Text)

	only := materializeKeyboard(flow.Keyboard{Kind: flow.KbPager, Page: 1, Pages: 1, Count: 1})
	arrows = only.InlineKeyboard[len(only.InlineKeyboard)-1]
	require.Len(t, arrows, 1)
	assert.Equal(t, "1/1", arrows[0].Text)
}

func TestCartMarkupRows(t *testing.T) {
	markup := materializeKeyboard(flow.Keyboard{
		Kind: flow.KbCart,
		Lines: cart.Cart{
			{ProductID: 1, Name: "Tea", UnitPrice: 5000, Quantity: 1},
			{ProductID: 2, Name: "Coffee", UnitPrice: 12000, Quantity: 2},
		},
	})
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 5)
	assert.Equal(t, "❌ Tea", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "❌ Coffee", markup.InlineKeyboard[1][0].Text)
	assert.Equal(t, "✅ Checkout", markup.InlineKeyboard[2][0].Text)
	assert.Equal(t, "🛍 Continue shopping", markup.InlineKeyboard[3][0].Text)
	assert.Equal(t, "🗑 Clear cart", markup.InlineKeyboard[4][0].Text)
}

func TestStepperMarkup(t *testing.T) {
	markup := materializeKeyboard(flow.Keyboard{Kind: flow.KbStepper, Quantity: 3})
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	row := markup.InlineKeyboard[0]
	require.Len(t, row, 3)
	assert.Equal(t, "➖", row[0].Text)
	assert.Equal(t, "3", row[1].Text)
	assert.Equal(t, "➕", row[2].Text)
	assert.Equal(t, "🛒 Add to cart", markup.InlineKeyboard[1][0].Text)
}

func TestMainMenuMarkupIsReplyKeyboard(t *testing.T) {
	markup := materializeKeyboard(flow.Keyboard{Kind: flow.KbMainMenu})
	require.NotNil(t, markup)
	require.Len(t, markup.ReplyKeyboard, 2)
	assert.Equal(t, btnOrder, markup.ReplyKeyboard[0][0].Text)
}

func TestRemoveAndNoneMarkup(t *testing.T) {
	assert.Nil(t, materializeKeyboard(flow.Keyboard{Kind: flow.KbNone}))
	markup := materializeKeyboard(flow.Keyboard{Kind: flow.KbRemove})
	require.NotNil(t, markup)
	assert.True(t, markup.RemoveKeyboard)
}
