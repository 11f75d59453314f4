package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alchomarket/shopbot/shop/pagination"
	"github.com/alchomarket/shopbot/shop/session"
)

func (m *Machine) enterAdmin(s *session.Session, actorID int64) (Render, error) {
	if !m.IsAdmin(actorID) {
		var r Render
		r.text("❌ This command is only available to administrators.")
		return r, nil
	}
	s.Role = session.RoleAdmin
	return m.adminMenu(s), nil
}

func (m *Machine) adminMenu(s *session.Session) Render {
	s.Data.Admin = nil
	s.State = session.StateAdminMenu
	var r Render
	r.prompt(Prompt{Text: "🤖 Control panel:", Keyboard: Keyboard{Kind: KbAdminMenu}})
	return r
}

func (m *Machine) handleAdmin(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind == KindCommand {
		switch ev.Command {
		case CmdCancel:
			return m.adminMenu(s), nil
		case CmdBack:
			var r Render
			if prev, ok := adminBack[s.State]; ok && prev == session.StateAdminMenu {
				r.deleteMsg(&s.Admin().ListMessageID)
			}
			menu := m.adminMenu(s)
			menu.Deletes = append(r.Deletes, menu.Deletes...)
			return menu, nil
		}
	}

	// The "add" entry points are reachable from the menu and from the
	// corresponding listings alike.
	if ev.Kind == KindAction {
		switch ev.Action {
		case ActionAddProduct:
			if s.State == session.StateAdminMenu || s.State == session.StateAdminSelectingProduct {
				return m.beginAddProduct(s), nil
			}
		case ActionAddCategory:
			if s.State == session.StateAdminMenu || s.State == session.StateAdminSelectingCategory {
				return m.beginAddCategory(s), nil
			}
		}
	}

	switch s.State {
	case session.StateAdminMenu:
		return m.adminMenuInput(ctx, s, ev)
	case session.StateAdminSelectingProduct:
		return m.adminSelectProduct(ctx, s, ev)
	case session.StateAdminViewingProduct:
		return m.adminViewingProduct(ctx, s, ev)
	case session.StateAdminEnteringProductName:
		return m.adminProductName(ctx, s, ev)
	case session.StateAdminSelectingProdCat:
		return m.adminProductCategory(s, ev)
	case session.StateAdminEnteringProductPrice:
		return m.adminProductPrice(ctx, s, ev)
	case session.StateAdminSelectingCategory:
		return m.adminSelectCategory(ctx, s, ev)
	case session.StateAdminViewingCategory:
		return m.adminViewingCategory(ctx, s, ev)
	case session.StateAdminEnteringCategoryName:
		return m.adminCategoryName(ctx, s, ev)
	case session.StateAdminViewingUserList:
		return m.adminUserList(s, ev)
	}
	var r Render
	r.text(msgInvalidInput)
	return r, nil
}

func (m *Machine) adminMenuInput(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindCommand {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	switch ev.Command {
	case CmdAdminProducts:
		return m.adminProductListing(ctx, s)
	case CmdAdminCategories:
		return m.adminCategoryListing(ctx, s)
	case CmdAdminUsers:
		return m.adminUserListing(ctx, s)
	}
	var r Render
	r.text(msgInvalidInput)
	return r, nil
}

// adminProductListing snapshots the whole catalog and renders its
// current page with an extra "add product" button.
func (m *Machine) adminProductListing(ctx context.Context, s *session.Session) (Render, error) {
	products, err := m.store.ListAllProducts(ctx)
	if err != nil {
		return failRender(), storeErr("list products", err)
	}
	var r Render
	if len(products) == 0 {
		r.prompt(Prompt{Text: "⚠️ No products.", Keyboard: Keyboard{Kind: KbAdd, Add: ActionAddProduct}})
		return r, nil
	}
	draft := s.Admin()
	draft.Products = products
	draft.Page = 1
	s.State = session.StateAdminSelectingProduct

	r.prompt(Prompt{Text: "Product list:", Keyboard: Keyboard{Kind: KbBack}})
	r.prompt(m.adminProductPagePrompt(s, false))
	return r, nil
}

func (m *Machine) adminProductPagePrompt(s *session.Session, edit bool) Prompt {
	draft := s.Admin()
	page := pagination.Paginate(draft.Products, m.cfg.PageSize, draft.Page)

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d\n\n", page.Number, page.Total)
	for i, p := range page.Items {
		fmt.Fprintf(&b, "%d. %s - %s\n", page.Start+i+1, p.Name, m.price(p.Price))
	}
	b.WriteString("\nPick a product to edit")

	return Prompt{
		Text: b.String(),
		Keyboard: Keyboard{
			Kind:  KbPager,
			Page:  page.Number,
			Pages: page.Total,
			Count: len(page.Items),
			Start: page.Start,
			Add:   ActionAddProduct,
		},
		Edit:  edit,
		Track: SlotAdminList,
	}
}

func (m *Machine) adminSelectProduct(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	draft := s.Admin()
	switch ev.Kind {
	case KindPage:
		if ev.Page < 1 || ev.Page > pagination.TotalPages(len(draft.Products), m.cfg.PageSize) {
			return Render{}, nil
		}
		draft.Page = ev.Page
		var r Render
		r.prompt(m.adminProductPagePrompt(s, true))
		return r, nil
	case KindSelect:
		if ev.Index < 0 || ev.Index >= len(draft.Products) {
			return Render{}, nil
		}
		picked := draft.Products[ev.Index]
		draft.Product = &picked
		s.State = session.StateAdminViewingProduct

		categoryName := "-"
		if cat, err := m.store.GetCategory(ctx, picked.CategoryID); err == nil && cat != nil {
			categoryName = cat.Name
		}
		text := fmt.Sprintf("ID: %d\nName: %s\nCategory: %s\nPrice: %s",
			picked.ID, picked.Name, categoryName, m.price(picked.Price))
		var r Render
		r.prompt(Prompt{
			Text:     text,
			Keyboard: Keyboard{Kind: KbDelete, Delete: ActionDeleteProduct, TargetID: picked.ID},
			Edit:     true,
			Track:    SlotAdminList,
		})
		return r, nil
	}
	var r Render
	r.text(msgInvalidInput)
	return r, nil
}

func (m *Machine) adminViewingProduct(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindAction || ev.Action != ActionDeleteProduct {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	deleted, err := m.store.DeleteProduct(ctx, ev.TargetID)
	if err != nil {
		return failRender(), storeErr("delete product", err)
	}
	var r Render
	if deleted {
		r.prompt(Prompt{Text: "✅ Product deleted.", Edit: true})
	} else {
		// Vanished between listing and click; recover by re-listing.
		r.prompt(Prompt{Text: "⚠️ Product not found.", Edit: true})
	}
	listing, lerr := m.adminProductListing(ctx, s)
	r.Deletes = append(r.Deletes, listing.Deletes...)
	r.Prompts = append(r.Prompts, listing.Prompts...)
	return r, lerr
}

func (m *Machine) beginAddProduct(s *session.Session) Render {
	var r Render
	r.deleteMsg(&s.Admin().ListMessageID)
	s.State = session.StateAdminEnteringProductName
	r.prompt(Prompt{Text: "Enter the new product name:", Keyboard: Keyboard{Kind: KbCancel}})
	return r
}

func (m *Machine) adminProductName(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindText || strings.TrimSpace(ev.Text) == "" {
		var r Render
		r.text("Enter the new product name:")
		return r, nil
	}
	cats, err := m.store.ListCategories(ctx)
	if err != nil {
		return failRender(), storeErr("list categories", err)
	}
	if len(cats) == 0 {
		var r Render
		r.text("⚠️ No categories yet!")
		menu := m.adminMenu(s)
		r.Prompts = append(r.Prompts, menu.Prompts...)
		return r, nil
	}
	draft := s.Admin()
	draft.ProductName = strings.TrimSpace(ev.Text)
	draft.Categories = cats
	s.State = session.StateAdminSelectingProdCat

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	var r Render
	r.prompt(Prompt{Text: "Choose a category for the product:", Keyboard: Keyboard{Kind: KbAdminCategories, Categories: names}})
	return r, nil
}

func (m *Machine) adminProductCategory(s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindText {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	draft := s.Admin()
	for _, c := range draft.Categories {
		if c.Name == ev.Text {
			draft.ProductCategoryID = c.ID
			s.State = session.StateAdminEnteringProductPrice
			var r Render
			r.prompt(Prompt{Text: "Enter the new product price:", Keyboard: Keyboard{Kind: KbCancel}})
			return r, nil
		}
	}
	var r Render
	r.text("❌ Category not found. Try again.")
	return r, nil
}

func (m *Machine) adminProductPrice(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	var r Render
	if ev.Kind != KindText {
		r.text(msgInvalidInput)
		return r, nil
	}
	price, err := strconv.ParseInt(strings.TrimSpace(ev.Text), 10, 64)
	if err != nil || price < 0 {
		r.text("❌ Please enter a valid price.")
		return r, nil
	}
	draft := s.Admin()
	if err := m.store.AddProduct(ctx, draft.ProductCategoryID, draft.ProductName, price); err != nil {
		return failRender(), storeErr("add product", err)
	}
	r.prompt(Prompt{Text: "✅ New product added!", Keyboard: Keyboard{Kind: KbRemove}})
	menu := m.adminMenu(s)
	r.Prompts = append(r.Prompts, menu.Prompts...)
	return r, nil
}

func (m *Machine) adminCategoryListing(ctx context.Context, s *session.Session) (Render, error) {
	cats, err := m.store.ListCategories(ctx)
	if err != nil {
		return failRender(), storeErr("list categories", err)
	}
	var r Render
	if len(cats) == 0 {
		r.prompt(Prompt{Text: "⚠️ No categories.", Keyboard: Keyboard{Kind: KbAdd, Add: ActionAddCategory}})
		return r, nil
	}
	draft := s.Admin()
	draft.Categories = cats
	draft.Page = 1
	s.State = session.StateAdminSelectingCategory

	r.prompt(Prompt{Text: "Category list:", Keyboard: Keyboard{Kind: KbBack}})
	r.prompt(m.adminCategoryPagePrompt(s, false))
	return r, nil
}

func (m *Machine) adminCategoryPagePrompt(s *session.Session, edit bool) Prompt {
	draft := s.Admin()
	page := pagination.Paginate(draft.Categories, m.cfg.PageSize, draft.Page)

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d\n\n", page.Number, page.Total)
	for i, c := range page.Items {
		fmt.Fprintf(&b, "%d. %s\n", page.Start+i+1, c.Name)
	}
	b.WriteString("\nPick a category to edit")

	return Prompt{
		Text: b.String(),
		Keyboard: Keyboard{
			Kind:  KbPager,
			Page:  page.Number,
			Pages: page.Total,
			Count: len(page.Items),
			Start: page.Start,
			Add:   ActionAddCategory,
		},
		Edit:  edit,
		Track: SlotAdminList,
	}
}

func (m *Machine) adminSelectCategory(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	draft := s.Admin()
	switch ev.Kind {
	case KindPage:
		if ev.Page < 1 || ev.Page > pagination.TotalPages(len(draft.Categories), m.cfg.PageSize) {
			return Render{}, nil
		}
		draft.Page = ev.Page
		var r Render
		r.prompt(m.adminCategoryPagePrompt(s, true))
		return r, nil
	case KindSelect:
		if ev.Index < 0 || ev.Index >= len(draft.Categories) {
			return Render{}, nil
		}
		picked := draft.Categories[ev.Index]
		draft.Category = &picked
		s.State = session.StateAdminViewingCategory

		var r Render
		r.prompt(Prompt{
			Text:     fmt.Sprintf("ID: %d\nName: %s", picked.ID, picked.Name),
			Keyboard: Keyboard{Kind: KbDelete, Delete: ActionDeleteCategory, TargetID: picked.ID},
			Edit:     true,
			Track:    SlotAdminList,
		})
		return r, nil
	}
	var r Render
	r.text(msgInvalidInput)
	return r, nil
}

func (m *Machine) adminViewingCategory(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindAction || ev.Action != ActionDeleteCategory {
		var r Render
		r.text(msgInvalidInput)
		return r, nil
	}
	deleted, err := m.store.DeleteCategory(ctx, ev.TargetID)
	if err != nil {
		return failRender(), storeErr("delete category", err)
	}
	var r Render
	if deleted {
		r.prompt(Prompt{Text: "✅ Category deleted.", Edit: true})
	} else {
		r.prompt(Prompt{Text: "⚠️ Category not found.", Edit: true})
	}
	listing, lerr := m.adminCategoryListing(ctx, s)
	r.Deletes = append(r.Deletes, listing.Deletes...)
	r.Prompts = append(r.Prompts, listing.Prompts...)
	return r, lerr
}

func (m *Machine) beginAddCategory(s *session.Session) Render {
	var r Render
	r.deleteMsg(&s.Admin().ListMessageID)
	s.State = session.StateAdminEnteringCategoryName
	r.prompt(Prompt{Text: "Enter the new category name:", Keyboard: Keyboard{Kind: KbCancel}})
	return r
}

func (m *Machine) adminCategoryName(ctx context.Context, s *session.Session, ev Event) (Render, error) {
	if ev.Kind != KindText || strings.TrimSpace(ev.Text) == "" {
		var r Render
		r.text("Enter the new category name:")
		return r, nil
	}
	if err := m.store.AddCategory(ctx, strings.TrimSpace(ev.Text)); err != nil {
		return failRender(), storeErr("add category", err)
	}
	var r Render
	r.prompt(Prompt{Text: "✅ New category added!", Keyboard: Keyboard{Kind: KbRemove}})
	menu := m.adminMenu(s)
	r.Prompts = append(r.Prompts, menu.Prompts...)
	return r, nil
}

func (m *Machine) adminUserListing(ctx context.Context, s *session.Session) (Render, error) {
	users, err := m.store.ListUsers(ctx)
	if err != nil {
		return failRender(), storeErr("list users", err)
	}
	var r Render
	if len(users) == 0 {
		r.text("⚠️ No users yet.")
		return r, nil
	}
	draft := s.Admin()
	draft.Users = users
	draft.Page = 1
	s.State = session.StateAdminViewingUserList

	r.prompt(Prompt{Text: "User list:", Keyboard: Keyboard{Kind: KbBack}})
	r.prompt(m.adminUserPagePrompt(s, false))
	return r, nil
}

func (m *Machine) adminUserPagePrompt(s *session.Session, edit bool) Prompt {
	draft := s.Admin()
	page := pagination.Paginate(draft.Users, m.cfg.UsersPageSize, draft.Page)

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d\n\n", page.Number, page.Total)
	for i, u := range page.Items {
		fmt.Fprintf(&b, "%d. %s - ID: %d\n", page.Start+i+1, u.Username, u.ID)
	}

	return Prompt{
		Text:     b.String(),
		Keyboard: Keyboard{Kind: KbUserPager, Page: page.Number, Pages: page.Total},
		Edit:     edit,
		Track:    SlotAdminList,
	}
}

func (m *Machine) adminUserList(s *session.Session, ev Event) (Render, error) {
	draft := s.Admin()
	if ev.Kind == KindPage {
		if ev.Page < 1 || ev.Page > pagination.TotalPages(len(draft.Users), m.cfg.UsersPageSize) {
			return Render{}, nil
		}
		draft.Page = ev.Page
		var r Render
		r.prompt(m.adminUserPagePrompt(s, true))
		return r, nil
	}
	var r Render
	r.text(msgInvalidInput)
	return r, nil
}
