package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/entitypages/internal/accounts"
	"github.com/jask/entitypages/internal/page"
)

// listChrome is the number of screen rows not used by list rows.
const listChrome = 7

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.fail(a.page.OnLayout(a.ctx, m.Height-listChrome))
		a.syncCursor()
	case remoteChangeMsg:
		a.fail(a.page.HandleChange(a.ctx, m.ev))
		a.syncCursor()
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		if a.editing {
			return a.handleEditKey(m)
		}
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "tab":
		a.focus = (a.focus + 1) % 3
		return a, nil
	case "shift+tab":
		a.focus = (a.focus + 2) % 3
		return a, nil
	case "ctrl+s":
		a.status = ""
		if cmds, ok := a.sectionCommands(); ok {
			cmds.Save()
		} else {
			_, err := a.page.Save(a.ctx)
			a.fail(err)
		}
		a.syncCursor()
		return a, nil
	case "ctrl+d":
		if cmds, ok := a.sectionCommands(); ok {
			cmds.Delete()
			return a, nil
		}
		a.fail(a.page.Delete(a.ctx))
		return a, nil
	case "esc":
		if st := a.page.State(); st == page.StateNew || st == page.StateDirty {
			if cmds, ok := a.sectionCommands(); ok {
				cmds.Cancel()
			} else {
				a.fail(a.page.Cancel(a.ctx))
			}
			a.status = "changes discarded"
			a.syncCursor()
		}
		return a, nil
	case "n":
		if _, err := a.page.Create(a.ctx, ""); err != nil {
			a.fail(err)
			return a, nil
		}
		a.focus = focusDetail
		a.fieldCursor = 0
		return a, a.startEdit()
	case "c":
		if a.page.Current() == nil {
			return a, nil
		}
		a.clone = page.CloneOptions{Fields: true, Relations: true}
		a.modal = modalClone
		return a, nil
	case "/":
		a.search.SetValue(a.page.Adapter().Search())
		a.search.CursorEnd()
		a.modal = modalSearch
		return a, a.search.Focus()
	case "o":
		a.sortIdx = (a.sortIdx + 1) % len(a.sorts)
		a.fail(a.page.SortBy(a.ctx, a.sorts[a.sortIdx]...))
		a.syncCursor()
		return a, nil
	case "pgdown":
		a.fail(a.page.NextPage(a.ctx))
		a.cursor = 0
		return a, nil
	case "pgup":
		a.fail(a.page.PrevPage(a.ctx))
		a.cursor = 0
		return a, nil
	}

	switch a.focus {
	case focusDetail:
		return a.handleDetailKey(m)
	case focusAliases:
		return a.handleAliasKey(m)
	}
	return a.handleListKey(m)
}

// sectionCommands returns the page actions of the focused detail section.
func (a *App) sectionCommands() (page.Commands, bool) {
	if a.focus != focusDetail || a.fieldCursor >= len(a.fields) {
		return page.Commands{}, false
	}
	cmds := a.fields[a.fieldCursor].section.Commands()
	return cmds, cmds.Save != nil
}

func (a *App) handleListKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := a.page.Grid()
	switch m.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.moveTo(a.cursor - 1)
		} else if g.Offset > 0 {
			if a.guardUnsaved() {
				return a, nil
			}
			a.fail(a.page.PrevPage(a.ctx))
			a.moveTo(len(g.Rows) - 1)
		}
	case "down", "j":
		if a.cursor < len(g.Rows)-1 {
			a.moveTo(a.cursor + 1)
		} else if g.Offset+g.Limit < g.Total {
			if a.guardUnsaved() {
				return a, nil
			}
			a.fail(a.page.NextPage(a.ctx))
			a.moveTo(0)
		}
	case "enter":
		a.focus = focusDetail
	case "a":
		a.fail(a.sections.Aliases.Add(a.ctx))
	}
	return a, nil
}

// moveTo selects window row i unless there are unsaved edits.
func (a *App) moveTo(i int) {
	if a.guardUnsaved() {
		return
	}
	a.cursor = i
	a.fail(a.page.SelectRow(a.ctx, i))
}

func (a *App) guardUnsaved() bool {
	if st := a.page.State(); st == page.StateNew || st == page.StateDirty {
		a.status = "unsaved changes: ctrl+s to save, esc to discard"
		return true
	}
	return false
}

func (a *App) handleDetailKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.page.Current() == nil || len(a.fields) == 0 {
		return a, nil
	}
	switch m.String() {
	case "up", "k":
		if a.fieldCursor > 0 {
			a.fieldCursor--
		}
	case "down", "j":
		if a.fieldCursor < len(a.fields)-1 {
			a.fieldCursor++
		}
	case "enter", "e":
		f := a.fields[a.fieldCursor]
		if f.input.Field.Kind == page.FieldChoice {
			a.cycleChoice(f)
			return a, nil
		}
		return a, a.startEdit()
	}
	return a, nil
}

func (a *App) cycleChoice(f fieldRef) {
	choices := f.input.Field.Constraints.Choices
	if len(choices) == 0 {
		return
	}
	next := choices[0]
	for i, c := range choices {
		if c == f.input.Value {
			next = choices[(i+1)%len(choices)]
			break
		}
	}
	a.fail(a.page.SetFieldValue(f.section.Name(), f.input.Field.Name, next))
}

func (a *App) startEdit() tea.Cmd {
	if a.fieldCursor >= len(a.fields) {
		return nil
	}
	f := a.fields[a.fieldCursor]
	if f.input.Field.Kind == page.FieldChoice {
		return nil
	}
	a.editing = true
	a.input.SetValue(f.input.Value)
	a.input.CursorEnd()
	return a.input.Focus()
}

func (a *App) handleEditKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.editing = false
		a.input.Blur()
		return a, nil
	case "enter", "tab":
		f := a.fields[a.fieldCursor]
		if f.input.Value != a.input.Value() {
			a.fail(a.page.SetFieldValue(f.section.Name(), f.input.Field.Name, a.input.Value()))
		}
		a.editing = false
		a.input.Blur()
		if m.String() == "tab" && a.fieldCursor < len(a.fields)-1 {
			a.fieldCursor++
			return a, a.startEdit()
		}
		return a, nil
	case "ctrl+s":
		f := a.fields[a.fieldCursor]
		a.fail(a.page.SetFieldValue(f.section.Name(), f.input.Field.Name, a.input.Value()))
		a.editing = false
		a.input.Blur()
		return a.handleKey(m)
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	return a, cmd
}

func (a *App) handleAliasKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := a.sections.Aliases.Rows()
	switch m.String() {
	case "up", "k":
		if a.aliasCursor > 0 {
			a.aliasCursor--
		}
	case "down", "j":
		if a.aliasCursor < len(rows)-1 {
			a.aliasCursor++
		}
	case "a":
		a.fail(a.sections.Aliases.Add(a.ctx))
	case "e", "enter":
		if a.aliasCursor < len(rows) {
			a.fail(a.sections.Aliases.Edit(a.ctx, rows[a.aliasCursor].ID))
		}
	case "x":
		if a.aliasCursor < len(rows) {
			a.fail(a.sections.Aliases.Delete(a.ctx, rows[a.aliasCursor].ID))
		}
	}
	return a, nil
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := m.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.modal {
	case modalNotice:
		if key == "enter" || key == "esc" {
			a.notice = nil
			a.modal = modalNone
		}
	case modalConfirm:
		switch key {
		case "y", "enter":
			c := a.confirm
			a.confirm, a.modal = nil, modalNone
			c.yes()
			a.syncCursor()
		case "n", "esc":
			c := a.confirm
			a.confirm, a.modal = nil, modalNone
			if c.no != nil {
				c.no()
			}
		}
	case modalClone:
		switch key {
		case "f":
			a.clone.Fields = !a.clone.Fields
		case "r":
			a.clone.Relations = !a.clone.Relations
		case "enter":
			a.modal = modalNone
			if err := a.page.Clone(a.ctx, a.clone); err != nil && !errors.Is(err, page.ErrValidation) {
				a.fail(err)
			}
			a.focus = focusDetail
		case "esc":
			a.modal = modalNone
		}
	case modalSearch:
		switch key {
		case "enter":
			a.modal = modalNone
			a.search.Blur()
			a.cursor = 0
			a.fail(a.page.Search(a.ctx, a.search.Value()))
			a.syncCursor()
		case "esc":
			a.modal = modalNone
			a.search.Blur()
		default:
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(m)
			return a, cmd
		}
	case modalAlias:
		switch key {
		case "enter":
			form := a.aliasForm
			a.aliasForm, a.modal = nil, modalNone
			a.input.Blur()
			if a.input.Value() == "" {
				a.status = "alias pattern is required"
				return a, nil
			}
			child := form.child
			child.Pattern = a.input.Value()
			form.onConfirm(child)
		case "esc":
			a.aliasForm, a.modal = nil, modalNone
			a.input.Blur()
		default:
			var cmd tea.Cmd
			a.input, cmd = a.input.Update(m)
			return a, cmd
		}
	}
	return a, nil
}

// aliasCount is used by the view for the panel title.
func aliasCount(acct *accounts.Account) int {
	if acct == nil {
		return 0
	}
	return len(acct.Aliases)
}
