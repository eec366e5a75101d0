package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/entitypages/internal/accounts"
	"github.com/jask/entitypages/internal/page"
	"github.com/jask/entitypages/internal/session"
	"github.com/jask/entitypages/internal/store/memory"
)

func runeKey(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, a *App, msgs ...tea.Msg) {
	t.Helper()
	for _, msg := range msgs {
		next, _ := a.Update(msg)
		_, ok := next.(*App)
		require.True(t, ok, "Update returned %T", next)
	}
}

func typeText(t *testing.T, a *App, s string) {
	t.Helper()
	for _, r := range s {
		press(t, a, runeKey(string(r)))
	}
}

type harness struct {
	app  *App
	svc  *memory.Service[accounts.Account]
	sess *session.Memory
	ids  map[string]string
}

func newHarness(t *testing.T, names ...string) *harness {
	t.Helper()
	ctx := context.Background()
	h := &harness{svc: accounts.NewMemoryService(), sess: session.NewMemory(), ids: map[string]string{}}
	for _, n := range names {
		saved, err := h.svc.Save(ctx, accounts.New(n))
		require.NoError(t, err)
		h.ids[n] = saved.ID
	}
	app, err := New(ctx, Options{Service: h.svc, Session: h.sess, PageSize: 10, Logger: zerolog.Nop()})
	require.NoError(t, err)
	h.app = app
	return h
}

func (h *harness) current() string {
	if c := h.app.Page().Current(); c != nil {
		return c.Name
	}
	return ""
}

func TestNewSelectsFirstAccount(t *testing.T) {
	h := newHarness(t, "Alpha", "Bravo", "Charlie")
	require.Equal(t, "Alpha", h.current())
	require.Len(t, h.app.Page().Grid().Rows, 3)

	press(t, h.app, runeKey("j"))
	require.Equal(t, "Bravo", h.current())
	require.Equal(t, 1, h.app.cursor)
	id, err := h.sess.ActiveID(context.Background(), accounts.KindName)
	require.NoError(t, err)
	require.Equal(t, h.ids["Bravo"], id)

	view := h.app.View()
	require.Contains(t, view, "Accounts")
	require.Contains(t, view, "Charlie")
}

func TestCreateAndSave(t *testing.T) {
	h := newHarness(t, "Alpha")

	press(t, h.app, runeKey("n"))
	require.Equal(t, page.StateNew, h.app.Page().State())
	require.True(t, h.app.editing)
	require.Equal(t, focusDetail, h.app.focus)

	typeText(t, h.app, "Delta")
	press(t, h.app, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, h.app.editing)

	// moving away is refused while unsaved
	press(t, h.app, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, runeKey("j"))
	require.Equal(t, page.StateNew, h.app.Page().State())

	press(t, h.app, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, page.StateSaved, h.app.Page().State())
	require.Equal(t, "Delta", h.current())
	require.Equal(t, 2, h.svc.Len())
	require.Equal(t, "Saved Delta", h.app.status)
	require.Equal(t, 1, h.app.cursor)
}

func TestSaveWithMissingNameShowsValidation(t *testing.T) {
	h := newHarness(t, "Alpha")

	press(t, h.app, runeKey("n"), tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, h.app.editing)
	press(t, h.app, tea.KeyMsg{Type: tea.KeyCtrlS})

	require.Equal(t, page.StateNew, h.app.Page().State())
	require.Equal(t, modalNone, h.app.modal)
	require.Contains(t, h.app.status, "Check the highlighted fields")
	require.Equal(t, 1, h.svc.Len())

	press(t, h.app, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, "Alpha", h.current())
}

func TestChoiceFieldCycles(t *testing.T) {
	h := newHarness(t, "Alpha")
	press(t, h.app, tea.KeyMsg{Type: tea.KeyTab}, runeKey("j"), runeKey("j"))
	require.Equal(t, "account_type", h.app.fields[h.app.fieldCursor].input.Field.Name)

	press(t, h.app, tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, h.app.editing)
	require.Equal(t, page.StateDirty, h.app.Page().State())
	require.Equal(t, accounts.Types[1], h.app.sections.Details.Value("account_type"))

	press(t, h.app, tea.KeyMsg{Type: tea.KeyCtrlS})
	stored, err := h.svc.GetByID(context.Background(), h.ids["Alpha"])
	require.NoError(t, err)
	require.Equal(t, accounts.Types[1], stored.AccountType)
}

func TestDeleteAsksFirst(t *testing.T) {
	h := newHarness(t, "Alpha", "Bravo")

	press(t, h.app, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Equal(t, modalConfirm, h.app.modal)
	require.Contains(t, h.app.View(), "Delete Alpha?")

	press(t, h.app, runeKey("n"))
	require.Equal(t, 2, h.svc.Len())

	press(t, h.app, tea.KeyMsg{Type: tea.KeyCtrlD}, runeKey("y"))
	require.Equal(t, modalNone, h.app.modal)
	require.Equal(t, 1, h.svc.Len())
	require.Equal(t, "Bravo", h.current())
	require.Equal(t, 0, h.app.cursor)
}

func TestSearchNarrowsList(t *testing.T) {
	h := newHarness(t, "Alpha", "Bravo", "Charlie")

	press(t, h.app, runeKey("/"))
	require.Equal(t, modalSearch, h.app.modal)
	typeText(t, h.app, "brav")
	press(t, h.app, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, modalNone, h.app.modal)
	require.Len(t, h.app.Page().Grid().Rows, 1)
	require.Equal(t, "Bravo", h.current())
}

func TestSortCycles(t *testing.T) {
	h := newHarness(t, "Bravo", "alpha", "Charlie")
	press(t, h.app, runeKey("o"))
	rows := h.app.Page().Grid().Rows
	require.Equal(t, "alpha", rows[0].Name)

	press(t, h.app, runeKey("o"))
	rows = h.app.Page().Grid().Rows
	require.Equal(t, "Charlie", rows[0].Name)
}

func TestAliasAddThroughModal(t *testing.T) {
	h := newHarness(t, "Alpha")
	press(t, h.app, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusAliases, h.app.focus)

	press(t, h.app, runeKey("a"))
	require.Equal(t, modalAlias, h.app.modal)
	typeText(t, h.app, "ALPHA*")
	press(t, h.app, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, modalNone, h.app.modal)
	require.Len(t, h.app.Page().Current().Aliases, 1)
	stored, err := h.svc.GetByID(context.Background(), h.ids["Alpha"])
	require.NoError(t, err)
	require.Equal(t, "ALPHA*", stored.Aliases[0].Pattern)

	press(t, h.app, runeKey("x"))
	require.Equal(t, modalConfirm, h.app.modal)
	press(t, h.app, runeKey("y"))
	require.Empty(t, h.app.Page().Current().Aliases)
}

func TestAliasOnUnsavedAccountIsRefused(t *testing.T) {
	h := newHarness(t)
	press(t, h.app, runeKey("n"), tea.KeyMsg{Type: tea.KeyEsc}, tea.KeyMsg{Type: tea.KeyTab}, runeKey("a"))
	require.Equal(t, modalNone, h.app.modal)
	require.Equal(t, "Save first", h.app.status)
}

func TestCloneLoadsUnsavedCopy(t *testing.T) {
	h := newHarness(t, "Alpha")
	press(t, h.app, runeKey("c"))
	require.Equal(t, modalClone, h.app.modal)
	press(t, h.app, runeKey("r"))
	require.False(t, h.app.clone.Relations)
	press(t, h.app, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, page.StateNew, h.app.Page().State())
	require.Equal(t, "Alpha", h.current())
	require.Empty(t, h.app.Page().Current().ID)
	require.Equal(t, 1, h.svc.Len())
}

func TestConflictOpensBlockingNotice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "Alpha")

	other, err := h.svc.GetByID(ctx, h.ids["Alpha"])
	require.NoError(t, err)
	other.Notes = "changed elsewhere"
	_, err = h.svc.Save(ctx, other)
	require.NoError(t, err)

	press(t, h.app, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, h.app.editing)
	typeText(t, h.app, "2")
	press(t, h.app, tea.KeyMsg{Type: tea.KeyCtrlS})

	require.Equal(t, modalNotice, h.app.modal)
	require.True(t, strings.HasPrefix(h.app.notice.Title, "Someone else changed"))
	require.Equal(t, page.StateDirty, h.app.Page().State())

	press(t, h.app, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, modalNone, h.app.modal)
	require.Equal(t, page.StateSaved, h.app.Page().State())
	require.Equal(t, "changed elsewhere", h.app.Page().Current().Notes)
}

func TestRemoteDeleteMovesSelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "Alpha", "Bravo")
	gone, err := h.svc.GetByID(ctx, h.ids["Alpha"])
	require.NoError(t, err)
	require.NoError(t, h.svc.Delete(ctx, gone))

	press(t, h.app, RemoteChange(page.ChangeEvent{Kind: accounts.KindName, ID: h.ids["Alpha"], Action: page.ActionDeleted}))
	require.Equal(t, "Bravo", h.current())
	require.Len(t, h.app.Page().Grid().Rows, 1)
}

func TestWindowSizeResizesList(t *testing.T) {
	h := newHarness(t, "A1", "A2", "A3", "A4", "A5")
	press(t, h.app, tea.WindowSizeMsg{Width: 100, Height: listChrome + 2})
	require.Equal(t, 2, h.app.Page().Grid().Limit)
	require.Len(t, h.app.Page().Grid().Rows, 2)

	press(t, h.app, runeKey("j"), runeKey("j"))
	require.Equal(t, "A3", h.current())
	require.Equal(t, 2, h.app.Page().Grid().Offset)
	require.Equal(t, 0, h.app.cursor)
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	_, cmd := h.app.Update(runeKey("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestListCellsFitColumns(t *testing.T) {
	h := newHarness(t, "会計会計会計会計会計会計会計会計", "Bravo")
	view := h.app.listView()

	width := 0
	for _, c := range accounts.Columns() {
		width += c.Width + 2
	}
	width += lockedWidth + 2

	found := false
	for _, line := range strings.Split(view, "\n") {
		require.LessOrEqual(t, lipgloss.Width(line), width, "line %q", line)
		found = found || strings.Contains(line, "会計")
	}
	require.True(t, found)
	require.Contains(t, view, "Bravo")
}

func TestLockedAccountRefusesAliasesQuietly(t *testing.T) {
	ctx := context.Background()
	svc := accounts.NewMemoryService()
	cash := accounts.New("Cash")
	cash.Locked = true
	_, err := svc.Save(ctx, cash)
	require.NoError(t, err)
	app, err := New(ctx, Options{Service: svc, Session: session.NewMemory(), PageSize: 10, Logger: zerolog.Nop()})
	require.NoError(t, err)

	press(t, app, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, runeKey("a"))
	require.Equal(t, modalNone, app.modal)
	require.Nil(t, app.notice)
	require.Empty(t, app.status)
	require.Empty(t, app.Page().Current().Aliases)
	require.Contains(t, app.View(), lockedMarker)
}

func TestDetailFocusUsesSectionCommands(t *testing.T) {
	h := newHarness(t, "Alpha", "Bravo")
	press(t, h.app, tea.KeyMsg{Type: tea.KeyTab})
	_, ok := h.app.sectionCommands()
	require.True(t, ok)

	press(t, h.app, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Equal(t, modalConfirm, h.app.modal)
	press(t, h.app, runeKey("y"))
	require.Equal(t, 1, h.svc.Len())
	require.Equal(t, "Bravo", h.current())

	press(t, h.app, tea.KeyMsg{Type: tea.KeyShiftTab})
	_, ok = h.app.sectionCommands()
	require.False(t, ok)
}
