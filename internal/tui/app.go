package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jask/entitypages/internal/accounts"
	"github.com/jask/entitypages/internal/page"
)

// App hosts the accounts page.
type App struct {
	ctx      context.Context
	page     *page.Controller[accounts.Account]
	sections *accounts.Sections
	fields   []fieldRef
	sorts    [][]page.SortOrder
	currency string
	log      zerolog.Logger

	focus       focusArea
	cursor      int
	fieldCursor int
	aliasCursor int
	sortIdx     int
	editing     bool
	input       textinput.Model
	search      textinput.Model
	table       table.Model

	modal     modalState
	confirm   *pendingConfirm
	aliasForm *pendingAlias
	clone     page.CloneOptions
	notice    *page.Notice
	status    string
	width     int
	height    int
}

// Options configures New.
type Options struct {
	Service        page.EntityService[accounts.Account]
	Session        page.SessionService
	Sink           page.EventSink
	PageSize       int
	CurrencySymbol string
	Logger         zerolog.Logger
}

type focusArea int

const (
	focusList focusArea = iota
	focusDetail
	focusAliases
)

type modalState string

const (
	modalNone    modalState = ""
	modalConfirm modalState = "confirm"
	modalAlias   modalState = "alias"
	modalClone   modalState = "clone"
	modalSearch  modalState = "search"
	modalNotice  modalState = "notice"
)

// fieldRef addresses one editable input of the detail view.
type fieldRef struct {
	section *page.FieldSection[accounts.Account]
	input   *page.Input[accounts.Account]
}

type pendingConfirm struct {
	prompt  string
	yes, no func()
}

type pendingAlias struct {
	title     string
	child     accounts.Alias
	onConfirm func(accounts.Alias)
}

type remoteChangeMsg struct{ ev page.ChangeEvent }

// RemoteChange wraps a change published by another instance for Program.Send.
func RemoteChange(ev page.ChangeEvent) tea.Msg { return remoteChangeMsg{ev: ev} }

var (
	_ page.Notifier                  = (*App)(nil)
	_ page.Confirmer                 = (*App)(nil)
	_ page.ChildForm[accounts.Alias] = (*App)(nil)
)

// New builds the accounts page, enters it and restores the last selection.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}
	a := &App{
		ctx:      ctx,
		currency: opts.CurrencySymbol,
		log:      opts.Logger,
		input:    textinput.New(),
		search:   textinput.New(),
		sorts: [][]page.SortOrder{
			nil,
			{{Field: "name"}},
			{{Field: "name", Direction: page.Descending}},
			{{Field: "institution"}, {Field: "name"}},
			{{Field: "type"}, {Field: "name"}},
			{{Field: "currency"}, {Field: "name"}},
		},
	}
	a.search.Prompt = "/"
	a.search.Placeholder = "search accounts"
	a.input.Prompt = ""
	a.table = table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Selected.Bold(true)
	a.table.SetStyles(styles)

	a.sections = accounts.NewSections(opts.Service, a)
	c, err := page.NewController(page.Config[accounts.Account]{
		Kind:      accounts.Kind(),
		Service:   opts.Service,
		Session:   opts.Session,
		Columns:   accounts.Columns(),
		Sections:  a.sections.All(),
		Notifier:  a,
		Confirmer: a,
		Sink:      opts.Sink,
		Hooks:     accounts.Hooks(),
		PageSize:  opts.PageSize,
		Logger:    &opts.Logger,
		Listeners: []func(page.SelectionEvent[accounts.Account]){a.onSelect},
	})
	if err != nil {
		return nil, err
	}
	a.page = c
	c.OnAttach()
	if err := c.OnEnter(ctx); err != nil {
		return nil, fmt.Errorf("enter accounts: %w", err)
	}
	for _, s := range []*page.FieldSection[accounts.Account]{a.sections.Details, a.sections.Balances} {
		for _, in := range s.Form().Inputs() {
			a.fields = append(a.fields, fieldRef{section: s, input: in})
		}
	}
	a.syncCursor()
	return a, nil
}

// Page exposes the controller.
func (a *App) Page() *page.Controller[accounts.Account] { return a.page }

func (a *App) Init() tea.Cmd { return nil }

// Notify implements page.Notifier. Blocking notices open a modal.
func (a *App) Notify(n page.Notice) {
	a.log.Debug().Stringer("level", n.Level).Str("title", n.Title).Msg("notice")
	if n.Blocking {
		a.notice = &n
		a.modal = modalNotice
		return
	}
	a.status = n.Title
	if n.Level == page.LevelValidation {
		for _, fe := range n.Fields {
			a.status += "; " + fe.String()
		}
	}
}

// Confirm implements page.Confirmer with a y/n modal.
func (a *App) Confirm(prompt string, onConfirm, onCancel func()) {
	a.confirm = &pendingConfirm{prompt: prompt, yes: onConfirm, no: onCancel}
	a.modal = modalConfirm
}

// Open implements page.ChildForm for aliases.
func (a *App) Open(title string, child accounts.Alias, onConfirm func(accounts.Alias)) {
	a.aliasForm = &pendingAlias{title: title, child: child, onConfirm: onConfirm}
	a.input.SetValue(child.Pattern)
	a.input.CursorEnd()
	a.input.Focus()
	a.modal = modalAlias
}

func (a *App) onSelect(ev page.SelectionEvent[accounts.Account]) {
	a.aliasCursor = 0
	a.editing = false
	a.input.Blur()
	a.syncCursor()
}

// syncCursor moves the list cursor onto the selected row when it is visible.
func (a *App) syncCursor() {
	if a.page == nil {
		return
	}
	if i := a.page.Grid().SelectedRow(); i >= 0 {
		a.cursor = i
	}
	a.cursor = min(a.cursor, max(len(a.page.Grid().Rows)-1, 0))
}

func (a *App) fail(err error) {
	if err == nil {
		return
	}
	var se *page.SaveError
	if errors.As(err, &se) || errors.Is(err, page.ErrNotPersisted) {
		// already notified
		return
	}
	a.log.Error().Err(err).Msg("accounts page")
	a.status = "error: " + err.Error()
}
