package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// PageLifecycle is implemented by pages the host navigates to and from.
type PageLifecycle interface {
	OnEnter(ctx context.Context) error
	OnAttach()
	OnDetach()
}

// LayoutListener is told how many list rows fit on screen.
type LayoutListener interface {
	OnLayout(ctx context.Context, rows int) error
}

// SearchConsumer receives the free-text filter.
type SearchConsumer interface {
	Search(ctx context.Context, term string) error
}

// Config assembles a Controller.
type Config[T any] struct {
	Kind      *Kind[T]
	Service   EntityService[T]
	Session   SessionService
	Columns   []Column[T]
	Sections  []DetailSection[T]
	Notifier  Notifier
	Confirmer Confirmer
	Sink      EventSink
	Hooks     Hooks[T]
	PageSize  int
	// Listeners are subscribed to selection changes on attach and dropped on detach.
	Listeners []func(SelectionEvent[T])
	Logger    *zerolog.Logger
}

// Controller is one entity page instance: list, selection, detail sections
// and lifecycle composed together.
type Controller[T any] struct {
	kind      *Kind[T]
	svc       EntityService[T]
	adapter   *QueryAdapter[T]
	grid      *Grid[T]
	registry  *Registry[T]
	sel       *Selection[T]
	lifecycle *Lifecycle[T]
	notifier  Notifier
	confirmer Confirmer
	log       zerolog.Logger

	listeners []func(SelectionEvent[T])
	unsub     []func()
	entered   bool
}

var (
	_ PageLifecycle  = (*Controller[struct{}])(nil)
	_ LayoutListener = (*Controller[struct{}])(nil)
	_ SearchConsumer = (*Controller[struct{}])(nil)
)

// NewController validates cfg and wires the page components.
func NewController[T any](cfg Config[T]) (*Controller[T], error) {
	switch {
	case cfg.Kind == nil:
		return nil, errors.New("page: kind is required")
	case cfg.Kind.ID == nil || cfg.Kind.Copy == nil:
		return nil, fmt.Errorf("page: kind %s needs ID and Copy", cfg.Kind.Name)
	case cfg.Service == nil:
		return nil, errors.New("page: service is required")
	case cfg.Session == nil:
		return nil, errors.New("page: session is required")
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("page", cfg.Kind.Name).Logger()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = discardNotifier{}
	}
	if cfg.Confirmer == nil {
		cfg.Confirmer = autoConfirm{}
	}
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}

	c := &Controller[T]{
		kind:      cfg.Kind,
		svc:       cfg.Service,
		adapter:   NewQueryAdapter(cfg.Service, cfg.Columns),
		grid:      newGrid(cfg.Columns, cfg.PageSize, cfg.Kind.ID),
		registry:  NewRegistry(cfg.Sections...),
		notifier:  cfg.Notifier,
		confirmer: cfg.Confirmer,
		listeners: cfg.Listeners,
		log:       log,
	}
	c.sel = newSelection(c.kind, c.svc, c.adapter, c.grid, c.registry, cfg.Session, log)
	c.lifecycle = &Lifecycle[T]{
		kind:      c.kind,
		svc:       c.svc,
		sel:       c.sel,
		registry:  c.registry,
		notifier:  c.notifier,
		confirmer: c.confirmer,
		sink:      cfg.Sink,
		hooks:     cfg.Hooks,
		refresh:   c.Refresh,
		grid:      c.grid,
		log:       log,
	}
	c.lifecycle.track()
	return c, nil
}

// OnEnter initializes the sections once, loads the list and restores the
// session's last selection.
func (c *Controller[T]) OnEnter(ctx context.Context) error {
	if err := c.registry.Init(c.sectionContext(ctx)); err != nil {
		return err
	}
	c.entered = true
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	return c.sel.Restore(ctx)
}

// OnAttach subscribes the configured selection listeners.
func (c *Controller[T]) OnAttach() {
	if len(c.unsub) > 0 {
		return
	}
	for _, fn := range c.listeners {
		c.unsub = append(c.unsub, c.sel.Subscribe(fn))
	}
}

// OnDetach drops every subscription made by OnAttach.
func (c *Controller[T]) OnDetach() {
	for _, u := range c.unsub {
		u()
	}
	c.unsub = nil
}

// OnLayout resizes the window to rows. The offset is kept as is.
func (c *Controller[T]) OnLayout(ctx context.Context, rows int) error {
	rows = max(rows, 1)
	if rows == c.grid.Limit {
		return nil
	}
	c.grid.Limit = rows
	if !c.entered {
		return nil
	}
	return c.Refresh(ctx)
}

// Search applies a new filter, returns to the first row and keeps the
// current selection when it still matches.
func (c *Controller[T]) Search(ctx context.Context, term string) error {
	c.adapter.SetSearch(term)
	c.grid.Offset = 0
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	if c.lifecycle.State() == StateNew || c.lifecycle.State() == StateDirty {
		return nil
	}
	if i := c.grid.IndexOf(c.kind.idOf(c.sel.Current())); i >= 0 {
		return c.sel.Select(ctx, c.grid.Rows[i])
	}
	return c.sel.SelectLastOrFirst(ctx, nil)
}

// Refresh reloads the visible window and total. The selection is left
// alone; the grid value follows it if its row is still visible.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	total, err := c.adapter.Count(ctx, c.grid.Sort)
	if err != nil {
		return fmt.Errorf("count %s: %w", c.kind.Name, err)
	}
	switch {
	case total == 0:
		c.grid.Offset = 0
	case c.grid.Offset >= total:
		c.grid.Offset = (total - 1) / c.grid.Limit * c.grid.Limit
	}
	rows, err := c.adapter.Fetch(ctx, c.grid.Offset, c.grid.Limit, c.grid.Sort)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", c.kind.Name, err)
	}
	c.grid.Rows = rows
	c.grid.Total = total
	if cur := c.sel.Current(); cur != nil && c.grid.IndexOf(c.kind.idOf(cur)) >= 0 {
		c.grid.selected = cur
	} else {
		c.grid.selected = nil
	}
	c.log.Debug().Int("offset", c.grid.Offset).Int("rows", len(rows)).Int("total", total).Str("search", c.adapter.Search()).Msg("refresh")
	return nil
}

// NextPage moves the window forward by one page when there is one.
func (c *Controller[T]) NextPage(ctx context.Context) error {
	if c.grid.Offset+c.grid.Limit >= c.grid.Total {
		return nil
	}
	c.grid.Offset += c.grid.Limit
	return c.Refresh(ctx)
}

// PrevPage moves the window back by one page.
func (c *Controller[T]) PrevPage(ctx context.Context) error {
	if c.grid.Offset == 0 {
		return nil
	}
	c.grid.Offset = max(c.grid.Offset-c.grid.Limit, 0)
	return c.Refresh(ctx)
}

// SortBy replaces the sort orders (column keys) and returns to the first row.
func (c *Controller[T]) SortBy(ctx context.Context, orders ...SortOrder) error {
	c.grid.Sort = append([]SortOrder(nil), orders...)
	c.grid.Offset = 0
	return c.Refresh(ctx)
}

// SelectRow selects row i of the visible window.
func (c *Controller[T]) SelectRow(ctx context.Context, i int) error {
	if i < 0 {
		return c.sel.SelectByIndex(ctx, -1)
	}
	return c.sel.SelectByIndex(ctx, c.grid.Offset+i)
}

// SetFieldValue edits a bound input and marks the entity dirty.
func (c *Controller[T]) SetFieldValue(section, field, value string) error {
	if c.sel.Current() == nil {
		return ErrNoSelection
	}
	if err := c.registry.SetValue(section, field, value); err != nil {
		return err
	}
	c.lifecycle.MarkDirty()
	return nil
}

// Create starts a new unsaved entity.
func (c *Controller[T]) Create(ctx context.Context, name string) (*T, error) {
	return c.lifecycle.Create(ctx, name)
}

func (c *Controller[T]) Save(ctx context.Context) (Outcome, error) { return c.lifecycle.Save(ctx) }

func (c *Controller[T]) Delete(ctx context.Context) error { return c.lifecycle.Delete(ctx) }

func (c *Controller[T]) Cancel(ctx context.Context) error { return c.lifecycle.Cancel(ctx) }

func (c *Controller[T]) Clone(ctx context.Context, opts CloneOptions) error {
	return c.lifecycle.Clone(ctx, opts)
}

// HandleChange reacts to a change made by another page instance.
func (c *Controller[T]) HandleChange(ctx context.Context, ev ChangeEvent) error {
	if ev.Kind != c.kind.Name {
		return nil
	}
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	cur := c.sel.Current()
	if cur == nil || c.kind.idOf(cur) != ev.ID || c.lifecycle.State() != StateSaved {
		// unsaved edits are kept; a later save reports the conflict
		return nil
	}
	if ev.Action == ActionDeleted {
		return c.sel.SelectLastOrFirst(ctx, nil)
	}
	fresh, err := c.svc.GetByID(ctx, ev.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return c.sel.SelectLastOrFirst(ctx, nil)
	case err != nil:
		return fmt.Errorf("reload %s %s: %w", c.kind.Name, ev.ID, err)
	}
	return c.sel.Select(ctx, fresh)
}

func (c *Controller[T]) Current() *T { return c.sel.Current() }

func (c *Controller[T]) State() State { return c.lifecycle.State() }

func (c *Controller[T]) Grid() *Grid[T] { return c.grid }

func (c *Controller[T]) Registry() *Registry[T] { return c.registry }

func (c *Controller[T]) Selection() *Selection[T] { return c.sel }

func (c *Controller[T]) Adapter() *QueryAdapter[T] { return c.adapter }

func (c *Controller[T]) Kind() *Kind[T] { return c.kind }

func (c *Controller[T]) sectionContext(ctx context.Context) SectionContext[T] {
	return SectionContext[T]{
		Kind: c.kind,
		Commands: Commands{
			Save:   func() { _, _ = c.Save(ctx) },
			Cancel: func() { _ = c.Cancel(ctx) },
			Delete: func() { _ = c.Delete(ctx) },
		},
		Notifier:  c.notifier,
		Confirmer: c.confirmer,
		Adopt:     c.adopt,
	}
}

// adopt takes over a copy of the current entity persisted by a section.
func (c *Controller[T]) adopt(ctx context.Context, saved *T) {
	c.sel.adopt(saved)
	if err := c.Refresh(ctx); err != nil {
		c.log.Error().Err(err).Msg("refresh after section persist")
	}
	c.lifecycle.emit(ctx, ActionSaved, c.kind.idOf(saved))
}
