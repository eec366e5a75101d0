package page_test

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/entitypages/internal/page"
	"github.com/jask/entitypages/internal/session"
	"github.com/jask/entitypages/internal/store/memory"
)

type item struct {
	ID     string
	Name   string
	Code   string
	Qty    int64
	Rev    int64
	Locked bool
	Tags   []tag
}

type tag struct {
	ID    string
	Label string
}

func copyItem(it *item) *item {
	out := *it
	out.Tags = append([]tag(nil), it.Tags...)
	return &out
}

var codePattern = regexp.MustCompile(`^[A-Z]{2}[0-9]$`)

func itemKind() *page.Kind[item] {
	return &page.Kind[item]{
		Name: "item",
		Fields: []page.Field[item]{
			{
				Name: "name", Label: "Name", Kind: page.FieldText,
				Constraints: page.Constraints{Required: true, MaxLen: 20},
				Get:         func(it *item) string { return it.Name },
				Set:         func(it *item, v string) error { it.Name = strings.TrimSpace(v); return nil },
			},
			{
				Name: "code", Label: "Code", Kind: page.FieldText,
				Constraints: page.Constraints{Pattern: codePattern, PatternHint: "must look like AB1"},
				Get:         func(it *item) string { return it.Code },
				Set:         func(it *item, v string) error { it.Code = strings.TrimSpace(v); return nil },
			},
			{
				Name: "qty", Label: "Qty", Kind: page.FieldInt,
				Constraints: page.Constraints{Bounded: true, Min: 0, Max: 100},
				Get:         func(it *item) string { return strconv.FormatInt(it.Qty, 10) },
				Set: func(it *item, v string) error {
					if strings.TrimSpace(v) == "" {
						it.Qty = 0
						return nil
					}
					n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
					if err != nil {
						return fmt.Errorf("qty: %w", err)
					}
					it.Qty = n
					return nil
				},
			},
		},
		Relations: []page.RelationCopier[item]{
			{Name: "tags", Copy: func(dst, src *item) { dst.Tags = append([]tag(nil), src.Tags...) }},
		},
		ID:    func(it *item) string { return it.ID },
		Label: func(it *item) string { return it.Name },
		Copy:  copyItem,
	}
}

func itemColumns() []page.Column[item] {
	return []page.Column[item]{
		{Key: "name", Title: "Name", SortField: "name", Value: func(it *item) string { return it.Name }},
		{Key: "code", Title: "Code", SortField: "code", Value: func(it *item) string { return it.Code }},
		{Key: "qty", Title: "Qty", Value: func(it *item) string { return strconv.FormatInt(it.Qty, 10) }},
	}
}

func newStore() *memory.Service[item] {
	return memory.New(memory.Accessors[item]{
		ID:          func(it *item) string { return it.ID },
		SetID:       func(it *item, id string) { it.ID = id },
		Revision:    func(it *item) int64 { return it.Rev },
		SetRevision: func(it *item, r int64) { it.Rev = r },
		Copy:        copyItem,
		New:         func(name string) *item { return &item{Name: name} },
		Text:        func(it *item) []string { return []string{it.Name, it.Code} },
		Compare: func(a, b *item, field string) int {
			switch field {
			case "name":
				return strings.Compare(a.Name, b.Name)
			case "code":
				return strings.Compare(a.Code, b.Code)
			}
			return 0
		},
		BeforeSave: func(it *item) bool { return !it.Locked },
	})
}

type noticeLog struct{ notices []page.Notice }

func (n *noticeLog) Notify(x page.Notice) { n.notices = append(n.notices, x) }

func (n *noticeLog) last() page.Notice {
	if len(n.notices) == 0 {
		return page.Notice{}
	}
	return n.notices[len(n.notices)-1]
}

// heldConfirm keeps the callbacks until the test answers.
type heldConfirm struct {
	prompt  string
	yes, no func()
}

func (h *heldConfirm) Confirm(prompt string, yes, no func()) {
	h.prompt, h.yes, h.no = prompt, yes, no
}

func (h *heldConfirm) accept() {
	yes := h.yes
	h.yes, h.no = nil, nil
	yes()
}

func (h *heldConfirm) decline() {
	no := h.no
	h.yes, h.no = nil, nil
	if no != nil {
		no()
	}
}

type sinkLog struct{ events []page.ChangeEvent }

func (s *sinkLog) Emit(_ context.Context, ev page.ChangeEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func (s *sinkLog) last() page.ChangeEvent {
	if len(s.events) == 0 {
		return page.ChangeEvent{}
	}
	return s.events[len(s.events)-1]
}

type tagForm struct {
	title string
	edit  func(tag) (tag, bool)
}

func (f *tagForm) Open(title string, child tag, onConfirm func(tag)) {
	f.title = title
	if f.edit == nil {
		return
	}
	if out, ok := f.edit(child); ok {
		onConfirm(out)
	}
}

type fixture struct {
	ctx     context.Context
	svc     *memory.Service[item]
	session *session.Memory
	notes   *noticeLog
	confirm *heldConfirm
	sink    *sinkLog
	form    *tagForm
	details *page.FieldSection[item]
	extra   *page.FieldSection[item]
	tags    *page.RelationPanel[item, tag]
	page    *page.Controller[item]
}

func newFixture(t *testing.T, mutate ...func(*page.Config[item])) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		svc:     newStore(),
		session: session.NewMemory(),
		notes:   &noticeLog{},
		confirm: &heldConfirm{},
		sink:    &sinkLog{},
		form:    &tagForm{},
	}
	f.details = page.NewFieldSection[item]("details", "Details", "name")
	f.extra = page.NewFieldSection[item]("extra", "Extra", "code", "qty")
	f.tags = page.NewRelationPanel(page.RelationConfig[item, tag]{
		Name:          "tags",
		Title:         "Tags",
		Get:           func(it *item) []tag { return it.Tags },
		Set:           func(it *item, ts []tag) { it.Tags = ts },
		BeforePersist: f.svc.OnBeforeSave,
		Persist:       func(ctx context.Context, it *item) (*item, error) { return f.svc.Save(ctx, it) },
		Key:           func(t tag) string { return t.ID },
		Label:         func(t tag) string { return t.Label },
		Form:          f.form,
	})
	cfg := page.Config[item]{
		Kind:      itemKind(),
		Service:   f.svc,
		Session:   f.session,
		Columns:   itemColumns(),
		Sections:  []page.DetailSection[item]{f.details, f.extra, f.tags},
		Notifier:  f.notes,
		Confirmer: f.confirm,
		Sink:      f.sink,
		PageSize:  10,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := page.NewController(cfg)
	require.NoError(t, err)
	f.page = c
	return f
}

func (f *fixture) seed(t *testing.T, names ...string) []*item {
	t.Helper()
	out := make([]*item, 0, len(names))
	for _, n := range names {
		it, err := f.svc.Save(f.ctx, &item{Name: n})
		require.NoError(t, err)
		out = append(out, it)
	}
	return out
}

func (f *fixture) enter(t *testing.T) {
	t.Helper()
	require.NoError(t, f.page.OnEnter(f.ctx))
}

func (f *fixture) stored(t *testing.T, id string) *item {
	t.Helper()
	it, err := f.svc.GetByID(f.ctx, id)
	require.NoError(t, err)
	return it
}

func (f *fixture) activeID(t *testing.T) string {
	t.Helper()
	id, err := f.session.ActiveID(f.ctx, "item")
	require.NoError(t, err)
	return id
}

func (f *fixture) currentName() string {
	if cur := f.page.Current(); cur != nil {
		return cur.Name
	}
	return ""
}
