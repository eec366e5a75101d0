package page_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/entitypages/internal/page"
)

func TestRelationRoundTrip(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, "A")
	f.enter(t)
	require.Empty(t, f.tags.Rows())
	require.Same(t, f.page.Current(), f.tags.Parent())

	require.NoError(t, f.tags.AddChild(f.ctx, tag{ID: "t1", Label: "red"}))
	require.Equal(t, []tag{{ID: "t1", Label: "red"}}, f.stored(t, items[0].ID).Tags)
	require.Equal(t, []tag{{ID: "t1", Label: "red"}}, f.tags.Rows())
	require.Equal(t, int64(2), f.page.Current().Rev)
	require.Equal(t, page.ChangeEvent{Kind: "item", ID: items[0].ID, Action: page.ActionSaved}, f.sink.last())

	require.NoError(t, f.tags.ReplaceChild(f.ctx, tag{ID: "t1", Label: "blue"}))
	require.Equal(t, "blue", f.stored(t, items[0].ID).Tags[0].Label)

	require.NoError(t, f.tags.RemoveChild(f.ctx, "t1"))
	require.Empty(t, f.stored(t, items[0].ID).Tags)
	require.Empty(t, f.tags.Rows())
	require.Equal(t, int64(4), f.page.Current().Rev)

	require.ErrorIs(t, f.tags.RemoveChild(f.ctx, "t1"), page.ErrChildNotFound)
}

func TestRelationKeepsUnsavedFieldEdits(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, "A")
	f.enter(t)
	require.NoError(t, f.page.SetFieldValue("details", "name", "Edited"))

	require.NoError(t, f.tags.AddChild(f.ctx, tag{ID: "t1", Label: "red"}))
	require.Equal(t, "Edited", f.details.Value("name"))
	require.Equal(t, "A", f.stored(t, items[0].ID).Name)

	out, err := f.page.Save(f.ctx)
	require.NoError(t, err)
	require.Equal(t, page.OutcomeSaved, out)
	stored := f.stored(t, items[0].ID)
	require.Equal(t, "Edited", stored.Name)
	require.Len(t, stored.Tags, 1)
}

func TestRelationNeedsSavedParent(t *testing.T) {
	f := newFixture(t)
	f.enter(t)
	require.ErrorIs(t, f.tags.AddChild(f.ctx, tag{ID: "t1"}), page.ErrNoSelection)

	_, err := f.page.Create(f.ctx, "Draft")
	require.NoError(t, err)
	require.ErrorIs(t, f.tags.AddChild(f.ctx, tag{ID: "t1"}), page.ErrNotPersisted)
	require.Equal(t, page.LevelInfo, f.notes.last().Level)
	require.Equal(t, 0, f.svc.Len())
}

func TestRelationNotInitialized(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A")
	require.False(t, f.tags.Initialized())
	require.ErrorIs(t, f.tags.AddChild(f.ctx, tag{ID: "t1"}), page.ErrSectionNotInitialized)
}

func TestRelationFormFlow(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, "A")
	f.enter(t)

	f.form.edit = func(tg tag) (tag, bool) { return tag{ID: "t9", Label: "green"}, true }
	require.NoError(t, f.tags.Add(f.ctx))
	require.Equal(t, "Add Tags", f.form.title)
	require.Equal(t, []tag{{ID: "t9", Label: "green"}}, f.stored(t, items[0].ID).Tags)

	f.form.edit = func(tg tag) (tag, bool) {
		require.Equal(t, "green", tg.Label)
		tg.Label = "lime"
		return tg, true
	}
	require.NoError(t, f.tags.Edit(f.ctx, "t9"))
	require.Equal(t, "Edit Tags", f.form.title)
	require.Equal(t, "lime", f.stored(t, items[0].ID).Tags[0].Label)
	require.ErrorIs(t, f.tags.Edit(f.ctx, "nope"), page.ErrChildNotFound)

	f.form.edit = func(tag) (tag, bool) { return tag{}, false }
	require.NoError(t, f.tags.Add(f.ctx))
	require.Len(t, f.stored(t, items[0].ID).Tags, 1)

	require.NoError(t, f.tags.Delete(f.ctx, "t9"))
	require.Equal(t, "Remove lime?", f.confirm.prompt)
	f.confirm.decline()
	require.Len(t, f.stored(t, items[0].ID).Tags, 1)

	require.NoError(t, f.tags.Delete(f.ctx, "t9"))
	f.confirm.accept()
	require.Empty(t, f.stored(t, items[0].ID).Tags)
	require.Empty(t, f.tags.Rows())
}

func TestRelationPersistConflict(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, "A")
	f.enter(t)

	theirs := f.stored(t, items[0].ID)
	theirs.Name = "Theirs"
	_, err := f.svc.Save(f.ctx, theirs)
	require.NoError(t, err)

	err = f.tags.AddChild(f.ctx, tag{ID: "t1", Label: "red"})
	require.ErrorIs(t, err, page.ErrConflict)
	require.Empty(t, f.tags.Rows())
	require.Empty(t, f.stored(t, items[0].ID).Tags)
	require.Equal(t, page.LevelConflict, f.notes.last().Level)
}

func TestRelationInitRequiresAccessors(t *testing.T) {
	p := page.NewRelationPanel(page.RelationConfig[item, tag]{Name: "tags"})
	err := p.Init(page.SectionContext[item]{Kind: itemKind()})
	require.Error(t, err)
	require.False(t, p.Initialized())
}

func TestRelationVetoedParentIsSilent(t *testing.T) {
	f := newFixture(t)
	locked, err := f.svc.Save(f.ctx, &item{Name: "L", Locked: true, Tags: []tag{{ID: "t1", Label: "red"}}})
	require.NoError(t, err)
	f.enter(t)
	require.Equal(t, "L", f.currentName())
	f.form.edit = func(tg tag) (tag, bool) { return tag{ID: "t2", Label: "blue"}, true }

	require.NoError(t, f.tags.AddChild(f.ctx, tag{ID: "t2", Label: "blue"}))
	require.NoError(t, f.tags.Add(f.ctx))
	require.Empty(t, f.form.title)
	require.NoError(t, f.tags.Delete(f.ctx, "t1"))
	require.Empty(t, f.confirm.prompt)
	require.NoError(t, f.tags.RemoveChild(f.ctx, "t1"))

	require.Empty(t, f.notes.notices)
	require.Empty(t, f.sink.events)
	stored := f.stored(t, locked.ID)
	require.Equal(t, []tag{{ID: "t1", Label: "red"}}, stored.Tags)
	require.Equal(t, int64(1), stored.Rev)
	require.Equal(t, []tag{{ID: "t1", Label: "red"}}, f.tags.Rows())
}
