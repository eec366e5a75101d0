package page

// Grid is the list view state: the visible window, its cursor and the
// row the UI shows as selected.
type Grid[T any] struct {
	Columns []Column[T]
	Rows    []*T
	Total   int
	Offset  int
	Limit   int
	Sort    []SortOrder

	selected *T
	id       func(*T) string
}

func newGrid[T any](cols []Column[T], limit int, id func(*T) string) *Grid[T] {
	return &Grid[T]{Columns: cols, Limit: max(limit, 1), id: id}
}

// Selected is the grid value.
func (g *Grid[T]) Selected() *T { return g.selected }

// SelectedRow returns the window index of the grid value, or -1.
func (g *Grid[T]) SelectedRow() int {
	if g.selected == nil {
		return -1
	}
	return g.IndexOf(g.id(g.selected))
}

// IndexOf returns the window index of the row with id, or -1.
func (g *Grid[T]) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range g.Rows {
		if g.id(r) == id {
			return i
		}
	}
	return -1
}

// PageInfo summarizes the window position.
type PageInfo struct {
	Offset int
	Limit  int
	Total  int
	// Index is derived from Offset and Limit and is informational.
	Index int
	Pages int
}

// Info reports the current window position.
func (g *Grid[T]) Info() PageInfo {
	limit := max(g.Limit, 1)
	pages := (g.Total + limit - 1) / limit
	return PageInfo{Offset: g.Offset, Limit: limit, Total: g.Total, Index: PageIndex(g.Offset, limit), Pages: pages}
}
