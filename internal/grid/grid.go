// Package grid computes the persistence effect of drag-and-drop on the
// foreman-by-day scheduling grid. It performs no I/O.
package grid

import (
	"sort"

	"github.com/google/uuid"

	"dispatch/internal/model"
)

// Cell is one (foreman, day) square of the grid.
type Cell struct {
	ForemanID uuid.UUID
	Date      model.Date
}

func (c Cell) Equal(o Cell) bool {
	return c.ForemanID == o.ForemanID && c.Date.Equal(o.Date)
}

// ID renders the drop-target id "<foremanId>-<YYYY-MM-DD>".
func (c Cell) ID() string {
	return c.ForemanID.String() + "-" + c.Date.String()
}

// ParseCellID splits a drop-target id. The date is always the trailing ten
// characters, so foreman ids may contain hyphens.
func ParseCellID(id string) (Cell, bool) {
	n := len(model.DateLayout)
	if len(id) < n+2 || id[len(id)-n-1] != '-' {
		return Cell{}, false
	}
	date, err := model.ParseDate(id[len(id)-n:])
	if err != nil {
		return Cell{}, false
	}
	foremanID, err := uuid.Parse(id[:len(id)-n-1])
	if err != nil {
		return Cell{}, false
	}
	return Cell{ForemanID: foremanID, Date: date}, true
}

// Item is the slice of an assignment the grid cares about.
type Item struct {
	ID        uuid.UUID
	ForemanID uuid.UUID
	Date      model.Date
	SortOrder int
}

func (i Item) Cell() Cell {
	return Cell{ForemanID: i.ForemanID, Date: i.Date}
}

func ItemOf(a model.Assignment) Item {
	return Item{ID: a.ID, ForemanID: a.ForemanID, Date: a.Date, SortOrder: a.SortOrder}
}

type Kind string

const (
	KindNone    Kind = "none"
	KindMove    Kind = "move"
	KindReorder Kind = "reorder"
)

// Move relocates one assignment to the end of another cell.
type Move struct {
	ID        uuid.UUID
	ForemanID uuid.UUID
	Date      model.Date
	SortOrder int
}

type SortUpdate struct {
	ID        uuid.UUID
	SortOrder int
}

// Mutation is the outcome of a drop. Move is set for KindMove and Reorder for
// KindReorder.
type Mutation struct {
	Kind    Kind
	Move    Move
	Reorder []SortUpdate
}

// Reduce maps a drop of activeID onto overID. overID is either another item's
// id or a cell id. items must hold every item of the cells involved.
//
// Dropping into a different cell moves the item there. Dropping onto another
// item of the same cell reorders that cell densely from zero. Anything else,
// including dropping onto the item itself or onto its own cell, is a no-op.
func Reduce(items []Item, activeID uuid.UUID, overID string) Mutation {
	none := Mutation{Kind: KindNone}
	if overID == "" {
		return none
	}
	active, ok := findItem(items, activeID.String())
	if !ok {
		return none
	}

	over, overIsItem := findItem(items, overID)
	var target Cell
	switch {
	case overIsItem:
		if over.ID == active.ID {
			return none
		}
		target = over.Cell()
	default:
		cell, ok := ParseCellID(overID)
		if !ok {
			return none
		}
		target = cell
	}

	if !target.Equal(active.Cell()) {
		return Mutation{
			Kind: KindMove,
			Move: Move{
				ID:        active.ID,
				ForemanID: target.ForemanID,
				Date:      target.Date,
				SortOrder: nextSortOrder(items, target, active.ID),
			},
		}
	}
	if !overIsItem {
		return none
	}

	cellItems := itemsIn(items, target)
	from := indexOf(cellItems, active.ID)
	to := indexOf(cellItems, over.ID)
	reordered := arrayMove(cellItems, from, to)

	var updates []SortUpdate
	for i, it := range reordered {
		if it.SortOrder != i {
			updates = append(updates, SortUpdate{ID: it.ID, SortOrder: i})
		}
	}
	if len(updates) == 0 {
		return none
	}
	return Mutation{Kind: KindReorder, Reorder: updates}
}

func findItem(items []Item, id string) (Item, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Item{}, false
	}
	for _, it := range items {
		if it.ID == parsed {
			return it, true
		}
	}
	return Item{}, false
}

// itemsIn returns the cell's items in display order.
func itemsIn(items []Item, cell Cell) []Item {
	var out []Item
	for _, it := range items {
		if it.Cell().Equal(cell) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func indexOf(items []Item, id uuid.UUID) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func arrayMove(items []Item, from, to int) []Item {
	out := make([]Item, 0, len(items))
	moved := items[from]
	for i, it := range items {
		if i != from {
			out = append(out, it)
		}
	}
	out = append(out[:to], append([]Item{moved}, out[to:]...)...)
	return out
}

func nextSortOrder(items []Item, cell Cell, skip uuid.UUID) int {
	next := 0
	for _, it := range items {
		if it.ID != skip && it.Cell().Equal(cell) && it.SortOrder >= next {
			next = it.SortOrder + 1
		}
	}
	return next
}
