package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"dispatch/internal/authz"
	"dispatch/internal/grid"
	"dispatch/internal/model"
	"dispatch/internal/repository"
)

// DropRequest is a finished drag on the scheduling grid. OverID is another
// assignment's id or a "<foremanId>-<YYYY-MM-DD>" cell id.
type DropRequest struct {
	ActiveID          uuid.UUID  `json:"active_id"`
	OverID            string     `json:"over_id"`
	ExpectedUpdatedAt *time.Time `json:"expected_updated_at,omitempty"`
}

type DropResult struct {
	Kind    grid.Kind `json:"kind"`
	Updated int       `json:"updated"`
}

// ApplyDrop reduces a drop to a move or a cell reorder and persists it as one
// batch update. The dragged item carries the caller's lock token.
func (s *AssignmentService) ApplyDrop(ctx context.Context, caller Caller, req DropRequest) (DropResult, error) {
	none := DropResult{Kind: grid.KindNone}
	if err := s.authorize(ctx, caller, authz.ActionWrite); err != nil {
		return none, err
	}
	if req.ActiveID == uuid.Nil {
		return none, validationError("active_id is required", map[string]any{"field": "active_id"})
	}

	active, err := s.store.GetByID(ctx, req.ActiveID)
	if errors.Is(err, repository.ErrAssignmentNotFound) {
		return none, notFoundError("assignment not found")
	}
	if err != nil {
		return none, s.fail(err, "failed to load assignment")
	}

	cells := []grid.Cell{grid.ItemOf(*active).Cell()}
	if overID, err := uuid.Parse(req.OverID); err == nil && overID != active.ID {
		over, err := s.store.GetByID(ctx, overID)
		switch {
		case err == nil:
			cells = append(cells, grid.ItemOf(*over).Cell())
		case !errors.Is(err, repository.ErrAssignmentNotFound):
			return none, s.fail(err, "failed to load drop target")
		}
	} else if cell, ok := grid.ParseCellID(req.OverID); ok {
		cells = append(cells, cell)
	}

	items, err := s.cellItems(ctx, cells)
	if err != nil {
		return none, s.fail(err, "failed to load grid cells")
	}

	mutation := grid.Reduce(items, active.ID, req.OverID)
	var batch []BatchUpdateItem
	switch mutation.Kind {
	case grid.KindMove:
		mv := mutation.Move
		batch = append(batch, BatchUpdateItem{
			ID:                mv.ID,
			ExpectedUpdatedAt: req.ExpectedUpdatedAt,
			Patch: model.AssignmentPatch{
				ForemanID: &mv.ForemanID,
				Date:      &mv.Date,
				SortOrder: &mv.SortOrder,
			},
		})
	case grid.KindReorder:
		// The dragged item keeps its lock token in the batch even when its own
		// sort order is already in place.
		batch = append(batch, BatchUpdateItem{ID: active.ID, ExpectedUpdatedAt: req.ExpectedUpdatedAt})
		for _, u := range mutation.Reorder {
			order := u.SortOrder
			if u.ID == active.ID {
				batch[0].Patch.SortOrder = &order
				continue
			}
			batch = append(batch, BatchUpdateItem{ID: u.ID, Patch: model.AssignmentPatch{SortOrder: &order}})
		}
	default:
		return none, nil
	}

	started := time.Now()
	n, err := s.updateAll(ctx, caller, batch)
	s.record("drop", len(batch), started, err)
	if err != nil {
		return none, err
	}
	return DropResult{Kind: mutation.Kind, Updated: n}, nil
}

func (s *AssignmentService) cellItems(ctx context.Context, cells []grid.Cell) ([]grid.Item, error) {
	var items []grid.Item
	seen := map[string]bool{}
	for _, cell := range cells {
		if seen[cell.ID()] {
			continue
		}
		seen[cell.ID()] = true

		foremanID, date := cell.ForemanID, cell.Date
		assignments, err := s.store.List(ctx, model.AssignmentFilter{ForemanID: &foremanID, From: &date, To: &date})
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			items = append(items, grid.ItemOf(a))
		}
	}
	return items, nil
}
