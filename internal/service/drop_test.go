package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/grid"
	"dispatch/internal/service"
)

func TestApplyDrop_ReorderWithinCell(t *testing.T) {
	f := newFixture(t)
	foreman := uuid.New()
	var cell []uuid.UUID
	for i := 0; i < 4; i++ {
		cell = append(cell, f.seed(f.project("P"), foreman, may1, i).ID)
	}
	active := f.store.snapshot()[cell[3]]

	res, err := f.svc.ApplyDrop(context.Background(), dispatcher, service.DropRequest{
		ActiveID:          cell[3],
		OverID:            cell[0].String(),
		ExpectedUpdatedAt: &active.UpdatedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, grid.KindReorder, res.Kind)
	assert.Equal(t, 4, res.Updated)
	rows := f.store.snapshot()
	assert.Equal(t, 0, rows[cell[3]].SortOrder)
	assert.Equal(t, 1, rows[cell[0]].SortOrder)
	assert.Equal(t, 2, rows[cell[1]].SortOrder)
	assert.Equal(t, 3, rows[cell[2]].SortOrder)
}

func TestApplyDrop_MoveToAnotherCell(t *testing.T) {
	f := newFixture(t)
	project := f.project("Riverside Tower")
	foremanA, foremanB := uuid.New(), uuid.New()
	a := f.seed(project, foremanA, may1, 0)
	f.seed(f.project("Harbor Bridge"), foremanB, may2, 0)

	res, err := f.svc.ApplyDrop(context.Background(), dispatcher, service.DropRequest{
		ActiveID:          a.ID,
		OverID:            grid.Cell{ForemanID: foremanB, Date: may2}.ID(),
		ExpectedUpdatedAt: &a.UpdatedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, grid.KindMove, res.Kind)
	moved := f.store.snapshot()[a.ID]
	assert.Equal(t, foremanB, moved.ForemanID)
	assert.True(t, moved.Date.Equal(may2))
	assert.Equal(t, 1, moved.SortOrder)
}

func TestApplyDrop_StaleTokenConflicts(t *testing.T) {
	f := newFixture(t)
	a := f.seed(f.project("Riverside Tower"), uuid.New(), may1, 0)
	stale := a.UpdatedAt.Add(-time.Second)

	_, err := f.svc.ApplyDrop(context.Background(), dispatcher, service.DropRequest{
		ActiveID:          a.ID,
		OverID:            grid.Cell{ForemanID: uuid.New(), Date: may2}.ID(),
		ExpectedUpdatedAt: &stale,
	})

	requireKind(t, err, service.KindConflict)
	assert.True(t, f.store.snapshot()[a.ID].Date.Equal(may1))
}

func TestApplyDrop_ReorderChecksTokenWhenDraggedItemKeepsItsOrder(t *testing.T) {
	f := newFixture(t)
	foreman := uuid.New()
	b := f.seed(f.project("Riverside Tower"), foreman, may1, 1)
	a := f.seed(f.project("Harbor Bridge"), foreman, may1, 5)
	stale := b.UpdatedAt.Add(-time.Hour)

	_, err := f.svc.ApplyDrop(context.Background(), dispatcher, service.DropRequest{
		ActiveID:          b.ID,
		OverID:            a.ID.String(),
		ExpectedUpdatedAt: &stale,
	})

	requireKind(t, err, service.KindConflict)
	rows := f.store.snapshot()
	assert.Equal(t, 5, rows[a.ID].SortOrder)
	assert.Equal(t, 1, rows[b.ID].SortOrder)
	assert.Equal(t, a.UpdatedAt, rows[a.ID].UpdatedAt)

	res, err := f.svc.ApplyDrop(context.Background(), dispatcher, service.DropRequest{
		ActiveID:          b.ID,
		OverID:            a.ID.String(),
		ExpectedUpdatedAt: &b.UpdatedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, grid.KindReorder, res.Kind)
	assert.Equal(t, 2, res.Updated)
	rows = f.store.snapshot()
	assert.Equal(t, 0, rows[a.ID].SortOrder)
	assert.Equal(t, 1, rows[b.ID].SortOrder)
}

func TestApplyDrop_NoOpWritesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.seed(f.project("Riverside Tower"), uuid.New(), may1, 0)

	res, err := f.svc.ApplyDrop(context.Background(), dispatcher, service.DropRequest{
		ActiveID: a.ID,
		OverID:   a.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, grid.KindNone, res.Kind)
	assert.Equal(t, a.UpdatedAt, f.store.snapshot()[a.ID].UpdatedAt)
}

func TestApplyDrop_UnknownActive(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyDrop(context.Background(), dispatcher, service.DropRequest{ActiveID: uuid.New(), OverID: "x"})

	requireKind(t, err, service.KindNotFound)
}
