package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchDistinguishesNullFromAbsent(t *testing.T) {
	var absent AssignmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{"remarks":"x"}`), &absent))
	assert.False(t, absent.ConfirmedWorkerIDs.Set)

	var cleared AssignmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{"confirmed_worker_ids":null}`), &cleared))
	assert.True(t, cleared.ConfirmedWorkerIDs.Set)
	assert.True(t, cleared.ConfirmedWorkerIDs.Null)

	var empty AssignmentPatch
	require.NoError(t, json.Unmarshal([]byte(`{"confirmed_worker_ids":[]}`), &empty))
	assert.True(t, empty.ConfirmedWorkerIDs.Set)
	assert.False(t, empty.ConfirmedWorkerIDs.Null)
	assert.Empty(t, empty.ConfirmedWorkerIDs.Value)
}

func TestPatchApply(t *testing.T) {
	a := Assignment{
		ID:                 uuid.New(),
		PlannedWorkerIDs:   pq.StringArray{"w1"},
		ConfirmedWorkerIDs: pq.StringArray{"w2"},
		Remarks:            "old",
	}

	count := 3
	remarks := "new"
	AssignmentPatch{
		MemberCount:        &count,
		Remarks:            &remarks,
		ConfirmedWorkerIDs: Null[[]string](),
	}.Apply(&a)

	assert.Equal(t, 3, a.MemberCount)
	assert.Equal(t, "new", a.Remarks)
	assert.Nil(t, a.ConfirmedWorkerIDs)
	assert.Equal(t, pq.StringArray{"w1"}, a.PlannedWorkerIDs)

	AssignmentPatch{ConfirmedWorkerIDs: Some([]string{})}.Apply(&a)
	assert.NotNil(t, a.ConfirmedWorkerIDs)
	assert.Empty(t, a.ConfirmedWorkerIDs)
}

func TestPatchColumns(t *testing.T) {
	date := NewDate(2024, time.May, 2)
	cols := AssignmentPatch{
		Date:                &date,
		ConfirmedVehicleIDs: Null[[]string](),
		MeetingTime:         Some("07:30"),
	}.Columns()

	assert.Len(t, cols, 3)
	assert.Equal(t, date, cols["date"])
	assert.Nil(t, cols["confirmed_vehicle_ids"].(pq.StringArray))
	assert.Equal(t, "07:30", *cols["meeting_time"].(*string))

	assert.True(t, AssignmentPatch{Date: &date}.MovesSlot())
}
