package model

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Optional is a patch field that tells an absent key apart from an explicit null.
// Set is false when the key was absent; Null is true when it was sent as null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: v} }

func Null[T any]() Optional[T] { return Optional[T]{Set: true, Null: true} }

// UnmarshalJSON is only invoked when the key is present, including for null.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// AssignmentPatch is a partial update. Nil pointers and unset Optionals leave the
// stored value untouched; confirmed lists and meeting time may be cleared with null.
type AssignmentPatch struct {
	ProjectID           *uuid.UUID         `json:"project_id,omitempty"`
	ForemanID           *uuid.UUID         `json:"foreman_id,omitempty"`
	Date                *Date              `json:"date,omitempty"`
	MemberCount         *int               `json:"member_count,omitempty" validate:"omitempty,gte=0"`
	PlannedWorkerIDs    *[]string          `json:"planned_worker_ids,omitempty" validate:"omitempty,dive,required"`
	PlannedVehicleIDs   *[]string          `json:"planned_vehicle_ids,omitempty" validate:"omitempty,dive,required"`
	ConfirmedWorkerIDs  Optional[[]string] `json:"confirmed_worker_ids"`
	ConfirmedVehicleIDs Optional[[]string] `json:"confirmed_vehicle_ids"`
	MeetingTime         Optional[string]   `json:"meeting_time"`
	Remarks             *string            `json:"remarks,omitempty" validate:"omitempty,max=2000"`
	SortOrder           *int               `json:"sort_order,omitempty" validate:"omitempty,gte=0"`
	IsDispatchConfirmed *bool              `json:"is_dispatch_confirmed,omitempty"`
	EstimatedHours      *decimal.Decimal   `json:"estimated_hours,omitempty" validate:"omitempty,gte=0,lte=9999.99"`
}

// MovesSlot reports whether the patch touches any part of the unique slot.
func (p AssignmentPatch) MovesSlot() bool {
	return p.ProjectID != nil || p.ForemanID != nil || p.Date != nil
}

// Apply writes the patch onto a.
func (p AssignmentPatch) Apply(a *Assignment) {
	if p.ProjectID != nil {
		a.ProjectID = *p.ProjectID
		if a.Project != nil && a.Project.ID != *p.ProjectID {
			a.Project = nil
		}
	}
	if p.ForemanID != nil {
		a.ForemanID = *p.ForemanID
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.MemberCount != nil {
		a.MemberCount = *p.MemberCount
	}
	if p.PlannedWorkerIDs != nil {
		a.PlannedWorkerIDs = append(pq.StringArray{}, (*p.PlannedWorkerIDs)...)
	}
	if p.PlannedVehicleIDs != nil {
		a.PlannedVehicleIDs = append(pq.StringArray{}, (*p.PlannedVehicleIDs)...)
	}
	if p.ConfirmedWorkerIDs.Set {
		a.ConfirmedWorkerIDs = optionalIDs(p.ConfirmedWorkerIDs)
	}
	if p.ConfirmedVehicleIDs.Set {
		a.ConfirmedVehicleIDs = optionalIDs(p.ConfirmedVehicleIDs)
	}
	if p.MeetingTime.Set {
		a.MeetingTime = optionalString(p.MeetingTime)
	}
	if p.Remarks != nil {
		a.Remarks = *p.Remarks
	}
	if p.SortOrder != nil {
		a.SortOrder = *p.SortOrder
	}
	if p.IsDispatchConfirmed != nil {
		a.IsDispatchConfirmed = *p.IsDispatchConfirmed
	}
	if p.EstimatedHours != nil {
		a.EstimatedHours = *p.EstimatedHours
	}
}

// Columns maps the patch onto column names for an UPDATE. Cleared lists map to a
// nil pq.StringArray, which is written as NULL.
func (p AssignmentPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.ProjectID != nil {
		cols["project_id"] = *p.ProjectID
	}
	if p.ForemanID != nil {
		cols["foreman_id"] = *p.ForemanID
	}
	if p.Date != nil {
		cols["date"] = *p.Date
	}
	if p.MemberCount != nil {
		cols["member_count"] = *p.MemberCount
	}
	if p.PlannedWorkerIDs != nil {
		cols["planned_worker_ids"] = append(pq.StringArray{}, (*p.PlannedWorkerIDs)...)
	}
	if p.PlannedVehicleIDs != nil {
		cols["planned_vehicle_ids"] = append(pq.StringArray{}, (*p.PlannedVehicleIDs)...)
	}
	if p.ConfirmedWorkerIDs.Set {
		cols["confirmed_worker_ids"] = optionalIDs(p.ConfirmedWorkerIDs)
	}
	if p.ConfirmedVehicleIDs.Set {
		cols["confirmed_vehicle_ids"] = optionalIDs(p.ConfirmedVehicleIDs)
	}
	if p.MeetingTime.Set {
		cols["meeting_time"] = optionalString(p.MeetingTime)
	}
	if p.Remarks != nil {
		cols["remarks"] = *p.Remarks
	}
	if p.SortOrder != nil {
		cols["sort_order"] = *p.SortOrder
	}
	if p.IsDispatchConfirmed != nil {
		cols["is_dispatch_confirmed"] = *p.IsDispatchConfirmed
	}
	if p.EstimatedHours != nil {
		cols["estimated_hours"] = *p.EstimatedHours
	}
	return cols
}

func optionalIDs(o Optional[[]string]) pq.StringArray {
	if o.Null {
		return nil
	}
	return append(pq.StringArray{}, o.Value...)
}

func optionalString(o Optional[string]) *string {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
