package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Assignment is one foreman's crew and vehicle allocation to one project on one date.
// UpdatedAt is the optimistic-lock token.
type Assignment struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProjectID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:assignments_slot_key,priority:1"`
	ForemanID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:assignments_slot_key,priority:2;index:assignments_cell_idx"`
	Date                Date            `gorm:"type:date;not null;uniqueIndex:assignments_slot_key,priority:3;index:assignments_cell_idx"`
	MemberCount         int             `gorm:"not null;default:0"`
	PlannedWorkerIDs    pq.StringArray  `gorm:"type:text[];not null"`
	PlannedVehicleIDs   pq.StringArray  `gorm:"type:text[];not null"`
	ConfirmedWorkerIDs  pq.StringArray  `gorm:"type:text[]"`
	ConfirmedVehicleIDs pq.StringArray  `gorm:"type:text[]"`
	MeetingTime         *string         `gorm:"type:varchar(5)"`
	Remarks             string          `gorm:"type:text;not null;default:''"`
	SortOrder           int             `gorm:"not null;default:0"`
	IsDispatchConfirmed bool            `gorm:"not null;default:false"`
	EstimatedHours      decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	CreatedBy           *uuid.UUID      `gorm:"type:uuid"`
	UpdatedBy           *uuid.UUID      `gorm:"type:uuid"`
	Seq                 int64           `gorm:"<-:false;autoIncrement"`
	CreatedAt           time.Time       `gorm:"autoCreateTime:false;not null"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime:false;not null"`

	Project *Project `gorm:"foreignKey:ProjectID"`
}

// EffectiveWorkerIDs returns the confirmed crew when it is set (even if empty),
// otherwise the planned crew.
func (a *Assignment) EffectiveWorkerIDs() []string {
	return effectiveIDs(a.ConfirmedWorkerIDs, a.PlannedWorkerIDs)
}

// EffectiveVehicleIDs applies the same rule as EffectiveWorkerIDs to vehicles.
func (a *Assignment) EffectiveVehicleIDs() []string {
	return effectiveIDs(a.ConfirmedVehicleIDs, a.PlannedVehicleIDs)
}

func effectiveIDs(confirmed, planned pq.StringArray) []string {
	if confirmed != nil {
		return append([]string{}, confirmed...)
	}
	return append([]string{}, planned...)
}

// ProjectTitle returns the preloaded project title, or the project id when the
// project was not loaded.
func (a *Assignment) ProjectTitle() string {
	if a.Project != nil && a.Project.Title != "" {
		return a.Project.Title
	}
	return a.ProjectID.String()
}

// Clone returns a deep copy safe to mutate.
func (a Assignment) Clone() Assignment {
	c := a
	c.PlannedWorkerIDs = cloneIDs(a.PlannedWorkerIDs)
	c.PlannedVehicleIDs = cloneIDs(a.PlannedVehicleIDs)
	c.ConfirmedWorkerIDs = cloneIDs(a.ConfirmedWorkerIDs)
	c.ConfirmedVehicleIDs = cloneIDs(a.ConfirmedVehicleIDs)
	if a.MeetingTime != nil {
		mt := *a.MeetingTime
		c.MeetingTime = &mt
	}
	if a.Project != nil {
		p := *a.Project
		c.Project = &p
	}
	return c
}

func cloneIDs(ids pq.StringArray) pq.StringArray {
	if ids == nil {
		return nil
	}
	return append(pq.StringArray{}, ids...)
}

// AssignmentInput carries the fields of a new assignment.
type AssignmentInput struct {
	ProjectID           uuid.UUID        `json:"project_id" validate:"required"`
	ForemanID           uuid.UUID        `json:"foreman_id" validate:"required"`
	Date                Date             `json:"date" validate:"required"`
	MemberCount         int              `json:"member_count" validate:"gte=0"`
	PlannedWorkerIDs    []string         `json:"planned_worker_ids" validate:"omitempty,dive,required"`
	PlannedVehicleIDs   []string         `json:"planned_vehicle_ids" validate:"omitempty,dive,required"`
	ConfirmedWorkerIDs  []string         `json:"confirmed_worker_ids" validate:"omitempty,dive,required"`
	ConfirmedVehicleIDs []string         `json:"confirmed_vehicle_ids" validate:"omitempty,dive,required"`
	MeetingTime         *string          `json:"meeting_time" validate:"omitempty,datetime=15:04"`
	Remarks             string           `json:"remarks" validate:"max=2000"`
	SortOrder           *int             `json:"sort_order" validate:"omitempty,gte=0"`
	IsDispatchConfirmed bool             `json:"is_dispatch_confirmed"`
	EstimatedHours      *decimal.Decimal `json:"estimated_hours" validate:"omitempty,gte=0,lte=9999.99"`
}

// SlotKey identifies the unique (project, foreman, date) slot.
func (in AssignmentInput) SlotKey() string {
	return in.ProjectID.String() + "/" + in.ForemanID.String() + "/" + in.Date.String()
}

// Build turns the input into a record. Confirmed lists stay nil unless the
// caller sent them.
func (in AssignmentInput) Build(id uuid.UUID) Assignment {
	a := Assignment{
		ID:                  id,
		ProjectID:           in.ProjectID,
		ForemanID:           in.ForemanID,
		Date:                in.Date,
		MemberCount:         in.MemberCount,
		PlannedWorkerIDs:    append(pq.StringArray{}, in.PlannedWorkerIDs...),
		PlannedVehicleIDs:   append(pq.StringArray{}, in.PlannedVehicleIDs...),
		MeetingTime:         in.MeetingTime,
		Remarks:             in.Remarks,
		IsDispatchConfirmed: in.IsDispatchConfirmed,
		EstimatedHours:      decimal.Zero,
	}
	if in.ConfirmedWorkerIDs != nil {
		a.ConfirmedWorkerIDs = append(pq.StringArray{}, in.ConfirmedWorkerIDs...)
	}
	if in.ConfirmedVehicleIDs != nil {
		a.ConfirmedVehicleIDs = append(pq.StringArray{}, in.ConfirmedVehicleIDs...)
	}
	if in.SortOrder != nil {
		a.SortOrder = *in.SortOrder
	}
	if in.EstimatedHours != nil {
		a.EstimatedHours = *in.EstimatedHours
	}
	return a
}

// AssignmentFilter narrows a listing. Nil fields do not filter.
type AssignmentFilter struct {
	From      *Date
	To        *Date
	ForemanID *uuid.UUID
	ProjectID *uuid.UUID
}

// WriteMeta is the bookkeeping stamped on every write.
type WriteMeta struct {
	At time.Time
	By *uuid.UUID
}
