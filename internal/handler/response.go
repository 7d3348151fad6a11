package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"dispatch/internal/middleware"
	"dispatch/internal/model"
	"dispatch/internal/service"
)

// AssignmentResponse is the wire form of an assignment. Confirmed lists are
// null when unset and [] when explicitly empty.
type AssignmentResponse struct {
	ID                  string          `json:"id"`
	ProjectID           string          `json:"project_id"`
	ProjectTitle        string          `json:"project_title,omitempty"`
	ForemanID           string          `json:"foreman_id"`
	Date                model.Date      `json:"date"`
	MemberCount         int             `json:"member_count"`
	PlannedWorkerIDs    []string        `json:"planned_worker_ids"`
	PlannedVehicleIDs   []string        `json:"planned_vehicle_ids"`
	ConfirmedWorkerIDs  []string        `json:"confirmed_worker_ids"`
	ConfirmedVehicleIDs []string        `json:"confirmed_vehicle_ids"`
	WorkerIDs           []string        `json:"worker_ids"`
	VehicleIDs          []string        `json:"vehicle_ids"`
	MeetingTime         *string         `json:"meeting_time"`
	Remarks             string          `json:"remarks"`
	SortOrder           int             `json:"sort_order"`
	IsDispatchConfirmed bool            `json:"is_dispatch_confirmed"`
	EstimatedHours      decimal.Decimal `json:"estimated_hours"`
	CreatedBy           *string         `json:"created_by,omitempty"`
	UpdatedBy           *string         `json:"updated_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func newAssignmentResponse(a *model.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:                  a.ID.String(),
		ProjectID:           a.ProjectID.String(),
		ForemanID:           a.ForemanID.String(),
		Date:                a.Date,
		MemberCount:         a.MemberCount,
		PlannedWorkerIDs:    nonNil(a.PlannedWorkerIDs),
		PlannedVehicleIDs:   nonNil(a.PlannedVehicleIDs),
		ConfirmedWorkerIDs:  nullable(a.ConfirmedWorkerIDs),
		ConfirmedVehicleIDs: nullable(a.ConfirmedVehicleIDs),
		WorkerIDs:           nonNil(a.EffectiveWorkerIDs()),
		VehicleIDs:          nonNil(a.EffectiveVehicleIDs()),
		MeetingTime:         a.MeetingTime,
		Remarks:             a.Remarks,
		SortOrder:           a.SortOrder,
		IsDispatchConfirmed: a.IsDispatchConfirmed,
		EstimatedHours:      a.EstimatedHours,
		CreatedBy:           idString(a.CreatedBy),
		UpdatedBy:           idString(a.UpdatedBy),
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
	if a.Project != nil {
		resp.ProjectTitle = a.Project.Title
	}
	return resp
}

func newAssignmentResponses(list []model.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(list))
	for i := range list {
		out = append(out, newAssignmentResponse(&list[i]))
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nullable(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append([]string{}, ids...)
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// respondError writes a service error with the status its kind maps to.
// Unexpected failures never expose their cause.
func respondError(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		middleware.Logger(c).WithError(err).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": service.KindPersistence})
		return
	}

	body := gin.H{"error": se.Message, "code": se.Kind}
	if len(se.Meta) > 0 {
		body["meta"] = se.Meta
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindDuplicateSlot:
		status = http.StatusConflict
	case service.KindConflict:
		status = http.StatusConflict
		body["project_title"] = se.ProjectTitle
		if se.Current != nil {
			body["current"] = newAssignmentResponse(se.Current)
		}
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		body = gin.H{"error": "Internal server error", "code": service.KindPersistence}
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": service.KindValidation})
}

// callerFrom reads the identity JWTAuthMiddleware stored on the context. A
// missing identity yields a zero Caller, which the service rejects.
func callerFrom(c *gin.Context) service.Caller {
	var caller service.Caller
	if v, ok := c.Get(middleware.UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			caller.UserID = id
		}
	}
	caller.Name = c.GetString(middleware.UserNameKey)
	caller.Role = c.GetString(middleware.UserRoleKey)
	return caller
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func parseDateQuery(c *gin.Context, name string) (*model.Date, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		badRequest(c, "Invalid "+name+" date, expected YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}

func parseUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}
