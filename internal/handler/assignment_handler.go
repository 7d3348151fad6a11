package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch/internal/export"
	"dispatch/internal/model"
	"dispatch/internal/service"
)

// AssignmentService is the part of service.AssignmentService the HTTP layer uses.
type AssignmentService interface {
	Get(ctx context.Context, caller service.Caller, id uuid.UUID) (*model.Assignment, error)
	List(ctx context.Context, caller service.Caller, filter model.AssignmentFilter) ([]model.Assignment, error)
	Create(ctx context.Context, caller service.Caller, in model.AssignmentInput) (*model.Assignment, error)
	BatchCreate(ctx context.Context, caller service.Caller, inputs []model.AssignmentInput) ([]model.Assignment, error)
	Update(ctx context.Context, caller service.Caller, id uuid.UUID, patch model.AssignmentPatch, expected *time.Time) (*model.Assignment, error)
	BatchUpdate(ctx context.Context, caller service.Caller, items []service.BatchUpdateItem) (int, error)
	Delete(ctx context.Context, caller service.Caller, id uuid.UUID) error
	ApplyDrop(ctx context.Context, caller service.Caller, req service.DropRequest) (service.DropResult, error)
	CrewReport(ctx context.Context, caller service.Caller, from, to model.Date) ([]service.CrewUsage, error)
}

// PresenceReader answers who else has an assignment open. It is advisory and
// never consulted before writes.
type PresenceReader interface {
	EditingUsers(assignmentID uuid.UUID, exceptSession string) []model.EditingPresence
}

// PresenceNotifier is told about assignments whose editors should be refreshed.
type PresenceNotifier interface {
	Notify(ids ...uuid.UUID)
}

// ForemanDirectory resolves foreman names for exports.
type ForemanDirectory interface {
	List(ctx context.Context, foremenOnly bool) ([]model.Worker, error)
}

type AssignmentHandler struct {
	svc      AssignmentService
	presence PresenceReader
	notifier PresenceNotifier
	foremen  ForemanDirectory
}

func NewAssignmentHandler(svc AssignmentService, presence PresenceReader, notifier PresenceNotifier, foremen ForemanDirectory) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, presence: presence, notifier: notifier, foremen: foremen}
}

// UpdateAssignmentRequest is a patch plus the optional lock token.
type UpdateAssignmentRequest struct {
	model.AssignmentPatch
	ExpectedUpdatedAt *time.Time `json:"expected_updated_at"`
}

type BatchCreateRequest struct {
	Items []model.AssignmentInput `json:"items"`
}

type BatchUpdateRequest struct {
	Items []service.BatchUpdateItem `json:"items"`
}

type BatchUpdateResponse struct {
	Updated int `json:"updated"`
}

// List returns assignments filtered by from, to, foreman_id and project_id.
//
// @Summary  List assignments
// @Tags     Assignments
// @Security BearerAuth
// @Produce  json
// @Param    from       query string false "first date, YYYY-MM-DD"
// @Param    to         query string false "last date, YYYY-MM-DD"
// @Param    foreman_id query string false "foreman id"
// @Param    project_id query string false "project id"
// @Success  200 {array} AssignmentResponse
// @Router   /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), callerFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssignmentResponses(list))
}

// @Summary  Get an assignment
// @Tags     Assignments
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "assignment id"
// @Success  200 {object} AssignmentResponse
// @Router   /assignments/{id} [get]
func (h *AssignmentHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssignmentResponse(a))
}

// @Summary  Create an assignment
// @Tags     Assignments
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body model.AssignmentInput true "assignment"
// @Success  201 {object} AssignmentResponse
// @Router   /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var in model.AssignmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	a, err := h.svc.Create(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAssignmentResponse(a))
}

// @Summary  Update an assignment
// @Tags     Assignments
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string                  true "assignment id"
// @Param    body body UpdateAssignmentRequest true "patch"
// @Success  200 {object} AssignmentResponse
// @Router   /assignments/{id} [patch]
func (h *AssignmentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	a, err := h.svc.Update(c.Request.Context(), callerFrom(c), id, req.AssignmentPatch, req.ExpectedUpdatedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAssignmentResponse(a))
}

// @Summary  Delete an assignment
// @Tags     Assignments
// @Security BearerAuth
// @Param    id path string true "assignment id"
// @Success  204
// @Router   /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	h.notifier.Notify(id)
	c.Status(http.StatusNoContent)
}

// BatchCreate inserts all items in one transaction or none of them.
//
// @Summary  Create assignments in bulk
// @Tags     Assignments
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body BatchCreateRequest true "1 to 100 assignments"
// @Success  201 {array} AssignmentResponse
// @Router   /assignments/batch [post]
func (h *AssignmentHandler) BatchCreate(c *gin.Context) {
	var req BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	created, err := h.svc.BatchCreate(c.Request.Context(), callerFrom(c), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAssignmentResponses(created))
}

// BatchUpdate applies all patches after checking every lock token.
//
// @Summary  Update assignments in bulk
// @Tags     Assignments
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body BatchUpdateRequest true "1 to 100 patches"
// @Success  200 {object} BatchUpdateResponse
// @Failure  409 {object} map[string]any "CONFLICT with current and project_title, or DUPLICATE_SLOT"
// @Router   /assignments/batch [patch]
func (h *AssignmentHandler) BatchUpdate(c *gin.Context) {
	var req BatchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	n, err := h.svc.BatchUpdate(c.Request.Context(), callerFrom(c), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BatchUpdateResponse{Updated: n})
}

// @Summary  Apply a drag and drop on the schedule grid
// @Tags     Assignments
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    body body service.DropRequest true "drop"
// @Success  200 {object} service.DropResult
// @Router   /assignments/drop [post]
func (h *AssignmentHandler) Drop(c *gin.Context) {
	var req service.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	res, err := h.svc.ApplyDrop(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Editors lists the other sessions editing an assignment.
//
// @Summary  Who is editing an assignment
// @Tags     Presence
// @Security BearerAuth
// @Produce  json
// @Param    id         path  string true  "assignment id"
// @Param    session_id query string false "caller session, excluded from the result"
// @Success  200 {array} model.EditingPresence
// @Router   /assignments/{id}/editors [get]
func (h *AssignmentHandler) Editors(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.presence.EditingUsers(id, c.Query("session_id")))
}

// Export streams the filtered schedule as an xlsx workbook.
//
// @Summary  Export the schedule
// @Tags     Assignments
// @Security BearerAuth
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param    from query string true "first date, YYYY-MM-DD"
// @Param    to   query string true "last date, YYYY-MM-DD"
// @Router   /assignments/export [get]
func (h *AssignmentHandler) Export(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	if filter.From == nil || filter.To == nil {
		badRequest(c, "from and to are required")
		return
	}
	list, err := h.svc.List(c.Request.Context(), callerFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	names := make(map[uuid.UUID]string)
	workers, err := h.foremen.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, w := range workers {
		names[w.ID] = w.Name
	}

	f, err := export.Schedule(list, names)
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", "attachment; filename="+export.FileName(*filter.From, *filter.To))
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}

// CrewReport counts the days each worker and vehicle is assigned between from and to.
//
// @Summary  Crew usage report
// @Tags     Reports
// @Security BearerAuth
// @Produce  json
// @Param    from query string true "first date, YYYY-MM-DD"
// @Param    to   query string true "last date, YYYY-MM-DD"
// @Success  200 {array} service.CrewUsage
// @Router   /reports/crew [get]
func (h *AssignmentHandler) CrewReport(c *gin.Context) {
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}
	if from == nil || to == nil {
		badRequest(c, "from and to are required")
		return
	}
	report, err := h.svc.CrewReport(c.Request.Context(), callerFrom(c), *from, *to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func parseFilter(c *gin.Context) (model.AssignmentFilter, bool) {
	var filter model.AssignmentFilter
	var ok bool
	if filter.From, ok = parseDateQuery(c, "from"); !ok {
		return filter, false
	}
	if filter.To, ok = parseDateQuery(c, "to"); !ok {
		return filter, false
	}
	if filter.ForemanID, ok = parseUUIDQuery(c, "foreman_id"); !ok {
		return filter, false
	}
	if filter.ProjectID, ok = parseUUIDQuery(c, "project_id"); !ok {
		return filter, false
	}
	return filter, true
}
