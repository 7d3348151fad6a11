package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch/internal/middleware"
	"dispatch/internal/model"
	"dispatch/internal/repository"
)

type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	List(ctx context.Context, foremenOnly bool) ([]model.Worker, error)
	GetMaxPosition(ctx context.Context) (int, error)
	Reorder(ctx context.Context, ids []uuid.UUID) error
}

type WorkerHandler struct {
	repo WorkerRepository
}

func NewWorkerHandler(repo WorkerRepository) *WorkerHandler {
	return &WorkerHandler{repo: repo}
}

type WorkerRequest struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	IsForeman bool   `json:"is_foreman"`
}

// ReorderWorkersRequest lists worker ids in their new grid row order.
type ReorderWorkersRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

type WorkerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	IsForeman bool   `json:"is_foreman"`
	Position  int    `json:"position"`
}

func newWorkerResponse(w *model.Worker) WorkerResponse {
	return WorkerResponse{
		ID:        w.ID.String(),
		Name:      w.Name,
		Phone:     w.Phone,
		IsForeman: w.IsForeman,
		Position:  w.Position,
	}
}

// Create appends the worker after the last grid row.
func (h *WorkerHandler) Create(c *gin.Context) {
	var req WorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	maxPosition, err := h.repo.GetMaxPosition(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to determine worker position"})
		return
	}

	worker := &model.Worker{
		ID:        uuid.New(),
		Name:      req.Name,
		Phone:     req.Phone,
		IsForeman: req.IsForeman,
		Position:  maxPosition + 1,
		Active:    true,
	}
	if err := h.repo.Create(c.Request.Context(), worker); err != nil {
		middleware.Logger(c).WithError(err).Error("failed to create worker")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create worker"})
		return
	}

	c.JSON(http.StatusCreated, newWorkerResponse(worker))
}

// GetAll lists active workers; ?foremen=true returns only grid rows.
func (h *WorkerHandler) GetAll(c *gin.Context) {
	workers, err := h.repo.List(c.Request.Context(), c.Query("foremen") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workers"})
		return
	}

	resp := make([]WorkerResponse, 0, len(workers))
	for i := range workers {
		resp = append(resp, newWorkerResponse(&workers[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WorkerHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	worker, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrWorkerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker not found", "code": "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve worker"})
		return
	}

	c.JSON(http.StatusOK, newWorkerResponse(worker))
}

// Reorder rewrites grid row positions in the order given.
func (h *WorkerHandler) Reorder(c *gin.Context) {
	var req ReorderWorkersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	ids := make([]uuid.UUID, len(req.IDs))
	seen := make(map[uuid.UUID]bool, len(req.IDs))
	for i, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid worker ID format")
			return
		}
		if seen[id] {
			badRequest(c, "Worker "+raw+" appears more than once")
			return
		}
		seen[id] = true
		ids[i] = id
	}

	err := h.repo.Reorder(c.Request.Context(), ids)
	if errors.Is(err, repository.ErrWorkerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker not found", "code": "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder workers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Workers reordered successfully"})
}
