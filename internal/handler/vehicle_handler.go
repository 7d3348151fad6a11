package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch/internal/model"
	"dispatch/internal/repository"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	List(ctx context.Context) ([]model.Vehicle, error)
	Update(ctx context.Context, vehicle *model.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type VehicleHandler struct {
	repo VehicleRepository
}

func NewVehicleHandler(repo VehicleRepository) *VehicleHandler {
	return &VehicleHandler{repo: repo}
}

type VehicleRequest struct {
	Name     string `json:"name" binding:"required"`
	Plate    string `json:"plate"`
	Capacity int    `json:"capacity" binding:"min=0"`
	// Active is only honoured on update; new vehicles start active.
	Active *bool `json:"active"`
}

type VehicleResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Plate    string `json:"plate"`
	Capacity int    `json:"capacity"`
	Active   bool   `json:"active"`
}

func newVehicleResponse(v *model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:       v.ID.String(),
		Name:     v.Name,
		Plate:    v.Plate,
		Capacity: v.Capacity,
		Active:   v.Active,
	}
}

func (h *VehicleHandler) Create(c *gin.Context) {
	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	vehicle := &model.Vehicle{
		ID:       uuid.New(),
		Name:     req.Name,
		Plate:    req.Plate,
		Capacity: req.Capacity,
		Active:   true,
	}
	if err := h.repo.Create(c.Request.Context(), vehicle); err != nil {
		if repository.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Vehicle with this plate already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle"})
		return
	}

	c.JSON(http.StatusCreated, newVehicleResponse(vehicle))
}

func (h *VehicleHandler) GetAll(c *gin.Context) {
	vehicles, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vehicles"})
		return
	}

	resp := make([]VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		resp = append(resp, newVehicleResponse(&vehicles[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VehicleHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	vehicle, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrVehicleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found", "code": "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vehicle"})
		return
	}

	c.JSON(http.StatusOK, newVehicleResponse(vehicle))
}

func (h *VehicleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	vehicle, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrVehicleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found", "code": "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vehicle"})
		return
	}

	vehicle.Name = req.Name
	vehicle.Plate = req.Plate
	vehicle.Capacity = req.Capacity
	if req.Active != nil {
		vehicle.Active = *req.Active
	}

	if err := h.repo.Update(c.Request.Context(), vehicle); err != nil {
		if repository.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Vehicle with this plate already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vehicle"})
		return
	}

	c.JSON(http.StatusOK, newVehicleResponse(vehicle))
}

func (h *VehicleHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrVehicleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found", "code": "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vehicle"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted successfully"})
}
