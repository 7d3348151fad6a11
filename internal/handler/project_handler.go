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

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	List(ctx context.Context, includeArchived bool) ([]model.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	Update(ctx context.Context, project *model.Project) error
}

type ProjectHandler struct {
	repo ProjectRepository
}

func NewProjectHandler(repo ProjectRepository) *ProjectHandler {
	return &ProjectHandler{repo: repo}
}

// ProjectRequest creates or replaces a project.
type ProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Client      string `json:"client"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Archived    bool   `json:"archived"`
}

type ProjectResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Client      string `json:"client"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Archived    bool   `json:"archived"`
}

func newProjectResponse(p *model.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Client:      p.Client,
		Address:     p.Address,
		Description: p.Description,
		Archived:    p.Archived,
	}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	project := &model.Project{
		ID:          uuid.New(),
		Title:       req.Title,
		Client:      req.Client,
		Address:     req.Address,
		Description: req.Description,
		Archived:    req.Archived,
	}
	if err := h.repo.Create(c.Request.Context(), project); err != nil {
		middleware.Logger(c).WithError(err).Error("failed to create project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, newProjectResponse(project))
}

// GetAll lists projects; archived ones only with ?archived=true.
func (h *ProjectHandler) GetAll(c *gin.Context) {
	projects, err := h.repo.List(c.Request.Context(), c.Query("archived") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		resp = append(resp, newProjectResponse(&projects[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	c.JSON(http.StatusOK, newProjectResponse(project))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	project, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}

	project.Title = req.Title
	project.Client = req.Client
	project.Address = req.Address
	project.Description = req.Description
	project.Archived = req.Archived

	if err := h.repo.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, newProjectResponse(project))
}
