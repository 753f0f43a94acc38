package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/services"
)

// WorkItemHandler handles work item snapshot requests.
type WorkItemHandler struct {
	workItemService services.WorkItemServicer
	projectService  services.ProjectServicer
	auditService    services.AuditServicer
}

// NewWorkItemHandler creates a new WorkItemHandler.
func NewWorkItemHandler(workItemService services.WorkItemServicer, projectService services.ProjectServicer, auditService services.AuditServicer) *WorkItemHandler {
	return &WorkItemHandler{
		workItemService: workItemService,
		projectService:  projectService,
		auditService:    auditService,
	}
}

// ComponentRequest represents one caller-supplied component line
type ComponentRequest struct {
	DisplayName     string               `json:"display_name" binding:"required,max=255"`
	Unit            string               `json:"unit" binding:"max=50"`
	Type            models.ComponentType `json:"component_type" binding:"required,component_type"`
	Coefficient     float64              `json:"coefficient"`
	PricePerUnit    int64                `json:"price_per_unit" binding:"min=0"`
	MaterialPriceID *uint                `json:"material_price_id"`
}

// ApplyTemplateRequest represents the request payload for applying a work
// item definition to a project. PrimaryInput accepts any JSON value; absent
// or non-numeric values are treated as zero.
type ApplyTemplateRequest struct {
	DefinitionKey string             `json:"definition_key" binding:"required,max=255"`
	PrimaryInput  interface{}        `json:"primary_input"`
	Components    []ComponentRequest `json:"components"`
}

// ApplyTemplate applies a work item definition to a project
// @Summary     Apply a work item template
// @Description Freeze a definition's cost computation into a snapshot and record the matching auto-generated expense entry
// @Tags        work-items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Param       request body ApplyTemplateRequest true "Template application"
// @Success     201 {object} map[string]interface{} "Snapshot created, full project returned"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project or definition not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id}/work-items [post]
func (h *WorkItemHandler) ApplyTemplate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.ApplyTemplateInput{
		DefinitionKey: req.DefinitionKey,
		PrimaryInput:  req.PrimaryInput,
	}
	for _, comp := range req.Components {
		in.Components = append(in.Components, services.ComponentInput{
			DisplayName:     comp.DisplayName,
			Unit:            comp.Unit,
			Type:            comp.Type,
			Coefficient:     comp.Coefficient,
			PricePerUnit:    comp.PricePerUnit,
			MaterialPriceID: comp.MaterialPriceID,
		})
	}

	item, err := h.workItemService.ApplyTemplate(userID, projectID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetFullProject(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "APPLY_WORK_ITEM", "work_item", item.ID, c.ClientIP(),
		map[string]interface{}{"definition_key": req.DefinitionKey, "total_cost": item.TotalCostSnapshot})

	c.JSON(http.StatusCreated, gin.H{"work_item": item, "project": project})
}

// RemoveWorkItem removes a work item snapshot from a project
// @Summary     Remove a work item
// @Description Delete a work item snapshot with its components and linked auto-generated entry, reversing the project totals
// @Tags        work-items
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Param       itemId path int true "Work item ID"
// @Success     200 {object} map[string]interface{} "Full project after removal"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project or work item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id}/work-items/{itemId} [delete]
func (h *WorkItemHandler) RemoveWorkItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	itemID, err := parsePathID(c, "itemId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.workItemService.RemoveWorkItem(userID, projectID, itemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_WORK_ITEM", "work_item", itemID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"project": project})
}
