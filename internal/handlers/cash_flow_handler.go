package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/services"
)

// CashFlowHandler handles manual cash flow entry requests.
type CashFlowHandler struct {
	cashFlowService services.CashFlowServicer
	projectService  services.ProjectServicer
	auditService    services.AuditServicer
}

// NewCashFlowHandler creates a new CashFlowHandler.
func NewCashFlowHandler(cashFlowService services.CashFlowServicer, projectService services.ProjectServicer, auditService services.AuditServicer) *CashFlowHandler {
	return &CashFlowHandler{
		cashFlowService: cashFlowService,
		projectService:  projectService,
		auditService:    auditService,
	}
}

// CreateEntryRequest represents the request payload for a manual entry
type CreateEntryRequest struct {
	Type        models.CashFlowType `json:"type" binding:"required,cash_flow_type"`
	Amount      int64               `json:"amount" binding:"required,gt=0"`
	Description string              `json:"description" binding:"max=500"`
	Date        *string             `json:"date"`
	CategoryID  *uint               `json:"category_id"`
}

// UpdateEntryRequest represents the request payload for updating a manual
// entry. Absent fields are left unchanged.
type UpdateEntryRequest struct {
	Type        *models.CashFlowType `json:"type" binding:"omitempty,cash_flow_type"`
	Amount      *int64               `json:"amount" binding:"omitempty,gt=0"`
	Description *string              `json:"description" binding:"omitempty,max=500"`
	Date        *string              `json:"date"`
	CategoryID  *uint                `json:"category_id"`
}

// CreateEntry records a manual income or expense entry
// @Summary     Create a cash flow entry
// @Description Record a manual income or expense entry against a project
// @Tags        cash-flow
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Param       request body CreateEntryRequest true "Entry details"
// @Success     201 {object} map[string]interface{} "Entry created, full project returned"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id}/cash-flow [post]
func (h *CashFlowHandler) CreateEntry(c *gin.Context) {
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

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var entryDate time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		entryDate = parsed
	}

	entry, err := h.cashFlowService.AddManualEntry(userID, projectID, services.ManualEntryInput{
		EntryDate:   entryDate,
		Description: req.Description,
		Type:        req.Type,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetFullProject(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CASH_FLOW_ENTRY", "cash_flow_entry", entry.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"entry": entry, "project": project})
}

// UpdateEntry updates a manual cash flow entry
// @Summary     Update a cash flow entry
// @Description Update a manual entry's fields; auto-generated entries are rejected
// @Tags        cash-flow
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Param       entryId path int true "Entry ID"
// @Param       request body UpdateEntryRequest true "Fields to update"
// @Success     200 {object} map[string]interface{} "Entry updated, full project returned"
// @Failure     400 {object} ErrorResponse "Invalid input or auto-generated entry"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project or entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id}/cash-flow/{entryId} [put]
func (h *CashFlowHandler) UpdateEntry(c *gin.Context) {
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

	entryID, err := parsePathID(c, "entryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.UpdateEntryInput{
		Description: req.Description,
		Type:        req.Type,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		in.EntryDate = &parsed
	}

	entry, err := h.cashFlowService.UpdateManualEntry(userID, projectID, entryID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetFullProject(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CASH_FLOW_ENTRY", "cash_flow_entry", entry.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"entry": entry, "project": project})
}

// DeleteEntry deletes a manual cash flow entry
// @Summary     Delete a cash flow entry
// @Description Delete a manual entry, reversing its amount from the project totals; auto-generated entries are rejected
// @Tags        cash-flow
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Project ID"
// @Param       entryId path int true "Entry ID"
// @Success     200 {object} map[string]interface{} "Entry deleted, full project returned"
// @Failure     400 {object} ErrorResponse "Auto-generated entry"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project or entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id}/cash-flow/{entryId} [delete]
func (h *CashFlowHandler) DeleteEntry(c *gin.Context) {
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

	entryID, err := parsePathID(c, "entryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.cashFlowService.DeleteManualEntry(userID, projectID, entryID); err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetFullProject(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CASH_FLOW_ENTRY", "cash_flow_entry", entryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"project": project})
}
