package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/pagination"
	"anggaran/internal/services"
)

// DefinitionHandler handles work item definition requests.
type DefinitionHandler struct {
	definitionService services.DefinitionServicer
	auditService      services.AuditServicer
}

// NewDefinitionHandler creates a new DefinitionHandler.
func NewDefinitionHandler(definitionService services.DefinitionServicer, auditService services.AuditServicer) *DefinitionHandler {
	return &DefinitionHandler{definitionService: definitionService, auditService: auditService}
}

// DefinitionComponentRequest represents one component line in a definition
// payload.
type DefinitionComponentRequest struct {
	DisplayName     string               `json:"display_name" binding:"required,max=255"`
	MaterialPriceID uint                 `json:"material_price_id" binding:"required"`
	Type            models.ComponentType `json:"component_type" binding:"required,component_type"`
	Coefficient     float64              `json:"coefficient"`
}

// DefinitionRequest represents the payload for creating or replacing a work
// item definition.
type DefinitionRequest struct {
	Key               string                       `json:"key" binding:"required,max=255"`
	Name              string                       `json:"name" binding:"required,max=255"`
	CategoryID        *uint                        `json:"category_id"`
	PrimaryInputLabel string                       `json:"primary_input_label" binding:"max=50"`
	Components        []DefinitionComponentRequest `json:"components"`
}

func (req *DefinitionRequest) toInput() services.DefinitionInput {
	in := services.DefinitionInput{
		Key:               req.Key,
		Name:              req.Name,
		CategoryID:        req.CategoryID,
		PrimaryInputLabel: req.PrimaryInputLabel,
	}
	for _, comp := range req.Components {
		in.Components = append(in.Components, services.DefinitionComponentInput{
			DisplayName:     comp.DisplayName,
			MaterialPriceID: comp.MaterialPriceID,
			Type:            comp.Type,
			Coefficient:     comp.Coefficient,
		})
	}
	return in
}

// CreateDefinition creates a work item definition
// @Summary     Create a work item definition
// @Description Create a reusable recipe of priced components identified by a unique key
// @Tags        definitions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DefinitionRequest true "Definition details"
// @Success     201 {object} map[string]interface{} "Definition created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate key"
// @Router      /definitions [post]
func (h *DefinitionHandler) CreateDefinition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	def, err := h.definitionService.CreateDefinition(userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_DEFINITION", "definition", def.ID, c.ClientIP(),
		map[string]interface{}{"key": req.Key})

	c.JSON(http.StatusCreated, gin.H{"definition": def})
}

// GetDefinitions lists the user's definitions
// @Summary     List work item definitions
// @Tags        definitions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated definitions"
// @Router      /definitions [get]
func (h *DefinitionHandler) GetDefinitions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.definitionService.GetUserDefinitions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDefinition returns a definition by key with current catalog prices
// @Summary     Get a definition by key
// @Tags        definitions
// @Produce     json
// @Security    BearerAuth
// @Param       key path string true "Definition key"
// @Success     200 {object} map[string]interface{} "Definition with hydrated prices"
// @Failure     404 {object} ErrorResponse "Definition not found"
// @Router      /definitions/{key} [get]
func (h *DefinitionHandler) GetDefinition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	def, err := h.definitionService.GetDefinitionByKey(userID, c.Param("key"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"definition": def})
}

// UpdateDefinition replaces a definition's fields and components
// @Summary     Update a work item definition
// @Description Replace a definition's fields and component list; already applied snapshots are untouched
// @Tags        definitions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Definition ID"
// @Param       request body DefinitionRequest true "Definition details"
// @Success     200 {object} map[string]interface{} "Definition updated"
// @Failure     404 {object} ErrorResponse "Definition not found"
// @Router      /definitions/{id} [put]
func (h *DefinitionHandler) UpdateDefinition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	definitionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	def, err := h.definitionService.UpdateDefinition(userID, definitionID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_DEFINITION", "definition", def.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"definition": def})
}

// DeleteDefinition deletes a definition
// @Summary     Delete a work item definition
// @Description Delete a definition and its components; applied snapshots keep their values
// @Tags        definitions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Definition ID"
// @Success     200 {object} map[string]string "Definition deleted"
// @Failure     404 {object} ErrorResponse "Definition not found"
// @Router      /definitions/{id} [delete]
func (h *DefinitionHandler) DeleteDefinition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	definitionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.definitionService.DeleteDefinition(userID, definitionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_DEFINITION", "definition", definitionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Definition deleted"})
}
