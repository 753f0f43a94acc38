package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/pagination"
	"anggaran/internal/services"
)

// CatalogHandler handles the priced catalog: units, categories, and material
// prices.
type CatalogHandler struct {
	catalogService services.CatalogServicer
	auditService   services.AuditServicer
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService services.CatalogServicer, auditService services.AuditServicer) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, auditService: auditService}
}

// UnitRequest represents the payload for creating or updating a unit
type UnitRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	Symbol string `json:"symbol" binding:"max=20"`
}

// CreateUnit creates a measurement unit
// @Summary     Create a unit
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UnitRequest true "Unit details"
// @Success     201 {object} map[string]interface{} "Unit created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /catalog/units [post]
func (h *CatalogHandler) CreateUnit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	unit, err := h.catalogService.CreateUnit(userID, req.Name, req.Symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"unit": unit})
}

// GetUnits lists the user's units
// @Summary     List units
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated units"
// @Router      /catalog/units [get]
func (h *CatalogHandler) GetUnits(c *gin.Context) {
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

	result, err := h.catalogService.GetUserUnits(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateUnit updates a unit
// @Summary     Update a unit
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Unit ID"
// @Param       request body UnitRequest true "Unit details"
// @Success     200 {object} map[string]interface{} "Unit updated"
// @Router      /catalog/units/{id} [put]
func (h *CatalogHandler) UpdateUnit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	unitID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	unit, err := h.catalogService.UpdateUnit(userID, unitID, req.Name, req.Symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unit": unit})
}

// DeleteUnit deletes a unit
// @Summary     Delete a unit
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Unit ID"
// @Success     200 {object} map[string]string "Unit deleted"
// @Failure     409 {object} ErrorResponse "Unit still referenced by material prices"
// @Router      /catalog/units/{id} [delete]
func (h *CatalogHandler) DeleteUnit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	unitID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.catalogService.DeleteUnit(userID, unitID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unit deleted"})
}

// CategoryRequest represents the payload for creating a work item category
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateWorkItemCategory creates a work item category
// @Summary     Create a work item category
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CategoryRequest true "Category details"
// @Success     201 {object} map[string]interface{} "Category created"
// @Router      /catalog/work-item-categories [post]
func (h *CatalogHandler) CreateWorkItemCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.catalogService.CreateWorkItemCategory(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetWorkItemCategories lists the user's work item categories
// @Summary     List work item categories
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Paginated categories"
// @Router      /catalog/work-item-categories [get]
func (h *CatalogHandler) GetWorkItemCategories(c *gin.Context) {
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

	result, err := h.catalogService.GetUserWorkItemCategories(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteWorkItemCategory deletes a work item category
// @Summary     Delete a work item category
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} map[string]string "Category deleted"
// @Failure     409 {object} ErrorResponse "Category still used by definitions"
// @Router      /catalog/work-item-categories/{id} [delete]
func (h *CatalogHandler) DeleteWorkItemCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.catalogService.DeleteWorkItemCategory(userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// CashFlowCategoryRequest represents the payload for a cash flow category
type CashFlowCategoryRequest struct {
	Name string              `json:"name" binding:"required,max=100"`
	Type models.CashFlowType `json:"type" binding:"required,cash_flow_type"`
}

// CreateCashFlowCategory creates a cash flow category
// @Summary     Create a cash flow category
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CashFlowCategoryRequest true "Category details"
// @Success     201 {object} map[string]interface{} "Category created"
// @Router      /catalog/cash-flow-categories [post]
func (h *CatalogHandler) CreateCashFlowCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CashFlowCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.catalogService.CreateCashFlowCategory(userID, req.Name, req.Type)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCashFlowCategories lists the user's cash flow categories
// @Summary     List cash flow categories
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Paginated categories"
// @Router      /catalog/cash-flow-categories [get]
func (h *CatalogHandler) GetCashFlowCategories(c *gin.Context) {
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

	result, err := h.catalogService.GetUserCashFlowCategories(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteCashFlowCategory deletes a cash flow category
// @Summary     Delete a cash flow category
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} map[string]string "Category deleted"
// @Failure     409 {object} ErrorResponse "Category still referenced by entries"
// @Router      /catalog/cash-flow-categories/{id} [delete]
func (h *CatalogHandler) DeleteCashFlowCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.catalogService.DeleteCashFlowCategory(userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// CreateMaterialPriceRequest represents the payload for a material price
type CreateMaterialPriceRequest struct {
	Name   string               `json:"name" binding:"required,max=255"`
	Type   models.ComponentType `json:"component_type" binding:"required,component_type"`
	UnitID uint                 `json:"unit_id" binding:"required"`
	Price  int64                `json:"price" binding:"min=0"`
}

// UpdateMaterialPriceRequest represents the payload for updating a material
// price. Absent fields are left unchanged.
type UpdateMaterialPriceRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=255"`
	Price *int64  `json:"price" binding:"omitempty,min=0"`
}

// CreateMaterialPrice creates a catalog material price
// @Summary     Create a material price
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMaterialPriceRequest true "Material price details"
// @Success     201 {object} map[string]interface{} "Material price created"
// @Failure     409 {object} ErrorResponse "Duplicate name for unit"
// @Router      /catalog/material-prices [post]
func (h *CatalogHandler) CreateMaterialPrice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMaterialPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	price, err := h.catalogService.CreateMaterialPrice(userID, req.Name, req.Type, req.UnitID, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_MATERIAL_PRICE", "material_price", price.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "price": req.Price})

	c.JSON(http.StatusCreated, gin.H{"material_price": price})
}

// GetMaterialPrices lists the user's material prices
// @Summary     List material prices
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated material prices"
// @Router      /catalog/material-prices [get]
func (h *CatalogHandler) GetMaterialPrices(c *gin.Context) {
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

	result, err := h.catalogService.GetUserMaterialPrices(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateMaterialPrice updates a material price. Applied snapshots are value
// copies and are never touched by price edits.
// @Summary     Update a material price
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Material price ID"
// @Param       request body UpdateMaterialPriceRequest true "Fields to update"
// @Success     200 {object} map[string]interface{} "Material price updated"
// @Router      /catalog/material-prices/{id} [put]
func (h *CatalogHandler) UpdateMaterialPrice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	priceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateMaterialPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	price, err := h.catalogService.UpdateMaterialPrice(userID, priceID, req.Name, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_MATERIAL_PRICE", "material_price", price.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"material_price": price})
}

// DeleteMaterialPrice deletes a material price
// @Summary     Delete a material price
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Material price ID"
// @Success     200 {object} map[string]string "Material price deleted"
// @Router      /catalog/material-prices/{id} [delete]
func (h *CatalogHandler) DeleteMaterialPrice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	priceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.catalogService.DeleteMaterialPrice(userID, priceID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Material price deleted"})
}
