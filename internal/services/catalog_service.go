package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
	"anggaran/internal/pagination"
)

// catalogService handles the priced catalog: units, work item categories,
// cash flow categories, and material prices. Plain uniqueness-checked CRUD;
// price edits never touch existing work item snapshots.
type catalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogServicer.
func NewCatalogService(db *gorm.DB) CatalogServicer {
	return &catalogService{db: db}
}

// CreateUnit creates a measurement unit with a unique name per user.
func (s *catalogService) CreateUnit(userID uint, name, symbol string) (*models.Unit, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unit name is required")
	}

	var count int64
	if err := s.db.Model(&models.Unit{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUnit
	}

	unit := &models.Unit{UserID: userID, Name: name, Symbol: symbol}
	if err := s.db.Create(unit).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return unit, nil
}

// GetUserUnits retrieves a paginated list of units for a user.
func (s *catalogService) GetUserUnits(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Unit], error) {
	page.Defaults()

	base := s.db.Model(&models.Unit{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var units []models.Unit
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&units).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(units, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateUnit updates a unit's name and symbol.
func (s *catalogService) UpdateUnit(userID, unitID uint, name, symbol string) (*models.Unit, error) {
	unit, err := s.getUnit(userID, unitID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" && name != unit.Name {
		var count int64
		if err := s.db.Model(&models.Unit{}).
			Where("user_id = ? AND name = ? AND id <> ?", userID, name, unitID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrDuplicateUnit
		}
		updates["name"] = name
	}
	if symbol != "" {
		updates["symbol"] = symbol
	}

	if len(updates) > 0 {
		if err := s.db.Model(unit).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return unit, nil
}

// DeleteUnit deletes a unit unless material prices still reference it.
func (s *catalogService) DeleteUnit(userID, unitID uint) error {
	unit, err := s.getUnit(userID, unitID)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.MaterialPrice{}).
		Where("unit_id = ?", unitID).
		Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrUnitInUse
	}

	if err := s.db.Delete(unit).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *catalogService) getUnit(userID, unitID uint) (*models.Unit, error) {
	var unit models.Unit
	if err := s.db.Where("id = ? AND user_id = ?", unitID, userID).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnitNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &unit, nil
}

// CreateWorkItemCategory creates a work item category with a unique name per user.
func (s *catalogService) CreateWorkItemCategory(userID uint, name string) (*models.WorkItemCategory, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.WorkItemCategory{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.WorkItemCategory{UserID: userID, Name: name}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetUserWorkItemCategories retrieves a paginated list of work item categories.
func (s *catalogService) GetUserWorkItemCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.WorkItemCategory], error) {
	page.Defaults()

	base := s.db.Model(&models.WorkItemCategory{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.WorkItemCategory
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteWorkItemCategory deletes a category unless definitions still use it.
func (s *catalogService) DeleteWorkItemCategory(userID, categoryID uint) error {
	var category models.WorkItemCategory
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var inUse int64
	if err := s.db.Model(&models.WorkItemDefinition{}).
		Where("category_id = ?", categoryID).
		Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(&category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateCashFlowCategory creates a cash flow category, unique per (name, type).
func (s *catalogService) CreateCashFlowCategory(userID uint, name string, categoryType models.CashFlowType) (*models.CashFlowCategory, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CashFlowTypeIncome && categoryType != models.CashFlowTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
	}

	var count int64
	if err := s.db.Model(&models.CashFlowCategory{}).
		Where("user_id = ? AND name = ? AND type = ?", userID, name, categoryType).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.CashFlowCategory{UserID: userID, Name: name, Type: categoryType}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetUserCashFlowCategories retrieves a paginated list of cash flow categories.
func (s *catalogService) GetUserCashFlowCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.CashFlowCategory], error) {
	page.Defaults()

	base := s.db.Model(&models.CashFlowCategory{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.CashFlowCategory
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteCashFlowCategory deletes a category unless entries still reference it.
func (s *catalogService) DeleteCashFlowCategory(userID, categoryID uint) error {
	var category models.CashFlowCategory
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var inUse int64
	if err := s.db.Model(&models.CashFlowEntry{}).
		Where("category_id = ?", categoryID).
		Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(&category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateMaterialPrice creates a catalog price, unique per (name, unit).
func (s *catalogService) CreateMaterialPrice(userID uint, name string, componentType models.ComponentType, unitID uint, price int64) (*models.MaterialPrice, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "material price name is required")
	}
	if price < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
	}

	if _, err := s.getUnit(userID, unitID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.MaterialPrice{}).
		Where("user_id = ? AND name = ? AND unit_id = ?", userID, name, unitID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateMaterial
	}

	mp := &models.MaterialPrice{
		UserID: userID,
		Name:   name,
		Type:   componentType,
		UnitID: unitID,
		Price:  price,
	}
	if err := s.db.Create(mp).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return mp, nil
}

// GetUserMaterialPrices retrieves a paginated list of material prices with units.
func (s *catalogService) GetUserMaterialPrices(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.MaterialPrice], error) {
	page.Defaults()

	base := s.db.Model(&models.MaterialPrice{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var prices []models.MaterialPrice
	if err := base.Preload("Unit").Scopes(pagination.Paginate(page)).Order("name ASC").Find(&prices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(prices, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetMaterialPriceByID retrieves a material price with its unit.
func (s *catalogService) GetMaterialPriceByID(userID, priceID uint) (*models.MaterialPrice, error) {
	var mp models.MaterialPrice
	if err := s.db.Preload("Unit").
		Where("id = ? AND user_id = ?", priceID, userID).
		First(&mp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMaterialPriceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &mp, nil
}

// UpdateMaterialPrice updates a material price's name and price. Existing
// work item snapshots are value copies and are never affected.
func (s *catalogService) UpdateMaterialPrice(userID, priceID uint, name *string, price *int64) (*models.MaterialPrice, error) {
	mp, err := s.GetMaterialPriceByID(userID, priceID)
	if err != nil {
		return nil, err
	}
	if price != nil && *price < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
	}

	updates := make(map[string]interface{})
	if name != nil && *name != "" {
		updates["name"] = *name
	}
	if price != nil {
		updates["price"] = *price
	}

	if len(updates) > 0 {
		if err := s.db.Model(mp).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return mp, nil
}

// DeleteMaterialPrice soft-deletes a material price. Definitions that still
// reference it will fail to resolve at apply time; snapshots keep their
// copied values.
func (s *catalogService) DeleteMaterialPrice(userID, priceID uint) error {
	mp, err := s.GetMaterialPriceByID(userID, priceID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(mp).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
