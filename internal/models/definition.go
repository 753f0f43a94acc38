package models

// WorkItemDefinition is a reusable recipe of priced components keyed by a
// primary input (per m², per m³, per unit). Applying a definition to a project
// freezes its current components and prices into a ProjectWorkItem snapshot.
type WorkItemDefinition struct {
	Base
	UserID            uint   `gorm:"not null;index" json:"user_id"`
	Key               string `gorm:"not null" json:"key"`
	Name              string `gorm:"not null" json:"name"`
	CategoryID        *uint  `json:"category_id,omitempty"`
	PrimaryInputLabel string `json:"primary_input_label"`

	// Relationships
	Category   *WorkItemCategory     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Components []DefinitionComponent `gorm:"foreignKey:DefinitionID" json:"components,omitempty"`
}

// DefinitionComponent is one line of a definition: a catalog price reference
// with the coefficient applied per unit of primary input.
type DefinitionComponent struct {
	Base
	DefinitionID    uint          `gorm:"not null;index" json:"definition_id"`
	DisplayName     string        `gorm:"not null" json:"display_name"`
	MaterialPriceID uint          `gorm:"not null" json:"material_price_id"`
	Type            ComponentType `gorm:"not null" json:"type"`
	Coefficient     float64       `gorm:"not null" json:"coefficient"`
	SortOrder       int           `gorm:"not null;default:0" json:"sort_order"`

	// Relationships
	MaterialPrice MaterialPrice `gorm:"foreignKey:MaterialPriceID" json:"material_price"`
}
