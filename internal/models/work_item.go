package models

import "time"

// ComponentType classifies a priced component of a work item.
type ComponentType string

const (
	ComponentTypeMaterial  ComponentType = "material"
	ComponentTypeLabor     ComponentType = "labor"
	ComponentTypeEquipment ComponentType = "equipment"
	ComponentTypeOther     ComponentType = "other"
)

// ProjectWorkItem is a costed instantiation of a work item definition inside
// one project. Definition name, key and all component prices are captured at
// apply time; later catalog or definition edits never change an existing item.
type ProjectWorkItem struct {
	Base
	ProjectID           uint      `gorm:"not null;index" json:"project_id"`
	DefinitionID        *uint     `json:"definition_id,omitempty"`
	DefinitionKey       string    `gorm:"not null" json:"definition_key"`
	Name                string    `gorm:"not null" json:"name"`
	PrimaryInputValue   float64   `gorm:"not null" json:"primary_input_value"`
	PrimaryInputDisplay string    `json:"primary_input_display"`
	TotalCostSnapshot   int64     `gorm:"type:bigint;not null" json:"total_cost_snapshot"`
	AddedAt             time.Time `gorm:"not null" json:"added_at"`

	// Relationships
	Components []WorkItemComponent `gorm:"foreignKey:WorkItemID" json:"components_snapshot,omitempty"`
}

// WorkItemComponent is one frozen line of a work item snapshot:
// quantity = primary input value * coefficient, cost = quantity * price per
// unit, rounded to the nearest rupiah. MaterialPriceID is kept for
// traceability only and is never joined back to the live catalog.
type WorkItemComponent struct {
	Base
	WorkItemID      uint          `gorm:"not null;index" json:"work_item_id"`
	Name            string        `gorm:"not null" json:"name"`
	Unit            string        `json:"unit"`
	Type            ComponentType `gorm:"not null" json:"type"`
	Coefficient     float64       `gorm:"not null" json:"coefficient"`
	Quantity        float64       `gorm:"not null" json:"quantity"`
	PricePerUnit    int64         `gorm:"type:bigint;not null" json:"price_per_unit"`
	Cost            int64         `gorm:"type:bigint;not null" json:"cost_calculated"`
	MaterialPriceID *uint         `json:"material_price_id,omitempty"`
	SortOrder       int           `gorm:"not null;default:0" json:"sort_order"`
}
