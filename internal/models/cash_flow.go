package models

import "time"

// CashFlowType represents the direction of a cash flow entry.
type CashFlowType string

const (
	CashFlowTypeIncome  CashFlowType = "income"
	CashFlowTypeExpense CashFlowType = "expense"
)

// CashFlowEntry is a dated income or expense record attached to a project.
//
// Auto-generated entries (IsAutoGenerated=true) are created as a side effect
// of applying a work item template, carry the originating WorkItemID, and are
// only ever deleted together with that work item. Manual entries never have a
// WorkItemID.
type CashFlowEntry struct {
	Base
	ProjectID       uint         `gorm:"not null;index" json:"project_id"`
	EntryDate       time.Time    `gorm:"not null" json:"entry_date"`
	Description     string       `json:"description"`
	Type            CashFlowType `gorm:"not null" json:"type"`
	Amount          int64        `gorm:"type:bigint;not null" json:"amount"`
	CategoryID      *uint        `json:"category_id,omitempty"`
	IsAutoGenerated bool         `gorm:"default:false" json:"is_auto_generated"`
	WorkItemID      *uint        `gorm:"index" json:"linked_project_work_item_id,omitempty"`

	// Relationships
	Category *CashFlowCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
