package models

// Project represents one construction project and its running financial totals.
//
// TotalCalculatedBudget, ActualIncome and ActualExpenses are maintained
// incrementally by the ledger operations (never recomputed on read). The
// invariants are:
//
//	TotalCalculatedBudget == Σ work item TotalCostSnapshot
//	ActualIncome          == Σ cash flow entries with type=income
//	ActualExpenses        == Σ cash flow entries with type=expense
//
// ProjectService.RecomputeTotals performs the Σ-over-children recomputation for
// reconciliation.
type Project struct {
	Base
	UserID                uint   `gorm:"not null;index" json:"user_id"`
	Name                  string `gorm:"not null" json:"name"`
	Description           string `json:"description"`
	TotalCalculatedBudget int64  `gorm:"type:bigint;not null;default:0" json:"total_calculated_budget"`
	ActualIncome          int64  `gorm:"type:bigint;not null;default:0" json:"actual_income"`
	ActualExpenses        int64  `gorm:"type:bigint;not null;default:0" json:"actual_expenses"`
	IsArchived            bool   `gorm:"default:false" json:"is_archived"`

	// Relationships
	WorkItems       []ProjectWorkItem `gorm:"foreignKey:ProjectID" json:"work_items,omitempty"`
	CashFlowEntries []CashFlowEntry   `gorm:"foreignKey:ProjectID" json:"cash_flow_entries,omitempty"`
}
