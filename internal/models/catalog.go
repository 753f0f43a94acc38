package models

// Unit is a measurement unit for priced materials and labor (m², m³, kg, OH).
type Unit struct {
	Base
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	Symbol string `json:"symbol"`
}

// WorkItemCategory groups work item definitions (e.g. "Pekerjaan Persiapan").
type WorkItemCategory struct {
	Base
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
}

// CashFlowCategory classifies manual and auto-generated cash flow entries.
type CashFlowCategory struct {
	Base
	UserID uint         `gorm:"not null;index" json:"user_id"`
	Name   string       `gorm:"not null" json:"name"`
	Type   CashFlowType `gorm:"not null" json:"type"`
}

// MaterialPrice is a current catalog price for one material or labor item.
// Work item snapshots copy the price at apply time; editing a MaterialPrice
// never affects existing snapshots.
type MaterialPrice struct {
	Base
	UserID uint          `gorm:"not null;index" json:"user_id"`
	Name   string        `gorm:"not null" json:"name"`
	Type   ComponentType `gorm:"not null" json:"type"`
	UnitID uint          `gorm:"not null" json:"unit_id"`
	Price  int64         `gorm:"type:bigint;not null" json:"price"`

	// Relationships
	Unit Unit `gorm:"foreignKey:UnitID" json:"unit"`
}
