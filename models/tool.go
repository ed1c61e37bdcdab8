// models/tool.go
package models

import "time"

const ToolTable = "wst_tools"

// 工具生命周期状态
const (
	ToolAvailable   = "available"
	ToolBorrowed    = "borrowed"
	ToolMaintenance = "maintenance"
	ToolDamaged     = "damaged"
)

type Tool struct {
	ID           string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string  `gorm:"size:200;not null" json:"name"`
	Category     string  `gorm:"size:120;index;not null" json:"category"`
	SerialNumber *string `gorm:"size:120;uniqueIndex" json:"serialNumber,omitempty"` // 可空，但非空时唯一
	Status       string  `gorm:"size:20;not null;default:'available';index" json:"status"`
	Location     string  `gorm:"size:120;not null;default:'main shelve'" json:"location"`
	Description  string  `gorm:"size:500" json:"description,omitempty"`
	Cost         float64 `gorm:"not null;default:0" json:"cost"`

	LastMaintenance *time.Time `json:"lastMaintenance,omitempty"`
	AddedBy         *string    `gorm:"type:uuid" json:"addedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Tool) TableName() string { return ToolTable }

func ValidToolStatus(s string) bool {
	switch s {
	case ToolAvailable, ToolBorrowed, ToolMaintenance, ToolDamaged:
		return true
	}
	return false
}
