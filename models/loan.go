// models/loan.go
package models

import "time"

const LoanTable = "wst_loans"
const LoanTransferTable = "wst_loan_transfers"

const (
	LoanActive      = "active"
	LoanReturned    = "returned"
	LoanTransferred = "transferred"
)

type Loan struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	ToolID       string `gorm:"type:uuid;index;not null" json:"toolId"`
	TechnicianID string `gorm:"type:uuid;index;not null" json:"technicianId"`
	Purpose      string `gorm:"size:255;not null" json:"purpose"`
	Vehicle      string `gorm:"size:120" json:"vehicle,omitempty"` // 车牌/工单号，可选

	Status         string     `gorm:"size:20;not null;default:'active';index" json:"status"`
	BorrowedAt     time.Time  `gorm:"index;not null" json:"borrowedAt"`
	ExpectedReturn time.Time  `gorm:"index;not null" json:"expectedReturn"`
	ActualReturn   *time.Time `json:"actualReturn,omitempty"`

	// 通知去重标记：只会 false→true，转借时整组清零
	DueSoonNotified bool `gorm:"not null;default:false" json:"dueSoonNotified"`
	OverdueNotified bool `gorm:"not null;default:false" json:"overdueNotified"`
	AdminNotified   bool `gorm:"not null;default:false" json:"adminNotified"`

	// 归还时登记的工具状况
	ReturnHasDamage bool   `gorm:"not null;default:false" json:"returnHasDamage"`
	ReturnNotes     string `gorm:"size:500" json:"returnNotes,omitempty"`

	Transfers []LoanTransfer `gorm:"foreignKey:LoanID" json:"transferHistory,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoanTransfer 转借历史，只追加不修改
type LoanTransfer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	LoanID         string    `gorm:"type:uuid;index;not null" json:"loanId"`
	FromTechnician string    `gorm:"type:uuid;not null" json:"fromTechnician"`
	ToTechnician   string    `gorm:"type:uuid;not null" json:"toTechnician"`
	InitiatedBy    string    `gorm:"type:uuid;not null" json:"initiatedBy"`
	TransferredAt  time.Time `gorm:"not null" json:"transferredAt"`
	Notes          string    `gorm:"size:500" json:"notes,omitempty"`
}

func (Loan) TableName() string         { return LoanTable }
func (LoanTransfer) TableName() string { return LoanTransferTable }
