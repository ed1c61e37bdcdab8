// models/notification.go
package models

import "time"

const NotificationTable = "wst_notifications"

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// 关联实体类型（relatedTo.kind）
const RelatedLoan = "loan"

// Notification 创建后除 read 外不再修改
type Notification struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID string `gorm:"type:uuid;index;not null" json:"recipientId"`
	Message     string `gorm:"size:500;not null" json:"message"`
	Severity    string `gorm:"size:10;not null;default:'info'" json:"severity"`
	Read        bool   `gorm:"not null;default:false;index" json:"read"`

	RelatedKind string  `gorm:"size:20" json:"relatedKind,omitempty"`
	RelatedID   *string `gorm:"type:uuid" json:"relatedId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Notification) TableName() string { return NotificationTable }
