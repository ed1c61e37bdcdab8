package models

import (
	"time"
)

const UserTable = "wst_users"

const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
)

type User struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Name  string `gorm:"size:200;not null" json:"name"`
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`

	// 未激活账号还没有密码，激活时才设置
	PasswordHash string `gorm:"size:100" json:"-"`
	Role         string `gorm:"size:20;not null;default:'technician';index" json:"role"`
	IsActive     bool   `gorm:"not null;default:true" json:"isActive"`

	// 首次登录用的一次性激活令牌
	ActivationToken   *string    `gorm:"size:64;uniqueIndex" json:"-"`
	ActivationExpires *time.Time `json:"-"`

	LastSeenAt *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return UserTable
}
