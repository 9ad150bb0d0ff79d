package model

import "time"

// AdminUser holds dashboard credentials. Passwords are stored as bcrypt
// hashes only.
type AdminUser struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time `gorm:"default:now()" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"default:now()" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (AdminUser) TableName() string {
	return "admin_users"
}
