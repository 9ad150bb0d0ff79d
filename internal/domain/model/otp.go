package model

import "time"

// EmailOTP is a one-time code mailed out when a SKU lookup hits a
// submission owned by a different email address.
type EmailOTP struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	Email     string    `gorm:"index:idx_otp_email_sku;size:320;not null" json:"email"`
	SKU       string    `gorm:"index:idx_otp_email_sku;size:100;not null" json:"sku"`
	Code      string    `gorm:"size:10;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	Consumed  bool      `gorm:"not null;default:false" json:"consumed"`
	CreatedAt time.Time `gorm:"default:now()" json:"createdAt"`
}

// TableName specifies the table name for GORM
func (EmailOTP) TableName() string {
	return "email_otps"
}

// Expired reports whether the code can no longer be used.
func (o *EmailOTP) Expired(now time.Time) bool {
	return o.Consumed || now.After(o.ExpiresAt)
}
