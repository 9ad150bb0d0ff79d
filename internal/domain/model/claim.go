package model

import (
	"database/sql/driver"
	"time"
)

// ClaimType categorizes a claim.
type ClaimType string

const (
	ClaimTypeDamage      ClaimType = "damage"
	ClaimTypeLoss        ClaimType = "loss"
	ClaimTypeTheft       ClaimType = "theft"
	ClaimTypeMaintenance ClaimType = "maintenance"
	ClaimTypeOther       ClaimType = "other"
)

// Valid reports whether the claim type is recognized.
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeDamage, ClaimTypeLoss, ClaimTypeTheft, ClaimTypeMaintenance, ClaimTypeOther:
		return true
	}
	return false
}

// ClaimStatus tracks admin handling of a claim.
type ClaimStatus string

const (
	ClaimStatusSubmitted ClaimStatus = "submitted"
	ClaimStatusReviewing ClaimStatus = "reviewing"
	ClaimStatusApproved  ClaimStatus = "approved"
	ClaimStatusRejected  ClaimStatus = "rejected"
)

// Scan implements sql.Scanner interface
func (s *ClaimStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = ClaimStatus(v)
	case []byte:
		*s = ClaimStatus(v)
	default:
		*s = ClaimStatusSubmitted
	}
	return nil
}

// Value implements driver.Valuer interface
func (s ClaimStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Claim is a user-filed request against an active subscription. The front
// end never deletes claims; only admins mutate them after creation.
type Claim struct {
	ID                 int64       `gorm:"primaryKey;autoIncrement" json:"-"`
	ExternalID         string      `gorm:"uniqueIndex;size:36;not null" json:"_id"`
	SubscriptionID     string      `gorm:"index;size:36;not null" json:"subscriptionId"`
	Email              string      `gorm:"index;size:320;not null" json:"email"`
	SKU                string      `gorm:"size:100;not null" json:"sku"`
	ProductDescription string      `gorm:"type:text;not null" json:"productDescription"`
	ClaimType          ClaimType   `gorm:"size:20;not null" json:"claimType"`
	Notes              string      `gorm:"type:text" json:"notes,omitempty"`
	AdminNotes         string      `gorm:"type:text" json:"adminNotes,omitempty"`
	ImagePaths         StringList  `gorm:"type:jsonb" json:"imagePaths,omitempty"`
	Status             ClaimStatus `gorm:"size:20;not null;default:'submitted'" json:"status"`
	CreatedAt          time.Time   `gorm:"default:now()" json:"createdAt"`
	UpdatedAt          time.Time   `gorm:"default:now()" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Claim) TableName() string {
	return "claims"
}
