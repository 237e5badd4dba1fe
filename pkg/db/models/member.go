package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venuepos/pkg/enums"
)

// Member is a loyalty identity that can be attached to a sale.
type Member struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	MemberNumber   string                 `gorm:"column:member_number;not null;uniqueIndex"`
	FullName       string                 `gorm:"column:full_name;not null"`
	Phone          *string                `gorm:"column:phone"`
	MembershipTier enums.MembershipTier   `gorm:"column:membership_tier;type:text;not null"`
	Status         enums.MembershipStatus `gorm:"column:status;type:text;not null;index"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
