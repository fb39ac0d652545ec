package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// Notification stores in-app notifications for any party.
type Notification struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientType enums.RecipientType    `gorm:"type:text;not null"`
	RecipientID   uuid.UUID              `gorm:"type:uuid;not null"`
	Type          enums.NotificationType `gorm:"type:text;not null"`
	Title         string                 `gorm:"type:text;not null"`
	Message       string                 `gorm:"type:text;not null"`
	Metadata      datatypes.JSONMap      `gorm:"type:jsonb"`
	EventID       *uuid.UUID             `gorm:"type:uuid"`
	ReadAt        *time.Time             `gorm:"type:timestamptz"`
	CreatedAt     time.Time              `gorm:"type:timestamptz;autoCreateTime"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}
