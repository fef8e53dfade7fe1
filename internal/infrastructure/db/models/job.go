package models

import (
	"time"

	"gorm.io/datatypes"
)

type Job struct {
	ID          string         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	JobType     string         `gorm:"type:text;not null;index"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	Status      string         `gorm:"type:text;not null;index"`
	Progress    int            `gorm:"not null;default:0"`
	Meta        datatypes.JSON `gorm:"type:jsonb"`
	Error       *string        `gorm:"type:text"`
	LockedBy    *string        `gorm:"type:text"`
	LockedAt    *time.Time
	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:3"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FinishedAt  *time.Time
}

func (Job) TableName() string {
	return "jobs"
}
