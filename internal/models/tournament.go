package models

import (
	"time"

	"gorm.io/datatypes"
)

type Tournament struct {
	GomafiaID    string         `gorm:"primaryKey;type:text"`
	Name         string         `gorm:"type:text;not null;index"`
	Status       *string        `gorm:"type:text;index"`
	ChiefJudgeID *string        `gorm:"type:text;index"`
	StartDate    *time.Time     `gorm:"type:timestamptz;index"`
	EndDate      *time.Time     `gorm:"type:timestamptz"`
	SyncStatus   string         `gorm:"type:text;not null;default:'PENDING';index"`
	LastSyncAt   *time.Time     `gorm:"type:timestamptz;index"`
	RawJSON      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"type:timestamptz"`
	UpdatedAt    time.Time      `gorm:"type:timestamptz"`
}

func (Tournament) TableName() string {
	return "tournaments"
}
