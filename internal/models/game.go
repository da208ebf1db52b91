package models

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	GomafiaID    string         `gorm:"primaryKey;type:text"`
	TournamentID *string        `gorm:"type:text;index"`
	PlayedAt     time.Time      `gorm:"type:timestamptz;not null;index"`
	Duration     *int           `gorm:"default:null"`
	WinnerTeam   *string        `gorm:"type:text"`
	Participants datatypes.JSON `gorm:"type:jsonb;not null"`
	SyncStatus   string         `gorm:"type:text;not null;default:'PENDING';index"`
	LastSyncAt   *time.Time     `gorm:"type:timestamptz;index"`
	RawJSON      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"type:timestamptz"`
	UpdatedAt    time.Time      `gorm:"type:timestamptz"`
}

func (Game) TableName() string {
	return "games"
}

// GameParticipant is the element shape stored in Game.Participants.
type GameParticipant struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
	Team     string `json:"team"`
}
