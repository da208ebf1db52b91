package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Player struct {
	GomafiaID  string          `gorm:"primaryKey;type:text"`
	Name       string          `gorm:"type:text;not null;index"`
	Region     *string         `gorm:"type:text;index"`
	ClubID     *string         `gorm:"type:text;index"`
	EloRating  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalGames int             `gorm:"not null;default:0"`
	Wins       int             `gorm:"not null;default:0"`
	Losses     int             `gorm:"not null;default:0"`
	SyncStatus string          `gorm:"type:text;not null;default:'PENDING';index"`
	LastSyncAt *time.Time      `gorm:"type:timestamptz;index"`
	RawJSON    datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt  time.Time       `gorm:"type:timestamptz"`
	UpdatedAt  time.Time       `gorm:"type:timestamptz"`
}

func (Player) TableName() string {
	return "players"
}

type PlayerYearStat struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	PlayerID   string          `gorm:"type:text;not null;uniqueIndex:idx_player_year"`
	Year       int             `gorm:"not null;uniqueIndex:idx_player_year"`
	Games      int             `gorm:"not null;default:0"`
	Wins       int             `gorm:"not null;default:0"`
	WinRate    decimal.Decimal `gorm:"type:numeric(6,4);not null"`
	RawJSON    datatypes.JSON  `gorm:"type:jsonb"`
	LastSyncAt *time.Time      `gorm:"type:timestamptz"`
}

func (PlayerYearStat) TableName() string {
	return "player_year_stats"
}
