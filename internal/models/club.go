package models

import (
	"time"

	"gorm.io/datatypes"
)

type Club struct {
	GomafiaID   string         `gorm:"primaryKey;type:text"`
	Name        string         `gorm:"type:text;not null;index"`
	City        *string        `gorm:"type:text"`
	Region      *string        `gorm:"type:text;index"`
	MemberCount int            `gorm:"not null;default:0"`
	SyncStatus  string         `gorm:"type:text;not null;default:'PENDING';index"`
	LastSyncAt  *time.Time     `gorm:"type:timestamptz;index"`
	RawJSON     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"type:timestamptz"`
	UpdatedAt   time.Time      `gorm:"type:timestamptz"`
}

func (Club) TableName() string {
	return "clubs"
}

// ClubMember links a player to a club roster as scraped from the club page.
type ClubMember struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	ClubID     string     `gorm:"type:text;not null;uniqueIndex:idx_club_player"`
	PlayerID   string     `gorm:"type:text;not null;uniqueIndex:idx_club_player"`
	Role       *string    `gorm:"type:text"`
	LastSyncAt *time.Time `gorm:"type:timestamptz"`
}

func (ClubMember) TableName() string {
	return "club_members"
}
