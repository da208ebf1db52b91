package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PhaseClubs                   = "CLUBS"
	PhasePlayers                 = "PLAYERS"
	PhaseClubMembers             = "CLUB_MEMBERS"
	PhasePlayerYearStats         = "PLAYER_YEAR_STATS"
	PhaseTournaments             = "TOURNAMENTS"
	PhaseTournamentChiefJudge    = "TOURNAMENT_CHIEF_JUDGE"
	PhasePlayerTournamentHistory = "PLAYER_TOURNAMENT_HISTORY"
	PhaseJudges                  = "JUDGES"
	PhaseGames                   = "GAMES"
	PhaseStatistics              = "STATISTICS"

	SkippedStatusPending   = "PENDING"
	SkippedStatusRetrying  = "RETRYING"
	SkippedStatusCompleted = "COMPLETED"
	SkippedStatusFailed    = "FAILED"
)

// SkippedEntity is one page or entity that failed during an import pass and
// was set aside instead of aborting the run. At least one of EntityID and
// PageNumber must be present for the row to be actionable on manual retry.
type SkippedEntity struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement"`
	Phase        string         `gorm:"type:text;not null;index"`
	EntityType   string         `gorm:"type:text;not null;index"`
	EntityID     *string        `gorm:"type:text;index"`
	PageNumber   *int           `gorm:"index"`
	ErrorCode    string         `gorm:"type:text;not null"`
	ErrorMessage string         `gorm:"type:text;not null"`
	ErrorDetails datatypes.JSON `gorm:"type:jsonb"`
	RetryCount   int            `gorm:"not null;default:0"`
	Status       string         `gorm:"type:text;not null;default:'PENDING';index"`
	SyncLogID    *uint64        `gorm:"index"`
	LastRetryAt  *time.Time     `gorm:"type:timestamptz"`
	CreatedAt    time.Time      `gorm:"type:timestamptz"`
	UpdatedAt    time.Time      `gorm:"type:timestamptz"`
}

func (SkippedEntity) TableName() string {
	return "skipped_entities"
}

func ValidPhase(phase string) bool {
	switch phase {
	case PhaseClubs, PhasePlayers, PhaseClubMembers, PhasePlayerYearStats,
		PhaseTournaments, PhaseTournamentChiefJudge, PhasePlayerTournamentHistory,
		PhaseJudges, PhaseGames, PhaseStatistics:
		return true
	}
	return false
}
