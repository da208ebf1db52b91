package gomafia

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Summaries come from paginated listing pages; Data types come from detail
// pages. Raw always carries the untouched payload for the jsonb columns.

type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"login"`
}

type PlayerData struct {
	ID         string          `json:"id"`
	Name       string          `json:"login"`
	Region     string          `json:"region"`
	ClubID     string          `json:"club_id"`
	EloRating  decimal.Decimal `json:"elo"`
	TotalGames int             `json:"total_games"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	YearStats  []YearStat      `json:"year_stats"`
	Raw        json.RawMessage `json:"-"`
}

type YearStat struct {
	Year  int `json:"year"`
	Games int `json:"games"`
	Wins  int `json:"wins"`
}

type ClubSummary struct {
	ID   string `json:"id"`
	Name string `json:"title"`
}

type ClubData struct {
	ID      string          `json:"id"`
	Name    string          `json:"title"`
	City    string          `json:"city"`
	Region  string          `json:"region"`
	Members []ClubMember    `json:"members"`
	Raw     json.RawMessage `json:"-"`
}

type ClubMember struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
}

type TournamentSummary struct {
	ID   string `json:"id"`
	Name string `json:"title"`
}

type TournamentData struct {
	ID           string          `json:"id"`
	Name         string          `json:"title"`
	Status       string          `json:"status"`
	ChiefJudgeID string          `json:"referee_id"`
	StartDate    string          `json:"date_start"`
	EndDate      string          `json:"date_end"`
	Raw          json.RawMessage `json:"-"`
}

type GameData struct {
	ID           string            `json:"id"`
	TournamentID string            `json:"tournament_id"`
	Date         string            `json:"date"`
	Duration     *int              `json:"duration"`
	WinnerTeam   string            `json:"winner_team"`
	Participants []GameParticipant `json:"players"`
	Raw          json.RawMessage   `json:"-"`
}

type GameParticipant struct {
	PlayerID string `json:"player_id"`
	Role     string `json:"role"`
	Team     string `json:"team"`
}

// RetryOptions carries the entity-specific listing filters needed to re-fetch
// a previously skipped page. Year/Region apply to players and clubs,
// TimeFilter to tournaments.
type RetryOptions struct {
	Year       int    `json:"year,omitempty"`
	Region     string `json:"region,omitempty"`
	TimeFilter string `json:"time_filter,omitempty"`
}

// RetriedRecord is one record recovered by RetrySkippedPages. Exactly one of
// the typed fields is set, matching EntityType.
type RetriedRecord struct {
	EntityType string
	Page       int
	Player     *PlayerData
	Club       *ClubData
	Tournament *TournamentData
	Game       *GameData
}
