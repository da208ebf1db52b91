package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"mafiainsight/internal/client/gomafia"
	"mafiainsight/internal/models"
)

var (
	minElo = decimal.Zero
	maxElo = decimal.NewFromInt(3000)
)

// ValidatePlayer checks the structural invariants of a scraped player record.
// It never errors; an invalid record is simply not importable.
func ValidatePlayer(p *gomafia.PlayerData) bool {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return false
	}
	if p.TotalGames < 0 || p.Wins < 0 || p.Losses < 0 {
		return false
	}
	if p.Wins+p.Losses != p.TotalGames {
		return false
	}
	if p.EloRating.Cmp(minElo) < 0 || p.EloRating.Cmp(maxElo) > 0 {
		return false
	}
	return true
}

// ValidateGame checks a scraped game record: a parseable date, a sane
// duration, well-formed participants and a known winner team if present.
func ValidateGame(g *gomafia.GameData) bool {
	if g == nil || strings.TrimSpace(g.ID) == "" {
		return false
	}
	if _, err := parseGameDate(g.Date); err != nil {
		return false
	}
	if g.Duration != nil && (*g.Duration < 0 || *g.Duration > 1440) {
		return false
	}
	for _, p := range g.Participants {
		if strings.TrimSpace(p.PlayerID) == "" || strings.TrimSpace(p.Role) == "" {
			return false
		}
		if p.Team != "BLACK" && p.Team != "RED" {
			return false
		}
	}
	if g.WinnerTeam != "" && g.WinnerTeam != "BLACK" && g.WinnerTeam != "RED" && g.WinnerTeam != "DRAW" {
		return false
	}
	return true
}

func parseGameDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// TransformPlayer maps a scraped player into its persistence shape. Unlike
// Validate it fails loudly: a shape mismatch here is a bug or a site change,
// not a bad record.
func TransformPlayer(raw *gomafia.PlayerData, now time.Time) (*models.Player, error) {
	if raw == nil {
		return nil, fmt.Errorf("player data is nil")
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("player id is empty")
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("player %s: name is empty", raw.ID)
	}
	item := &models.Player{
		GomafiaID:  raw.ID,
		Name:       raw.Name,
		EloRating:  raw.EloRating,
		TotalGames: raw.TotalGames,
		Wins:       raw.Wins,
		Losses:     raw.Losses,
		SyncStatus: models.EntitySyncStatusSynced,
		LastSyncAt: &now,
		RawJSON:    datatypes.JSON(raw.Raw),
		UpdatedAt:  now,
	}
	if v := strings.TrimSpace(raw.Region); v != "" {
		item.Region = &v
	}
	if v := strings.TrimSpace(raw.ClubID); v != "" {
		item.ClubID = &v
	}
	return item, nil
}

func TransformPlayerYearStats(raw *gomafia.PlayerData, now time.Time) []models.PlayerYearStat {
	if raw == nil || len(raw.YearStats) == 0 {
		return nil
	}
	items := make([]models.PlayerYearStat, 0, len(raw.YearStats))
	for _, ys := range raw.YearStats {
		if ys.Year == 0 || ys.Games < 0 || ys.Wins < 0 || ys.Wins > ys.Games {
			continue
		}
		rate := decimal.Zero
		if ys.Games > 0 {
			rate = decimal.NewFromInt(int64(ys.Wins)).DivRound(decimal.NewFromInt(int64(ys.Games)), 4)
		}
		items = append(items, models.PlayerYearStat{
			PlayerID:   raw.ID,
			Year:       ys.Year,
			Games:      ys.Games,
			Wins:       ys.Wins,
			WinRate:    rate,
			LastSyncAt: &now,
		})
	}
	return items
}

func TransformClub(raw *gomafia.ClubData, now time.Time) (*models.Club, error) {
	if raw == nil {
		return nil, fmt.Errorf("club data is nil")
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("club id is empty")
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("club %s: name is empty", raw.ID)
	}
	item := &models.Club{
		GomafiaID:   raw.ID,
		Name:        raw.Name,
		MemberCount: len(raw.Members),
		SyncStatus:  models.EntitySyncStatusSynced,
		LastSyncAt:  &now,
		RawJSON:     datatypes.JSON(raw.Raw),
		UpdatedAt:   now,
	}
	if v := strings.TrimSpace(raw.City); v != "" {
		item.City = &v
	}
	if v := strings.TrimSpace(raw.Region); v != "" {
		item.Region = &v
	}
	return item, nil
}

func TransformClubMembers(raw *gomafia.ClubData, now time.Time) []models.ClubMember {
	if raw == nil {
		return nil
	}
	items := make([]models.ClubMember, 0, len(raw.Members))
	for _, m := range raw.Members {
		if strings.TrimSpace(m.PlayerID) == "" {
			continue
		}
		item := models.ClubMember{
			ClubID:     raw.ID,
			PlayerID:   m.PlayerID,
			LastSyncAt: &now,
		}
		if v := strings.TrimSpace(m.Role); v != "" {
			item.Role = &v
		}
		items = append(items, item)
	}
	return items
}

func TransformTournament(raw *gomafia.TournamentData, now time.Time) (*models.Tournament, error) {
	if raw == nil {
		return nil, fmt.Errorf("tournament data is nil")
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("tournament id is empty")
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("tournament %s: name is empty", raw.ID)
	}
	item := &models.Tournament{
		GomafiaID:  raw.ID,
		Name:       raw.Name,
		SyncStatus: models.EntitySyncStatusSynced,
		LastSyncAt: &now,
		RawJSON:    datatypes.JSON(raw.Raw),
		UpdatedAt:  now,
	}
	if v := strings.TrimSpace(raw.Status); v != "" {
		item.Status = &v
	}
	if v := strings.TrimSpace(raw.ChiefJudgeID); v != "" {
		item.ChiefJudgeID = &v
	}
	if t, err := parseGameDate(raw.StartDate); err == nil {
		item.StartDate = &t
	}
	if t, err := parseGameDate(raw.EndDate); err == nil {
		item.EndDate = &t
	}
	return item, nil
}

func TransformGame(raw *gomafia.GameData, now time.Time) (*models.Game, error) {
	if raw == nil {
		return nil, fmt.Errorf("game data is nil")
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("game id is empty")
	}
	playedAt, err := parseGameDate(raw.Date)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", raw.ID, err)
	}
	participants := make([]models.GameParticipant, 0, len(raw.Participants))
	for _, p := range raw.Participants {
		participants = append(participants, models.GameParticipant{
			PlayerID: p.PlayerID,
			Role:     p.Role,
			Team:     p.Team,
		})
	}
	encoded, err := json.Marshal(participants)
	if err != nil {
		return nil, fmt.Errorf("game %s: encode participants: %w", raw.ID, err)
	}
	item := &models.Game{
		GomafiaID:    raw.ID,
		PlayedAt:     playedAt,
		Duration:     raw.Duration,
		Participants: datatypes.JSON(encoded),
		SyncStatus:   models.EntitySyncStatusSynced,
		LastSyncAt:   &now,
		RawJSON:      datatypes.JSON(raw.Raw),
		UpdatedAt:    now,
	}
	if v := strings.TrimSpace(raw.TournamentID); v != "" {
		item.TournamentID = &v
	}
	if v := strings.TrimSpace(raw.WinnerTeam); v != "" {
		item.WinnerTeam = &v
	}
	return item, nil
}

// PlayerChanged compares only the fields the sync cares about, so unchanged
// records skip the write path. A missing old record always reports changed.
func PlayerChanged(old, next *models.Player) bool {
	if old == nil {
		return true
	}
	if next == nil {
		return false
	}
	if old.Name != next.Name {
		return true
	}
	if old.EloRating.Cmp(next.EloRating) != 0 {
		return true
	}
	if old.TotalGames != next.TotalGames || old.Wins != next.Wins || old.Losses != next.Losses {
		return true
	}
	return false
}

func ClubChanged(old, next *models.Club) bool {
	if old == nil {
		return true
	}
	if next == nil {
		return false
	}
	if old.Name != next.Name || old.MemberCount != next.MemberCount {
		return true
	}
	if !strPtrEqual(old.City, next.City) || !strPtrEqual(old.Region, next.Region) {
		return true
	}
	return false
}

func TournamentChanged(old, next *models.Tournament) bool {
	if old == nil {
		return true
	}
	if next == nil {
		return false
	}
	if old.Name != next.Name {
		return true
	}
	if !strPtrEqual(old.Status, next.Status) || !strPtrEqual(old.ChiefJudgeID, next.ChiefJudgeID) {
		return true
	}
	if !timePtrEqual(old.StartDate, next.StartDate) || !timePtrEqual(old.EndDate, next.EndDate) {
		return true
	}
	return false
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
