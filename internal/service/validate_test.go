package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mafiainsight/internal/client/gomafia"
)

func intPtr(v int) *int { return &v }

func TestValidatePlayer(t *testing.T) {
	tests := []struct {
		name   string
		player gomafia.PlayerData
		want   bool
	}{
		{
			name: "valid",
			player: gomafia.PlayerData{
				ID: "42", Name: "Don", EloRating: decimal.NewFromInt(1500),
				TotalGames: 10, Wins: 6, Losses: 4,
			},
			want: true,
		},
		{
			name: "games mismatch",
			player: gomafia.PlayerData{
				ID: "42", EloRating: decimal.NewFromInt(1500),
				TotalGames: 10, Wins: 6, Losses: 3,
			},
			want: false,
		},
		{
			name: "elo above range",
			player: gomafia.PlayerData{
				ID: "42", EloRating: decimal.NewFromInt(3001),
			},
			want: false,
		},
		{
			name: "negative wins",
			player: gomafia.PlayerData{
				ID: "42", EloRating: decimal.NewFromInt(1500),
				TotalGames: 0, Wins: -1, Losses: 1,
			},
			want: false,
		},
		{name: "empty id", player: gomafia.PlayerData{}, want: false},
	}
	for _, tt := range tests {
		if got := ValidatePlayer(&tt.player); got != tt.want {
			t.Fatalf("%s: ValidatePlayer = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidateGame(t *testing.T) {
	valid := gomafia.GameData{
		ID:   "g1",
		Date: "2026-03-01",
		Participants: []gomafia.GameParticipant{
			{PlayerID: "1", Role: "DON", Team: "BLACK"},
			{PlayerID: "2", Role: "CITIZEN", Team: "RED"},
		},
		WinnerTeam: "RED",
	}
	if !ValidateGame(&valid) {
		t.Fatalf("expected valid game")
	}

	badDate := valid
	badDate.Date = "yesterday"
	if ValidateGame(&badDate) {
		t.Fatalf("expected invalid date to fail")
	}

	badDuration := valid
	badDuration.Duration = intPtr(2000)
	if ValidateGame(&badDuration) {
		t.Fatalf("expected out-of-range duration to fail")
	}

	badTeam := valid
	badTeam.Participants = []gomafia.GameParticipant{{PlayerID: "1", Role: "DON", Team: "BLUE"}}
	if ValidateGame(&badTeam) {
		t.Fatalf("expected unknown team to fail")
	}

	badWinner := valid
	badWinner.WinnerTeam = "NOBODY"
	if ValidateGame(&badWinner) {
		t.Fatalf("expected unknown winner to fail")
	}
}

func TestTransformPlayer(t *testing.T) {
	now := time.Now().UTC()
	raw := &gomafia.PlayerData{
		ID: "42", Name: "Don", Region: "Moscow", ClubID: "c7",
		EloRating: decimal.NewFromFloat(1712.5), TotalGames: 20, Wins: 11, Losses: 9,
	}
	item, err := TransformPlayer(raw, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.GomafiaID != "42" || item.Name != "Don" {
		t.Fatalf("identity fields not carried: %+v", item)
	}
	if item.Region == nil || *item.Region != "Moscow" {
		t.Fatalf("region not carried")
	}
	if item.SyncStatus != "SYNCED" {
		t.Fatalf("expected SYNCED status, got %s", item.SyncStatus)
	}
	if item.LastSyncAt == nil || !item.LastSyncAt.Equal(now) {
		t.Fatalf("lastSyncAt not stamped")
	}

	if _, err := TransformPlayer(&gomafia.PlayerData{ID: "42"}, now); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestTransformPlayerYearStats(t *testing.T) {
	now := time.Now().UTC()
	raw := &gomafia.PlayerData{
		ID: "42",
		YearStats: []gomafia.YearStat{
			{Year: 2025, Games: 40, Wins: 10},
			{Year: 0, Games: 5, Wins: 1},
			{Year: 2024, Games: 2, Wins: 3},
		},
	}
	stats := TransformPlayerYearStats(raw, now)
	if len(stats) != 1 {
		t.Fatalf("expected 1 valid stat, got %d", len(stats))
	}
	if stats[0].Year != 2025 {
		t.Fatalf("wrong stat kept: %+v", stats[0])
	}
	if !stats[0].WinRate.Equal(decimal.NewFromFloat(0.25)) {
		t.Fatalf("win rate = %s, want 0.25", stats[0].WinRate)
	}
}

func TestPlayerChanged(t *testing.T) {
	now := time.Now().UTC()
	raw := &gomafia.PlayerData{
		ID: "42", Name: "Don", EloRating: decimal.NewFromInt(1500),
		TotalGames: 10, Wins: 6, Losses: 4,
	}
	next, err := TransformPlayer(raw, now)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if !PlayerChanged(nil, next) {
		t.Fatalf("missing old row must report changed")
	}
	same := *next
	if PlayerChanged(&same, next) {
		t.Fatalf("identical rows must not report changed")
	}
	bumped := *next
	bumped.EloRating = decimal.NewFromInt(1501)
	if !PlayerChanged(&bumped, next) {
		t.Fatalf("rating change must report changed")
	}
}

func TestTransformGameParticipants(t *testing.T) {
	now := time.Now().UTC()
	raw := &gomafia.GameData{
		ID:           "g1",
		TournamentID: "t1",
		Date:         "2026-03-01T19:00:00Z",
		WinnerTeam:   "BLACK",
		Participants: []gomafia.GameParticipant{
			{PlayerID: "1", Role: "DON", Team: "BLACK"},
		},
	}
	item, err := TransformGame(raw, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.TournamentID == nil || *item.TournamentID != "t1" {
		t.Fatalf("tournament id not carried")
	}
	if item.WinnerTeam == nil || *item.WinnerTeam != "BLACK" {
		t.Fatalf("winner team not carried")
	}
	if len(item.Participants) == 0 {
		t.Fatalf("participants json empty")
	}
}
