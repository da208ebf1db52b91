package service

import (
	"context"

	"mafiainsight/internal/client/gomafia"
)

// DataSource is the slice of the gomafia client the sync pipeline consumes.
// *gomafia.Client satisfies it; tests substitute a stub.
type DataSource interface {
	ListPlayers(ctx context.Context, page, limit int) ([]gomafia.PlayerSummary, error)
	GetPlayer(ctx context.Context, id string) (*gomafia.PlayerData, error)
	ListClubs(ctx context.Context, page, limit int) ([]gomafia.ClubSummary, error)
	GetClub(ctx context.Context, id string) (*gomafia.ClubData, error)
	ListTournaments(ctx context.Context, page, limit int) ([]gomafia.TournamentSummary, error)
	GetTournament(ctx context.Context, id string) (*gomafia.TournamentData, error)
	ListGames(ctx context.Context, tournamentID string) ([]gomafia.GameData, error)
	RetrySkippedPages(ctx context.Context, entityType string, pages []int, opts gomafia.RetryOptions) ([]gomafia.RetriedRecord, error)
}
