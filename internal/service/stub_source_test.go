package service

import (
	"context"

	"mafiainsight/internal/client/gomafia"
)

// stubSource implements DataSource with overridable funcs; unset funcs return
// empty results.
type stubSource struct {
	listPlayers     func(ctx context.Context, page, limit int) ([]gomafia.PlayerSummary, error)
	getPlayer       func(ctx context.Context, id string) (*gomafia.PlayerData, error)
	listClubs       func(ctx context.Context, page, limit int) ([]gomafia.ClubSummary, error)
	getClub         func(ctx context.Context, id string) (*gomafia.ClubData, error)
	listTournaments func(ctx context.Context, page, limit int) ([]gomafia.TournamentSummary, error)
	getTournament   func(ctx context.Context, id string) (*gomafia.TournamentData, error)
	listGames       func(ctx context.Context, tournamentID string) ([]gomafia.GameData, error)
	retryPages      func(ctx context.Context, entityType string, pages []int, opts gomafia.RetryOptions) ([]gomafia.RetriedRecord, error)
}

func (s *stubSource) ListPlayers(ctx context.Context, page, limit int) ([]gomafia.PlayerSummary, error) {
	if s.listPlayers == nil {
		return nil, nil
	}
	return s.listPlayers(ctx, page, limit)
}

func (s *stubSource) GetPlayer(ctx context.Context, id string) (*gomafia.PlayerData, error) {
	if s.getPlayer == nil {
		return nil, nil
	}
	return s.getPlayer(ctx, id)
}

func (s *stubSource) ListClubs(ctx context.Context, page, limit int) ([]gomafia.ClubSummary, error) {
	if s.listClubs == nil {
		return nil, nil
	}
	return s.listClubs(ctx, page, limit)
}

func (s *stubSource) GetClub(ctx context.Context, id string) (*gomafia.ClubData, error) {
	if s.getClub == nil {
		return nil, nil
	}
	return s.getClub(ctx, id)
}

func (s *stubSource) ListTournaments(ctx context.Context, page, limit int) ([]gomafia.TournamentSummary, error) {
	if s.listTournaments == nil {
		return nil, nil
	}
	return s.listTournaments(ctx, page, limit)
}

func (s *stubSource) GetTournament(ctx context.Context, id string) (*gomafia.TournamentData, error) {
	if s.getTournament == nil {
		return nil, nil
	}
	return s.getTournament(ctx, id)
}

func (s *stubSource) ListGames(ctx context.Context, tournamentID string) ([]gomafia.GameData, error) {
	if s.listGames == nil {
		return nil, nil
	}
	return s.listGames(ctx, tournamentID)
}

func (s *stubSource) RetrySkippedPages(ctx context.Context, entityType string, pages []int, opts gomafia.RetryOptions) ([]gomafia.RetriedRecord, error) {
	if s.retryPages == nil {
		return nil, nil
	}
	return s.retryPages(ctx, entityType, pages, opts)
}
