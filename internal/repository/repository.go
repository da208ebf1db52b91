package repository

import (
	"context"
	"time"

	"mafiainsight/internal/models"
)

type ListPlayersParams struct {
	Region  *string
	ClubID  *string
	Search  *string
	OrderBy string
	Asc     bool
	Limit   int
	Offset  int
}

type ListClubsParams struct {
	Region *string
	Search *string
	Limit  int
	Offset int
}

type ListTournamentsParams struct {
	Status *string
	Since  *time.Time
	Limit  int
	Offset int
}

type ListGamesParams struct {
	TournamentID *string
	PlayedAfter  *time.Time
	Limit        int
	Offset       int
}

type ListSyncLogsParams struct {
	Type   *string
	Status *string
	Limit  int
	Offset int
}

type ListSkippedParams struct {
	Phase      *string
	EntityType *string
	EntityID   *string
	PageNumber *int
	Status     *string
	Limit      int
}

type Repository interface {
	// Players
	UpsertPlayer(ctx context.Context, item *models.Player) error
	GetPlayerByGomafiaID(ctx context.Context, id string) (*models.Player, error)
	ListPlayers(ctx context.Context, params ListPlayersParams) ([]models.Player, error)
	CountPlayers(ctx context.Context, params ListPlayersParams) (int64, error)
	ListStalePlayers(ctx context.Context, staleBefore time.Time, limit int) ([]models.Player, error)
	SetPlayerSyncStatus(ctx context.Context, id, status string, at time.Time) error
	UpsertPlayerYearStats(ctx context.Context, items []models.PlayerYearStat) error
	ListPlayerYearStats(ctx context.Context, playerID string, year *int) ([]models.PlayerYearStat, error)

	// Clubs
	UpsertClub(ctx context.Context, item *models.Club) error
	GetClubByGomafiaID(ctx context.Context, id string) (*models.Club, error)
	ListClubs(ctx context.Context, params ListClubsParams) ([]models.Club, error)
	CountClubs(ctx context.Context, params ListClubsParams) (int64, error)
	ListStaleClubs(ctx context.Context, staleBefore time.Time, limit int) ([]models.Club, error)
	SetClubSyncStatus(ctx context.Context, id, status string, at time.Time) error
	UpsertClubMembers(ctx context.Context, items []models.ClubMember) error

	// Tournaments
	UpsertTournament(ctx context.Context, item *models.Tournament) error
	GetTournamentByGomafiaID(ctx context.Context, id string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, params ListTournamentsParams) ([]models.Tournament, error)
	CountTournaments(ctx context.Context, params ListTournamentsParams) (int64, error)
	ListStaleTournaments(ctx context.Context, staleBefore time.Time, limit int) ([]models.Tournament, error)
	SetTournamentSyncStatus(ctx context.Context, id, status string, at time.Time) error

	// Games
	UpsertGame(ctx context.Context, item *models.Game) error
	GetGameByGomafiaID(ctx context.Context, id string) (*models.Game, error)
	ListGames(ctx context.Context, params ListGamesParams) ([]models.Game, error)
	CountGames(ctx context.Context, params ListGamesParams) (int64, error)

	// Sync logs
	CreateSyncLog(ctx context.Context, item *models.SyncLog) error
	UpdateSyncLog(ctx context.Context, item *models.SyncLog) error
	GetSyncLog(ctx context.Context, id uint64) (*models.SyncLog, error)
	ListSyncLogs(ctx context.Context, params ListSyncLogsParams) ([]models.SyncLog, error)

	// Sync status snapshot
	GetSyncStatus(ctx context.Context) (*models.SyncStatus, error)
	SaveSyncStatus(ctx context.Context, item *models.SyncStatus) error

	// Skipped entities
	CreateSkippedEntity(ctx context.Context, item *models.SkippedEntity) error
	UpdateSkippedEntity(ctx context.Context, item *models.SkippedEntity) error
	GetSkippedEntity(ctx context.Context, id uint64) (*models.SkippedEntity, error)
	ListSkippedEntities(ctx context.Context, params ListSkippedParams) ([]models.SkippedEntity, error)
	DeleteCompletedSkippedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
