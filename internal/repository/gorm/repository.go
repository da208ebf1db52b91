package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Players ----------------------------------------------------------------

var playerUpdateColumns = []string{
	"name", "region", "club_id", "elo_rating", "total_games", "wins", "losses",
	"sync_status", "last_sync_at", "raw_json", "updated_at",
}

func (s *Store) UpsertPlayer(ctx context.Context, item *models.Player) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gomafia_id"}},
		DoUpdates: clause.AssignmentColumns(playerUpdateColumns),
	}).Create(item).Error
}

func (s *Store) GetPlayerByGomafiaID(ctx context.Context, id string) (*models.Player, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Player
	err := s.db.WithContext(ctx).Where("gomafia_id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPlayers(ctx context.Context, params repository.ListPlayersParams) ([]models.Player, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyPlayerFilters(ctx, params)
	order := "elo_rating DESC"
	if params.OrderBy != "" {
		dir := "DESC"
		if params.Asc {
			dir = "ASC"
		}
		switch params.OrderBy {
		case "name", "elo_rating", "total_games", "wins":
			order = params.OrderBy + " " + dir
		}
	}
	var items []models.Player
	err := query.Order(order).
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

func (s *Store) CountPlayers(ctx context.Context, params repository.ListPlayersParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.applyPlayerFilters(ctx, params).Count(&count).Error
	return count, err
}

func (s *Store) applyPlayerFilters(ctx context.Context, params repository.ListPlayersParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Player{})
	if params.Region != nil && strings.TrimSpace(*params.Region) != "" {
		query = query.Where("region = ?", strings.TrimSpace(*params.Region))
	}
	if params.ClubID != nil && strings.TrimSpace(*params.ClubID) != "" {
		query = query.Where("club_id = ?", strings.TrimSpace(*params.ClubID))
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		query = query.Where("name ILIKE ?", "%"+strings.TrimSpace(*params.Search)+"%")
	}
	return query
}

func (s *Store) ListStalePlayers(ctx context.Context, staleBefore time.Time, limit int) ([]models.Player, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Player
	err := s.db.WithContext(ctx).
		Where("sync_status IN ?", []string{models.EntitySyncStatusPending, models.EntitySyncStatusError}).
		Or("last_sync_at IS NULL").
		Or("last_sync_at < ?", staleBefore).
		Order("last_sync_at ASC NULLS FIRST").
		Limit(normalizeLimit(limit, 1000)).
		Find(&items).Error
	return items, err
}

func (s *Store) SetPlayerSyncStatus(ctx context.Context, id, status string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Player{}).
		Where("gomafia_id = ?", id).
		Updates(map[string]any{"sync_status": status, "last_sync_at": at, "updated_at": at}).Error
}

func (s *Store) UpsertPlayerYearStats(ctx context.Context, items []models.PlayerYearStat) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"games", "wins", "win_rate", "raw_json", "last_sync_at"}),
	}).Create(&items).Error
}

func (s *Store) ListPlayerYearStats(ctx context.Context, playerID string, year *int) ([]models.PlayerYearStat, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Where("player_id = ?", playerID)
	if year != nil {
		q = q.Where("year = ?", *year)
	}
	var items []models.PlayerYearStat
	err := q.Order("year DESC").Find(&items).Error
	return items, err
}

// --- Clubs ------------------------------------------------------------------

var clubUpdateColumns = []string{
	"name", "city", "region", "member_count",
	"sync_status", "last_sync_at", "raw_json", "updated_at",
}

func (s *Store) UpsertClub(ctx context.Context, item *models.Club) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gomafia_id"}},
		DoUpdates: clause.AssignmentColumns(clubUpdateColumns),
	}).Create(item).Error
}

func (s *Store) GetClubByGomafiaID(ctx context.Context, id string) (*models.Club, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Club
	err := s.db.WithContext(ctx).Where("gomafia_id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListClubs(ctx context.Context, params repository.ListClubsParams) ([]models.Club, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Club
	err := s.applyClubFilters(ctx, params).
		Order("name ASC").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

func (s *Store) CountClubs(ctx context.Context, params repository.ListClubsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.applyClubFilters(ctx, params).Count(&count).Error
	return count, err
}

func (s *Store) applyClubFilters(ctx context.Context, params repository.ListClubsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Club{})
	if params.Region != nil && strings.TrimSpace(*params.Region) != "" {
		query = query.Where("region = ?", strings.TrimSpace(*params.Region))
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		query = query.Where("name ILIKE ?", "%"+strings.TrimSpace(*params.Search)+"%")
	}
	return query
}

func (s *Store) ListStaleClubs(ctx context.Context, staleBefore time.Time, limit int) ([]models.Club, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Club
	err := s.db.WithContext(ctx).
		Where("sync_status IN ?", []string{models.EntitySyncStatusPending, models.EntitySyncStatusError}).
		Or("last_sync_at IS NULL").
		Or("last_sync_at < ?", staleBefore).
		Order("last_sync_at ASC NULLS FIRST").
		Limit(normalizeLimit(limit, 1000)).
		Find(&items).Error
	return items, err
}

func (s *Store) SetClubSyncStatus(ctx context.Context, id, status string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Club{}).
		Where("gomafia_id = ?", id).
		Updates(map[string]any{"sync_status": status, "last_sync_at": at, "updated_at": at}).Error
}

func (s *Store) UpsertClubMembers(ctx context.Context, items []models.ClubMember) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "club_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "last_sync_at"}),
	}).Create(&items).Error
}

// --- Tournaments ------------------------------------------------------------

var tournamentUpdateColumns = []string{
	"name", "status", "chief_judge_id", "start_date", "end_date",
	"sync_status", "last_sync_at", "raw_json", "updated_at",
}

func (s *Store) UpsertTournament(ctx context.Context, item *models.Tournament) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gomafia_id"}},
		DoUpdates: clause.AssignmentColumns(tournamentUpdateColumns),
	}).Create(item).Error
}

func (s *Store) GetTournamentByGomafiaID(ctx context.Context, id string) (*models.Tournament, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Tournament
	err := s.db.WithContext(ctx).Where("gomafia_id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTournaments(ctx context.Context, params repository.ListTournamentsParams) ([]models.Tournament, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Tournament
	err := s.applyTournamentFilters(ctx, params).
		Order("start_date DESC NULLS LAST").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

func (s *Store) CountTournaments(ctx context.Context, params repository.ListTournamentsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.applyTournamentFilters(ctx, params).Count(&count).Error
	return count, err
}

func (s *Store) applyTournamentFilters(ctx context.Context, params repository.ListTournamentsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Tournament{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("start_date >= ?", *params.Since)
	}
	return query
}

func (s *Store) ListStaleTournaments(ctx context.Context, staleBefore time.Time, limit int) ([]models.Tournament, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Tournament
	err := s.db.WithContext(ctx).
		Where("sync_status IN ?", []string{models.EntitySyncStatusPending, models.EntitySyncStatusError}).
		Or("last_sync_at IS NULL").
		Or("last_sync_at < ?", staleBefore).
		Order("last_sync_at ASC NULLS FIRST").
		Limit(normalizeLimit(limit, 1000)).
		Find(&items).Error
	return items, err
}

func (s *Store) SetTournamentSyncStatus(ctx context.Context, id, status string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Tournament{}).
		Where("gomafia_id = ?", id).
		Updates(map[string]any{"sync_status": status, "last_sync_at": at, "updated_at": at}).Error
}

// --- Games ------------------------------------------------------------------

var gameUpdateColumns = []string{
	"tournament_id", "played_at", "duration", "winner_team", "participants",
	"sync_status", "last_sync_at", "raw_json", "updated_at",
}

func (s *Store) UpsertGame(ctx context.Context, item *models.Game) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gomafia_id"}},
		DoUpdates: clause.AssignmentColumns(gameUpdateColumns),
	}).Create(item).Error
}

func (s *Store) GetGameByGomafiaID(ctx context.Context, id string) (*models.Game, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Game
	err := s.db.WithContext(ctx).Where("gomafia_id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListGames(ctx context.Context, params repository.ListGamesParams) ([]models.Game, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Game
	err := s.applyGameFilters(ctx, params).
		Order("played_at DESC").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

func (s *Store) CountGames(ctx context.Context, params repository.ListGamesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.applyGameFilters(ctx, params).Count(&count).Error
	return count, err
}

func (s *Store) applyGameFilters(ctx context.Context, params repository.ListGamesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Game{})
	if params.TournamentID != nil && strings.TrimSpace(*params.TournamentID) != "" {
		query = query.Where("tournament_id = ?", strings.TrimSpace(*params.TournamentID))
	}
	if params.PlayedAfter != nil && !params.PlayedAfter.IsZero() {
		query = query.Where("played_at >= ?", *params.PlayedAfter)
	}
	return query
}

// --- Sync logs --------------------------------------------------------------

func (s *Store) CreateSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetSyncLog(ctx context.Context, id uint64) (*models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncLog
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SyncLog{})
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("type = ?", strings.TrimSpace(*params.Type))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	var items []models.SyncLog
	err := query.Order("start_time DESC").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

// --- Sync status ------------------------------------------------------------

func (s *Store) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncStatus
	err := s.db.WithContext(ctx).Where("id = ?", models.SyncStatusID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveSyncStatus(ctx context.Context, item *models.SyncStatus) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.ID = models.SyncStatusID
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_running", "is_paused", "progress", "current_operation",
			"last_sync_time", "last_sync_type", "last_error", "checkpoint", "updated_at",
		}),
	}).Create(item).Error
}

// --- Skipped entities -------------------------------------------------------

func (s *Store) CreateSkippedEntity(ctx context.Context, item *models.SkippedEntity) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateSkippedEntity(ctx context.Context, item *models.SkippedEntity) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetSkippedEntity(ctx context.Context, id uint64) (*models.SkippedEntity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SkippedEntity
	err := s.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSkippedEntities(ctx context.Context, params repository.ListSkippedParams) ([]models.SkippedEntity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SkippedEntity{})
	if params.Phase != nil && strings.TrimSpace(*params.Phase) != "" {
		query = query.Where("phase = ?", strings.TrimSpace(*params.Phase))
	}
	if params.EntityType != nil && strings.TrimSpace(*params.EntityType) != "" {
		query = query.Where("entity_type = ?", strings.TrimSpace(*params.EntityType))
	}
	if params.EntityID != nil && strings.TrimSpace(*params.EntityID) != "" {
		query = query.Where("entity_id = ?", strings.TrimSpace(*params.EntityID))
	}
	if params.PageNumber != nil {
		query = query.Where("page_number = ?", *params.PageNumber)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	var items []models.SkippedEntity
	err := query.Order("created_at DESC").
		Limit(normalizeLimit(params.Limit, 500)).
		Find(&items).Error
	return items, err
}

func (s *Store) DeleteCompletedSkippedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("status = ?", models.SkippedStatusCompleted).
		Where("updated_at < ?", cutoff).
		Delete(&models.SkippedEntity{})
	return res.RowsAffected, res.Error
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
