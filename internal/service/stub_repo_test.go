package service

import (
	"context"
	"sync"
	"time"

	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It implements the full interface but each test uses only a small slice.
type stubRepo struct {
	mu sync.Mutex

	players     map[string]*models.Player
	clubs       map[string]*models.Club
	tournaments map[string]*models.Tournament
	games       map[string]*models.Game
	yearStats   []models.PlayerYearStat
	clubMembers []models.ClubMember

	syncLogs   map[uint64]*models.SyncLog
	nextLogID  uint64
	syncStatus *models.SyncStatus

	skipped       map[uint64]*models.SkippedEntity
	nextSkippedID uint64

	stalePlayers     []models.Player
	staleClubs       []models.Club
	staleTournaments []models.Tournament

	playerStatusCalls     []string
	tournamentStatusCalls []string
	upsertPlayerCalls     int
	upsertTournamentCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		players:     map[string]*models.Player{},
		clubs:       map[string]*models.Club{},
		tournaments: map[string]*models.Tournament{},
		games:       map[string]*models.Game{},
		syncLogs:    map[uint64]*models.SyncLog{},
		skipped:     map[uint64]*models.SkippedEntity{},
	}
}

func (s *stubRepo) UpsertPlayer(ctx context.Context, item *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertPlayerCalls++
	cp := *item
	s.players[item.GomafiaID] = &cp
	return nil
}

func (s *stubRepo) GetPlayerByGomafiaID(ctx context.Context, id string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListPlayers(ctx context.Context, params repository.ListPlayersParams) ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubRepo) CountPlayers(ctx context.Context, params repository.ListPlayersParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.players)), nil
}

func (s *stubRepo) ListStalePlayers(ctx context.Context, staleBefore time.Time, limit int) ([]models.Player, error) {
	return s.stalePlayers, nil
}

func (s *stubRepo) SetPlayerSyncStatus(ctx context.Context, id, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerStatusCalls = append(s.playerStatusCalls, id+":"+status)
	if p, ok := s.players[id]; ok {
		p.SyncStatus = status
		p.LastSyncAt = &at
	}
	return nil
}

func (s *stubRepo) UpsertPlayerYearStats(ctx context.Context, items []models.PlayerYearStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.yearStats = append(s.yearStats, items...)
	return nil
}

func (s *stubRepo) ListPlayerYearStats(ctx context.Context, playerID string, year *int) ([]models.PlayerYearStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PlayerYearStat
	for _, st := range s.yearStats {
		if st.PlayerID != playerID {
			continue
		}
		if year != nil && st.Year != *year {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *stubRepo) UpsertClub(ctx context.Context, item *models.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.clubs[item.GomafiaID] = &cp
	return nil
}

func (s *stubRepo) GetClubByGomafiaID(ctx context.Context, id string) (*models.Club, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clubs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListClubs(ctx context.Context, params repository.ListClubsParams) ([]models.Club, error) {
	return nil, nil
}

func (s *stubRepo) CountClubs(ctx context.Context, params repository.ListClubsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ListStaleClubs(ctx context.Context, staleBefore time.Time, limit int) ([]models.Club, error) {
	return s.staleClubs, nil
}

func (s *stubRepo) SetClubSyncStatus(ctx context.Context, id, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clubs[id]; ok {
		c.SyncStatus = status
		c.LastSyncAt = &at
	}
	return nil
}

func (s *stubRepo) UpsertClubMembers(ctx context.Context, items []models.ClubMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clubMembers = append(s.clubMembers, items...)
	return nil
}

func (s *stubRepo) UpsertTournament(ctx context.Context, item *models.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertTournamentCalls++
	cp := *item
	s.tournaments[item.GomafiaID] = &cp
	return nil
}

func (s *stubRepo) GetTournamentByGomafiaID(ctx context.Context, id string) (*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tournaments[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListTournaments(ctx context.Context, params repository.ListTournamentsParams) ([]models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubRepo) CountTournaments(ctx context.Context, params repository.ListTournamentsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ListStaleTournaments(ctx context.Context, staleBefore time.Time, limit int) ([]models.Tournament, error) {
	return s.staleTournaments, nil
}

func (s *stubRepo) SetTournamentSyncStatus(ctx context.Context, id, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournamentStatusCalls = append(s.tournamentStatusCalls, id+":"+status)
	if t, ok := s.tournaments[id]; ok {
		t.SyncStatus = status
		t.LastSyncAt = &at
	}
	return nil
}

func (s *stubRepo) UpsertGame(ctx context.Context, item *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.games[item.GomafiaID] = &cp
	return nil
}

func (s *stubRepo) GetGameByGomafiaID(ctx context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListGames(ctx context.Context, params repository.ListGamesParams) ([]models.Game, error) {
	return nil, nil
}

func (s *stubRepo) CountGames(ctx context.Context, params repository.ListGamesParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) CreateSyncLog(ctx context.Context, item *models.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	item.ID = s.nextLogID
	cp := *item
	s.syncLogs[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateSyncLog(ctx context.Context, item *models.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.syncLogs[item.ID] = &cp
	return nil
}

func (s *stubRepo) GetSyncLog(ctx context.Context, id uint64) (*models.SyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.syncLogs[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SyncLog, 0, len(s.syncLogs))
	for _, l := range s.syncLogs {
		out = append(out, *l)
	}
	return out, nil
}

func (s *stubRepo) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncStatus == nil {
		return nil, nil
	}
	cp := *s.syncStatus
	return &cp, nil
}

func (s *stubRepo) SaveSyncStatus(ctx context.Context, item *models.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.syncStatus = &cp
	return nil
}

func (s *stubRepo) CreateSkippedEntity(ctx context.Context, item *models.SkippedEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSkippedID++
	item.ID = s.nextSkippedID
	item.CreatedAt = time.Now().UTC()
	cp := *item
	s.skipped[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateSkippedEntity(ctx context.Context, item *models.SkippedEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.skipped[item.ID] = &cp
	return nil
}

func (s *stubRepo) GetSkippedEntity(ctx context.Context, id uint64) (*models.SkippedEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.skipped[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) ListSkippedEntities(ctx context.Context, params repository.ListSkippedParams) ([]models.SkippedEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SkippedEntity, 0, len(s.skipped))
	for _, e := range s.skipped {
		if params.Phase != nil && e.Phase != *params.Phase {
			continue
		}
		if params.EntityType != nil && e.EntityType != *params.EntityType {
			continue
		}
		if params.EntityID != nil && (e.EntityID == nil || *e.EntityID != *params.EntityID) {
			continue
		}
		if params.PageNumber != nil && (e.PageNumber == nil || *e.PageNumber != *params.PageNumber) {
			continue
		}
		if params.Status != nil && e.Status != *params.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (s *stubRepo) DeleteCompletedSkippedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, e := range s.skipped {
		if e.Status == models.SkippedStatusCompleted && e.CreatedAt.Before(cutoff) {
			delete(s.skipped, id)
			deleted++
		}
	}
	return deleted, nil
}
