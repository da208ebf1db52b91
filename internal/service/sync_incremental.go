package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mafiainsight/internal/client/gomafia"
	"mafiainsight/internal/models"
)

// PhaseIncremental is the checkpoint label used when an incremental pass is
// paused mid-way.
const PhaseIncremental = "INCREMENTAL"

type staleCandidate struct {
	kind string // "player", "club", "tournament"
	id   string
}

func (s *SyncService) staleAfter() time.Duration {
	if s.Config.StaleAfter > 0 {
		return s.Config.StaleAfter
	}
	return 24 * time.Hour
}

// runIncrementalSync refreshes only rows that are stale: syncStatus PENDING
// or ERROR, or last synced longer than the staleness window ago. Rows whose
// upstream data did not change only get their lastSyncAt refreshed.
func (s *SyncService) runIncrementalSync(ctx context.Context, opts SyncOptions, syncLogID uint64) (passOutcome, error) {
	var outcome passOutcome

	candidates, err := s.staleCandidates(ctx)
	if err != nil {
		return outcome, err
	}
	if len(candidates) == 0 {
		s.Status.Publish(ctx, 100, "incremental: nothing stale")
		return outcome, nil
	}

	totalBatches := (len(candidates) + opts.BatchSize - 1) / opts.BatchSize
	startBatch := 0
	if opts.StartPhase == PhaseIncremental {
		startBatch = opts.StartBatch
	}

	for batch := startBatch; batch < totalBatches; batch++ {
		if s.Status.PauseRequested() {
			outcome.pausedAt = &models.SyncCheckpoint{
				Phase:      PhaseIncremental,
				BatchIndex: batch,
				BatchSize:  opts.BatchSize,
				Progress:   100 * batch * opts.BatchSize / len(candidates),
			}
			return outcome, nil
		}

		batchStart := batch * opts.BatchSize
		s.Status.Publish(ctx,
			100*batchStart/len(candidates),
			fmt.Sprintf("incremental: batch %d/%d", batch+1, totalBatches),
		)

		end := batchStart + opts.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		for _, c := range candidates[batchStart:end] {
			if err := s.refreshStale(ctx, c, opts); err != nil {
				outcome.errors = append(outcome.errors, fmt.Sprintf("%s %s: %v", c.kind, c.id, err))
				continue
			}
			outcome.recordsProcessed++
		}
	}
	return outcome, nil
}

func (s *SyncService) staleCandidates(ctx context.Context) ([]staleCandidate, error) {
	staleBefore := time.Now().UTC().Add(-s.staleAfter())
	max := s.listingCap()

	var candidates []staleCandidate
	players, err := s.Repo.ListStalePlayers(ctx, staleBefore, max)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale players: %w", err)
	}
	for _, p := range players {
		candidates = append(candidates, staleCandidate{kind: "player", id: p.GomafiaID})
	}

	clubs, err := s.Repo.ListStaleClubs(ctx, staleBefore, max)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale clubs: %w", err)
	}
	for _, c := range clubs {
		candidates = append(candidates, staleCandidate{kind: "club", id: c.GomafiaID})
	}

	tournaments, err := s.Repo.ListStaleTournaments(ctx, staleBefore, max)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale tournaments: %w", err)
	}
	for _, t := range tournaments {
		candidates = append(candidates, staleCandidate{kind: "tournament", id: t.GomafiaID})
	}

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates, nil
}

// refreshStale refetches one stale row. A fetch failure marks the row ERROR so
// the next incremental pass picks it up again; the pass itself continues.
func (s *SyncService) refreshStale(ctx context.Context, c staleCandidate, opts SyncOptions) error {
	var err error
	switch c.kind {
	case "player":
		err = s.refreshPlayer(ctx, c.id, opts)
	case "club":
		err = s.refreshClub(ctx, c.id, opts)
	case "tournament":
		err = s.refreshTournament(ctx, c.id, opts)
	default:
		return fmt.Errorf("unknown candidate kind %s", c.kind)
	}
	if err != nil {
		if markErr := s.markError(ctx, c); markErr != nil {
			s.logger().Warn("failed to mark row as errored",
				zap.String("kind", c.kind),
				zap.String("id", c.id),
				zap.Error(markErr),
			)
		}
		return err
	}
	return nil
}

func (s *SyncService) markError(ctx context.Context, c staleCandidate) error {
	now := time.Now().UTC()
	switch c.kind {
	case "player":
		return s.Repo.SetPlayerSyncStatus(ctx, c.id, models.EntitySyncStatusError, now)
	case "club":
		return s.Repo.SetClubSyncStatus(ctx, c.id, models.EntitySyncStatusError, now)
	case "tournament":
		return s.Repo.SetTournamentSyncStatus(ctx, c.id, models.EntitySyncStatusError, now)
	}
	return nil
}

func (s *SyncService) refreshPlayer(ctx context.Context, id string, opts SyncOptions) error {
	data, err := RetryOperation(ctx, func(ctx context.Context) (*gomafia.PlayerData, error) {
		return s.Source.GetPlayer(ctx, id)
	}, opts.MaxRetries, s.retryDelay())
	if err != nil {
		return err
	}
	if !ValidatePlayer(data) {
		return fmt.Errorf("invalid player data for %s", id)
	}
	now := time.Now().UTC()
	next, err := TransformPlayer(data, now)
	if err != nil {
		return err
	}
	old, err := s.Repo.GetPlayerByGomafiaID(ctx, id)
	if err != nil {
		return err
	}
	if !PlayerChanged(old, next) {
		return s.Repo.SetPlayerSyncStatus(ctx, id, models.EntitySyncStatusSynced, now)
	}
	if err := s.Repo.UpsertPlayer(ctx, next); err != nil {
		return err
	}
	if stats := TransformPlayerYearStats(data, now); len(stats) > 0 {
		return s.Repo.UpsertPlayerYearStats(ctx, stats)
	}
	return nil
}

func (s *SyncService) refreshClub(ctx context.Context, id string, opts SyncOptions) error {
	data, err := RetryOperation(ctx, func(ctx context.Context) (*gomafia.ClubData, error) {
		return s.Source.GetClub(ctx, id)
	}, opts.MaxRetries, s.retryDelay())
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	next, err := TransformClub(data, now)
	if err != nil {
		return err
	}
	old, err := s.Repo.GetClubByGomafiaID(ctx, id)
	if err != nil {
		return err
	}
	if !ClubChanged(old, next) {
		return s.Repo.SetClubSyncStatus(ctx, id, models.EntitySyncStatusSynced, now)
	}
	if err := s.Repo.UpsertClub(ctx, next); err != nil {
		return err
	}
	if members := TransformClubMembers(data, now); len(members) > 0 {
		return s.Repo.UpsertClubMembers(ctx, members)
	}
	return nil
}

func (s *SyncService) refreshTournament(ctx context.Context, id string, opts SyncOptions) error {
	data, err := RetryOperation(ctx, func(ctx context.Context) (*gomafia.TournamentData, error) {
		return s.Source.GetTournament(ctx, id)
	}, opts.MaxRetries, s.retryDelay())
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	next, err := TransformTournament(data, now)
	if err != nil {
		return err
	}
	old, err := s.Repo.GetTournamentByGomafiaID(ctx, id)
	if err != nil {
		return err
	}
	if !TournamentChanged(old, next) {
		return s.Repo.SetTournamentSyncStatus(ctx, id, models.EntitySyncStatusSynced, now)
	}
	return s.Repo.UpsertTournament(ctx, next)
}
