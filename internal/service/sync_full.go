package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mafiainsight/internal/client/gomafia"
	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
)

// Full sync phase order. Clubs come first so player club references resolve;
// games come last so tournament rows exist to list games from.
var fullSyncPhases = []string{
	models.PhaseClubs,
	models.PhasePlayers,
	models.PhaseTournaments,
	models.PhaseGames,
}

func (s *SyncService) runFullSync(ctx context.Context, opts SyncOptions, syncLogID uint64) (passOutcome, error) {
	var outcome passOutcome

	startPhase := 0
	for i, phase := range fullSyncPhases {
		if phase == opts.StartPhase {
			startPhase = i
			break
		}
	}

	for pi := startPhase; pi < len(fullSyncPhases); pi++ {
		phase := fullSyncPhases[pi]
		startBatch := 0
		if pi == startPhase {
			startBatch = opts.StartBatch
		}

		paused, err := s.runFullPhase(ctx, phase, pi, startBatch, opts, syncLogID, &outcome)
		if err != nil {
			return outcome, fmt.Errorf("%s phase: %w", phase, err)
		}
		if paused {
			return outcome, nil
		}
	}
	return outcome, nil
}

func (s *SyncService) runFullPhase(ctx context.Context, phase string, phaseIdx, startBatch int, opts SyncOptions, syncLogID uint64, outcome *passOutcome) (bool, error) {
	switch phase {
	case models.PhaseClubs:
		ids := s.collectListing(ctx, phase, "club", opts, syncLogID, outcome, func(ctx context.Context, page, limit int) ([]string, error) {
			summaries, err := s.Source.ListClubs(ctx, page, limit)
			if err != nil {
				return nil, err
			}
			return clubIDs(summaries), nil
		})
		return s.processBatches(ctx, phase, "club", ids, phaseIdx, startBatch, opts, syncLogID, outcome, s.importClub)
	case models.PhasePlayers:
		ids := s.collectListing(ctx, phase, "player", opts, syncLogID, outcome, func(ctx context.Context, page, limit int) ([]string, error) {
			summaries, err := s.Source.ListPlayers(ctx, page, limit)
			if err != nil {
				return nil, err
			}
			return playerIDs(summaries), nil
		})
		return s.processBatches(ctx, phase, "player", ids, phaseIdx, startBatch, opts, syncLogID, outcome, s.importPlayer)
	case models.PhaseTournaments:
		ids := s.collectListing(ctx, phase, "tournament", opts, syncLogID, outcome, func(ctx context.Context, page, limit int) ([]string, error) {
			summaries, err := s.Source.ListTournaments(ctx, page, limit)
			if err != nil {
				return nil, err
			}
			return tournamentIDs(summaries), nil
		})
		return s.processBatches(ctx, phase, "tournament", ids, phaseIdx, startBatch, opts, syncLogID, outcome, s.importTournament)
	case models.PhaseGames:
		ids, err := s.gamePhaseCandidates(ctx)
		if err != nil {
			return false, err
		}
		return s.processBatches(ctx, phase, "tournament", ids, phaseIdx, startBatch, opts, syncLogID, outcome, s.importTournamentGames)
	default:
		return false, fmt.Errorf("unknown phase %s", phase)
	}
}

// collectListing walks listing pages until an empty page or the listing cap.
// A page that still fails after retries is recorded as a skipped page; the
// walk stops there since later pages cannot be trusted to exist.
func (s *SyncService) collectListing(ctx context.Context, phase, entityType string, opts SyncOptions, syncLogID uint64, outcome *passOutcome, list func(ctx context.Context, page, limit int) ([]string, error)) []string {
	max := s.listingCap()
	var ids []string
	for page := 1; len(ids) < max; page++ {
		pageIDs, err := RetryOperation(ctx, func(ctx context.Context) ([]string, error) {
			return list(ctx, page, opts.BatchSize)
		}, opts.MaxRetries, s.retryDelay())
		if err != nil {
			s.recordSkippedPage(ctx, phase, entityType, page, syncLogID, err, outcome)
			break
		}
		if len(pageIDs) == 0 {
			break
		}
		ids = append(ids, pageIDs...)
		if len(pageIDs) < opts.BatchSize {
			break
		}
	}
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids
}

// processBatches is the best-effort batch loop shared by every full-sync
// phase: one failed record never aborts the iteration, and the pause token
// is honored between batches. The process callback reports how many records
// it imported for one id, since a tournament id in the games phase expands
// into many game rows.
func (s *SyncService) processBatches(ctx context.Context, phase, entityType string, ids []string, phaseIdx, startBatch int, opts SyncOptions, syncLogID uint64, outcome *passOutcome, process func(ctx context.Context, id string, opts SyncOptions, syncLogID uint64, outcome *passOutcome) (int, error)) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}

	totalBatches := (len(ids) + opts.BatchSize - 1) / opts.BatchSize
	for batch := startBatch; batch < totalBatches; batch++ {
		if s.Status.PauseRequested() {
			outcome.pausedAt = &models.SyncCheckpoint{
				Phase:      phase,
				BatchIndex: batch,
				BatchSize:  opts.BatchSize,
				Progress:   s.overallProgress(phaseIdx, batch*opts.BatchSize, len(ids)),
			}
			return true, nil
		}

		batchStart := batch * opts.BatchSize
		s.Status.Publish(ctx,
			s.overallProgress(phaseIdx, batchStart, len(ids)),
			fmt.Sprintf("%s: batch %d/%d", phase, batch+1, totalBatches),
		)

		end := batchStart + opts.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		for _, id := range ids[batchStart:end] {
			imported, err := process(ctx, id, opts, syncLogID, outcome)
			if err != nil {
				s.recordSkippedEntity(ctx, phase, entityType, id, syncLogID, err, outcome)
				continue
			}
			outcome.recordsProcessed += imported
		}
	}
	return false, nil
}

func (s *SyncService) overallProgress(phaseIdx, done, total int) int {
	if total <= 0 {
		total = 1
	}
	phasePct := 100 * done / total
	return (phaseIdx*100 + phasePct) / len(fullSyncPhases)
}

// --- per-record importers ---------------------------------------------------

func (s *SyncService) importPlayer(ctx context.Context, id string, opts SyncOptions, syncLogID uint64, outcome *passOutcome) (int, error) {
	player, err := RetryOperation(ctx, func(ctx context.Context) (*gomafia.PlayerData, error) {
		return s.Source.GetPlayer(ctx, id)
	}, opts.MaxRetries, s.retryDelay())
	if err != nil {
		return 0, err
	}
	if !ValidatePlayer(player) {
		return 0, fmt.Errorf("invalid player data for %s", id)
	}
	now := time.Now().UTC()
	item, err := TransformPlayer(player, now)
	if err != nil {
		return 0, err
	}
	if _, err := RetryOperation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Repo.UpsertPlayer(ctx, item)
	}, opts.MaxRetries, s.retryDelay()); err != nil {
		return 0, err
	}
	if stats := TransformPlayerYearStats(player, now); len(stats) > 0 {
		if err := s.Repo.UpsertPlayerYearStats(ctx, stats); err != nil {
			s.logger().Warn("failed to save player year stats", zap.String("player", id), zap.Error(err))
		}
	}
	return 1, nil
}

func (s *SyncService) importClub(ctx context.Context, id string, opts SyncOptions, syncLogID uint64, outcome *passOutcome) (int, error) {
	club, err := RetryOperation(ctx, func(ctx context.Context) (*gomafia.ClubData, error) {
		return s.Source.GetClub(ctx, id)
	}, opts.MaxRetries, s.retryDelay())
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	item, err := TransformClub(club, now)
	if err != nil {
		return 0, err
	}
	if _, err := RetryOperation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Repo.UpsertClub(ctx, item)
	}, opts.MaxRetries, s.retryDelay()); err != nil {
		return 0, err
	}
	if members := TransformClubMembers(club, now); len(members) > 0 {
		if err := s.Repo.UpsertClubMembers(ctx, members); err != nil {
			s.logger().Warn("failed to save club members", zap.String("club", id), zap.Error(err))
		}
	}
	return 1, nil
}

func (s *SyncService) importTournament(ctx context.Context, id string, opts SyncOptions, syncLogID uint64, outcome *passOutcome) (int, error) {
	tournament, err := RetryOperation(ctx, func(ctx context.Context) (*gomafia.TournamentData, error) {
		return s.Source.GetTournament(ctx, id)
	}, opts.MaxRetries, s.retryDelay())
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	item, err := TransformTournament(tournament, now)
	if err != nil {
		return 0, err
	}
	if _, err := RetryOperation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Repo.UpsertTournament(ctx, item)
	}, opts.MaxRetries, s.retryDelay()); err != nil {
		return 0, err
	}
	return 1, nil
}

// importTournamentGames pulls the full game list of one tournament. Each
// invalid game is an isolated failure; the rest of the tournament still
// imports. The returned count is the number of game rows written, which is
// what the batch loop adds to recordsProcessed for this phase.
func (s *SyncService) importTournamentGames(ctx context.Context, tournamentID string, opts SyncOptions, syncLogID uint64, outcome *passOutcome) (int, error) {
	games, err := RetryOperation(ctx, func(ctx context.Context) ([]gomafia.GameData, error) {
		return s.Source.ListGames(ctx, tournamentID)
	}, opts.MaxRetries, s.retryDelay())
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	imported := 0
	for i := range games {
		game := &games[i]
		if !ValidateGame(game) {
			s.recordSkippedEntity(ctx, models.PhaseGames, "game", game.ID, syncLogID,
				fmt.Errorf("invalid game data for %s", game.ID), outcome)
			continue
		}
		item, err := TransformGame(game, now)
		if err != nil {
			s.recordSkippedEntity(ctx, models.PhaseGames, "game", game.ID, syncLogID, err, outcome)
			continue
		}
		if err := s.Repo.UpsertGame(ctx, item); err != nil {
			s.recordSkippedEntity(ctx, models.PhaseGames, "game", game.ID, syncLogID, err, outcome)
			continue
		}
		imported++
	}
	return imported, nil
}

func (s *SyncService) gamePhaseCandidates(ctx context.Context) ([]string, error) {
	tournaments, err := s.Repo.ListTournaments(ctx, repository.ListTournamentsParams{Limit: 200})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments for game import: %w", err)
	}
	ids := make([]string, 0, len(tournaments))
	for _, t := range tournaments {
		ids = append(ids, t.GomafiaID)
	}
	return ids, nil
}

// --- failure recording ------------------------------------------------------

func (s *SyncService) recordSkippedEntity(ctx context.Context, phase, entityType, entityID string, syncLogID uint64, cause error, outcome *passOutcome) {
	outcome.errors = append(outcome.errors, fmt.Sprintf("%s %s: %v", entityType, entityID, cause))
	if s.Skipped == nil {
		return
	}
	_, err := s.Skipped.Record(ctx, RecordSkippedParams{
		Phase:        phase,
		EntityType:   entityType,
		EntityID:     &entityID,
		ErrorMessage: cause.Error(),
		SyncLogID:    &syncLogID,
		Cause:        cause,
	})
	if err != nil {
		s.logger().Warn("failed to record skipped entity",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s *SyncService) recordSkippedPage(ctx context.Context, phase, entityType string, page int, syncLogID uint64, cause error, outcome *passOutcome) {
	outcome.errors = append(outcome.errors, fmt.Sprintf("%s listing page %d: %v", entityType, page, cause))
	outcome.skippedPages = append(outcome.skippedPages, models.SkippedPageGroup{
		EntityType: entityType,
		Pages:      []int{page},
		Timestamp:  time.Now().UTC(),
	})
	if s.Skipped == nil {
		return
	}
	_, err := s.Skipped.Record(ctx, RecordSkippedParams{
		Phase:        phase,
		EntityType:   entityType,
		PageNumber:   &page,
		ErrorMessage: cause.Error(),
		SyncLogID:    &syncLogID,
		Cause:        cause,
	})
	if err != nil {
		s.logger().Warn("failed to record skipped page",
			zap.String("entity_type", entityType),
			zap.Int("page", page),
			zap.Error(err),
		)
	}
}

func playerIDs(items []gomafia.PlayerSummary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func clubIDs(items []gomafia.ClubSummary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func tournamentIDs(items []gomafia.TournamentSummary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
