package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"mafiainsight/internal/config"
	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
)

// SyncService runs full and incremental import passes against gomafia.pro.
// Record-level failures are accumulated and recorded as skipped entities;
// only an error escaping the dispatch itself fails a run.
type SyncService struct {
	Repo    repository.Repository
	Source  DataSource
	Skipped *SkippedEntityManager
	Status  *StatusHolder
	Logger  *zap.Logger
	Config  config.SyncConfig
}

type SyncOptions struct {
	Type       string
	BatchSize  int
	MaxRetries int

	// SkipLogCreation is set by the retry wrapper, which owns the SyncLog
	// for all of its attempts.
	SkipLogCreation bool
	SyncLogID       uint64

	// Resume offsets, taken from a pause checkpoint.
	StartPhase string
	StartBatch int
}

type SyncResult struct {
	Success          bool          `json:"success"`
	Type             string        `json:"type"`
	RecordsProcessed int           `json:"records_processed"`
	Errors           []string      `json:"errors"`
	Duration         time.Duration `json:"duration"`
	Resumable        bool          `json:"resumable"`
	SyncLogID        uint64        `json:"sync_log_id"`
}

// passOutcome is the aggregate a full/incremental pass hands back to RunSync.
type passOutcome struct {
	recordsProcessed int
	errors           []string
	skippedPages     []models.SkippedPageGroup
	pausedAt         *models.SyncCheckpoint
}

func (s *SyncService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *SyncService) normalize(opts SyncOptions) SyncOptions {
	opts.Type = strings.ToUpper(strings.TrimSpace(opts.Type))
	if opts.Type != models.SyncTypeFull {
		opts.Type = models.SyncTypeIncremental
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = s.Config.BatchSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = s.Config.MaxRetries
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return opts
}

func (s *SyncService) listingCap() int {
	if s.Config.ListingCap > 0 {
		return s.Config.ListingCap
	}
	return 1000
}

func (s *SyncService) retryDelay() time.Duration {
	if s.Config.RetryDelay > 0 {
		return s.Config.RetryDelay
	}
	return time.Second
}

// RunSync executes one sync pass. It claims the single-flight slot, creates
// the SyncLog (unless the caller owns one), dispatches to the full or
// incremental pass, and writes the terminal log state.
func (s *SyncService) RunSync(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	opts = s.normalize(opts)
	start := time.Now()
	result := SyncResult{Type: opts.Type}

	if err := s.Status.Begin(ctx, opts.Type); err != nil {
		return result, err
	}

	syncLog := &models.SyncLog{
		ID:        opts.SyncLogID,
		Type:      opts.Type,
		Status:    models.SyncLogStatusRunning,
		StartTime: start.UTC(),
	}
	if !opts.SkipLogCreation {
		if err := s.Repo.CreateSyncLog(ctx, syncLog); err != nil {
			s.Status.Finish(ctx, opts.Type, strPtr(err.Error()))
			return result, fmt.Errorf("failed to create sync log: %w", err)
		}
	}
	result.SyncLogID = syncLog.ID

	var outcome passOutcome
	var runErr error
	switch opts.Type {
	case models.SyncTypeFull:
		outcome, runErr = s.runFullSync(ctx, opts, syncLog.ID)
	default:
		outcome, runErr = s.runIncrementalSync(ctx, opts, syncLog.ID)
	}

	result.RecordsProcessed = outcome.recordsProcessed
	result.Errors = outcome.errors
	result.Duration = time.Since(start)

	if runErr != nil {
		s.logger().Error("sync pass failed",
			zap.String("type", opts.Type),
			zap.Error(runErr),
		)
		if !opts.SkipLogCreation {
			s.finalizeLog(ctx, syncLog, models.SyncLogStatusFailed, outcome, append(outcome.errors, runErr.Error()))
		}
		s.Status.Finish(ctx, opts.Type, strPtr(runErr.Error()))
		return result, runErr
	}

	if outcome.pausedAt != nil {
		result.Resumable = true
		s.finalizeLog(ctx, syncLog, models.SyncLogStatusPaused, outcome, outcome.errors)
		s.Status.FinishPaused(ctx, opts.Type, *outcome.pausedAt)
		s.logger().Info("sync paused",
			zap.String("type", opts.Type),
			zap.String("phase", outcome.pausedAt.Phase),
			zap.Int("batch", outcome.pausedAt.BatchIndex),
		)
		return result, nil
	}

	result.Success = true
	if !opts.SkipLogCreation {
		s.finalizeLog(ctx, syncLog, models.SyncLogStatusCompleted, outcome, outcome.errors)
	}
	s.Status.Finish(ctx, opts.Type, nil)
	s.logger().Info("sync completed",
		zap.String("type", opts.Type),
		zap.Int("records", outcome.recordsProcessed),
		zap.Int("errors", len(outcome.errors)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *SyncService) finalizeLog(ctx context.Context, syncLog *models.SyncLog, status string, outcome passOutcome, errs []string) {
	now := time.Now().UTC()
	syncLog.Status = status
	syncLog.EndTime = &now
	syncLog.RecordsProcessed = outcome.recordsProcessed
	if len(errs) > 0 {
		if encoded, err := json.Marshal(errs); err == nil {
			syncLog.Errors = datatypes.JSON(encoded)
		}
	}
	if len(outcome.skippedPages) > 0 {
		if encoded, err := json.Marshal(outcome.skippedPages); err == nil {
			syncLog.SkippedPages = datatypes.JSON(encoded)
		}
	}
	if err := s.Repo.UpdateSyncLog(ctx, syncLog); err != nil {
		s.logger().Warn("failed to finalize sync log", zap.Uint64("id", syncLog.ID), zap.Error(err))
	}
}

func strPtr(s string) *string {
	return &s
}
