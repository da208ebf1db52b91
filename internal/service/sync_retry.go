package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"mafiainsight/internal/models"
)

// RunSyncWithRetry wraps RunSync with whole-run retries and never returns an
// error: the scheduler consumes the result directly. All attempts share one
// SyncLog, which ends COMPLETED (possibly with attempt history) or FAILED
// with exactly MaxRetries attempt errors.
func (s *SyncService) RunSyncWithRetry(ctx context.Context, opts SyncOptions) SyncResult {
	opts = s.normalize(opts)
	start := time.Now()
	result := SyncResult{Type: opts.Type}

	syncLog := &models.SyncLog{
		Type:      opts.Type,
		Status:    models.SyncLogStatusRunning,
		StartTime: start.UTC(),
	}
	if err := s.Repo.CreateSyncLog(ctx, syncLog); err != nil {
		result.Errors = []string{err.Error()}
		result.Duration = time.Since(start)
		s.logger().Error("failed to create sync log", zap.Error(err))
		return result
	}
	result.SyncLogID = syncLog.ID

	runOpts := opts
	runOpts.SkipLogCreation = true
	runOpts.SyncLogID = syncLog.ID

	var attempts []models.SyncAttemptError
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		attemptResult, err := s.RunSync(ctx, runOpts)
		if err == nil {
			// A paused run already finalized the log; it is terminal for
			// the wrapper, resume comes through the admin API.
			if attemptResult.Resumable {
				attemptResult.Duration = time.Since(start)
				return attemptResult
			}
			s.finalizeRetryLog(ctx, syncLog, models.SyncLogStatusCompleted, attemptResult, attempts)
			attemptResult.Duration = time.Since(start)
			return attemptResult
		}

		if errors.Is(err, ErrSyncAlreadyRunning) {
			result.Errors = []string{err.Error()}
			result.Duration = time.Since(start)
			s.logger().Warn("sync attempt skipped: another run holds the slot")
			return result
		}

		attempts = append(attempts, models.SyncAttemptError{
			Attempt: attempt,
			Error:   err.Error(),
		})
		s.logger().Warn("sync attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", opts.MaxRetries),
			zap.Error(err),
		)

		if attempt < opts.MaxRetries {
			delay := s.retryDelay() << (attempt - 1)
			select {
			case <-ctx.Done():
				attempts = append(attempts, models.SyncAttemptError{
					Attempt: attempt + 1,
					Error:   ctx.Err().Error(),
				})
				return s.failRetryLog(ctx, syncLog, result, attempts, start)
			case <-time.After(delay):
			}
		}
	}

	return s.failRetryLog(ctx, syncLog, result, attempts, start)
}

func (s *SyncService) failRetryLog(ctx context.Context, syncLog *models.SyncLog, result SyncResult, attempts []models.SyncAttemptError, start time.Time) SyncResult {
	now := time.Now().UTC()
	syncLog.Status = models.SyncLogStatusFailed
	syncLog.EndTime = &now
	if encoded, err := json.Marshal(attempts); err == nil {
		syncLog.Errors = datatypes.JSON(encoded)
	}
	if err := s.Repo.UpdateSyncLog(ctx, syncLog); err != nil {
		s.logger().Warn("failed to finalize sync log", zap.Uint64("id", syncLog.ID), zap.Error(err))
	}

	result.Errors = make([]string, 0, len(attempts))
	for _, a := range attempts {
		result.Errors = append(result.Errors, a.Error)
	}
	result.Duration = time.Since(start)
	s.logger().Error("sync failed after all attempts",
		zap.Uint64("sync_log_id", syncLog.ID),
		zap.Int("attempts", len(attempts)),
	)
	return result
}

// finalizeRetryLog writes the terminal COMPLETED state for the shared log.
// Earlier failed attempts take precedence in the errors column; otherwise the
// record-level errors of the successful pass are stored.
func (s *SyncService) finalizeRetryLog(ctx context.Context, syncLog *models.SyncLog, status string, attemptResult SyncResult, attempts []models.SyncAttemptError) {
	now := time.Now().UTC()
	syncLog.Status = status
	syncLog.EndTime = &now
	syncLog.RecordsProcessed = attemptResult.RecordsProcessed
	if len(attempts) > 0 {
		if encoded, err := json.Marshal(attempts); err == nil {
			syncLog.Errors = datatypes.JSON(encoded)
		}
	} else if len(attemptResult.Errors) > 0 {
		if encoded, err := json.Marshal(attemptResult.Errors); err == nil {
			syncLog.Errors = datatypes.JSON(encoded)
		}
	}
	if err := s.Repo.UpdateSyncLog(ctx, syncLog); err != nil {
		s.logger().Warn("failed to finalize sync log", zap.Uint64("id", syncLog.ID), zap.Error(err))
	}
}
