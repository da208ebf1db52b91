package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
	"mafiainsight/internal/syncerr"
)

const defaultSkippedRetentionDays = 30

// SkippedEntityManager is the bookkeeping layer for pages and entities that
// failed during an import pass. The sync pipeline records into it; the admin
// API reads and retries through it.
type SkippedEntityManager struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func NewSkippedEntityManager(repo repository.Repository, logger *zap.Logger) *SkippedEntityManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkippedEntityManager{Repo: repo, Logger: logger}
}

type RecordSkippedParams struct {
	Phase        string
	EntityType   string
	EntityID     *string
	PageNumber   *int
	ErrorMessage string
	ErrorDetails any
	SyncLogID    *uint64
	Cause        error
}

// Record persists one skipped row. The error code is derived from the cause
// when present: permanent failures will not heal on their own, transient ones
// are worth an automatic look.
func (m *SkippedEntityManager) Record(ctx context.Context, params RecordSkippedParams) (*models.SkippedEntity, error) {
	if !models.ValidPhase(params.Phase) {
		return nil, fmt.Errorf("invalid sync phase %q", params.Phase)
	}
	if params.EntityID == nil && params.PageNumber == nil {
		return nil, fmt.Errorf("skipped entity needs an entity id or a page number")
	}

	code := "TRANSIENT"
	if params.Cause != nil && syncerr.IsPermanent(params.Cause) {
		code = "PERMANENT"
	}

	item := &models.SkippedEntity{
		Phase:        params.Phase,
		EntityType:   params.EntityType,
		EntityID:     params.EntityID,
		PageNumber:   params.PageNumber,
		ErrorCode:    code,
		ErrorMessage: params.ErrorMessage,
		Status:       models.SkippedStatusPending,
		SyncLogID:    params.SyncLogID,
	}
	if params.ErrorDetails != nil {
		if encoded, err := json.Marshal(params.ErrorDetails); err == nil {
			item.ErrorDetails = datatypes.JSON(encoded)
		}
	}
	if err := m.Repo.CreateSkippedEntity(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to record skipped entity: %w", err)
	}
	m.Logger.Debug("recorded skipped entity",
		zap.String("phase", params.Phase),
		zap.String("entity_type", params.EntityType),
		zap.String("code", code),
	)
	return item, nil
}

func (m *SkippedEntityManager) GetByPhase(ctx context.Context, phase string, limit int) ([]models.SkippedEntity, error) {
	if !models.ValidPhase(phase) {
		return nil, fmt.Errorf("invalid sync phase %q", phase)
	}
	return m.Repo.ListSkippedEntities(ctx, repository.ListSkippedParams{Phase: &phase, Limit: limit})
}

func (m *SkippedEntityManager) GetByEntityID(ctx context.Context, entityType, entityID string) ([]models.SkippedEntity, error) {
	return m.Repo.ListSkippedEntities(ctx, repository.ListSkippedParams{
		EntityType: &entityType,
		EntityID:   &entityID,
	})
}

func (m *SkippedEntityManager) GetByPage(ctx context.Context, entityType string, page int) ([]models.SkippedEntity, error) {
	return m.Repo.ListSkippedEntities(ctx, repository.ListSkippedParams{
		EntityType: &entityType,
		PageNumber: &page,
	})
}

func (m *SkippedEntityManager) List(ctx context.Context, params repository.ListSkippedParams) ([]models.SkippedEntity, error) {
	return m.Repo.ListSkippedEntities(ctx, params)
}

// MarkRetrying flags a row as being retried. The retry count goes up on every
// call, whatever the current status, so repeated manual retries are visible.
func (m *SkippedEntityManager) MarkRetrying(ctx context.Context, id uint64) (*models.SkippedEntity, error) {
	item, err := m.Repo.GetSkippedEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item.Status = models.SkippedStatusRetrying
	item.RetryCount++
	item.LastRetryAt = &now
	if err := m.Repo.UpdateSkippedEntity(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (m *SkippedEntityManager) MarkCompleted(ctx context.Context, id uint64) (*models.SkippedEntity, error) {
	return m.setStatus(ctx, id, models.SkippedStatusCompleted, nil)
}

func (m *SkippedEntityManager) MarkFailed(ctx context.Context, id uint64, cause error) (*models.SkippedEntity, error) {
	return m.setStatus(ctx, id, models.SkippedStatusFailed, cause)
}

func (m *SkippedEntityManager) setStatus(ctx context.Context, id uint64, status string, cause error) (*models.SkippedEntity, error) {
	item, err := m.Repo.GetSkippedEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Status = status
	if cause != nil {
		item.ErrorMessage = cause.Error()
		if syncerr.IsPermanent(cause) {
			item.ErrorCode = "PERMANENT"
		} else {
			item.ErrorCode = "TRANSIENT"
		}
	}
	if err := m.Repo.UpdateSkippedEntity(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ResolvePages moves the skipped rows of manually retried pages forward.
// Every matching row is marked RETRYING; rows whose page produced at least
// one persisted record are then completed. A page that yielded nothing stays
// in the queue with its retry count bumped, so a partially successful retry
// never clears the pages that failed again.
func (m *SkippedEntityManager) ResolvePages(ctx context.Context, entityType string, pages []int, persistedByPage map[int]int) {
	for _, page := range pages {
		rows, err := m.GetByPage(ctx, entityType, page)
		if err != nil {
			continue
		}
		for _, row := range rows {
			if row.Status == models.SkippedStatusCompleted {
				continue
			}
			if _, err := m.MarkRetrying(ctx, row.ID); err != nil {
				continue
			}
			if persistedByPage[page] > 0 {
				_, _ = m.MarkCompleted(ctx, row.ID)
			}
		}
	}
}

// SkippedBucket is one phase/status cell of the summary.
type SkippedBucket struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Retrying  int `json:"retrying"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Summary buckets every skipped row by phase. Only phases with at least one
// row appear.
func (m *SkippedEntityManager) Summary(ctx context.Context) (map[string]SkippedBucket, error) {
	items, err := m.Repo.ListSkippedEntities(ctx, repository.ListSkippedParams{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]SkippedBucket)
	for _, it := range items {
		b := out[it.Phase]
		b.Total++
		switch it.Status {
		case models.SkippedStatusPending:
			b.Pending++
		case models.SkippedStatusRetrying:
			b.Retrying++
		case models.SkippedStatusCompleted:
			b.Completed++
		case models.SkippedStatusFailed:
			b.Failed++
		}
		out[it.Phase] = b
	}
	return out, nil
}

// Cleanup deletes completed rows older than the retention window.
func (m *SkippedEntityManager) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = defaultSkippedRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	deleted, err := m.Repo.DeleteCompletedSkippedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		m.Logger.Info("cleaned up completed skipped entities",
			zap.Int64("deleted", deleted),
			zap.Int("older_than_days", olderThanDays),
		)
	}
	return deleted, nil
}
