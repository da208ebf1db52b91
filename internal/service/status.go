package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
)

// ErrSyncAlreadyRunning is returned when a second run is started while one
// is in flight. Overlapping runs are rejected outright rather than sharing
// (and corrupting) the progress snapshot.
var ErrSyncAlreadyRunning = errors.New("a sync is already running")

// StatusHolder is the in-memory source of truth for the in-flight sync. The
// SyncStatus row is only a durable snapshot written on each change; readers
// inside the process never touch the database.
type StatusHolder struct {
	repo   repository.Repository
	logger *zap.Logger

	mu           sync.Mutex
	running      bool
	paused       bool
	progress     int
	operation    string
	lastSyncTime *time.Time
	lastSyncType *string
	lastError    *string
	checkpoint   *models.SyncCheckpoint
}

func NewStatusHolder(repo repository.Repository, logger *zap.Logger) *StatusHolder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusHolder{repo: repo, logger: logger}
}

// Begin claims the single-flight slot. The caller must pair it with Finish.
func (h *StatusHolder) Begin(ctx context.Context, syncType string) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrSyncAlreadyRunning
	}
	h.running = true
	h.paused = false
	h.progress = 0
	h.operation = "starting " + syncType + " sync"
	h.lastError = nil
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	h.persist(ctx, snapshot)
	return nil
}

// Publish updates progress and the current operation. Progress is clamped to
// be monotonically non-decreasing within a run.
func (h *StatusHolder) Publish(ctx context.Context, progress int, operation string) {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	if progress > h.progress {
		h.progress = progress
	}
	if operation != "" {
		h.operation = operation
	}
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	h.persist(ctx, snapshot)
}

// RequestPause sets the cooperative cancellation token. The orchestrator
// checks it between batches; nothing is interrupted mid-record.
func (h *StatusHolder) RequestPause() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running || h.paused {
		return false
	}
	h.paused = true
	return true
}

func (h *StatusHolder) PauseRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

// ClearPause lifts the pause flag so a resumed run is not immediately
// re-paused.
func (h *StatusHolder) ClearPause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = false
}

// Checkpoint returns the last saved resume point, if any.
func (h *StatusHolder) Checkpoint() *models.SyncCheckpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.checkpoint == nil {
		return nil
	}
	cp := *h.checkpoint
	return &cp
}

// FinishPaused ends a run that stopped at a pause point, persisting the
// checkpoint it can be resumed from.
func (h *StatusHolder) FinishPaused(ctx context.Context, syncType string, cp models.SyncCheckpoint) {
	h.mu.Lock()
	h.running = false
	h.checkpoint = &cp
	h.operation = "paused"
	h.lastSyncType = &syncType
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	h.persist(ctx, snapshot)
}

// Finish releases the single-flight slot. A nil errMsg means the run
// completed; progress jumps to 100 and the checkpoint is discarded.
func (h *StatusHolder) Finish(ctx context.Context, syncType string, errMsg *string) {
	now := time.Now().UTC()
	h.mu.Lock()
	h.running = false
	h.paused = false
	h.lastSyncType = &syncType
	h.lastError = errMsg
	if errMsg == nil {
		h.progress = 100
		h.operation = "idle"
		h.lastSyncTime = &now
		h.checkpoint = nil
	} else {
		h.operation = "failed"
	}
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	h.persist(ctx, snapshot)
}

// Snapshot returns the current state for status endpoints and the websocket
// stream.
func (h *StatusHolder) Snapshot() models.SyncStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *StatusHolder) snapshotLocked() models.SyncStatus {
	item := models.SyncStatus{
		ID:               models.SyncStatusID,
		IsRunning:        h.running,
		IsPaused:         h.paused,
		Progress:         h.progress,
		CurrentOperation: h.operation,
		LastSyncTime:     h.lastSyncTime,
		LastSyncType:     h.lastSyncType,
		LastError:        h.lastError,
		UpdatedAt:        time.Now().UTC(),
	}
	if h.checkpoint != nil {
		if encoded, err := json.Marshal(h.checkpoint); err == nil {
			item.Checkpoint = datatypes.JSON(encoded)
		}
	}
	return item
}

// Restore loads the persisted snapshot after a restart, recovering the
// checkpoint of a run that was paused or cut off.
func (h *StatusHolder) Restore(ctx context.Context) {
	if h.repo == nil {
		return
	}
	row, err := h.repo.GetSyncStatus(ctx)
	if err != nil || row == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSyncTime = row.LastSyncTime
	h.lastSyncType = row.LastSyncType
	h.lastError = row.LastError
	if len(row.Checkpoint) > 0 {
		var cp models.SyncCheckpoint
		if err := json.Unmarshal(row.Checkpoint, &cp); err == nil {
			h.checkpoint = &cp
		}
	}
}

func (h *StatusHolder) persist(ctx context.Context, snapshot models.SyncStatus) {
	if h.repo == nil {
		return
	}
	if err := h.repo.SaveSyncStatus(ctx, &snapshot); err != nil {
		h.logger.Warn("failed to persist sync status snapshot", zap.Error(err))
	}
}
