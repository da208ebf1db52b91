package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mafiainsight/internal/config"
	cronrunner "mafiainsight/internal/cron"
)

const (
	SchedulerHealthOK        = "OK"
	SchedulerHealthStopped   = "STOPPED"
	SchedulerHealthNoNextRun = "NO_NEXT_RUN"
	SchedulerHealthOverdue   = "OVERDUE"
)

// SchedulerHandle owns the cron entry that fires scheduled sync runs. It is
// created and stopped by main; nothing starts at import time.
type SchedulerHandle struct {
	runner *cronrunner.Runner
	sync   *SyncService
	logger *zap.Logger
	cfg    config.SyncConfig

	mu          sync.Mutex
	initialized bool
	entryID     cron.EntryID
	schedule    string
	lastFiredAt *time.Time
}

type SchedulerStatus struct {
	IsRunning bool       `json:"is_running"`
	Schedule  string     `json:"schedule"`
	SyncType  string     `json:"sync_type"`
	Enabled   bool       `json:"enabled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
}

func NewScheduler(runner *cronrunner.Runner, syncSvc *SyncService, cfg config.SyncConfig, logger *zap.Logger) *SchedulerHandle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerHandle{
		runner:   runner,
		sync:     syncSvc,
		logger:   logger,
		cfg:      cfg,
		schedule: cfg.CronSchedule,
	}
}

// Initialize registers the cron entry and starts the runner. Calling it again
// is a no-op.
func (h *SchedulerHandle) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.initialized {
		return nil
	}
	if h.schedule == "" {
		h.schedule = "0 0 * * *"
	}

	id, err := h.runner.Add(h.schedule, h.fire)
	if err != nil {
		return fmt.Errorf("failed to register sync schedule %q: %w", h.schedule, err)
	}
	h.entryID = id
	h.initialized = true
	h.runner.Start()
	h.logger.Info("sync scheduler initialized",
		zap.String("schedule", h.schedule),
		zap.Bool("enabled", h.cfg.Enabled),
	)
	return nil
}

func (h *SchedulerHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		return
	}
	h.runner.Stop()
	h.initialized = false
	h.logger.Info("sync scheduler stopped")
}

// UpdateSchedule swaps the cron expression at runtime. The old entry is
// removed only after the new one registered.
func (h *SchedulerHandle) UpdateSchedule(spec string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.initialized {
		h.schedule = spec
		return nil
	}
	id, err := h.runner.Add(spec, h.fire)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	h.runner.Remove(h.entryID)
	h.entryID = id
	h.schedule = spec
	h.logger.Info("sync schedule updated", zap.String("schedule", spec))
	return nil
}

// fire is the cron callback. Disabled config and a paused run both suppress
// the scheduled pass; a manual resume owns the paused checkpoint.
func (h *SchedulerHandle) fire(ctx context.Context) {
	if !h.cfg.Enabled {
		h.logger.Info("scheduled sync skipped: sync disabled")
		return
	}
	if h.sync.Status.PauseRequested() {
		h.logger.Info("scheduled sync skipped: a paused run is waiting for resume")
		return
	}

	now := time.Now().UTC()
	h.mu.Lock()
	h.lastFiredAt = &now
	h.mu.Unlock()

	result := h.sync.RunSyncWithRetry(ctx, SyncOptions{Type: h.cfg.Type})
	if result.Success {
		h.logger.Info("scheduled sync finished",
			zap.String("type", result.Type),
			zap.Int("records", result.RecordsProcessed),
			zap.Duration("duration", result.Duration),
		)
		return
	}
	h.logger.Error("scheduled sync did not complete",
		zap.String("type", result.Type),
		zap.Int("errors", len(result.Errors)),
		zap.Bool("resumable", result.Resumable),
	)
}

// TriggerManual runs one pass outside the schedule. Single-flight is enforced
// by the status holder, so a concurrent trigger returns ErrSyncAlreadyRunning.
func (h *SchedulerHandle) TriggerManual(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	return h.sync.RunSync(ctx, opts)
}

func (h *SchedulerHandle) Status() SchedulerStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := SchedulerStatus{
		IsRunning: h.initialized,
		Schedule:  h.schedule,
		SyncType:  h.cfg.Type,
		Enabled:   h.cfg.Enabled,
		LastRun:   h.lastFiredAt,
	}
	if h.initialized {
		if next := h.runner.Next(h.entryID); !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}

// ScheduleInfo renders the current cron expression for the admin UI. Common
// expressions get a human-readable description.
func (h *SchedulerHandle) ScheduleInfo() string {
	h.mu.Lock()
	spec := h.schedule
	h.mu.Unlock()
	switch spec {
	case "0 0 * * *":
		return "daily at midnight"
	case "0 * * * *":
		return "hourly"
	case "*/30 * * * *":
		return "every 30 minutes"
	}
	return spec
}

// SchedulerHealth is the full health report for the admin API: the boolean
// verdict, the state constant behind it, a human-readable message, and the
// next fire time when one is known.
type SchedulerHealth struct {
	Healthy bool       `json:"healthy"`
	Status  string     `json:"status"`
	Message string     `json:"message"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// Health reports whether the scheduler is in a state that will produce the
// next run.
func (h *SchedulerHandle) Health() SchedulerHealth {
	st := h.Status()
	if !st.IsRunning {
		return SchedulerHealth{
			Status:  SchedulerHealthStopped,
			Message: "scheduler is not running",
		}
	}
	if st.NextRun == nil {
		return SchedulerHealth{
			Status:  SchedulerHealthNoNextRun,
			Message: "no next run is scheduled",
		}
	}
	if time.Until(*st.NextRun) < -time.Minute {
		return SchedulerHealth{
			Status:  SchedulerHealthOverdue,
			Message: fmt.Sprintf("next run was due %s ago", time.Since(*st.NextRun).Round(time.Second)),
			NextRun: st.NextRun,
		}
	}
	return SchedulerHealth{
		Healthy: true,
		Status:  SchedulerHealthOK,
		Message: fmt.Sprintf("next run in %s", time.Until(*st.NextRun).Round(time.Second)),
		NextRun: st.NextRun,
	}
}
