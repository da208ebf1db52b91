package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
	"mafiainsight/internal/service"
)

type SyncHandler struct {
	Repo      repository.Repository
	Sync      *service.SyncService
	Scheduler *service.SchedulerHandle
	Logger    *zap.Logger
}

func (h *SyncHandler) Register(group *gin.RouterGroup) {
	group.POST("/sync/trigger", h.triggerSync)
	group.GET("/sync/status", h.syncStatus)
	group.GET("/sync/logs", h.listSyncLogs)
	group.GET("/sync/logs/:id", h.getSyncLog)
	group.POST("/sync/pause", h.pauseSync)
	group.POST("/sync/resume", h.resumeSync)
	group.GET("/scheduler/status", h.schedulerStatus)
	group.GET("/scheduler/health", h.schedulerHealth)
	group.PUT("/scheduler/schedule", h.updateSchedule)
}

type triggerSyncRequest struct {
	Type       string `json:"type"`
	BatchSize  int    `json:"batch_size"`
	MaxRetries int    `json:"max_retries"`
}

// @Summary Trigger a sync run
// @Tags admin
// @Param request body triggerSyncRequest false "sync options"
// @Success 200 {object} apiResponse
// @Router /api/admin/sync/trigger [post]
func (h *SyncHandler) triggerSync(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req triggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid request body", nil)
			return
		}
	}
	syncType := strings.ToUpper(strings.TrimSpace(req.Type))
	if syncType != "" && syncType != models.SyncTypeFull && syncType != models.SyncTypeIncremental {
		Error(c, http.StatusBadRequest, "type must be FULL or INCREMENTAL", nil)
		return
	}

	result, err := h.Scheduler.TriggerManual(c.Request.Context(), service.SyncOptions{
		Type:       syncType,
		BatchSize:  req.BatchSize,
		MaxRetries: req.MaxRetries,
	})
	if err != nil {
		if errors.Is(err, service.ErrSyncAlreadyRunning) {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		if h.Logger != nil {
			h.Logger.Warn("manual sync failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{
			"sync_log_id": result.SyncLogID,
		})
		return
	}
	Ok(c, result, nil)
}

// @Summary Current sync status
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/sync/status [get]
func (h *SyncHandler) syncStatus(c *gin.Context) {
	if h.Sync == nil || h.Sync.Status == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	Ok(c, h.Sync.Status.Snapshot(), nil)
}

// @Summary List sync logs
// @Tags admin
// @Param type query string false "FULL or INCREMENTAL"
// @Param status query string false "log status"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/admin/sync/logs [get]
func (h *SyncHandler) listSyncLogs(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, err := h.Repo.ListSyncLogs(c.Request.Context(), repository.ListSyncLogsParams{
		Type:   strQueryPtr(c, "type"),
		Status: strQueryPtr(c, "status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Get one sync log
// @Tags admin
// @Param id path int true "sync log id"
// @Success 200 {object} apiResponse
// @Router /api/admin/sync/logs/{id} [get]
func (h *SyncHandler) getSyncLog(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid sync log id", nil)
		return
	}
	item, err := h.Repo.GetSyncLog(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "sync log not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Pause the running sync
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/sync/pause [post]
func (h *SyncHandler) pauseSync(c *gin.Context) {
	if h.Sync == nil || h.Sync.Status == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	if !h.Sync.Status.RequestPause() {
		Error(c, http.StatusConflict, "no running sync to pause", nil)
		return
	}
	Ok(c, gin.H{"paused": true}, nil)
}

// @Summary Resume a paused sync from its checkpoint
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/sync/resume [post]
func (h *SyncHandler) resumeSync(c *gin.Context) {
	if h.Sync == nil || h.Sync.Status == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	cp := h.Sync.Status.Checkpoint()
	if cp == nil {
		Error(c, http.StatusConflict, "no paused sync to resume", nil)
		return
	}
	h.Sync.Status.ClearPause()

	syncType := models.SyncTypeFull
	if cp.Phase == service.PhaseIncremental {
		syncType = models.SyncTypeIncremental
	}
	result, err := h.Sync.RunSync(c.Request.Context(), service.SyncOptions{
		Type:       syncType,
		BatchSize:  cp.BatchSize,
		StartPhase: cp.Phase,
		StartBatch: cp.BatchIndex,
	})
	if err != nil {
		if errors.Is(err, service.ErrSyncAlreadyRunning) {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

// @Summary Scheduler status
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/scheduler/status [get]
func (h *SyncHandler) schedulerStatus(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	st := h.Scheduler.Status()
	Ok(c, st, map[string]any{
		"schedule_info": h.Scheduler.ScheduleInfo(),
	})
}

// @Summary Scheduler health
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/scheduler/health [get]
func (h *SyncHandler) schedulerHealth(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	health := h.Scheduler.Health()
	if !health.Healthy {
		Error(c, http.StatusServiceUnavailable, health.Message, map[string]any{
			"health": health,
		})
		return
	}
	Ok(c, health, nil)
}

type updateScheduleRequest struct {
	Schedule string `json:"schedule" binding:"required"`
}

// @Summary Update the sync cron schedule
// @Tags admin
// @Param request body updateScheduleRequest true "new schedule"
// @Success 200 {object} apiResponse
// @Router /api/admin/scheduler/schedule [put]
func (h *SyncHandler) updateSchedule(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req updateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "schedule required", nil)
		return
	}
	if err := h.Scheduler.UpdateSchedule(req.Schedule); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, h.Scheduler.Status(), nil)
}
