package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mafiainsight/internal/client/gomafia"
	"mafiainsight/internal/models"
	"mafiainsight/internal/repository"
	"mafiainsight/internal/service"
)

var retryableEntityTypes = map[string]bool{
	"player":     true,
	"club":       true,
	"tournament": true,
}

type SkippedHandler struct {
	Repo    repository.Repository
	Skipped *service.SkippedEntityManager
	Source  service.DataSource
	Sync    *service.SyncService
	Logger  *zap.Logger
}

func (h *SkippedHandler) Register(group *gin.RouterGroup) {
	group.GET("/skipped", h.listSkipped)
	group.GET("/skipped/summary", h.skippedSummary)
	group.GET("/skipped-pages", h.listSkippedPages)
	group.POST("/skipped/retry", h.retrySkippedPages)
	group.DELETE("/skipped/cleanup", h.cleanupSkipped)
}

// @Summary List skipped entities
// @Tags admin
// @Param phase query string false "sync phase"
// @Param entity_type query string false "entity type"
// @Param status query string false "skipped status"
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/admin/skipped [get]
func (h *SkippedHandler) listSkipped(c *gin.Context) {
	if h.Skipped == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	params := repository.ListSkippedParams{
		Phase:      strQueryPtr(c, "phase"),
		EntityType: strQueryPtr(c, "entity_type"),
		Status:     strQueryPtr(c, "status"),
		Limit:      intQuery(c, "limit", 100),
	}
	if params.Phase != nil && !models.ValidPhase(*params.Phase) {
		Error(c, http.StatusBadRequest, "invalid sync phase", nil)
		return
	}
	items, err := h.Skipped.List(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// @Summary Skipped entities summary by phase
// @Tags admin
// @Success 200 {object} apiResponse
// @Router /api/admin/skipped/summary [get]
func (h *SkippedHandler) skippedSummary(c *gin.Context) {
	if h.Skipped == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	summary, err := h.Skipped.Summary(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}

type skippedPageGroupResponse struct {
	SyncLogID  uint64    `json:"sync_log_id"`
	EntityType string    `json:"entity_type"`
	Pages      []int     `json:"pages"`
	Timestamp  time.Time `json:"timestamp"`
}

// @Summary Skipped listing pages grouped by sync run
// @Tags admin
// @Param limit query int false "sync logs to inspect"
// @Success 200 {object} apiResponse
// @Router /api/admin/skipped-pages [get]
func (h *SkippedHandler) listSkippedPages(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	logs, err := h.Repo.ListSyncLogs(c.Request.Context(), repository.ListSyncLogsParams{
		Limit: intQuery(c, "limit", 20),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	groups := make([]skippedPageGroupResponse, 0)
	for _, log := range logs {
		if len(log.SkippedPages) == 0 {
			continue
		}
		var pageGroups []models.SkippedPageGroup
		if err := json.Unmarshal(log.SkippedPages, &pageGroups); err != nil {
			continue
		}
		for _, g := range pageGroups {
			groups = append(groups, skippedPageGroupResponse{
				SyncLogID:  log.ID,
				EntityType: g.EntityType,
				Pages:      g.Pages,
				Timestamp:  g.Timestamp,
			})
		}
	}
	Ok(c, groups, nil)
}

type retrySkippedRequest struct {
	EntityType  string `json:"entity_type"`
	PageNumbers []int  `json:"page_numbers"`
	Year        int    `json:"year"`
	Region      string `json:"region"`
	TimeFilter  string `json:"time_filter"`
}

type retrySkippedResponse struct {
	EntityType string   `json:"entity_type"`
	Requested  int      `json:"requested"`
	Recovered  int      `json:"recovered"`
	Persisted  int      `json:"persisted"`
	Errors     []string `json:"errors,omitempty"`
}

// @Summary Retry previously skipped listing pages
// @Tags admin
// @Param request body retrySkippedRequest true "retry request"
// @Success 200 {object} apiResponse
// @Router /api/admin/skipped/retry [post]
func (h *SkippedHandler) retrySkippedPages(c *gin.Context) {
	if h.Source == nil || h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req retrySkippedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	entityType := strings.ToLower(strings.TrimSpace(req.EntityType))
	if !retryableEntityTypes[entityType] {
		Error(c, http.StatusBadRequest, "entity_type must be player, club or tournament", nil)
		return
	}
	if len(req.PageNumbers) == 0 {
		Error(c, http.StatusBadRequest, "page_numbers must not be empty", nil)
		return
	}

	records, err := h.Source.RetrySkippedPages(c.Request.Context(), entityType, req.PageNumbers, gomafia.RetryOptions{
		Year:       req.Year,
		Region:     req.Region,
		TimeFilter: req.TimeFilter,
	})
	resp := retrySkippedResponse{
		EntityType: entityType,
		Requested:  len(req.PageNumbers),
		Recovered:  len(records),
	}
	if err != nil {
		resp.Errors = append(resp.Errors, err.Error())
	}

	now := time.Now().UTC()
	persistedByPage := make(map[int]int)
	for _, record := range records {
		if persistErr := h.persistRetried(c, record, now); persistErr != nil {
			resp.Errors = append(resp.Errors, persistErr.Error())
			continue
		}
		resp.Persisted++
		persistedByPage[record.Page]++
	}
	if h.Skipped != nil {
		h.Skipped.ResolvePages(c.Request.Context(), entityType, req.PageNumbers, persistedByPage)
	}

	if h.Logger != nil {
		h.Logger.Info("skipped page retry finished",
			zap.String("entity_type", entityType),
			zap.Int("requested", resp.Requested),
			zap.Int("recovered", resp.Recovered),
			zap.Int("persisted", resp.Persisted),
			zap.Int("errors", len(resp.Errors)),
		)
	}
	Ok(c, resp, nil)
}

func (h *SkippedHandler) persistRetried(c *gin.Context, record gomafia.RetriedRecord, now time.Time) error {
	ctx := c.Request.Context()
	switch {
	case record.Player != nil:
		item, err := service.TransformPlayer(record.Player, now)
		if err != nil {
			return err
		}
		return h.Repo.UpsertPlayer(ctx, item)
	case record.Club != nil:
		item, err := service.TransformClub(record.Club, now)
		if err != nil {
			return err
		}
		return h.Repo.UpsertClub(ctx, item)
	case record.Tournament != nil:
		item, err := service.TransformTournament(record.Tournament, now)
		if err != nil {
			return err
		}
		return h.Repo.UpsertTournament(ctx, item)
	}
	return nil
}

// @Summary Delete old completed skipped entities
// @Tags admin
// @Param older_than_days query int false "retention window in days"
// @Success 200 {object} apiResponse
// @Router /api/admin/skipped/cleanup [delete]
func (h *SkippedHandler) cleanupSkipped(c *gin.Context) {
	if h.Skipped == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	deleted, err := h.Skipped.Cleanup(c.Request.Context(), intQuery(c, "older_than_days", 0))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": deleted}, nil)
}
