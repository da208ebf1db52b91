package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mafiainsight/internal/repository"
)

type PlayerHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *PlayerHandler) Register(r *gin.Engine) {
	group := r.Group("/api/players")
	group.GET("", h.listPlayers)
	group.GET("/:id", h.getPlayer)
	group.GET("/:id/year-stats", h.getPlayerYearStats)
}

// @Summary List players
// @Tags players
// @Param region query string false "region"
// @Param club_id query string false "club id"
// @Param search query string false "name contains"
// @Param order_by query string false "order by field"
// @Param ascending query bool false "ascending"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/players [get]
func (h *PlayerHandler) listPlayers(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListPlayersParams{
		Region: strQueryPtr(c, "region"),
		ClubID: strQueryPtr(c, "club_id"),
		Search: strQueryPtr(c, "search"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"elo_rating":   "elo_rating",
			"total_games":  "total_games",
			"name":         "name",
			"last_sync_at": "last_sync_at",
		}),
		Limit:  limit,
		Offset: offset,
	}
	if asc := boolQueryPtr(c, "ascending"); asc != nil {
		params.Asc = *asc
	}

	items, err := h.Repo.ListPlayers(c.Request.Context(), params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list players failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountPlayers(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get one player
// @Tags players
// @Param id path string true "gomafia player id"
// @Success 200 {object} apiResponse
// @Router /api/players/{id} [get]
func (h *PlayerHandler) getPlayer(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	item, err := h.Repo.GetPlayerByGomafiaID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "player not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Per-year statistics of one player
// @Tags players
// @Param id path string true "gomafia player id"
// @Param year query int false "restrict to one year"
// @Success 200 {object} apiResponse
// @Router /api/players/{id}/year-stats [get]
func (h *PlayerHandler) getPlayerYearStats(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := c.Param("id")
	player, err := h.Repo.GetPlayerByGomafiaID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if player == nil {
		Error(c, http.StatusNotFound, "player not found", nil)
		return
	}
	stats, err := h.Repo.ListPlayerYearStats(c.Request.Context(), id, intQueryPtr(c, "year"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, stats, nil)
}
