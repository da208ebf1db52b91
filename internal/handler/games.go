package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mafiainsight/internal/repository"
)

type GameHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *GameHandler) Register(r *gin.Engine) {
	group := r.Group("/api/games")
	group.GET("", h.listGames)
	group.GET("/:id", h.getGame)
}

// @Summary List games
// @Tags games
// @Param tournament_id query string false "tournament id"
// @Param played_after query string false "game date lower bound (RFC3339)"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/games [get]
func (h *GameHandler) listGames(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	params := repository.ListGamesParams{
		TournamentID: strQueryPtr(c, "tournament_id"),
		PlayedAfter:  timeQueryPtr(c, "played_after"),
		Limit:        limit,
		Offset:       offset,
	}
	items, err := h.Repo.ListGames(c.Request.Context(), params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list games failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountGames(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get one game
// @Tags games
// @Param id path string true "gomafia game id"
// @Success 200 {object} apiResponse
// @Router /api/games/{id} [get]
func (h *GameHandler) getGame(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	item, err := h.Repo.GetGameByGomafiaID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "game not found", nil)
		return
	}
	Ok(c, item, nil)
}
