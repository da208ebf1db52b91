package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mafiainsight/internal/repository"
)

type TournamentHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *TournamentHandler) Register(r *gin.Engine) {
	group := r.Group("/api/tournaments")
	group.GET("", h.listTournaments)
	group.GET("/:id", h.getTournament)
	group.GET("/:id/games", h.listTournamentGames)
}

// @Summary List tournaments
// @Tags tournaments
// @Param status query string false "tournament status"
// @Param since query string false "start date lower bound (RFC3339)"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/tournaments [get]
func (h *TournamentHandler) listTournaments(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListTournamentsParams{
		Status: strQueryPtr(c, "status"),
		Since:  timeQueryPtr(c, "since"),
		Limit:  limit,
		Offset: offset,
	}
	items, err := h.Repo.ListTournaments(c.Request.Context(), params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list tournaments failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountTournaments(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get one tournament
// @Tags tournaments
// @Param id path string true "gomafia tournament id"
// @Success 200 {object} apiResponse
// @Router /api/tournaments/{id} [get]
func (h *TournamentHandler) getTournament(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	item, err := h.Repo.GetTournamentByGomafiaID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "tournament not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary List games of a tournament
// @Tags tournaments
// @Param id path string true "gomafia tournament id"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/tournaments/{id}/games [get]
func (h *TournamentHandler) listTournamentGames(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	tournamentID := c.Param("id")
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	params := repository.ListGamesParams{
		TournamentID: &tournamentID,
		Limit:        limit,
		Offset:       offset,
	}
	items, err := h.Repo.ListGames(c.Request.Context(), params)
	if err != nil {
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
