package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mafiainsight/internal/repository"
)

type ClubHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *ClubHandler) Register(r *gin.Engine) {
	group := r.Group("/api/clubs")
	group.GET("", h.listClubs)
	group.GET("/:id", h.getClub)
	group.GET("/:id/players", h.listClubPlayers)
}

// @Summary List clubs
// @Tags clubs
// @Param region query string false "region"
// @Param search query string false "name contains"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/clubs [get]
func (h *ClubHandler) listClubs(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListClubsParams{
		Region: strQueryPtr(c, "region"),
		Search: strQueryPtr(c, "search"),
		Limit:  limit,
		Offset: offset,
	}
	items, err := h.Repo.ListClubs(c.Request.Context(), params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list clubs failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountClubs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get one club
// @Tags clubs
// @Param id path string true "gomafia club id"
// @Success 200 {object} apiResponse
// @Router /api/clubs/{id} [get]
func (h *ClubHandler) getClub(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	item, err := h.Repo.GetClubByGomafiaID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "club not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary List players of a club
// @Tags clubs
// @Param id path string true "gomafia club id"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/clubs/{id}/players [get]
func (h *ClubHandler) listClubPlayers(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	clubID := c.Param("id")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListPlayersParams{
		ClubID: &clubID,
		Limit:  limit,
		Offset: offset,
	}
	items, err := h.Repo.ListPlayers(c.Request.Context(), params)
	if err != nil {
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
