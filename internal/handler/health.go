package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mafiainsight/internal/db"
	"mafiainsight/internal/service"
)

// HealthHandler serves the probe endpoints. Liveness is unconditional;
// readiness needs a reachable database and also reports the scheduler state
// so a stopped cron shows up without querying the admin API.
type HealthHandler struct {
	DB        *db.DB
	Scheduler *service.SchedulerHandle
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mafiainsight"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_missing"})
		return
	}
	if err := db.Ping(h.DB); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	scheduler := "DISABLED"
	if h.Scheduler != nil {
		scheduler = h.Scheduler.Health().Status
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "scheduler": scheduler})
}
