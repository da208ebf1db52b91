package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"mafiainsight/internal/service"
)

const statusPushInterval = time.Second

// StatusWSHandler streams sync status snapshots over a websocket so the
// frontend progress bar does not have to poll.
type StatusWSHandler struct {
	Status *service.StatusHolder
	Logger *zap.Logger
}

func (h *StatusWSHandler) Register(r *gin.Engine) {
	r.GET("/ws/sync-status", h.stream)
}

func (h *StatusWSHandler) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	ctx := c.Request.Context()
	ticker := time.NewTicker(statusPushInterval)
	defer ticker.Stop()

	// Push the current snapshot immediately, then on every tick.
	if err := wsjson.Write(ctx, conn, h.Status.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wsjson.Write(ctx, conn, h.Status.Snapshot()); err != nil {
				return
			}
		}
	}
}
