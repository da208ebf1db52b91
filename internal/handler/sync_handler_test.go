package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	gormrepository "mafiainsight/internal/repository/gorm"
	"mafiainsight/internal/service"
)

func newSyncRouter(t *testing.T) (*gin.Engine, *service.StatusHolder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	status := service.NewStatusHolder(nil, nil)
	// Uninitialized store; every call on it errors out or comes back empty.
	var store *gormrepository.Store
	h := &SyncHandler{
		Sync: &service.SyncService{Status: status},
		Repo: store,
	}
	engine := gin.New()
	h.Register(engine.Group("/api/admin"))
	return engine, status
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestTriggerSyncRejectsUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := &SyncHandler{Scheduler: &service.SchedulerHandle{}}
	h.Register(engine.Group("/api/admin"))

	rec := doRequest(t, engine, http.MethodPost, "/api/admin/sync/trigger", `{"type":"WEEKLY"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "FULL or INCREMENTAL") {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestTriggerSyncRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := &SyncHandler{Scheduler: &service.SchedulerHandle{}}
	h.Register(engine.Group("/api/admin"))

	rec := doRequest(t, engine, http.MethodPost, "/api/admin/sync/trigger", `{"type":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPauseWithoutRunningSyncConflicts(t *testing.T) {
	engine, _ := newSyncRouter(t)

	rec := doRequest(t, engine, http.MethodPost, "/api/admin/sync/pause", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestResumeWithoutCheckpointConflicts(t *testing.T) {
	engine, _ := newSyncRouter(t)

	rec := doRequest(t, engine, http.MethodPost, "/api/admin/sync/resume", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "no paused sync") {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestGetSyncLogRejectsNonNumericID(t *testing.T) {
	engine, _ := newSyncRouter(t)

	rec := doRequest(t, engine, http.MethodGet, "/api/admin/sync/logs/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "invalid sync log id") {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestGetSyncLogNotFound(t *testing.T) {
	engine, _ := newSyncRouter(t)

	rec := doRequest(t, engine, http.MethodGet, "/api/admin/sync/logs/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "sync log not found") {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestSyncStatusReturnsSnapshot(t *testing.T) {
	engine, status := newSyncRouter(t)
	if err := status.Begin(context.Background(), "FULL"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	status.Publish(context.Background(), 42, "players: batch 3/10")

	rec := doRequest(t, engine, http.MethodGet, "/api/admin/sync/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data == nil {
		t.Fatalf("missing data in %s", rec.Body.String())
	}
	if running, _ := data["IsRunning"].(bool); !running {
		t.Fatalf("IsRunning = %v, want true", data["IsRunning"])
	}
	if progress, _ := data["Progress"].(float64); progress != 42 {
		t.Fatalf("Progress = %v, want 42", data["Progress"])
	}
}
