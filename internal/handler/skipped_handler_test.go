package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"mafiainsight/internal/client/gomafia"
	gormrepository "mafiainsight/internal/repository/gorm"
	"mafiainsight/internal/service"
)

// retrySource stubs the single DataSource method the retry endpoint uses.
type retrySource struct {
	retryPages func(ctx context.Context, entityType string, pages []int, opts gomafia.RetryOptions) ([]gomafia.RetriedRecord, error)
}

func (s *retrySource) ListPlayers(ctx context.Context, page, limit int) ([]gomafia.PlayerSummary, error) {
	return nil, nil
}

func (s *retrySource) GetPlayer(ctx context.Context, id string) (*gomafia.PlayerData, error) {
	return nil, nil
}

func (s *retrySource) ListClubs(ctx context.Context, page, limit int) ([]gomafia.ClubSummary, error) {
	return nil, nil
}

func (s *retrySource) GetClub(ctx context.Context, id string) (*gomafia.ClubData, error) {
	return nil, nil
}

func (s *retrySource) ListTournaments(ctx context.Context, page, limit int) ([]gomafia.TournamentSummary, error) {
	return nil, nil
}

func (s *retrySource) GetTournament(ctx context.Context, id string) (*gomafia.TournamentData, error) {
	return nil, nil
}

func (s *retrySource) ListGames(ctx context.Context, tournamentID string) ([]gomafia.GameData, error) {
	return nil, nil
}

func (s *retrySource) RetrySkippedPages(ctx context.Context, entityType string, pages []int, opts gomafia.RetryOptions) ([]gomafia.RetriedRecord, error) {
	if s.retryPages == nil {
		return nil, nil
	}
	return s.retryPages(ctx, entityType, pages, opts)
}

func newSkippedRouter(t *testing.T, source service.DataSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// Uninitialized store; every call on it errors out.
	var store *gormrepository.Store
	h := &SkippedHandler{
		Repo:    store,
		Skipped: service.NewSkippedEntityManager(store, nil),
		Source:  source,
	}
	engine := gin.New()
	h.Register(engine.Group("/api/admin"))
	return engine
}

func TestListSkippedRejectsInvalidPhase(t *testing.T) {
	engine := newSkippedRouter(t, &retrySource{})

	rec := doRequest(t, engine, http.MethodGet, "/api/admin/skipped?phase=WARMUP", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "invalid sync phase") {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestRetrySkippedRejectsUnknownEntityType(t *testing.T) {
	engine := newSkippedRouter(t, &retrySource{})

	rec := doRequest(t, engine, http.MethodPost, "/api/admin/skipped/retry",
		`{"entity_type":"game","page_numbers":[1]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRetrySkippedRequiresPageNumbers(t *testing.T) {
	engine := newSkippedRouter(t, &retrySource{})

	rec := doRequest(t, engine, http.MethodPost, "/api/admin/skipped/retry",
		`{"entity_type":"player","page_numbers":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "page_numbers") {
		t.Fatalf("unexpected message %q", body["message"])
	}
}

func TestRetrySkippedReportsRecoveredCounts(t *testing.T) {
	var gotPages []int
	source := &retrySource{
		retryPages: func(ctx context.Context, entityType string, pages []int, opts gomafia.RetryOptions) ([]gomafia.RetriedRecord, error) {
			gotPages = pages
			return nil, nil
		},
	}
	engine := newSkippedRouter(t, source)

	rec := doRequest(t, engine, http.MethodPost, "/api/admin/skipped/retry",
		`{"entity_type":"club","page_numbers":[3,7],"year":2025}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if len(gotPages) != 2 || gotPages[0] != 3 || gotPages[1] != 7 {
		t.Fatalf("source saw pages %v, want [3 7]", gotPages)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data == nil {
		t.Fatalf("missing data in %s", rec.Body.String())
	}
	if requested, _ := data["requested"].(float64); requested != 2 {
		t.Fatalf("requested = %v, want 2", data["requested"])
	}
	if recovered, _ := data["recovered"].(float64); recovered != 0 {
		t.Fatalf("recovered = %v, want 0", data["recovered"])
	}
}
