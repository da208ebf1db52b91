package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mafiainsight/internal/models"
	"mafiainsight/internal/syncerr"
)

func TestSkippedRecordValidation(t *testing.T) {
	m := NewSkippedEntityManager(newStubRepo(), nil)
	ctx := context.Background()

	if _, err := m.Record(ctx, RecordSkippedParams{Phase: "NOT_A_PHASE", EntityType: "player"}); err == nil {
		t.Fatalf("invalid phase must be rejected")
	}
	if _, err := m.Record(ctx, RecordSkippedParams{Phase: models.PhasePlayers, EntityType: "player"}); err == nil {
		t.Fatalf("record without entity id or page must be rejected")
	}

	id := "p9"
	row, err := m.Record(ctx, RecordSkippedParams{
		Phase:        models.PhasePlayers,
		EntityType:   "player",
		EntityID:     &id,
		ErrorMessage: "fetch failed",
		Cause:        syncerr.Transient(errors.New("fetch failed")),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if row.Status != models.SkippedStatusPending {
		t.Fatalf("new row status = %s, want PENDING", row.Status)
	}
	if row.ErrorCode != "TRANSIENT" {
		t.Fatalf("error code = %s, want TRANSIENT", row.ErrorCode)
	}
}

func TestSkippedRetryCountAlwaysIncrements(t *testing.T) {
	repo := newStubRepo()
	m := NewSkippedEntityManager(repo, nil)
	ctx := context.Background()

	page := 3
	row, err := m.Record(ctx, RecordSkippedParams{
		Phase:        models.PhaseClubs,
		EntityType:   "club",
		PageNumber:   &page,
		ErrorMessage: "listing failed",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	for want := 1; want <= 3; want++ {
		updated, err := m.MarkRetrying(ctx, row.ID)
		if err != nil {
			t.Fatalf("mark retrying: %v", err)
		}
		if updated.RetryCount != want {
			t.Fatalf("retry count = %d, want %d", updated.RetryCount, want)
		}
		if updated.Status != models.SkippedStatusRetrying {
			t.Fatalf("status = %s, want RETRYING", updated.Status)
		}
		if updated.LastRetryAt == nil {
			t.Fatalf("lastRetryAt not stamped")
		}
	}

	done, err := m.MarkCompleted(ctx, row.ID)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if done.Status != models.SkippedStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", done.Status)
	}
	// A later retry still bumps the count.
	again, err := m.MarkRetrying(ctx, row.ID)
	if err != nil {
		t.Fatalf("mark retrying after completion: %v", err)
	}
	if again.RetryCount != 4 {
		t.Fatalf("retry count = %d, want 4", again.RetryCount)
	}
}

func TestResolvePagesCompletesOnlyPersistedPages(t *testing.T) {
	repo := newStubRepo()
	m := NewSkippedEntityManager(repo, nil)
	ctx := context.Background()

	record := func(page int) *models.SkippedEntity {
		p := page
		row, err := m.Record(ctx, RecordSkippedParams{
			Phase: models.PhasePlayers, EntityType: "player", PageNumber: &p, ErrorMessage: "listing failed",
		})
		if err != nil {
			t.Fatalf("record page %d: %v", page, err)
		}
		return row
	}
	recovered := record(3)
	stillBroken := record(7)

	// Page 3 produced records on the retry, page 7 came back empty.
	m.ResolvePages(ctx, "player", []int{3, 7}, map[int]int{3: 2})

	if got := repo.skipped[recovered.ID]; got.Status != models.SkippedStatusCompleted {
		t.Fatalf("recovered page status = %s, want COMPLETED", got.Status)
	}
	got := repo.skipped[stillBroken.ID]
	if got.Status != models.SkippedStatusRetrying {
		t.Fatalf("empty page status = %s, want RETRYING", got.Status)
	}
	if got.RetryCount != 1 {
		t.Fatalf("empty page retry count = %d, want 1", got.RetryCount)
	}
}

func TestSkippedSummaryBuckets(t *testing.T) {
	repo := newStubRepo()
	m := NewSkippedEntityManager(repo, nil)
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		entity := id
		if _, err := m.Record(ctx, RecordSkippedParams{
			Phase: models.PhasePlayers, EntityType: "player", EntityID: &entity, ErrorMessage: "x",
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	page := 1
	row, err := m.Record(ctx, RecordSkippedParams{
		Phase: models.PhaseGames, EntityType: "game", PageNumber: &page, ErrorMessage: "x",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := m.MarkFailed(ctx, row.ID, errors.New("still broken")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	summary, err := m.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	players := summary[models.PhasePlayers]
	if players.Total != 3 || players.Pending != 3 {
		t.Fatalf("players bucket = %+v", players)
	}
	games := summary[models.PhaseGames]
	if games.Total != 1 || games.Failed != 1 {
		t.Fatalf("games bucket = %+v", games)
	}
	if _, ok := summary[models.PhaseClubs]; ok {
		t.Fatalf("empty phase must not appear in summary")
	}
}

func TestSkippedCleanupDeletesOldCompleted(t *testing.T) {
	repo := newStubRepo()
	m := NewSkippedEntityManager(repo, nil)
	ctx := context.Background()

	oldID := "old"
	oldRow, err := m.Record(ctx, RecordSkippedParams{
		Phase: models.PhasePlayers, EntityType: "player", EntityID: &oldID, ErrorMessage: "x",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := m.MarkCompleted(ctx, oldRow.ID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	repo.skipped[oldRow.ID].CreatedAt = time.Now().UTC().AddDate(0, 0, -60)

	freshID := "fresh"
	if _, err := m.Record(ctx, RecordSkippedParams{
		Phase: models.PhasePlayers, EntityType: "player", EntityID: &freshID, ErrorMessage: "x",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	deleted, err := m.Cleanup(ctx, 0) // default window
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if len(repo.skipped) != 1 {
		t.Fatalf("remaining rows = %d, want 1", len(repo.skipped))
	}
}
