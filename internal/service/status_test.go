package service

import (
	"context"
	"errors"
	"testing"

	"mafiainsight/internal/models"
)

func TestStatusHolderSingleFlight(t *testing.T) {
	h := NewStatusHolder(newStubRepo(), nil)
	ctx := context.Background()

	if err := h.Begin(ctx, models.SyncTypeFull); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if err := h.Begin(ctx, models.SyncTypeFull); !errors.Is(err, ErrSyncAlreadyRunning) {
		t.Fatalf("expected ErrSyncAlreadyRunning, got %v", err)
	}
	h.Finish(ctx, models.SyncTypeFull, nil)
	if err := h.Begin(ctx, models.SyncTypeIncremental); err != nil {
		t.Fatalf("begin after finish: %v", err)
	}
}

func TestStatusHolderProgressMonotonic(t *testing.T) {
	h := NewStatusHolder(newStubRepo(), nil)
	ctx := context.Background()
	if err := h.Begin(ctx, models.SyncTypeFull); err != nil {
		t.Fatalf("begin: %v", err)
	}
	h.Publish(ctx, 40, "players")
	h.Publish(ctx, 25, "players again")
	if got := h.Snapshot().Progress; got != 40 {
		t.Fatalf("progress regressed to %d", got)
	}
	h.Publish(ctx, 70, "tournaments")
	if got := h.Snapshot().Progress; got != 70 {
		t.Fatalf("progress = %d, want 70", got)
	}
	h.Finish(ctx, models.SyncTypeFull, nil)
	if got := h.Snapshot().Progress; got != 100 {
		t.Fatalf("completed run must report 100, got %d", got)
	}
}

func TestStatusHolderPauseLifecycle(t *testing.T) {
	h := NewStatusHolder(newStubRepo(), nil)
	ctx := context.Background()

	if h.RequestPause() {
		t.Fatalf("pause with no running sync must fail")
	}
	if err := h.Begin(ctx, models.SyncTypeFull); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !h.RequestPause() {
		t.Fatalf("pause of a running sync must succeed")
	}
	if h.RequestPause() {
		t.Fatalf("double pause must fail")
	}
	if !h.PauseRequested() {
		t.Fatalf("pause token not visible")
	}

	cp := models.SyncCheckpoint{Phase: models.PhasePlayers, BatchIndex: 3, Progress: 35}
	h.FinishPaused(ctx, models.SyncTypeFull, cp)

	got := h.Checkpoint()
	if got == nil || got.Phase != models.PhasePlayers || got.BatchIndex != 3 {
		t.Fatalf("checkpoint not kept: %+v", got)
	}
	snap := h.Snapshot()
	if snap.IsRunning {
		t.Fatalf("paused run must not report running")
	}
	if !snap.IsPaused {
		t.Fatalf("paused run must report paused")
	}
}

func TestStatusHolderRestore(t *testing.T) {
	repo := newStubRepo()
	ctx := context.Background()

	first := NewStatusHolder(repo, nil)
	if err := first.Begin(ctx, models.SyncTypeFull); err != nil {
		t.Fatalf("begin: %v", err)
	}
	first.RequestPause()
	first.FinishPaused(ctx, models.SyncTypeFull, models.SyncCheckpoint{
		Phase: models.PhaseTournaments, BatchIndex: 7, Progress: 60,
	})

	second := NewStatusHolder(repo, nil)
	second.Restore(ctx)
	cp := second.Checkpoint()
	if cp == nil {
		t.Fatalf("checkpoint lost across restart")
	}
	if cp.Phase != models.PhaseTournaments || cp.BatchIndex != 7 {
		t.Fatalf("restored checkpoint wrong: %+v", cp)
	}
}

func TestStatusHolderFinishWithError(t *testing.T) {
	h := NewStatusHolder(newStubRepo(), nil)
	ctx := context.Background()
	if err := h.Begin(ctx, models.SyncTypeFull); err != nil {
		t.Fatalf("begin: %v", err)
	}
	h.Publish(ctx, 30, "players")
	msg := "listing fetch failed"
	h.Finish(ctx, models.SyncTypeFull, &msg)

	snap := h.Snapshot()
	if snap.IsRunning {
		t.Fatalf("failed run must release the slot")
	}
	if snap.LastError == nil || *snap.LastError != msg {
		t.Fatalf("last error not kept: %+v", snap.LastError)
	}
	if snap.Progress == 100 {
		t.Fatalf("failed run must not report 100")
	}
}
