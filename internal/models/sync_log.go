package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SyncTypeFull        = "FULL"
	SyncTypeIncremental = "INCREMENTAL"

	SyncLogStatusRunning   = "RUNNING"
	SyncLogStatusCompleted = "COMPLETED"
	SyncLogStatusFailed    = "FAILED"
	SyncLogStatusPaused    = "PAUSED"

	EntitySyncStatusSynced  = "SYNCED"
	EntitySyncStatusPending = "PENDING"
	EntitySyncStatusError   = "ERROR"
)

// SyncLog records one orchestrator run (or one run of the outer retry
// wrapper, which consolidates its attempts into a single row). A row is
// written at run start and updated once at the terminal state, never after.
type SyncLog struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement"`
	Type             string         `gorm:"type:text;not null;index"`
	Status           string         `gorm:"type:text;not null;index"`
	StartTime        time.Time      `gorm:"type:timestamptz;not null"`
	EndTime          *time.Time     `gorm:"type:timestamptz"`
	RecordsProcessed int            `gorm:"not null;default:0"`
	Errors           datatypes.JSON `gorm:"type:jsonb"`
	SkippedPages     datatypes.JSON `gorm:"type:jsonb"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}

// SyncAttemptError is the element shape stored in SyncLog.Errors by the
// retry wrapper.
type SyncAttemptError struct {
	Attempt int    `json:"attempt"`
	Error   string `json:"error"`
}

// SkippedPageGroup is the element shape stored in SyncLog.SkippedPages,
// consumed by the admin skipped-pages viewer.
type SkippedPageGroup struct {
	EntityType string    `json:"entity_type"`
	Pages      []int     `json:"pages"`
	Timestamp  time.Time `json:"timestamp"`
}
