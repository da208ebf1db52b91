package models

import (
	"time"

	"gorm.io/datatypes"
)

const SyncStatusID = "current"

// SyncStatus is the single durable snapshot of the in-flight sync. The live
// state lives in service.StatusHolder; this row exists for crash recovery and
// the admin UI, and is overwritten on every publish.
type SyncStatus struct {
	ID               string         `gorm:"primaryKey;type:text"`
	IsRunning        bool           `gorm:"not null;default:false"`
	IsPaused         bool           `gorm:"not null;default:false"`
	Progress         int            `gorm:"not null;default:0"`
	CurrentOperation string         `gorm:"type:text"`
	LastSyncTime     *time.Time     `gorm:"type:timestamptz"`
	LastSyncType     *string        `gorm:"type:text"`
	LastError        *string        `gorm:"type:text"`
	Checkpoint       datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt        time.Time      `gorm:"type:timestamptz"`
}

func (SyncStatus) TableName() string {
	return "sync_status"
}

// SyncCheckpoint is stored in SyncStatus.Checkpoint when a run pauses, and
// re-read on resume to re-enter the orchestrator at the saved offset.
// BatchSize is recorded alongside the offset: a resumed run must batch the
// same way as the paused one or BatchIndex points at the wrong records.
type SyncCheckpoint struct {
	Phase      string `json:"phase"`
	BatchIndex int    `json:"batch_index"`
	BatchSize  int    `json:"batch_size"`
	Progress   int    `json:"progress"`
}
