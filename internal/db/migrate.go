package db

import (
	"mafiainsight/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Club{},
		&models.ClubMember{},
		&models.Player{},
		&models.PlayerYearStat{},
		&models.Tournament{},
		&models.Game{},
		&models.SyncLog{},
		&models.SyncStatus{},
		&models.SkippedEntity{},
	)
}
