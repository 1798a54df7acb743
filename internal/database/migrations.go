package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/lovewall/internal/valentines"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillWallDisplayNames = "2026-02-10_backfill_wall_display_names"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillWallDisplayNames, apply: backfillWallDisplayNames},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillWallDisplayNames repairs rows written before the wall display name
// defaulted to the sender name at submission time.
func backfillWallDisplayNames(db *gorm.DB) error {
	return db.Model(&valentines.Valentine{}).
		Where("wall_display_name = '' OR wall_display_name IS NULL").
		Update("wall_display_name", gorm.Expr("name")).Error
}
