package database

import (
	"errors"
	"time"

	"github.com/florahq/verdant/internal/garden"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillPlantSequence = "2026-07-02_backfill_plant_sequence"

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
		{name: migrationBackfillPlantSequence, apply: backfillPlantSequence},
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

// Rows imported before sequence numbering existed carry a zero sequence;
// repair them to the minimum valid value.
func backfillPlantSequence(db *gorm.DB) error {
	return db.Model(&garden.Plant{}).
		Where("sequence < 1").
		Update("sequence", 1).Error
}
