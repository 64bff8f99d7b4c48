package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"hbnb/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog is one row of migration_logs: a version that has been applied.
type MigrationLog struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	AppliedAt int64  `gorm:"autoCreateTime"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

// AppliedVersions lists recorded versions in ascending order. A database
// that has never been migrated has none.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	db = db.WithContext(ctx)
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return []int{}, nil
	}
	versions := []int{}
	if err := db.Model(&MigrationLog{}).Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return versions, nil
}

// RunMigrations applies every embedded migration not yet recorded. Each
// migration and its log row commit together.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.Migrator().AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("create migration_logs: %w", err)
	}

	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if err := checkKnownVersions(applied); err != nil {
		return err
	}

	for _, m := range migrations {
		if slices.Contains(applied, m.Version) {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.String(), err)
		}
		middleware.Logger.InfoContext(ctx, "Migration applied", slog.String("migration", m.String()))
	}
	return nil
}

// checkKnownVersions refuses to run against a database migrated by a newer
// build: it holds versions this binary does not embed.
func checkKnownVersions(applied []int) error {
	var unknown []string
	for _, v := range applied {
		if GetMigrationByVersion(v) == nil {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("migration_logs contains versions unknown to this build: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// RollbackMigration runs the down script of an applied migration and
// forgets it.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s has not been applied", m.String())
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return err
		}
		return tx.Delete(&MigrationLog{}, "version = ?", version).Error
	})
	if err != nil {
		return fmt.Errorf("roll back migration %s: %w", m.String(), err)
	}
	middleware.Logger.InfoContext(ctx, "Migration rolled back", slog.String("migration", m.String()))
	return nil
}

// RollbackLatest reverts the most recently applied migration. It returns
// false when nothing is applied.
func RollbackLatest(ctx context.Context, db *gorm.DB) (int, bool, error) {
	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return 0, false, err
	}
	if len(applied) == 0 {
		return 0, false, nil
	}
	latest := applied[len(applied)-1]
	return latest, true, RollbackMigration(ctx, db, latest)
}
