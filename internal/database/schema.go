package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"hbnb/internal/config"
	"hbnb/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected with DB_SCHEMA_MODE. Left empty, production gets sql
// and every other environment gets hybrid.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// recordTables are the tables the GORM store reads and writes.
var recordTables = []string{"users", "amenities", "places", "reviews", "place_amenities"}

// SchemaStatus reports what ApplySchema would do and what is pending.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	MissingTables      []string
}

// schemaPlan says which of the two schema tools ApplySchema runs.
type schemaPlan struct {
	mode string
	sql  bool
	auto bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	prod := cfg.IsProduction()
	plan := schemaPlan{mode: cfg.DBSchemaMode}
	if plan.mode == "" {
		plan.mode = SchemaModeHybrid
		if prod {
			plan.mode = SchemaModeSQL
		}
	}

	switch plan.mode {
	case SchemaModeSQL:
		plan.sql = true
	case SchemaModeHybrid:
		// AutoMigrate only tops up development databases.
		plan.sql, plan.auto = true, !prod
	case SchemaModeAuto:
		if prod {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		plan.auto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.mode)
	}
	return plan, nil
}

// ApplySchema brings the database up to date according to cfg and checks
// that every record table exists afterwards.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.auto {
		middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate",
			slog.String("mode", plan.mode), slog.String("driver", db.Dialector.Name()))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := missingTables(ctx, db); len(missing) > 0 {
		return fmt.Errorf("schema mode %s left tables missing: %s", plan.mode, strings.Join(missing, ", "))
	}
	return nil
}

// GetSchemaStatus reports applied and pending migrations and absent record
// tables without changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.auto,
		MissingTables:      missingTables(ctx, db),
	}
	if !plan.sql {
		return status, nil
	}

	if status.AppliedVersions, err = AppliedVersions(ctx, db); err != nil {
		return nil, err
	}
	for _, m := range migrations {
		if !slices.Contains(status.AppliedVersions, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}

func missingTables(ctx context.Context, db *gorm.DB) []string {
	m := db.WithContext(ctx).Migrator()
	var missing []string
	for _, table := range recordTables {
		if !m.HasTable(table) {
			missing = append(missing, table)
		}
	}
	return missing
}
