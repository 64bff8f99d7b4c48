package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"hbnb/internal/config"
	"hbnb/internal/models"
	"hbnb/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	require.NoError(t, configurePool(db, &config.Config{}))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openMemory(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, Ping(context.Background(), db))
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBSSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestMigrations_Embedded(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "000001_init", all[0].String())
	assert.Contains(t, all[0].UpScript, "place_amenities")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS reviews")
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestRunMigrations_UpStatusDown(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	cfg := &config.Config{Env: "test", DBSchemaMode: SchemaModeSQL}

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Empty(t, status.AppliedVersions)
	assert.Len(t, status.PendingMigrations, len(GetMigrations()))
	assert.Equal(t, recordTables, status.MissingTables)

	require.NoError(t, ApplySchema(ctx, db, cfg))
	require.NoError(t, RunMigrations(ctx, db), "re-running is a no-op")
	for _, table := range []string{"users", "places", "reviews", "amenities", "place_amenities", "migration_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	status, err = GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, status.AppliedVersions)
	assert.Empty(t, status.PendingMigrations)
	assert.Empty(t, status.MissingTables)
	assert.True(t, status.WillRunSQL)
	assert.False(t, status.WillRunAutoMigrate)

	version, ok, err := RollbackLatest(ctx, db)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, version)
	assert.False(t, db.Migrator().HasTable("users"))

	_, ok, err = RollbackLatest(ctx, db)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, RollbackMigration(ctx, db, 1))
	assert.Error(t, RollbackMigration(ctx, db, 42))
}

func TestRunMigrations_UnknownAppliedVersion(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, db.Create(&MigrationLog{Version: 99, Name: "from_the_future"}).Error)

	err := RunMigrations(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000099")
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		mode     string
		env      string
		wantMode string
		runSQL   bool
		runAuto  bool
		wantErr  bool
	}{
		{mode: "", env: "development", wantMode: SchemaModeHybrid, runSQL: true, runAuto: true},
		{mode: "", env: "production", wantMode: SchemaModeSQL, runSQL: true},
		{mode: SchemaModeHybrid, env: "production", wantMode: SchemaModeHybrid, runSQL: true},
		{mode: SchemaModeSQL, env: "development", wantMode: SchemaModeSQL, runSQL: true},
		{mode: SchemaModeAuto, env: "test", wantMode: SchemaModeAuto, runAuto: true},
		{mode: SchemaModeAuto, env: "production", wantErr: true},
		{mode: "bogus", env: "test", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.env, func(t *testing.T) {
			plan, err := planSchema(&config.Config{DBSchemaMode: tt.mode, Env: tt.env})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, plan.mode)
			assert.Equal(t, tt.runSQL, plan.sql)
			assert.Equal(t, tt.runAuto, plan.auto)
		})
	}
}

func TestApplySchema_AutoMigrate(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, ApplySchema(context.Background(), db, &config.Config{Env: "test", DBSchemaMode: SchemaModeAuto}))
	assert.True(t, db.Migrator().HasTable(&models.Place{}))
	assert.True(t, db.Migrator().HasTable("place_amenities"))
	assert.False(t, db.Migrator().HasTable("migration_logs"))
}

// The SQL schema must serve the GORM store exactly like AutoMigrate does.
func TestMigratedSchemaServesGormStore(t *testing.T) {
	prev := models.PasswordCost
	models.PasswordCost = bcrypt.MinCost
	defer func() { models.PasswordCost = prev }()

	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, RunMigrations(ctx, db))
	store := repository.NewGormStore(db)

	owner, err := models.NewUser(models.UserInput{Email: "owner@example.com", Password: "pw"})
	require.NoError(t, err)
	guest, err := models.NewUser(models.UserInput{Email: "guest@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = store.Users().Add(ctx, owner)
	require.NoError(t, err)
	_, err = store.Users().Add(ctx, guest)
	require.NoError(t, err)

	wifi, err := models.NewAmenity(models.AmenityInput{Name: "WiFi"})
	require.NoError(t, err)
	_, err = store.Amenities().Add(ctx, wifi)
	require.NoError(t, err)

	price, lat, lon := 90.0, 48.85, 2.35
	place, err := models.NewPlace(models.PlaceInput{
		Name: "Flat", City: "Paris", PricePerNight: &price, Latitude: &lat, Longitude: &lon, OwnerID: owner.ID,
	})
	require.NoError(t, err)
	place.Amenities = []models.Amenity{*wifi}
	_, err = store.Places().Add(ctx, place)
	require.NoError(t, err)

	got, ok, err := store.Places().Get(ctx, place.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{wifi.ID}, got.AmenityIDs())
	assert.True(t, place.CreatedAt.Equal(got.CreatedAt), "timestamps round-trip")

	rating := 5
	review, err := models.NewReview(models.ReviewInput{Text: "Great", Rating: &rating, UserID: guest.ID, PlaceID: place.ID})
	require.NoError(t, err)
	_, err = store.Reviews().Add(ctx, review)
	require.NoError(t, err)

	again, err := models.NewReview(models.ReviewInput{Text: "Again", Rating: &rating, UserID: guest.ID, PlaceID: place.ID})
	require.NoError(t, err)
	_, err = store.Reviews().Add(ctx, again)
	assert.True(t, models.IsCode(err, models.CodeConflict), "composite unique index: %v", err)

	dup, err := models.NewUser(models.UserInput{Email: "owner@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = store.Users().Add(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeConflict), "email unique index: %v", err)
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, nil)
	assert.Empty(t, buf.String(), "fast successful queries are not logged at warn level")

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	l.Trace(ctx, time.Now(), sql, gorm.ErrDuplicatedKey)
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), sql, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestPersistentModels(t *testing.T) {
	var kinds []models.Kind
	for _, m := range PersistentModels() {
		rec, ok := m.(models.Record)
		require.True(t, ok)
		kinds = append(kinds, rec.Kind())
	}
	assert.ElementsMatch(t, models.Kinds, kinds)
}
