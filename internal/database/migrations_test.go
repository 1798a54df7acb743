package database

import (
	"path/filepath"
	"testing"

	"github.com/MarcoPoloResearchLab/lovewall/internal/valentines"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsBackfillsWallDisplayNames(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&valentines.Valentine{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	legacy := valentines.Valentine{
		ID:         "valentine-1",
		ProfileID:  "profile-1",
		Name:       "Sam",
		Date:       "2026-02-14",
		ShowOnWall: true,
	}
	if err := database.Create(&legacy).Error; err != nil {
		testContext.Fatalf("failed to insert valentine: %v", err)
	}
	named := valentines.Valentine{
		ID:              "valentine-2",
		ProfileID:       "profile-1",
		Name:            "Alex",
		Date:            "2026-02-14",
		WallDisplayName: "A secret admirer",
	}
	if err := database.Create(&named).Error; err != nil {
		testContext.Fatalf("failed to insert valentine: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored valentines.Valentine
	if err := database.Where("id = ?", legacy.ID).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload valentine: %v", err)
	}
	if stored.WallDisplayName != legacy.Name {
		testContext.Fatalf("expected wall display name %q, got %q", legacy.Name, stored.WallDisplayName)
	}

	var storedNamed valentines.Valentine
	if err := database.Where("id = ?", named.ID).Take(&storedNamed).Error; err != nil {
		testContext.Fatalf("failed to reload valentine: %v", err)
	}
	if storedNamed.WallDisplayName != named.WallDisplayName {
		testContext.Fatalf("expected existing wall display name to survive, got %q", storedNamed.WallDisplayName)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationBackfillWallDisplayNames).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestApplyMigrationsIsIdempotent(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&valentines.Valentine{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("expected second run to succeed: %v", err)
	}

	var count int64
	if err := database.Model(&migrationRecord{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count migration records: %v", err)
	}
	if count != 1 {
		testContext.Fatalf("expected a single migration record, got %d", count)
	}
}
