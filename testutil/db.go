// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"funplay-claim-service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database in the test's temp dir.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "claims.db")), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

// SeedReward inserts one reward row for userID.
func SeedReward(t testing.TB, db *gorm.DB, userID string, amount string, rewardType models.RewardType, status models.RewardStatus) models.RewardTransaction {
	t.Helper()

	row := models.RewardTransaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		Amount:     decimal.RequireFromString(amount),
		RewardType: rewardType,
		Status:     status,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

// Backdate moves a claim's updated_at into the past without touching anything else.
func Backdate(t testing.TB, db *gorm.DB, claimID string, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Model(&models.ClaimRequest{}).
		Where("id = ?", claimID).
		UpdateColumn("updated_at", time.Now().UTC().Add(-age)).Error)
}
