package services

import (
	"context"
	"testing"

	"funplay-claim-service/models"
	"funplay-claim-service/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardSummary(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRewardService(db)
	userID := uuid.NewString()

	testutil.SeedReward(t, db, userID, "100", models.RewardTypeView, models.RewardStatusSuccess)
	testutil.SeedReward(t, db, userID, "50", models.RewardTypeView, models.RewardStatusSuccess)
	testutil.SeedReward(t, db, userID, "25", models.RewardTypeLike, models.RewardStatusSuccess)
	testutil.SeedReward(t, db, userID, "999", models.RewardTypeLike, models.RewardStatusFailed)
	paid := testutil.SeedReward(t, db, userID, "70", models.RewardTypeUpload, models.RewardStatusSuccess)
	require.NoError(t, db.Model(&models.RewardTransaction{}).Where("id = ?", paid.ID).Update("claimed", true).Error)

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, summary.UnclaimedAmount.Equal(decimal.NewFromInt(175)))
	assert.Equal(t, 3, summary.UnclaimedCount)
	assert.True(t, summary.ClaimedAmount.Equal(decimal.NewFromInt(70)))
	assert.True(t, summary.UnclaimedByType[models.RewardTypeView].Equal(decimal.NewFromInt(150)))
	assert.True(t, summary.UnclaimedByType[models.RewardTypeLike].Equal(decimal.NewFromInt(25)))
	assert.False(t, summary.HasPendingClaim)

	_, err = NewClaimTracker(db).OpenClaim(context.Background(), userID, wallet, []models.RewardTransaction{paid})
	// paid is already claimed, so reservation fails and nothing is left pending
	assert.ErrorIs(t, err, ErrPersistence)

	rows, err := NewClaimTracker(db).UnclaimedRewards(context.Background(), userID)
	require.NoError(t, err)
	_, err = NewClaimTracker(db).OpenClaim(context.Background(), userID, wallet, rows)
	require.NoError(t, err)

	summary, err = svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, summary.HasPendingClaim)
}

func TestListRewardsAndClaims(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewRewardService(db)
	tracker := NewClaimTracker(db)
	userID := uuid.NewString()

	first := testutil.SeedReward(t, db, userID, "1", models.RewardTypeView, models.RewardStatusSuccess)
	testutil.SeedReward(t, db, userID, "2", models.RewardTypeView, models.RewardStatusSuccess)
	require.NoError(t, db.Model(&models.RewardTransaction{}).Where("id = ?", first.ID).Update("claimed", true).Error)

	all, err := svc.ListRewards(context.Background(), userID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unclaimed := false
	open, err := svc.ListRewards(context.Background(), userID, &unclaimed, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.NotEqual(t, first.ID, open[0].ID)

	claim, err := tracker.OpenClaim(context.Background(), userID, wallet, open)
	require.NoError(t, err)

	otherUser := uuid.NewString()
	other := testutil.SeedReward(t, db, otherUser, "3", models.RewardTypeShare, models.RewardStatusSuccess)
	otherClaim, err := tracker.OpenClaim(context.Background(), otherUser, wallet, []models.RewardTransaction{other})
	require.NoError(t, err)
	require.NoError(t, tracker.Fail(context.Background(), otherClaim.ID, "transfer failed: test"))

	mine, err := svc.ListClaims(context.Background(), userID, nil, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, claim.ID, mine[0].ID)

	everyone, err := svc.ListClaims(context.Background(), "", nil, 10)
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	failed := models.ClaimStatusFailed
	onlyFailed, err := svc.ListClaims(context.Background(), "", &failed, 10)
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, otherClaim.ID, onlyFailed[0].ID)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, DefaultListLimit, clampLimit(-3))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, MaxListLimit, clampLimit(MaxListLimit+1))
}
