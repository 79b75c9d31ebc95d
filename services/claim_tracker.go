package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funplay-claim-service/logger"
	"funplay-claim-service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClaimTracker owns every write to claim_requests and the claimed flag on
// reward_transactions.
type ClaimTracker struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewClaimTracker(db *gorm.DB) *ClaimTracker {
	return &ClaimTracker{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// UnclaimedRewards returns the user's successful rewards that have not been paid out yet.
func (t *ClaimTracker) UnclaimedRewards(ctx context.Context, userID string) ([]models.RewardTransaction, error) {
	var rows []models.RewardTransaction
	err := t.DB.WithContext(ctx).
		Where("user_id = ? AND status = ? AND claimed = ?", userID, models.RewardStatusSuccess, false).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load unclaimed rewards: %w", ErrPersistence, err)
	}
	return rows, nil
}

func (t *ClaimTracker) HasPending(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := t.DB.WithContext(ctx).
		Model(&models.ClaimRequest{}).
		Where("user_id = ? AND status = ?", userID, models.ClaimStatusPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: check pending claims: %w", ErrPersistence, err)
	}
	return count > 0, nil
}

// OpenClaim inserts a pending claim and reserves the given reward rows for it in one
// transaction. The partial unique index on pending claims turns a concurrent second
// claim for the same user into ErrClaimInProgress.
func (t *ClaimTracker) OpenClaim(ctx context.Context, userID, wallet string, rewards []models.RewardTransaction) (*models.ClaimRequest, error) {
	ids := make([]string, 0, len(rewards))
	amount := decimal.Zero
	for _, r := range rewards {
		ids = append(ids, r.ID)
		amount = amount.Add(r.Amount)
	}

	claim := &models.ClaimRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        amount,
		WalletAddress: wallet,
		Status:        models.ClaimStatusPending,
	}

	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(claim).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrClaimInProgress
			}
			return fmt.Errorf("%w: insert claim: %w", ErrPersistence, err)
		}

		res := tx.Model(&models.RewardTransaction{}).
			Where("id IN ? AND claimed = ?", ids, false).
			Update("claim_request_id", claim.ID)
		if res.Error != nil {
			return fmt.Errorf("%w: reserve rewards: %w", ErrPersistence, res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return fmt.Errorf("%w: reward ledger changed while opening claim", ErrPersistence)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// RecordTxHash stores the signed transaction hash on a pending claim before it is broadcast.
func (t *ClaimTracker) RecordTxHash(ctx context.Context, claimID, txHash string) error {
	res := t.DB.WithContext(ctx).
		Model(&models.ClaimRequest{}).
		Where("id = ? AND status = ?", claimID, models.ClaimStatusPending).
		Update("tx_hash", txHash)
	if res.Error != nil {
		return fmt.Errorf("%w: record tx hash: %w", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrClaimNotPending
	}
	return nil
}

// Complete is the reconciliation step: the claim becomes successful and every reward
// row it reserved is flagged claimed with the same transaction hash, atomically.
func (t *ClaimTracker) Complete(ctx context.Context, claimID, txHash string) (*models.ClaimRequest, []string, error) {
	now := t.now()
	var claim models.ClaimRequest
	var rewardIDs []string

	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ClaimRequest{}).
			Where("id = ? AND status = ?", claimID, models.ClaimStatusPending).
			Updates(map[string]interface{}{
				"status":        models.ClaimStatusSuccess,
				"tx_hash":       txHash,
				"processed_at":  now,
				"error_message": nil,
			})
		if res.Error != nil {
			return fmt.Errorf("%w: complete claim: %w", ErrPersistence, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrClaimNotPending
		}
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			return fmt.Errorf("%w: reload claim: %w", ErrPersistence, err)
		}

		var reserved []models.RewardTransaction
		if err := tx.Where("claim_request_id = ? AND claimed = ?", claimID, false).Find(&reserved).Error; err != nil {
			return fmt.Errorf("%w: load reserved rewards: %w", ErrPersistence, err)
		}
		total := decimal.Zero
		for _, r := range reserved {
			total = total.Add(r.Amount)
			rewardIDs = append(rewardIDs, r.ID)
		}
		if !total.Equal(claim.Amount) {
			logger.Warn("reserved rewards do not add up to the claim amount",
				zap.String("claim_id", claimID),
				zap.String("claim_amount", claim.Amount.String()),
				zap.String("reserved_amount", total.String()))
		}

		if err := tx.Model(&models.RewardTransaction{}).
			Where("claim_request_id = ? AND claimed = ?", claimID, false).
			Updates(map[string]interface{}{
				"claimed":       true,
				"claimed_at":    now,
				"claim_tx_hash": txHash,
			}).Error; err != nil {
			return fmt.Errorf("%w: mark rewards claimed: %w", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &claim, rewardIDs, nil
}

// Fail closes a pending claim as failed and releases its reserved rewards so the
// user can claim them again.
func (t *ClaimTracker) Fail(ctx context.Context, claimID, message string) error {
	now := t.now()
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ClaimRequest{}).
			Where("id = ? AND status = ?", claimID, models.ClaimStatusPending).
			Updates(map[string]interface{}{
				"status":        models.ClaimStatusFailed,
				"error_message": message,
				"processed_at":  now,
			})
		if res.Error != nil {
			return fmt.Errorf("%w: fail claim: %w", ErrPersistence, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrClaimNotPending
		}

		if err := tx.Model(&models.RewardTransaction{}).
			Where("claim_request_id = ? AND claimed = ?", claimID, false).
			Update("claim_request_id", nil).Error; err != nil {
			return fmt.Errorf("%w: release rewards: %w", ErrPersistence, err)
		}
		return nil
	})
}

func (t *ClaimTracker) Get(ctx context.Context, claimID string) (*models.ClaimRequest, error) {
	var claim models.ClaimRequest
	if err := t.DB.WithContext(ctx).First(&claim, "id = ?", claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("%w: load claim: %w", ErrPersistence, err)
	}
	return &claim, nil
}

// StalePending lists pending claims untouched since before the cutoff, oldest first.
func (t *ClaimTracker) StalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.ClaimRequest, error) {
	var claims []models.ClaimRequest
	err := t.DB.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.ClaimStatusPending, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load stale claims: %w", ErrPersistence, err)
	}
	return claims, nil
}
