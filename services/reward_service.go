// services/reward_service.go
package services

import (
	"context"
	"fmt"

	"funplay-claim-service/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type RewardService struct {
	DB *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db}
}

// RewardSummary is what the wallet screen shows before a claim.
type RewardSummary struct {
	UnclaimedAmount decimal.Decimal                       `json:"unclaimed_amount"`
	UnclaimedCount  int                                   `json:"unclaimed_count"`
	ClaimedAmount   decimal.Decimal                       `json:"claimed_amount"`
	UnclaimedByType map[models.RewardType]decimal.Decimal `json:"unclaimed_by_type"`
	HasPendingClaim bool                                  `json:"has_pending_claim"`
}

// Summary totals the user's successful rewards, split into claimed and unclaimed.
func (s *RewardService) Summary(ctx context.Context, userID string) (*RewardSummary, error) {
	var rows []models.RewardTransaction
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.RewardStatusSuccess).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load rewards: %w", ErrPersistence, err)
	}

	summary := &RewardSummary{
		UnclaimedAmount: decimal.Zero,
		ClaimedAmount:   decimal.Zero,
		UnclaimedByType: map[models.RewardType]decimal.Decimal{},
	}
	for _, r := range rows {
		if r.Claimed {
			summary.ClaimedAmount = summary.ClaimedAmount.Add(r.Amount)
			continue
		}
		summary.UnclaimedAmount = summary.UnclaimedAmount.Add(r.Amount)
		summary.UnclaimedCount++
		summary.UnclaimedByType[r.RewardType] = summary.UnclaimedByType[r.RewardType].Add(r.Amount)
	}

	var pending int64
	if err := s.DB.WithContext(ctx).
		Model(&models.ClaimRequest{}).
		Where("user_id = ? AND status = ?", userID, models.ClaimStatusPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("%w: count pending claims: %w", ErrPersistence, err)
	}
	summary.HasPendingClaim = pending > 0

	return summary, nil
}

// ListRewards returns the user's reward rows, newest first. A nil claimed filter returns both.
func (s *RewardService) ListRewards(ctx context.Context, userID string, claimed *bool, limit int) ([]models.RewardTransaction, error) {
	query := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if claimed != nil {
		query = query.Where("claimed = ?", *claimed)
	}

	var rewards []models.RewardTransaction
	if err := query.Order("created_at DESC").Limit(clampLimit(limit)).Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("%w: list rewards: %w", ErrPersistence, err)
	}
	return rewards, nil
}

// ListClaims returns claim requests newest first. An empty userID lists every user's claims.
func (s *RewardService) ListClaims(ctx context.Context, userID string, status *models.ClaimStatus, limit int) ([]models.ClaimRequest, error) {
	query := s.DB.WithContext(ctx).Model(&models.ClaimRequest{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var claims []models.ClaimRequest
	if err := query.Order("created_at DESC").Limit(clampLimit(limit)).Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("%w: list claims: %w", ErrPersistence, err)
	}
	return claims, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
