package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardType is the user action a reward was credited for
type RewardType string

const (
	RewardTypeView    RewardType = "VIEW"
	RewardTypeLike    RewardType = "LIKE"
	RewardTypeComment RewardType = "COMMENT"
	RewardTypeShare   RewardType = "SHARE"
	RewardTypeUpload  RewardType = "UPLOAD"
)

// RewardStatus is the outcome of the awarding step; only successful rows are claimable
type RewardStatus string

const (
	RewardStatusSuccess RewardStatus = "success"
	RewardStatusFailed  RewardStatus = "failed"
)

// RewardTransaction is one credited reward event. Rows are written by the awarding
// pipeline and only ever mutated here to flip Claimed.
type RewardTransaction struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string          `gorm:"type:uuid;not null;index:idx_reward_transactions_user_claimed,priority:1" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(30,6);not null" json:"amount"`
	RewardType  RewardType      `gorm:"type:varchar(16);not null" json:"reward_type"`
	Status      RewardStatus    `gorm:"type:varchar(16);not null;default:'success'" json:"status"`
	Claimed     bool            `gorm:"not null;default:false;index:idx_reward_transactions_user_claimed,priority:2" json:"claimed"`
	ClaimedAt   *time.Time      `json:"claimed_at,omitempty"`
	ClaimTxHash *string         `gorm:"type:varchar(66)" json:"claim_tx_hash,omitempty"`

	// ClaimRequestID is the claim that aggregated this row; it is cleared again if that claim fails.
	ClaimRequestID *string `gorm:"type:uuid;index" json:"claim_request_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
