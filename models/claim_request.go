package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimStatusPending ClaimStatus = "pending"
	ClaimStatusSuccess ClaimStatus = "success"
	ClaimStatusFailed  ClaimStatus = "failed"
)

// ClaimRequest = one attempt to pay out a user's unclaimed rewards on-chain.
// It moves pending -> success|failed exactly once and is never edited afterwards.
type ClaimRequest struct {
	ID            string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(30,6);not null" json:"amount"`
	WalletAddress string          `gorm:"type:varchar(42);not null" json:"wallet_address"`
	Status        ClaimStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	TxHash        *string         `gorm:"type:varchar(66)" json:"tx_hash,omitempty"`
	ErrorMessage  *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

// ClaimReceipt is the archived record of a paid claim.
type ClaimReceipt struct {
	ClaimID       string          `json:"claim_id"`
	UserID        string          `json:"user_id"`
	WalletAddress string          `json:"wallet_address"`
	Amount        decimal.Decimal `json:"amount"`
	TokenSymbol   string          `json:"token_symbol"`
	TxHash        string          `json:"tx_hash"`
	ProcessedAt   time.Time       `json:"processed_at"`
	RewardIDs     []string        `json:"reward_ids"`
}
