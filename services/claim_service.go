package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"funplay-claim-service/chain"
	"funplay-claim-service/logger"
	"funplay-claim-service/metrics"
	"funplay-claim-service/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var walletAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// TransferExecutor is the chain side of a claim. *chain.Executor implements it.
type TransferExecutor interface {
	Transfer(ctx context.Context, req chain.TransferRequest) (string, error)
	TransferStatus(ctx context.Context, txHash string) (chain.TxStatus, error)
	PoolBalance(ctx context.Context) (decimal.Decimal, error)
}

// ReceiptArchiver stores a copy of every paid claim.
type ReceiptArchiver interface {
	Archive(ctx context.Context, receipt models.ClaimReceipt) error
}

type ClaimResult struct {
	ClaimID         string          `json:"claim_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionHash string          `json:"tx_hash"`
}

// ReconcilePolicy decides when a pending claim is old enough to be checked
// against the chain, and when a transaction the node never saw is given up on.
type ReconcilePolicy struct {
	StaleAfter   time.Duration
	AbandonAfter time.Duration
}

type ClaimService struct {
	Tracker     *ClaimTracker
	Executor    TransferExecutor
	Receipts    ReceiptArchiver
	TokenSymbol string
}

func NewClaimService(tracker *ClaimTracker, executor TransferExecutor, receipts ReceiptArchiver, tokenSymbol string) *ClaimService {
	return &ClaimService{
		Tracker:     tracker,
		Executor:    executor,
		Receipts:    receipts,
		TokenSymbol: tokenSymbol,
	}
}

func ValidWalletAddress(address string) bool {
	return walletAddressPattern.MatchString(address)
}

// RequestClaim pays out every unclaimed reward of userID to walletAddress.
//
// The pending claim row is written before the chain is touched. A transfer that
// was broadcast but not confirmed in time returns the result together with
// ErrTransferPending; the claim then stays pending until reconciliation.
func (s *ClaimService) RequestClaim(ctx context.Context, userID, walletAddress string) (*ClaimResult, error) {
	if !ValidWalletAddress(walletAddress) {
		metrics.ClaimRequestsCounter.WithLabelValues("invalid_address").Inc()
		return nil, ErrInvalidAddress
	}

	rewards, err := s.Tracker.UnclaimedRewards(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range rewards {
		total = total.Add(r.Amount)
	}
	if !total.IsPositive() {
		metrics.ClaimRequestsCounter.WithLabelValues("nothing_to_claim").Inc()
		return nil, ErrNothingToClaim
	}

	pending, err := s.Tracker.HasPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending {
		metrics.ClaimRequestsCounter.WithLabelValues("in_progress").Inc()
		return nil, ErrClaimInProgress
	}

	if s.Executor == nil {
		metrics.ClaimRequestsCounter.WithLabelValues("misconfigured").Inc()
		return nil, fmt.Errorf("%w: admin wallet is not available", ErrConfiguration)
	}

	claim, err := s.Tracker.OpenClaim(ctx, userID, walletAddress, rewards)
	if err != nil {
		if errors.Is(err, ErrClaimInProgress) {
			metrics.ClaimRequestsCounter.WithLabelValues("in_progress").Inc()
		}
		return nil, err
	}

	fields := []zap.Field{
		zap.String("claim_id", claim.ID),
		zap.String("user_id", userID),
		zap.String("amount", claim.Amount.String()),
	}
	logger.Info("claim opened", fields...)

	txHash, err := s.Executor.Transfer(ctx, chain.TransferRequest{
		To:     walletAddress,
		Amount: claim.Amount,
		OnSigned: func(hash string) error {
			return s.Tracker.RecordTxHash(ctx, claim.ID, hash)
		},
	})

	result := &ClaimResult{ClaimID: claim.ID, Amount: claim.Amount, TransactionHash: txHash}

	if errors.Is(err, ErrTransferPending) {
		metrics.ClaimRequestsCounter.WithLabelValues("pending_confirmation").Inc()
		logger.Warn("claim transfer not confirmed in time, leaving it for reconciliation",
			append(fields, zap.String("tx_hash", txHash), zap.Error(err))...)
		return result, err
	}
	if err != nil {
		s.fail(ctx, claim.ID, err)
		metrics.ClaimRequestsCounter.WithLabelValues(outcomeFor(err)).Inc()
		logger.Error("claim transfer failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	if err := s.complete(ctx, claim.ID, txHash); err != nil {
		logger.Error("claim transfer confirmed but reconciliation failed",
			append(fields, zap.String("tx_hash", txHash), zap.Error(err))...)
		return result, err
	}

	metrics.ClaimRequestsCounter.WithLabelValues("success").Inc()
	metrics.ClaimedAmountCounter.Add(claim.Amount.InexactFloat64())
	logger.Info("claim paid", append(fields, zap.String("tx_hash", txHash))...)
	return result, nil
}

// ResolvePending settles a stale pending claim from what the chain says about its
// transaction. It returns the claim's status afterwards.
func (s *ClaimService) ResolvePending(ctx context.Context, claim *models.ClaimRequest, policy ReconcilePolicy) (models.ClaimStatus, error) {
	if claim.Status != models.ClaimStatusPending {
		return claim.Status, nil
	}
	age := time.Since(claim.UpdatedAt)
	if age < policy.StaleAfter {
		return claim.Status, nil
	}

	if claim.TxHash == nil || *claim.TxHash == "" {
		// Nothing was signed, so nothing can have been broadcast.
		return s.resolveFailed(ctx, claim.ID, "claim interrupted before the transfer was submitted")
	}
	if s.Executor == nil {
		return claim.Status, fmt.Errorf("%w: admin wallet is not available", ErrConfiguration)
	}

	status, err := s.Executor.TransferStatus(ctx, *claim.TxHash)
	if err != nil {
		return claim.Status, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	switch status {
	case chain.TxSucceeded:
		if err := s.complete(ctx, claim.ID, *claim.TxHash); err != nil {
			return claim.Status, err
		}
		metrics.ReconciledClaimsCounter.WithLabelValues("success").Inc()
		return models.ClaimStatusSuccess, nil
	case chain.TxReverted:
		return s.resolveFailed(ctx, claim.ID, "token transfer reverted on-chain")
	case chain.TxNotFound:
		if age >= policy.AbandonAfter {
			return s.resolveFailed(ctx, claim.ID, "token transfer was dropped by the network")
		}
	}
	return claim.Status, nil
}

func (s *ClaimService) resolveFailed(ctx context.Context, claimID, message string) (models.ClaimStatus, error) {
	if err := s.Tracker.Fail(ctx, claimID, message); err != nil {
		if errors.Is(err, ErrClaimNotPending) {
			return s.currentStatus(ctx, claimID)
		}
		return models.ClaimStatusPending, err
	}
	metrics.ReconciledClaimsCounter.WithLabelValues("failed").Inc()
	logger.Warn("pending claim resolved as failed", zap.String("claim_id", claimID), zap.String("reason", message))
	return models.ClaimStatusFailed, nil
}

func (s *ClaimService) currentStatus(ctx context.Context, claimID string) (models.ClaimStatus, error) {
	claim, err := s.Tracker.Get(ctx, claimID)
	if err != nil {
		return models.ClaimStatusPending, err
	}
	return claim.Status, nil
}

// complete reconciles a confirmed transfer. A claim another path already settled
// as successful is not an error.
func (s *ClaimService) complete(ctx context.Context, claimID, txHash string) error {
	claim, rewardIDs, err := s.Tracker.Complete(ctx, claimID, txHash)
	if errors.Is(err, ErrClaimNotPending) {
		status, getErr := s.currentStatus(ctx, claimID)
		if getErr == nil && status == models.ClaimStatusSuccess {
			return nil
		}
		return err
	}
	if err != nil {
		return err
	}
	s.archive(ctx, claim, rewardIDs)
	return nil
}

func (s *ClaimService) fail(ctx context.Context, claimID string, cause error) {
	if err := s.Tracker.Fail(ctx, claimID, failureMessage(cause)); err != nil {
		logger.Error("could not mark claim failed", zap.String("claim_id", claimID), zap.Error(err))
	}
}

func (s *ClaimService) archive(ctx context.Context, claim *models.ClaimRequest, rewardIDs []string) {
	if s.Receipts == nil {
		return
	}
	receipt := models.ClaimReceipt{
		ClaimID:       claim.ID,
		UserID:        claim.UserID,
		WalletAddress: claim.WalletAddress,
		Amount:        claim.Amount,
		TokenSymbol:   s.TokenSymbol,
		RewardIDs:     rewardIDs,
	}
	if claim.TxHash != nil {
		receipt.TxHash = *claim.TxHash
	}
	if claim.ProcessedAt != nil {
		receipt.ProcessedAt = *claim.ProcessedAt
	}
	if err := s.Receipts.Archive(ctx, receipt); err != nil {
		logger.Warn("claim receipt not archived", zap.String("claim_id", claim.ID), zap.Error(err))
	}
}

// failureMessage is what gets stored on the claim row; it names the failure class
// first so operators can filter on it.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientPoolBalance):
		return "insufficient pool balance: " + err.Error()
	case errors.Is(err, chain.ErrTransferReverted):
		return "transfer reverted: " + err.Error()
	case errors.Is(err, ErrConfiguration):
		return "configuration error: " + err.Error()
	case errors.Is(err, ErrPersistence):
		return "store error: " + err.Error()
	default:
		return "transfer failed: " + err.Error()
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientPoolBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrConfiguration):
		return "misconfigured"
	case errors.Is(err, ErrPersistence):
		return "store_error"
	default:
		return "transfer_failed"
	}
}
