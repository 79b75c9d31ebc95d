package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"funplay-claim-service/logger"
	"funplay-claim-service/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Backend is the JSON-RPC surface used to broadcast and track transfers.
// *ethclient.Client satisfies it.
type Backend interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

type Config struct {
	ChainID         *big.Int
	PrivateKey      string
	DefaultDecimals uint8
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
}

// TransferRequest describes one payout. OnSigned runs after the transaction is
// signed and before it is broadcast; an error from it aborts the transfer.
type TransferRequest struct {
	To       string
	Amount   decimal.Decimal
	OnSigned func(txHash string) error
}

type TxStatus int

const (
	TxNotFound TxStatus = iota
	TxPending
	TxSucceeded
	TxReverted
)

func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxSucceeded:
		return "succeeded"
	case TxReverted:
		return "reverted"
	default:
		return "not_found"
	}
}

// Executor sends ERC-20 transfers from the custodial admin wallet. Transfers are
// serialized: one balance check, nonce and confirmation wait at a time.
type Executor struct {
	mu sync.Mutex

	token   TokenContract
	backend Backend

	key     *ecdsa.PrivateKey
	admin   common.Address
	chainID *big.Int

	defaultDecimals uint8
	confirmTimeout  time.Duration
	pollInterval    time.Duration
}

func NewExecutor(token TokenContract, backend Backend, cfg Config) (*Executor, error) {
	if token == nil || backend == nil {
		return nil, fmt.Errorf("%w: token contract and rpc backend are required", ErrConfiguration)
	}
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: chain id is required", ErrConfiguration)
	}
	rawKey := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")
	if rawKey == "" {
		return nil, fmt.Errorf("%w: admin wallet private key is not set", ErrConfiguration)
	}
	key, err := crypto.HexToECDSA(rawKey)
	if err != nil {
		return nil, fmt.Errorf("%w: admin wallet private key is malformed", ErrConfiguration)
	}

	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 90 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	return &Executor{
		token:           token,
		backend:         backend,
		key:             key,
		admin:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:         cfg.ChainID,
		defaultDecimals: cfg.DefaultDecimals,
		confirmTimeout:  cfg.ConfirmTimeout,
		pollInterval:    cfg.PollInterval,
	}, nil
}

// AdminAddress is the wallet every payout originates from.
func (e *Executor) AdminAddress() string {
	return e.admin.Hex()
}

// Transfer pays req.Amount tokens to req.To and waits for one confirmation.
// When the receipt does not arrive within the confirm timeout the signed hash is
// returned together with ErrTransferPending.
func (e *Executor) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if !common.IsHexAddress(req.To) {
		return "", fmt.Errorf("%w: %w %q", ErrTransferFailed, ErrInvalidRecipient, req.To)
	}
	to := common.HexToAddress(req.To)

	e.mu.Lock()
	defer e.mu.Unlock()

	decimals := e.decimals(ctx)
	units, err := ToBaseUnits(req.Amount, decimals)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	balance, err := e.token.BalanceOf(ctx, e.admin)
	if err != nil {
		return "", fmt.Errorf("%w: read admin balance: %w", ErrTransferFailed, err)
	}
	if balance.Cmp(units) < 0 {
		return "", fmt.Errorf("%w: have %s, need %s", ErrInsufficientPoolBalance,
			FromBaseUnits(balance, decimals), req.Amount)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(e.key, e.chainID)
	if err != nil {
		return "", fmt.Errorf("%w: build signer: %w", ErrConfiguration, err)
	}
	opts.Context = ctx
	opts.NoSend = true

	tx, err := e.token.Transfer(opts, to, units)
	if err != nil {
		return "", fmt.Errorf("%w: sign transfer: %w", ErrTransferFailed, err)
	}
	txHash := tx.Hash().Hex()

	if req.OnSigned != nil {
		if err := req.OnSigned(txHash); err != nil {
			return "", err
		}
	}

	started := time.Now()
	logger.Info("broadcasting reward transfer",
		zap.String("tx_hash", txHash),
		zap.String("to", to.Hex()),
		zap.String("amount", req.Amount.String()),
		zap.Uint64("nonce", tx.Nonce()))

	var sendErr error
	if err := e.backend.SendTransaction(ctx, tx); err != nil {
		if BroadcastRejected(err) {
			metrics.TransferDuration.WithLabelValues("failed").Observe(time.Since(started).Seconds())
			return "", fmt.Errorf("%w: broadcast rejected: %w", ErrTransferFailed, err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			metrics.TransferDuration.WithLabelValues("pending").Observe(time.Since(started).Seconds())
			return txHash, fmt.Errorf("%w: broadcast interrupted: %w", ErrTransferPending, err)
		}
		// The node may have taken it anyway; only the chain can tell.
		logger.Warn("broadcast outcome unknown, watching for the transaction",
			zap.String("tx_hash", txHash), zap.Error(err))
		sendErr = err
	}

	receipt, err := e.waitMined(ctx, tx.Hash())
	if err != nil {
		metrics.TransferDuration.WithLabelValues("pending").Observe(time.Since(started).Seconds())
		if sendErr != nil {
			return txHash, fmt.Errorf("%w: broadcast: %w: %w", ErrTransferPending, sendErr, err)
		}
		return txHash, fmt.Errorf("%w: %w", ErrTransferPending, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.TransferDuration.WithLabelValues("reverted").Observe(time.Since(started).Seconds())
		return txHash, fmt.Errorf("%w: %w in block %s", ErrTransferFailed, ErrTransferReverted, receipt.BlockNumber)
	}

	metrics.TransferDuration.WithLabelValues("succeeded").Observe(time.Since(started).Seconds())
	logger.Info("reward transfer confirmed",
		zap.String("tx_hash", txHash),
		zap.Stringer("block", receipt.BlockNumber))
	return txHash, nil
}

// TransferStatus looks up what happened to a previously signed transfer.
func (e *Executor) TransferStatus(ctx context.Context, txHash string) (TxStatus, error) {
	hash := common.HexToHash(txHash)

	receipt, err := e.backend.TransactionReceipt(ctx, hash)
	if err == nil {
		if receipt.Status == types.ReceiptStatusSuccessful {
			return TxSucceeded, nil
		}
		return TxReverted, nil
	}
	if !errors.Is(err, ethereum.NotFound) {
		return TxNotFound, err
	}

	_, _, err = e.backend.TransactionByHash(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return TxNotFound, nil
	}
	if err != nil {
		return TxNotFound, err
	}
	// Known to the node but no receipt yet.
	return TxPending, nil
}

// PoolBalance returns the admin wallet's token balance.
func (e *Executor) PoolBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := e.token.BalanceOf(ctx, e.admin)
	if err != nil {
		return decimal.Zero, err
	}
	return FromBaseUnits(balance, e.decimals(ctx)), nil
}

func (e *Executor) decimals(ctx context.Context) uint8 {
	d, err := e.token.Decimals(ctx)
	if err != nil {
		logger.Warn("token decimals lookup failed, using default",
			zap.Error(err), zap.Uint8("default", e.defaultDecimals))
		return e.defaultDecimals
	}
	return d
}

func (e *Executor) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			logger.Debug("receipt lookup failed", zap.String("tx_hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
