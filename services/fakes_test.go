package services

import (
	"context"
	"fmt"
	"sync"

	"funplay-claim-service/chain"
	"funplay-claim-service/models"

	"github.com/shopspring/decimal"
)

type fakeExecutor struct {
	mu sync.Mutex

	balance     decimal.Decimal
	transferErr error
	pending     bool

	status    chain.TxStatus
	statusErr error

	// started is closed once a transfer has been signed; the transfer then waits on release.
	started chan struct{}
	release chan struct{}

	signed    int
	broadcast int
}

func (f *fakeExecutor) Transfer(ctx context.Context, req chain.TransferRequest) (string, error) {
	if req.Amount.GreaterThan(f.balance) {
		return "", fmt.Errorf("%w: have %s, need %s", chain.ErrInsufficientPoolBalance, f.balance, req.Amount)
	}
	if f.transferErr != nil {
		return "", f.transferErr
	}

	f.mu.Lock()
	f.signed++
	hash := fmt.Sprintf("0x%064x", f.signed)
	f.mu.Unlock()

	if req.OnSigned != nil {
		if err := req.OnSigned(hash); err != nil {
			return "", err
		}
	}
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	f.broadcast++
	f.mu.Unlock()

	if f.pending {
		return hash, fmt.Errorf("%w: context deadline exceeded", chain.ErrTransferPending)
	}
	return hash, nil
}

func (f *fakeExecutor) TransferStatus(ctx context.Context, txHash string) (chain.TxStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeExecutor) PoolBalance(ctx context.Context) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakeExecutor) broadcasts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.broadcast
}

type fakeArchive struct {
	mu       sync.Mutex
	receipts []models.ClaimReceipt
}

func (a *fakeArchive) Archive(ctx context.Context, receipt models.ClaimReceipt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.receipts = append(a.receipts, receipt)
	return nil
}
