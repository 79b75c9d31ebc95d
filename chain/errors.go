package chain

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrConfiguration - the executor is missing its signing key or chain settings
	ErrConfiguration = errors.New("chain executor is not configured")
	// ErrInsufficientPoolBalance - the admin wallet holds fewer tokens than requested
	ErrInsufficientPoolBalance = errors.New("insufficient pool balance")
	// ErrTransferFailed - the transfer could not be signed, broadcast or mined successfully
	ErrTransferFailed = errors.New("token transfer failed")
	// ErrTransferReverted - the transfer was mined with a failed status
	ErrTransferReverted = errors.New("transaction reverted")
	// ErrInvalidRecipient - the recipient is not a 20 byte hex address
	ErrInvalidRecipient = errors.New("malformed recipient address")
	// ErrTransferPending - the transfer was broadcast but no receipt arrived in time
	ErrTransferPending = errors.New("transfer awaiting confirmation")
	// ErrInvalidAmount - the amount is not positive or is finer than the token precision
	ErrInvalidAmount = errors.New("invalid token amount")
)

var retryableMessages = []string{
	"nonce too low",
	"replacement transaction underpriced",
	"already known",
	"timeout",
	"connection refused",
	"connection reset",
	"eof",
	"too many requests",
	"service unavailable",
	"bad gateway",
	"header not found",
}

// rejectedMessages are node answers proving the transaction never entered the pool.
var rejectedMessages = []string{
	"nonce too low",
	"nonce too high",
	"insufficient funds",
	"underpriced",
	"intrinsic gas",
	"exceeds block gas limit",
	"gas limit reached",
	"invalid sender",
	"exceeds the configured cap",
	"less than block base fee",
	"oversized data",
	"only replay-protected",
}

// BroadcastRejected reports whether a SendTransaction error is a definite refusal.
// Anything else (dropped connections, proxy errors, "already known") leaves the
// transaction's fate unknown, so it has to be treated as possibly broadcast.
func BroadcastRejected(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rejectedMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Retryable reports whether a failed transfer attempt may succeed when the caller
// tries again. Balance shortfalls, reverts and bad recipients never do.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrInsufficientPoolBalance),
		errors.Is(err, ErrTransferReverted),
		errors.Is(err, ErrInvalidRecipient),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrConfiguration):
		return false
	case errors.Is(err, ErrTransferPending),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range retryableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
