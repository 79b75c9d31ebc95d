package services

import (
	"errors"

	"funplay-claim-service/chain"
)

var (
	// ErrInvalidAddress - wallet address is not 0x followed by 40 hex characters
	ErrInvalidAddress = errors.New("invalid wallet address")
	// ErrNothingToClaim - the user has no unclaimed successful rewards
	ErrNothingToClaim = errors.New("nothing to claim")
	// ErrClaimInProgress - the user already has a pending claim
	ErrClaimInProgress = errors.New("claim already in progress")
	// ErrPersistence - the claim store could not be read or written
	ErrPersistence = errors.New("claim store error")
	// ErrClaimNotFound - no claim with that id
	ErrClaimNotFound = errors.New("claim not found")
	// ErrClaimNotPending - the claim already reached a terminal status
	ErrClaimNotPending = errors.New("claim is no longer pending")

	ErrInsufficientPoolBalance = chain.ErrInsufficientPoolBalance
	ErrTransferFailed          = chain.ErrTransferFailed
	ErrTransferPending         = chain.ErrTransferPending
	ErrConfiguration           = chain.ErrConfiguration
)
