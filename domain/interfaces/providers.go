package interfaces

import (
	"context"

	"wingo/domain/entities"

	"github.com/shopspring/decimal"
)

// PaymentProvider is the external gateway that collects deposits
type PaymentProvider interface {
	// CreateDepositIntent registers a payment intent and returns its ID
	CreateDepositIntent(ctx context.Context, amount decimal.Decimal, receipt string) (string, error)

	// VerifyDepositSignature checks the gateway signature over a completed payment
	VerifyDepositSignature(orderID, paymentID, signature string) bool
}

// PayoutStatus is a provider-reported payout state
type PayoutStatus string

const (
	PayoutStatusQueued      PayoutStatus = "queued"
	PayoutStatusPending     PayoutStatus = "pending"
	PayoutStatusProcessing  PayoutStatus = "processing"
	PayoutStatusProcessed   PayoutStatus = "processed"
	PayoutStatusCompleted   PayoutStatus = "completed"
	PayoutStatusTransferred PayoutStatus = "transferred"
	PayoutStatusFailed      PayoutStatus = "failed"
	PayoutStatusRejected    PayoutStatus = "rejected"
	PayoutStatusReversed    PayoutStatus = "reversed"
	PayoutStatusCancelled   PayoutStatus = "cancelled"
)

// IsSuccess returns true if the payout reached the destination
func (s PayoutStatus) IsSuccess() bool {
	return s == PayoutStatusProcessed || s == PayoutStatusCompleted || s == PayoutStatusTransferred
}

// IsFailure returns true if the payout will not reach the destination and must be refunded
func (s PayoutStatus) IsFailure() bool {
	return s == PayoutStatusFailed || s == PayoutStatusRejected || s == PayoutStatusReversed || s == PayoutStatusCancelled
}

// PayoutRequest describes a transfer to a withdrawal destination
type PayoutRequest struct {
	ReferenceID string
	Amount      decimal.Decimal
	Destination entities.WithdrawalDestination
	Description string
}

// PayoutResult is the provider's acknowledgement of a payout
type PayoutResult struct {
	PayoutID string
	Status   PayoutStatus
}

// PayoutProvider is the external service that executes withdrawals
type PayoutProvider interface {
	InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
	GetPayoutStatus(ctx context.Context, payoutID string) (PayoutStatus, error)
}
