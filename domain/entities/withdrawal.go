package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the payout lifecycle of a withdrawal
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusApproved   WithdrawalStatus = "approved"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
)

// IsFinal returns true for statuses that no admin action or payout update can leave
func (s WithdrawalStatus) IsFinal() bool {
	return s == WithdrawalStatusRejected || s == WithdrawalStatusCompleted
}

// CommissionStatus tracks whether the wagering requirement of a withdrawal has been met
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusCompleted CommissionStatus = "completed"
)

var (
	minBetFloor    = decimal.NewFromInt(100)
	minBetRatio    = decimal.NewFromFloat(0.10)
	commissionRate = decimal.NewFromFloat(0.05)
)

// CommissionEligibleStatuses are the withdrawal statuses whose commission can still unlock
var CommissionEligibleStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusProcessing,
	WithdrawalStatusApproved,
	WithdrawalStatusCompleted,
}

// Withdrawal is a withdrawal hold: the requested payout plus its commission bookkeeping
type Withdrawal struct {
	ID               int64                 `json:"id"`
	AccountID        int64                 `json:"accountId"`
	TransactionID    int64                 `json:"transactionId"`
	Amount           decimal.Decimal       `json:"amount"`
	Destination      WithdrawalDestination `json:"-"`
	Status           WithdrawalStatus      `json:"status"`
	MinBetAmount     decimal.Decimal       `json:"minBetAmount"`
	CommissionEarned decimal.Decimal       `json:"commissionEarned"`
	CommissionStatus CommissionStatus      `json:"commissionStatus"`
	PayoutID         *string               `json:"payoutId,omitempty"`
	FailureReason    *string               `json:"failureReason,omitempty"`
	IdempotencyKey   *string               `json:"-"`
	CreatedAt        time.Time             `json:"createdAt"`
	ProcessedAt      *time.Time            `json:"processedAt,omitempty"`
}

// MinBetAmountFor returns the wagering requirement for a withdrawal: max(100, ceil(10% of amount))
func MinBetAmountFor(amount decimal.Decimal) decimal.Decimal {
	required := amount.Mul(minBetRatio).Ceil()
	if required.LessThan(minBetFloor) {
		return minBetFloor
	}
	return required
}

// CommissionFor returns the commission unlocked by meeting a wagering requirement
func CommissionFor(minBetAmount decimal.Decimal) decimal.Decimal {
	return minBetAmount.Mul(commissionRate)
}

// CanBeProcessed returns true if admins may still act on the withdrawal
func (w *Withdrawal) CanBeProcessed() bool {
	return w.Status == WithdrawalStatusPending || w.Status == WithdrawalStatusProcessing
}

// IsCommissionPending returns true if the commission can still be unlocked
func (w *Withdrawal) IsCommissionPending() bool {
	if w.CommissionStatus != CommissionStatusPending {
		return false
	}
	for _, s := range CommissionEligibleStatuses {
		if w.Status == s {
			return true
		}
	}
	return false
}
