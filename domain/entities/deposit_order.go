package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositOrderStatus represents the state of a deposit intent
type DepositOrderStatus string

const (
	DepositOrderStatusPending   DepositOrderStatus = "pending"
	DepositOrderStatusCompleted DepositOrderStatus = "completed"
	DepositOrderStatusFailed    DepositOrderStatus = "failed"
)

// DepositOrder tracks a payment intent until it is confirmed. It is not a ledger entry.
type DepositOrder struct {
	ID          string             `json:"orderId"`
	AccountID   int64              `json:"accountId"`
	Amount      decimal.Decimal    `json:"amount"`
	Status      DepositOrderStatus `json:"status"`
	PaymentID   *string            `json:"paymentId,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}
