package utils

import (
	"context"
	"fmt"

	"wingo/domain/entities"
	"wingo/domain/events"
	"wingo/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LedgerChange is one balance-affecting event: the delta applied to the account and the entry that records it
type LedgerChange struct {
	AccountID   int64
	Delta       entities.BalanceDelta
	Type        entities.TransactionType
	Status      entities.TransactionStatus
	Description string
	Reference   string
}

// ApplyLedgerChange applies the balance delta atomically and appends the matching ledger entry.
// This is the single entry point for all balance changes in the system, which keeps
// SUM(transactions.amount) equal to the account balance.
func ApplyLedgerChange(
	ctx context.Context,
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	change LedgerChange,
) (*entities.Account, *entities.Transaction, error) {
	account, err := accountRepo.ApplyDelta(ctx, change.AccountID, change.Delta)
	if err != nil {
		return nil, nil, err
	}

	entry := &entities.Transaction{
		AccountID:   change.AccountID,
		Type:        change.Type,
		Amount:      change.Delta.Amount,
		Status:      change.Status,
		Description: change.Description,
		Reference:   change.Reference,
	}
	if err := RecordTransaction(ctx, transactionRepo, eventPublisher, entry, account.Balance); err != nil {
		return nil, nil, err
	}

	return account, entry, nil
}

// RecordTransaction appends a ledger entry and emits the balance change event
func RecordTransaction(
	ctx context.Context,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	entry *entities.Transaction,
	newBalance decimal.Decimal,
) error {
	if err := transactionRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	event := events.BalanceChangeEvent{
		AccountID:       entry.AccountID,
		NewBalance:      newBalance,
		ChangeAmount:    entry.Amount,
		TransactionType: entry.Type,
		TransactionID:   entry.ID,
	}
	log.WithFields(log.Fields{
		"accountID":       event.AccountID,
		"newBalance":      event.NewBalance.String(),
		"changeAmount":    event.ChangeAmount.String(),
		"transactionType": event.TransactionType,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
