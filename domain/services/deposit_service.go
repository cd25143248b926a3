package services

import (
	"context"
	"fmt"
	"time"

	"wingo/domain/entities"
	"wingo/domain/events"
	"wingo/domain/interfaces"
	"wingo/domain/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type depositService struct {
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	orderRepo       interfaces.DepositOrderRepository
	paymentProvider interfaces.PaymentProvider
	eventPublisher  interfaces.EventPublisher
	limits          AmountRange
}

// NewDepositService creates a new deposit service
func NewDepositService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	orderRepo interfaces.DepositOrderRepository,
	paymentProvider interfaces.PaymentProvider,
	eventPublisher interfaces.EventPublisher,
	limits AmountRange,
) interfaces.DepositService {
	return &depositService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		orderRepo:       orderRepo,
		paymentProvider: paymentProvider,
		eventPublisher:  eventPublisher,
		limits:          limits,
	}
}

func (s *depositService) ValidateAmount(amount decimal.Decimal) error {
	return s.limits.Check(amount)
}

// CreateOrder stores a pending order for an intent already registered with the payment provider
func (s *depositService) CreateOrder(ctx context.Context, accountID int64, amount decimal.Decimal, intentID string) (*entities.DepositOrder, error) {
	if err := s.ValidateAmount(amount); err != nil {
		return nil, err
	}

	order := &entities.DepositOrder{
		ID:        intentID,
		AccountID: accountID,
		Amount:    amount,
		Status:    entities.DepositOrderStatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create deposit order: %w", err)
	}

	log.WithFields(log.Fields{
		"orderID":   order.ID,
		"accountID": accountID,
		"amount":    amount.String(),
	}).Info("Deposit order created")
	return order, nil
}

// Confirm credits a paid order exactly once. Confirming a completed order returns the current account.
func (s *depositService) Confirm(ctx context.Context, accountID int64, orderID, paymentID, signature string) (*entities.Account, error) {
	if !s.paymentProvider.VerifyDepositSignature(orderID, paymentID, signature) {
		return nil, entities.ErrInvalidSignature
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit order: %w", err)
	}
	if order == nil || order.AccountID != accountID {
		return nil, fmt.Errorf("%w: %s", entities.ErrOrderNotFound, orderID)
	}

	if order.Status == entities.DepositOrderStatusCompleted {
		return s.currentAccount(ctx, accountID)
	}

	completed, err := s.orderRepo.Complete(ctx, orderID, paymentID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to complete deposit order: %w", err)
	}
	if !completed {
		return s.currentAccount(ctx, accountID)
	}

	account, _, err := utils.ApplyLedgerChange(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, utils.LedgerChange{
		AccountID: accountID,
		Delta: entities.BalanceDelta{
			Amount:        order.Amount,
			TotalDeposits: order.Amount,
		},
		Type:        entities.TransactionTypeDeposit,
		Status:      entities.TransactionStatusCompleted,
		Description: "Deposit",
		Reference:   orderID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}

	if err := s.eventPublisher.Publish(events.DepositCompletedEvent{
		OrderID:   orderID,
		AccountID: accountID,
		Amount:    order.Amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish deposit completed event")
	}

	log.WithFields(log.Fields{
		"orderID":    orderID,
		"paymentID":  paymentID,
		"accountID":  accountID,
		"amount":     order.Amount.String(),
		"newBalance": account.Balance.String(),
	}).Info("Deposit confirmed")

	return account, nil
}

func (s *depositService) currentAccount(ctx context.Context, accountID int64) (*entities.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}
	return account, nil
}
