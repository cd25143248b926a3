package application

import (
	"context"
	"fmt"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
	"wingo/domain/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const transactionHistoryLimit = 50

// WalletService serves deposits, withdrawal requests and ledger reads for account holders
type WalletService struct {
	uowFactory       UnitOfWorkFactory
	payments         interfaces.PaymentProvider
	depositLimits    services.AmountRange
	withdrawalLimits services.AmountRange
	metrics          Metrics
}

// NewWalletService creates a new wallet service
func NewWalletService(
	uowFactory UnitOfWorkFactory,
	payments interfaces.PaymentProvider,
	depositLimits, withdrawalLimits services.AmountRange,
	metrics Metrics,
) *WalletService {
	return &WalletService{
		uowFactory:       uowFactory,
		payments:         payments,
		depositLimits:    depositLimits,
		withdrawalLimits: withdrawalLimits,
		metrics:          metricsOrNoop(metrics),
	}
}

func (w *WalletService) depositService(uow UnitOfWork, publisher interfaces.EventPublisher) interfaces.DepositService {
	return services.NewDepositService(
		uow.AccountRepository(),
		uow.TransactionRepository(),
		uow.DepositOrderRepository(),
		w.payments,
		publisher,
		w.depositLimits,
	)
}

// CreateDepositOrder registers a payment intent with the provider and stores the pending order
func (w *WalletService) CreateDepositOrder(ctx context.Context, accountID int64, amount decimal.Decimal) (*entities.DepositOrder, error) {
	if err := w.depositLimits.Check(amount); err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%d_%s", accountID, uuid.NewString())
	intentID, err := w.payments.CreateDepositIntent(ctx, amount, receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	order, err := w.depositService(uow, uow.EventBus()).CreateOrder(ctx, accountID, amount, intentID)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deposit order: %w", err)
	}
	return order, nil
}

// ConfirmDeposit verifies the payment signature and credits the order exactly once
func (w *WalletService) ConfirmDeposit(ctx context.Context, accountID int64, orderID, paymentID, signature string) (*entities.Account, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	recorder := newEventRecorder(uow.EventBus())
	account, err := w.depositService(uow, recorder).Confirm(ctx, accountID, orderID, paymentID, signature)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deposit: %w", err)
	}

	recorder.record(w.metrics)
	return account, nil
}

// RequestWithdrawal debits the amount and opens a pending withdrawal hold
func (w *WalletService) RequestWithdrawal(ctx context.Context, req interfaces.WithdrawalRequest) (*entities.Withdrawal, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	recorder := newEventRecorder(uow.EventBus())
	withdrawal, err := services.NewWithdrawalService(
		uow.AccountRepository(),
		uow.TransactionRepository(),
		uow.WithdrawalRepository(),
		recorder,
		w.withdrawalLimits,
	).Request(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal: %w", err)
	}

	recorder.record(w.metrics)
	return withdrawal, nil
}

// Withdrawals returns the account's withdrawals, newest first
func (w *WalletService) Withdrawals(ctx context.Context, accountID int64) ([]*entities.Withdrawal, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawals, err := uow.WithdrawalRepository().GetByAccount(ctx, accountID, transactionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}
	return withdrawals, nil
}

// Transactions returns the account's latest ledger entries
func (w *WalletService) Transactions(ctx context.Context, accountID int64) ([]*entities.Transaction, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	transactions, err := uow.TransactionRepository().GetByAccount(ctx, accountID, transactionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}
