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

var (
	adminActionable = []entities.WithdrawalStatus{
		entities.WithdrawalStatusPending,
		entities.WithdrawalStatusProcessing,
	}
	payoutSettleable = []entities.WithdrawalStatus{
		entities.WithdrawalStatusPending,
		entities.WithdrawalStatusProcessing,
		entities.WithdrawalStatusApproved,
	}
)

// withdrawalService implements the withdrawal hold lifecycle
type withdrawalService struct {
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	withdrawalRepo  interfaces.WithdrawalRepository
	eventPublisher  interfaces.EventPublisher
	limits          AmountRange
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	withdrawalRepo interfaces.WithdrawalRepository,
	eventPublisher interfaces.EventPublisher,
	limits AmountRange,
) interfaces.WithdrawalService {
	return &withdrawalService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		withdrawalRepo:  withdrawalRepo,
		eventPublisher:  eventPublisher,
		limits:          limits,
	}
}

// Request debits the amount and creates a pending hold with its wagering requirement
func (s *withdrawalService) Request(ctx context.Context, req interfaces.WithdrawalRequest) (*entities.Withdrawal, error) {
	if err := s.limits.Check(req.Amount); err != nil {
		return nil, err
	}
	if req.Destination == nil {
		return nil, fmt.Errorf("%w: destination is required", entities.ErrInvalidDestination)
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.withdrawalRepo.GetByIdempotencyKey(ctx, req.AccountID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	_, entry, err := utils.ApplyLedgerChange(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, utils.LedgerChange{
		AccountID:   req.AccountID,
		Delta:       entities.BalanceDelta{Amount: req.Amount.Neg()},
		Type:        entities.TransactionTypeWithdrawal,
		Status:      entities.TransactionStatusPending,
		Description: fmt.Sprintf("Withdrawal via %s", req.Destination.Method()),
	})
	if err != nil {
		return nil, err
	}

	withdrawal := &entities.Withdrawal{
		AccountID:        req.AccountID,
		TransactionID:    entry.ID,
		Amount:           req.Amount,
		Destination:      req.Destination,
		Status:           entities.WithdrawalStatusPending,
		MinBetAmount:     entities.MinBetAmountFor(req.Amount),
		CommissionEarned: decimal.Zero,
		CommissionStatus: entities.CommissionStatusPending,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		withdrawal.IdempotencyKey = &key
	}
	if err := s.withdrawalRepo.Create(ctx, withdrawal); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	s.publishStatusChange(withdrawal, "", false, "")

	log.WithFields(log.Fields{
		"withdrawalID": withdrawal.ID,
		"accountID":    withdrawal.AccountID,
		"amount":       withdrawal.Amount.String(),
		"method":       withdrawal.Destination.Method(),
		"minBetAmount": withdrawal.MinBetAmount.String(),
	}).Info("Withdrawal requested")

	return withdrawal, nil
}

// MarkProcessing moves a pending withdrawal to processing before a payout is initiated
func (s *withdrawalService) MarkProcessing(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status == entities.WithdrawalStatusProcessing {
		return w, nil
	}

	ok, err := s.transition(ctx, w, []entities.WithdrawalStatus{entities.WithdrawalStatusPending}, entities.WithdrawalStatusProcessing, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %d is %s", entities.ErrWithdrawalFinalized, id, w.Status)
	}
	return w, nil
}

// AttachPayout records the provider payout ID on the withdrawal
func (s *withdrawalService) AttachPayout(ctx context.Context, id int64, payoutID string) error {
	if err := s.withdrawalRepo.SetPayoutID(ctx, id, payoutID); err != nil {
		return fmt.Errorf("failed to attach payout: %w", err)
	}
	return nil
}

// Approve completes a withdrawal that has been paid out manually
func (s *withdrawalService) Approve(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.complete(ctx, w, adminActionable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %d is %s", entities.ErrWithdrawalFinalized, id, w.Status)
	}
	return w, nil
}

// Reject rejects a withdrawal and returns the held funds. A second rejection fails without refunding again.
func (s *withdrawalService) Reject(ctx context.Context, id int64, reason string) (*entities.Withdrawal, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.reject(ctx, w, adminActionable, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %d is %s", entities.ErrWithdrawalFinalized, id, w.Status)
	}
	return w, nil
}

// ApplyPayoutStatus maps a provider payout status onto the withdrawal. Updates for final withdrawals are ignored.
func (s *withdrawalService) ApplyPayoutStatus(ctx context.Context, w *entities.Withdrawal, status interfaces.PayoutStatus, reason string) (*entities.Withdrawal, error) {
	logger := log.WithFields(log.Fields{
		"withdrawalID": w.ID,
		"status":       w.Status,
		"payoutStatus": status,
	})

	if w.Status.IsFinal() {
		logger.Debug("Ignoring payout update for final withdrawal")
		return w, nil
	}

	var err error
	switch {
	case status.IsSuccess():
		_, err = s.complete(ctx, w, payoutSettleable)
	case status.IsFailure():
		if reason == "" {
			reason = fmt.Sprintf("payout %s", status)
		}
		_, err = s.reject(ctx, w, payoutSettleable, reason)
	case status == interfaces.PayoutStatusQueued, status == interfaces.PayoutStatusPending, status == interfaces.PayoutStatusProcessing:
		if w.Status == entities.WithdrawalStatusPending {
			_, err = s.transition(ctx, w, []entities.WithdrawalStatus{entities.WithdrawalStatusPending}, entities.WithdrawalStatusProcessing, "")
		}
	default:
		logger.Warn("Unknown payout status, ignoring")
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *withdrawalService) get(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	w, err := s.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if w == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrWithdrawalNotFound, id)
	}
	return w, nil
}

// complete finalizes a paid-out withdrawal: the hold entry is labelled completed and the running total grows
func (s *withdrawalService) complete(ctx context.Context, w *entities.Withdrawal, from []entities.WithdrawalStatus) (bool, error) {
	ok, err := s.transition(ctx, w, from, entities.WithdrawalStatusCompleted, "")
	if err != nil || !ok {
		return ok, err
	}

	if err := s.transactionRepo.UpdateStatus(ctx, w.TransactionID, entities.TransactionStatusCompleted); err != nil {
		return false, fmt.Errorf("failed to complete withdrawal transaction: %w", err)
	}
	if _, err := s.accountRepo.ApplyDelta(ctx, w.AccountID, entities.BalanceDelta{TotalWithdrawals: w.Amount}); err != nil {
		return false, fmt.Errorf("failed to update withdrawal totals: %w", err)
	}
	return true, nil
}

// reject finalizes a failed withdrawal. The conditional transition guarantees the refund is applied once.
func (s *withdrawalService) reject(ctx context.Context, w *entities.Withdrawal, from []entities.WithdrawalStatus, reason string) (bool, error) {
	ok, err := s.transition(ctx, w, from, entities.WithdrawalStatusRejected, reason)
	if err != nil || !ok {
		return ok, err
	}

	if err := s.transactionRepo.UpdateStatus(ctx, w.TransactionID, entities.TransactionStatusCancelled); err != nil {
		return false, fmt.Errorf("failed to cancel withdrawal transaction: %w", err)
	}
	if _, _, err := utils.ApplyLedgerChange(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, utils.LedgerChange{
		AccountID:   w.AccountID,
		Delta:       entities.BalanceDelta{Amount: w.Amount},
		Type:        entities.TransactionTypeWithdrawal,
		Status:      entities.TransactionStatusCompleted,
		Description: "Withdrawal refund",
		Reference:   fmt.Sprintf("withdrawal:%d", w.ID),
	}); err != nil {
		return false, fmt.Errorf("failed to refund withdrawal: %w", err)
	}

	log.WithFields(log.Fields{
		"withdrawalID": w.ID,
		"accountID":    w.AccountID,
		"amount":       w.Amount.String(),
		"reason":       reason,
	}).Info("Withdrawal rejected and refunded")
	return true, nil
}

func (s *withdrawalService) transition(ctx context.Context, w *entities.Withdrawal, from []entities.WithdrawalStatus, to entities.WithdrawalStatus, reason string) (bool, error) {
	var failureReason *string
	if reason != "" {
		failureReason = &reason
	}

	now := time.Now().UTC()
	ok, err := s.withdrawalRepo.TransitionStatus(ctx, w.ID, from, to, failureReason, now)
	if err != nil {
		return false, fmt.Errorf("failed to update withdrawal status: %w", err)
	}
	if !ok {
		return false, nil
	}

	old := w.Status
	w.Status = to
	if failureReason != nil {
		w.FailureReason = failureReason
	}
	if to.IsFinal() {
		w.ProcessedAt = &now
	}

	s.publishStatusChange(w, old, to == entities.WithdrawalStatusRejected, reason)
	return true, nil
}

func (s *withdrawalService) publishStatusChange(w *entities.Withdrawal, old entities.WithdrawalStatus, refunded bool, reason string) {
	if err := s.eventPublisher.Publish(events.WithdrawalStatusChangedEvent{
		WithdrawalID: w.ID,
		AccountID:    w.AccountID,
		OldStatus:    old,
		NewStatus:    w.Status,
		Refunded:     refunded,
		Reason:       reason,
	}); err != nil {
		log.WithError(err).Error("Failed to publish withdrawal status event")
	}
}
