package application

import (
	"context"
	"fmt"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
	"wingo/domain/services"

	log "github.com/sirupsen/logrus"
)

const adminListLimit = 100

// DefaultWithdrawalQueue is what admins see when no status filter is given
var DefaultWithdrawalQueue = []entities.WithdrawalStatus{
	entities.WithdrawalStatusPending,
	entities.WithdrawalStatusProcessing,
}

// AdminService serves the withdrawal queue, payout lifecycle and dashboard statistics
type AdminService struct {
	uowFactory       UnitOfWorkFactory
	payouts          interfaces.PayoutProvider
	withdrawalLimits services.AmountRange
	metrics          Metrics
}

// NewAdminService creates a new admin service. A nil payout provider means withdrawals are paid out manually.
func NewAdminService(
	uowFactory UnitOfWorkFactory,
	payouts interfaces.PayoutProvider,
	withdrawalLimits services.AmountRange,
	metrics Metrics,
) *AdminService {
	return &AdminService{
		uowFactory:       uowFactory,
		payouts:          payouts,
		withdrawalLimits: withdrawalLimits,
		metrics:          metricsOrNoop(metrics),
	}
}

// withdrawalTx runs fn against a withdrawal service inside one unit of work and records metrics after commit
func (a *AdminService) withdrawalTx(ctx context.Context, fn func(uow UnitOfWork, svc interfaces.WithdrawalService) (*entities.Withdrawal, error)) (*entities.Withdrawal, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	recorder := newEventRecorder(uow.EventBus())
	svc := services.NewWithdrawalService(
		uow.AccountRepository(),
		uow.TransactionRepository(),
		uow.WithdrawalRepository(),
		recorder,
		a.withdrawalLimits,
	)

	withdrawal, err := fn(uow, svc)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	recorder.record(a.metrics)
	return withdrawal, nil
}

// ListWithdrawals returns withdrawals in the given statuses, or the pending queue when none are given
func (a *AdminService) ListWithdrawals(ctx context.Context, statuses []entities.WithdrawalStatus) ([]*entities.Withdrawal, error) {
	if len(statuses) == 0 {
		statuses = DefaultWithdrawalQueue
	}

	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawals, err := uow.WithdrawalRepository().List(ctx, statuses, adminListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// ProcessWithdrawal moves a withdrawal to processing and, when a payout provider is configured, initiates the payout.
// If initiation fails the hold is refunded and the withdrawal is rejected with the provider error as reason.
func (a *AdminService) ProcessWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	withdrawal, err := a.withdrawalTx(ctx, func(_ UnitOfWork, svc interfaces.WithdrawalService) (*entities.Withdrawal, error) {
		return svc.MarkProcessing(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if a.payouts == nil || withdrawal.PayoutID != nil {
		return withdrawal, nil
	}

	result, payoutErr := a.payouts.InitiatePayout(ctx, interfaces.PayoutRequest{
		ReferenceID: fmt.Sprintf("withdrawal_%d", withdrawal.ID),
		Amount:      withdrawal.Amount,
		Destination: withdrawal.Destination,
		Description: "Wingo withdrawal",
	})
	if payoutErr != nil {
		log.WithFields(log.Fields{
			"withdrawalID": id,
			"error":        payoutErr,
		}).Error("Payout initiation failed, refunding withdrawal")

		reason := fmt.Sprintf("payout failed: %v", payoutErr)
		return a.withdrawalTx(ctx, func(_ UnitOfWork, svc interfaces.WithdrawalService) (*entities.Withdrawal, error) {
			return svc.Reject(ctx, id, reason)
		})
	}

	updated, err := a.withdrawalTx(ctx, func(uow UnitOfWork, svc interfaces.WithdrawalService) (*entities.Withdrawal, error) {
		if err := svc.AttachPayout(ctx, id, result.PayoutID); err != nil {
			return nil, err
		}
		current, err := uow.WithdrawalRepository().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %d", entities.ErrWithdrawalNotFound, id)
		}
		if result.Status == "" {
			return current, nil
		}
		return svc.ApplyPayoutStatus(ctx, current, result.Status, "")
	})
	if err != nil {
		log.WithFields(log.Fields{
			"withdrawalID": id,
			"payoutID":     result.PayoutID,
			"error":        err,
		}).Error("Payout initiated but could not be recorded")
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawalID": id,
		"payoutID":     result.PayoutID,
		"payoutStatus": result.Status,
	}).Info("Payout initiated")
	return updated, nil
}

// ApproveWithdrawal marks a withdrawal paid out manually
func (a *AdminService) ApproveWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	return a.withdrawalTx(ctx, func(_ UnitOfWork, svc interfaces.WithdrawalService) (*entities.Withdrawal, error) {
		return svc.Approve(ctx, id)
	})
}

// RejectWithdrawal rejects a withdrawal and refunds its hold
func (a *AdminService) RejectWithdrawal(ctx context.Context, id int64, reason string) (*entities.Withdrawal, error) {
	return a.withdrawalTx(ctx, func(_ UnitOfWork, svc interfaces.WithdrawalService) (*entities.Withdrawal, error) {
		return svc.Reject(ctx, id, reason)
	})
}

// RefreshPayoutStatus polls the provider for the withdrawal's payout and applies the reported status
func (a *AdminService) RefreshPayoutStatus(ctx context.Context, id int64) (*entities.Withdrawal, error) {
	if a.payouts == nil {
		return nil, fmt.Errorf("%w: no payout provider configured", entities.ErrPayoutUnavailable)
	}

	withdrawal, err := a.withdrawalTx(ctx, func(uow UnitOfWork, _ interfaces.WithdrawalService) (*entities.Withdrawal, error) {
		w, err := uow.WithdrawalRepository().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if w == nil {
			return nil, fmt.Errorf("%w: %d", entities.ErrWithdrawalNotFound, id)
		}
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	if withdrawal.PayoutID == nil {
		return nil, fmt.Errorf("%w: withdrawal %d has no payout", entities.ErrPayoutUnavailable, id)
	}

	status, err := a.payouts.GetPayoutStatus(ctx, *withdrawal.PayoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout status: %w", err)
	}
	return a.applyPayoutStatus(ctx, func(uow UnitOfWork) (*entities.Withdrawal, error) {
		return uow.WithdrawalRepository().GetByID(ctx, id)
	}, status, "")
}

// HandlePayoutUpdate applies a provider status update for a payout. Unknown payouts are ignored and return nil.
func (a *AdminService) HandlePayoutUpdate(ctx context.Context, payoutID string, status interfaces.PayoutStatus, reason string) (*entities.Withdrawal, error) {
	return a.applyPayoutStatus(ctx, func(uow UnitOfWork) (*entities.Withdrawal, error) {
		return uow.WithdrawalRepository().GetByPayoutID(ctx, payoutID)
	}, status, reason)
}

func (a *AdminService) applyPayoutStatus(
	ctx context.Context,
	load func(uow UnitOfWork) (*entities.Withdrawal, error),
	status interfaces.PayoutStatus,
	reason string,
) (*entities.Withdrawal, error) {
	var unknown bool
	withdrawal, err := a.withdrawalTx(ctx, func(uow UnitOfWork, svc interfaces.WithdrawalService) (*entities.Withdrawal, error) {
		w, err := load(uow)
		if err != nil {
			return nil, fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if w == nil {
			unknown = true
			return nil, nil
		}
		return svc.ApplyPayoutStatus(ctx, w, status, reason)
	})
	if err != nil {
		return nil, err
	}
	if unknown {
		log.WithField("payoutStatus", status).Warn("Ignoring payout update for unknown withdrawal")
		return nil, nil
	}
	return withdrawal, nil
}

// Stats returns the admin dashboard aggregate
func (a *AdminService) Stats(ctx context.Context) (*interfaces.Stats, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return services.NewStatsService(
		uow.AccountRepository(),
		uow.TransactionRepository(),
		uow.WithdrawalRepository(),
		uow.RoundRepository(),
		uow.BetRepository(),
	).GetStats(ctx)
}
