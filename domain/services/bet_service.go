package services

import (
	"context"
	"fmt"

	"wingo/domain/entities"
	"wingo/domain/events"
	"wingo/domain/interfaces"
	"wingo/domain/utils"

	log "github.com/sirupsen/logrus"
)

// betService implements bet placement inside a single unit of work
type betService struct {
	accountRepo     interfaces.AccountRepository
	betRepo         interfaces.BetRepository
	roundRepo       interfaces.RoundRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
	window          *BettingWindow
}

// NewBetService creates a new bet service
func NewBetService(
	accountRepo interfaces.AccountRepository,
	betRepo interfaces.BetRepository,
	roundRepo interfaces.RoundRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	window *BettingWindow,
) interfaces.BetService {
	return &betService{
		accountRepo:     accountRepo,
		betRepo:         betRepo,
		roundRepo:       roundRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
		window:          window,
	}
}

// PlaceBet debits the stake, records the bet and increments the round exposure.
// The caller's unit of work must roll back on any error so nothing partially applies.
func (s *betService) PlaceBet(ctx context.Context, req interfaces.PlaceBetRequest) (*entities.Bet, error) {
	if req.IdempotencyKey != "" {
		existing, err := s.betRepo.GetByIdempotencyKey(ctx, req.AccountID, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existing != nil {
			log.WithFields(log.Fields{
				"accountID": req.AccountID,
				"betID":     existing.ID,
			}).Info("Replaying bet for repeated idempotency key")
			return existing, nil
		}
	}

	account, err := s.accountRepo.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	round, err := s.roundRepo.GetLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get live round: %w", err)
	}

	hasExisting := false
	if round != nil {
		existing, err := s.betRepo.GetByAccountAndRound(ctx, req.AccountID, round.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing bet: %w", err)
		}
		hasExisting = existing != nil
	}

	if err := s.window.Admit(BetAdmission{
		Round:          round,
		Account:        account,
		HasExistingBet: hasExisting,
		Color:          req.Color,
		Amount:         req.Amount,
		Now:            req.Now,
	}); err != nil {
		return nil, err
	}

	// The balance check above is advisory; the conditional debit is what guarantees no overdraft
	if _, _, err := utils.ApplyLedgerChange(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, utils.LedgerChange{
		AccountID:   req.AccountID,
		Delta:       entities.BalanceDelta{Amount: req.Amount.Neg()},
		Type:        entities.TransactionTypeBet,
		Status:      entities.TransactionStatusCompleted,
		Description: fmt.Sprintf("Bet on %s", req.Color),
		Reference:   round.ID,
	}); err != nil {
		return nil, err
	}

	bet := &entities.Bet{
		AccountID: req.AccountID,
		RoundID:   round.ID,
		Color:     req.Color,
		Amount:    req.Amount,
		Status:    entities.BetStatusPending,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		bet.IdempotencyKey = &key
	}
	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, err
	}

	if err := s.roundRepo.IncrementExposure(ctx, round.ID, req.Color, req.Amount); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.BetPlacedEvent{
		BetID:     bet.ID,
		AccountID: bet.AccountID,
		RoundID:   bet.RoundID,
		Color:     bet.Color,
		Amount:    bet.Amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bet placed event")
	}

	log.WithFields(log.Fields{
		"accountID": req.AccountID,
		"roundID":   round.ID,
		"color":     req.Color,
		"amount":    req.Amount.String(),
		"betID":     bet.ID,
	}).Info("Bet placed")

	return bet, nil
}
