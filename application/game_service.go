package application

import (
	"context"
	"fmt"
	"time"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
	"wingo/domain/services"

	log "github.com/sirupsen/logrus"
)

const (
	myBetsLimit        = 50
	recentResultWindow = 5 * time.Second
)

// RoundSnapshot is the public view of a round at a point in time
type RoundSnapshot struct {
	ID            string               `json:"id"`
	Status        entities.RoundStatus `json:"status"`
	StartTime     time.Time            `json:"startTime"`
	EndTime       time.Time            `json:"endTime"`
	TimeRemaining int64                `json:"timeRemaining"`
	BettingOpen   bool                 `json:"bettingOpen"`
	WinningColor  *entities.Color      `json:"winningColor"`
	WinningNumber *int                 `json:"winningNumber"`
	Exposure      entities.Exposure    `json:"exposure"`
}

// RecentResult is the caller's bet on a round that completed moments ago
type RecentResult struct {
	Round *entities.Round `json:"round"`
	Bet   *entities.Bet   `json:"bet"`
}

// GameService serves bet placement and round reads
type GameService struct {
	uowFactory      UnitOfWorkFactory
	settler         *RoundSettler
	window          *services.BettingWindow
	cache           RoundCache
	metrics         Metrics
	historyLimit    int
	maxHistoryLimit int
}

// NewGameService creates a new game service
func NewGameService(
	uowFactory UnitOfWorkFactory,
	settler *RoundSettler,
	window *services.BettingWindow,
	cache RoundCache,
	metrics Metrics,
	historyLimit, maxHistoryLimit int,
) *GameService {
	return &GameService{
		uowFactory:      uowFactory,
		settler:         settler,
		window:          window,
		cache:           cache,
		metrics:         metricsOrNoop(metrics),
		historyLimit:    historyLimit,
		maxHistoryLimit: maxHistoryLimit,
	}
}

// PlaceBet places a bet on the live round. Nothing is applied unless the whole placement commits.
func (g *GameService) PlaceBet(ctx context.Context, req interfaces.PlaceBetRequest) (*entities.Bet, error) {
	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	recorder := newEventRecorder(uow.EventBus())
	betService := services.NewBetService(
		uow.AccountRepository(),
		uow.BetRepository(),
		uow.RoundRepository(),
		uow.TransactionRepository(),
		recorder,
		g.window,
	)

	bet, err := betService.PlaceBet(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bet: %w", err)
	}

	recorder.record(g.metrics)
	if len(recorder.published) > 0 {
		g.cache.Invalidate(ctx)
	}
	return bet, nil
}

// CurrentRound returns the live round snapshot, served from the cache when possible
func (g *GameService) CurrentRound(ctx context.Context, now time.Time) (*RoundSnapshot, error) {
	if round, ok := g.cache.GetLive(ctx); ok {
		return g.snapshot(round, now), nil
	}
	generation := g.cache.Generation(ctx)

	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get live round: %w", err)
	}
	if round == nil {
		return nil, entities.ErrNoLiveRound
	}

	g.cache.SetLive(ctx, round, generation)
	return g.snapshot(round, now), nil
}

func (g *GameService) snapshot(round *entities.Round, now time.Time) *RoundSnapshot {
	return &RoundSnapshot{
		ID:            round.ID,
		Status:        round.Status,
		StartTime:     round.StartTime,
		EndTime:       round.EndTime,
		TimeRemaining: int64(round.TimeRemaining(now) / time.Second),
		BettingOpen:   round.AcceptsBets(now, g.window.CloseBeforeEnd()),
		WinningColor:  round.WinningColor,
		WinningNumber: round.WinningNumber,
		Exposure:      round.Exposure,
	}
}

// History returns completed rounds, newest first. A non-positive limit uses the default; limits are capped.
func (g *GameService) History(ctx context.Context, limit int) ([]*entities.Round, error) {
	if limit <= 0 {
		limit = g.historyLimit
	}
	if limit > g.maxHistoryLimit {
		limit = g.maxHistoryLimit
	}

	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rounds, err := uow.RoundRepository().GetCompleted(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %w", err)
	}
	return rounds, nil
}

// MyBets returns the account's latest bets with their round outcomes
func (g *GameService) MyBets(ctx context.Context, accountID int64) ([]*entities.BetWithRound, error) {
	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetByAccount(ctx, accountID, myBetsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}
	return bets, nil
}

// RecentResult returns the account's bet on the last completed round if that round
// completed within the last few seconds, or nil otherwise
func (g *GameService) RecentResult(ctx context.Context, accountID int64, now time.Time) (*RecentResult, error) {
	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetLastCompleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last completed round: %w", err)
	}
	if round == nil || round.CompletedAt == nil || now.Sub(*round.CompletedAt) > recentResultWindow {
		return nil, nil
	}

	bet, err := uow.BetRepository().GetByAccountAndRound(ctx, accountID, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, nil
	}
	return &RecentResult{Round: round, Bet: bet}, nil
}

// ProcessResult settles the live round immediately, ignoring its end time
func (g *GameService) ProcessResult(ctx context.Context, now time.Time) (*SettlementResult, error) {
	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	round, err := uow.RoundRepository().GetLive(ctx)
	uow.Rollback()
	if err != nil {
		return nil, fmt.Errorf("failed to get live round: %w", err)
	}
	if round == nil {
		return nil, entities.ErrNoLiveRound
	}

	log.WithField("roundID", round.ID).Info("Admin forcing round settlement")
	return g.settler.SettleRound(ctx, round.ID, now, true, TriggerAdmin)
}
