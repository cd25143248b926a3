package application_test

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"wingo/application"
	"wingo/config"
	"wingo/database"
	"wingo/domain/entities"
	"wingo/domain/events"
	"wingo/domain/interfaces"
	"wingo/domain/services"
	"wingo/infrastructure"
	"wingo/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// eventSink collects every event flushed by committed units of work
type eventSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *eventSink) Publish(event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *eventSink) ofType(eventType events.EventType) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, e := range s.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db       *database.DB
	sink     *eventSink
	factory  *infrastructure.UnitOfWorkFactory
	settler  *application.RoundSettler
	game     *application.GameService
	wallet   *application.WalletService
	accounts *application.AccountService
	payments *infrastructure.LocalPaymentGateway
	cfg      *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.NewTestConfig()
	testDB := testutil.SetupTestDatabase(t)
	sink := &eventSink{}
	factory := infrastructure.NewUnitOfWorkFactory(testDB.DB, sink)

	settler := application.NewRoundSettler(factory, services.NewOutcomeResolver(rand.Reader), cfg.RoundDuration, infrastructure.NoopRoundCache{}, nil)
	payments := infrastructure.NewLocalPaymentGateway(cfg.PaymentKeySecret)

	return &testEnv{
		db:      testDB.DB,
		sink:    sink,
		factory: factory,
		settler: settler,
		game: application.NewGameService(factory, settler, services.NewBettingWindow(cfg.BetCloseBeforeEnd),
			infrastructure.NoopRoundCache{}, nil, cfg.HistoryLimit, cfg.MaxHistoryLimit),
		wallet: application.NewWalletService(factory, payments,
			services.AmountRange{Min: cfg.MinDeposit, Max: cfg.MaxDeposit},
			services.AmountRange{Min: cfg.MinWithdrawal, Max: cfg.MaxWithdrawal}, nil),
		accounts: application.NewAccountService(factory, cfg.ReferralBonus),
		payments: payments,
		cfg:      cfg,
	}
}

func (e *testEnv) admin(payouts interfaces.PayoutProvider) *application.AdminService {
	return application.NewAdminService(e.factory, payouts,
		services.AmountRange{Min: e.cfg.MinWithdrawal, Max: e.cfg.MaxWithdrawal}, nil)
}

func (e *testEnv) placeBet(t *testing.T, account *entities.Account, color entities.Color, amount int64) *entities.Bet {
	t.Helper()
	bet, err := e.game.PlaceBet(context.Background(), betRequest(account.ID, color, amount))
	require.NoError(t, err)
	return bet
}

func (e *testEnv) requireConserved(t *testing.T, accounts ...*entities.Account) {
	t.Helper()
	for _, account := range accounts {
		balance := testutil.Balance(t, e.db, account.ID)
		require.True(t, balance.Equal(testutil.LedgerSum(t, e.db, account.ID)),
			"ledger of account %d must sum to its balance %s", account.ID, balance)
		require.False(t, balance.IsNegative())
	}
}

func betRequest(accountID int64, color entities.Color, amount int64) interfaces.PlaceBetRequest {
	return interfaces.PlaceBetRequest{
		AccountID: accountID,
		Color:     color,
		Amount:    decimal.NewFromInt(amount),
		Now:       time.Now().UTC(),
	}
}

func withdrawalRequest(accountID int64, amount int64, key string) interfaces.WithdrawalRequest {
	return interfaces.WithdrawalRequest{
		AccountID:      accountID,
		Amount:         decimal.NewFromInt(amount),
		Destination:    entities.UPIDestination{UPIID: "player@okbank"},
		IdempotencyKey: key,
	}
}
