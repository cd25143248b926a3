package api

import (
	"context"
	"net/http"
	"time"

	"wingo/application"
	"wingo/domain/entities"
	"wingo/domain/interfaces"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

const requestTimeout = 30 * time.Second

// Game is the round and betting surface
type Game interface {
	PlaceBet(ctx context.Context, req interfaces.PlaceBetRequest) (*entities.Bet, error)
	CurrentRound(ctx context.Context, now time.Time) (*application.RoundSnapshot, error)
	History(ctx context.Context, limit int) ([]*entities.Round, error)
	MyBets(ctx context.Context, accountID int64) ([]*entities.BetWithRound, error)
	RecentResult(ctx context.Context, accountID int64, now time.Time) (*application.RecentResult, error)
	ProcessResult(ctx context.Context, now time.Time) (*application.SettlementResult, error)
}

// Wallet is the deposit and withdrawal surface for account holders
type Wallet interface {
	CreateDepositOrder(ctx context.Context, accountID int64, amount decimal.Decimal) (*entities.DepositOrder, error)
	ConfirmDeposit(ctx context.Context, accountID int64, orderID, paymentID, signature string) (*entities.Account, error)
	RequestWithdrawal(ctx context.Context, req interfaces.WithdrawalRequest) (*entities.Withdrawal, error)
	Withdrawals(ctx context.Context, accountID int64) ([]*entities.Withdrawal, error)
	Transactions(ctx context.Context, accountID int64) ([]*entities.Transaction, error)
}

// Admin is the back-office surface
type Admin interface {
	ListWithdrawals(ctx context.Context, statuses []entities.WithdrawalStatus) ([]*entities.Withdrawal, error)
	ProcessWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id int64) (*entities.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, id int64, reason string) (*entities.Withdrawal, error)
	RefreshPayoutStatus(ctx context.Context, id int64) (*entities.Withdrawal, error)
	HandlePayoutUpdate(ctx context.Context, payoutID string, status interfaces.PayoutStatus, reason string) (*entities.Withdrawal, error)
	Stats(ctx context.Context) (*interfaces.Stats, error)
}

// Accounts is registration and account lookup
type Accounts interface {
	Register(ctx context.Context, username, referralCode string) (*entities.Account, error)
	GetAccount(ctx context.Context, id int64) (*entities.Account, error)
}

// SignatureVerifier checks a webhook body signature
type SignatureVerifier interface {
	Verify(payload []byte, signature string) bool
}

// Server holds the HTTP handlers
type Server struct {
	game            Game
	wallet          Wallet
	admin           Admin
	accounts        Accounts
	webhookVerifier SignatureVerifier
	now             func() time.Time
}

// NewServer creates a new HTTP server
func NewServer(game Game, wallet Wallet, admin Admin, accounts Accounts, webhookVerifier SignatureVerifier) *Server {
	return &Server{
		game:            game,
		wallet:          wallet,
		admin:           admin,
		accounts:        accounts,
		webhookVerifier: webhookVerifier,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Router builds the chi router with every route mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.healthz)

	r.Post("/auth/register", s.register)
	r.Post("/webhooks/payout", s.payoutWebhook)

	r.Route("/game", func(r chi.Router) {
		r.Get("/current", s.currentRound)
		r.Get("/history", s.history)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/bet", s.placeBet)
			r.Get("/my-bets", s.myBets)
			r.Get("/recent-result", s.recentResult)
			r.With(requireAdmin).Post("/process-result", s.processResult)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/payment", func(r chi.Router) {
			r.Post("/create-order", s.createOrder)
			r.Post("/confirm-deposit", s.confirmDeposit)
			r.Post("/withdraw", s.withdraw)
			r.Get("/withdrawals", s.myWithdrawals)
			r.Get("/transactions", s.myTransactions)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/withdrawals", s.listWithdrawals)
			r.Post("/withdrawals/{id}/process", s.processWithdrawal)
			r.Post("/withdrawals/{id}/approve", s.approveWithdrawal)
			r.Post("/withdrawals/{id}/reject", s.rejectWithdrawal)
			r.Post("/withdrawals/{id}/refresh", s.refreshWithdrawal)
			r.Get("/stats", s.stats)
		})
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
