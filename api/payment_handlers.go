package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"wingo/domain/entities"
	"wingo/domain/interfaces"

	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type confirmDepositRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

type withdrawRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	Details json.RawMessage `json:"details"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := s.wallet.CreateDepositOrder(r.Context(), accountFrom(r.Context()).ID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) confirmDeposit(w http.ResponseWriter, r *http.Request) {
	var req confirmDepositRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeMessage(w, http.StatusBadRequest, "orderId, paymentId and signature are required")
		return
	}

	account, err := s.wallet.ConfirmDeposit(r.Context(), accountFrom(r.Context()).ID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "deposit confirmed",
		"balance": account.Balance,
	})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	destination, err := entities.ParseDestination(req.Method, req.Details)
	if err != nil {
		writeError(w, r, err)
		return
	}

	withdrawal, err := s.wallet.RequestWithdrawal(r.Context(), interfaces.WithdrawalRequest{
		AccountID:      accountFrom(r.Context()).ID,
		Amount:         req.Amount,
		Destination:    destination,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, withdrawal)
}

func (s *Server) myWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := s.wallet.Withdrawals(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawals)
}

func (s *Server) myTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.wallet.Transactions(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}
