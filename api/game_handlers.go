package api

import (
	"net/http"
	"strconv"
	"strings"

	"wingo/domain/entities"
	"wingo/domain/interfaces"

	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader makes bet and withdrawal requests safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

type placeBetRequest struct {
	Color  string          `json:"color"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) currentRound(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.game.CurrentRound(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	color, err := entities.ParseColor(req.Color)
	if err != nil {
		writeError(w, r, err)
		return
	}

	bet, err := s.game.PlaceBet(r.Context(), interfaces.PlaceBetRequest{
		AccountID:      accountFrom(r.Context()).ID,
		Color:          color,
		Amount:         req.Amount,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
		Now:            s.now(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	rounds, err := s.game.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (s *Server) myBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.game.MyBets(r.Context(), accountFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

func (s *Server) recentResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.game.RecentResult(r.Context(), accountFrom(r.Context()).ID, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) processResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.game.ProcessResult(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
