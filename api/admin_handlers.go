package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"wingo/domain/entities"
	"wingo/domain/interfaces"

	"github.com/go-chi/chi/v5"
)

// SignatureHeader carries the hex HMAC of a webhook body
const SignatureHeader = "X-Signature"

var knownWithdrawalStatuses = map[entities.WithdrawalStatus]bool{
	entities.WithdrawalStatusPending:    true,
	entities.WithdrawalStatusProcessing: true,
	entities.WithdrawalStatusApproved:   true,
	entities.WithdrawalStatusRejected:   true,
	entities.WithdrawalStatusCompleted:  true,
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type payoutWebhookRequest struct {
	PayoutID      string `json:"payoutId"`
	Status        string `json:"status"`
	FailureReason string `json:"failureReason"`
}

// parseStatuses reads a comma-separated status filter; an empty filter yields nil
func parseStatuses(raw string) ([]entities.WithdrawalStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var statuses []entities.WithdrawalStatus
	for _, part := range strings.Split(raw, ",") {
		status := entities.WithdrawalStatus(strings.ToLower(strings.TrimSpace(part)))
		if !knownWithdrawalStatuses[status] {
			return nil, fmt.Errorf("unknown withdrawal status %q", part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *Server) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	statuses, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	withdrawals, err := s.admin.ListWithdrawals(r.Context(), statuses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawals)
}

// withdrawalAction runs an admin action against the withdrawal named in the path
func (s *Server) withdrawalAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64) (*entities.Withdrawal, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid withdrawal id")
		return
	}

	withdrawal, err := action(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawal)
}

func (s *Server) processWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.withdrawalAction(w, r, s.admin.ProcessWithdrawal)
}

func (s *Server) approveWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.withdrawalAction(w, r, s.admin.ApproveWithdrawal)
}

func (s *Server) refreshWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.withdrawalAction(w, r, s.admin.RefreshPayoutStatus)
}

func (s *Server) rejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "rejected by admin"
	}

	s.withdrawalAction(w, r, func(ctx context.Context, id int64) (*entities.Withdrawal, error) {
		return s.admin.RejectWithdrawal(ctx, id, reason)
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// payoutWebhook applies an asynchronous payout status update signed by the payout provider
func (s *Server) payoutWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.webhookVerifier.Verify(body, r.Header.Get(SignatureHeader)) {
		writeMessage(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var req payoutWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil || req.PayoutID == "" || req.Status == "" {
		writeMessage(w, http.StatusBadRequest, "payoutId and status are required")
		return
	}

	status := interfaces.PayoutStatus(strings.ToLower(req.Status))
	if _, err := s.admin.HandlePayoutUpdate(r.Context(), req.PayoutID, status, req.FailureReason); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
