package api

import (
	"net/http"
)

type registerRequest struct {
	Username     string `json:"username"`
	ReferralCode string `json:"referralCode"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := s.accounts.Register(r.Context(), req.Username, req.ReferralCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}
