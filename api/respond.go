package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"wingo/domain/entities"

	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var (
	notFoundErrors = []error{
		entities.ErrAccountNotFound,
		entities.ErrRoundNotFound,
		entities.ErrNoLiveRound,
		entities.ErrOrderNotFound,
		entities.ErrWithdrawalNotFound,
	}
	conflictErrors = []error{
		entities.ErrDuplicateBet,
		entities.ErrUsernameTaken,
	}
	badRequestErrors = []error{
		entities.ErrInvalidColor,
		entities.ErrInvalidAmount,
		entities.ErrInsufficientFunds,
		entities.ErrBettingClosed,
		entities.ErrInvalidUsername,
		entities.ErrInvalidDestination,
		entities.ErrInvalidSignature,
		entities.ErrWithdrawalFinalized,
		entities.ErrPayoutUnavailable,
	}
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to write response body")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// errorStatus maps expected domain rejections to client errors; anything else is a server fault
func errorStatus(err error) int {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err,
		}).Error("Request failed")
		writeMessage(w, status, "internal server error")
		return
	}
	writeMessage(w, status, err.Error())
}

// decodeBody reads a JSON request body into dst, writing a 400 and returning false on failure
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
