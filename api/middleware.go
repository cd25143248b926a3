package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wingo/domain/entities"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// AccountIDHeader carries the caller's account ID, set by the upstream auth gateway
const AccountIDHeader = "X-Account-ID"

type accountContextKey struct{}

// accountFrom returns the authenticated account stored by authenticate
func accountFrom(ctx context.Context) *entities.Account {
	account, _ := ctx.Value(accountContextKey{}).(*entities.Account)
	return account
}

// authenticate loads the account named by the X-Account-ID header
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(AccountIDHeader))
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeMessage(w, http.StatusUnauthorized, "invalid account id")
			return
		}

		account, err := s.accounts.GetAccount(r.Context(), id)
		if err != nil {
			if errorStatus(err) == http.StatusNotFound {
				writeMessage(w, http.StatusUnauthorized, "unknown account")
				return
			}
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountContextKey{}, account)))
	})
}

// requireAdmin rejects callers whose account is not an admin
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := accountFrom(r.Context())
		if account == nil || !account.IsAdmin {
			writeMessage(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request through logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		entry := log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(started),
			"requestID": middleware.GetReqID(r.Context()),
		})
		if ww.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP request")
			return
		}
		entry.Debug("HTTP request")
	})
}
