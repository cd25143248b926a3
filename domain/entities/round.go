package entities

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RoundStatus represents the lifecycle state of a round
type RoundStatus string

const (
	RoundStatusPending   RoundStatus = "pending"
	RoundStatusLive      RoundStatus = "live"
	RoundStatusCompleted RoundStatus = "completed"
)

// ColorExposure is the aggregated stake on one color
type ColorExposure struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Exposure holds the aggregated stake per color for a round
type Exposure map[Color]ColorExposure

// NewExposure returns an exposure map with every color zeroed
func NewExposure() Exposure {
	e := make(Exposure, len(AllColors))
	for _, c := range AllColors {
		e[c] = ColorExposure{TotalAmount: decimal.Zero}
	}
	return e
}

// Total returns the sum of stakes across all colors
func (e Exposure) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range AllColors {
		total = total.Add(e[c].TotalAmount)
	}
	return total
}

// Round is one fixed-duration betting cycle
type Round struct {
	ID              string          `json:"id"`
	StartTime       time.Time       `json:"startTime"`
	EndTime         time.Time       `json:"endTime"`
	Status          RoundStatus     `json:"status"`
	Exposure        Exposure        `json:"exposure"`
	WinningColor    *Color          `json:"winningColor"`
	WinningNumber   *int            `json:"winningNumber"`
	AdminCommission decimal.Decimal `json:"adminCommission"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NewRound creates a live round starting at now
func NewRound(now time.Time, duration time.Duration) (*Round, error) {
	id, err := NewRoundID(now)
	if err != nil {
		return nil, err
	}
	return &Round{
		ID:              id,
		StartTime:       now,
		EndTime:         now.Add(duration),
		Status:          RoundStatusLive,
		Exposure:        NewExposure(),
		AdminCommission: decimal.Zero,
	}, nil
}

// NewRoundID builds an identifier of the form G{unixMillis}{6 uppercase hex chars}
func NewRoundID(now time.Time) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate round id: %w", err)
	}
	return fmt.Sprintf("G%d%s", now.UnixMilli(), strings.ToUpper(hex.EncodeToString(suffix))), nil
}

// IsLive returns true if the round is open for settlement and, within the window, for bets
func (r *Round) IsLive() bool {
	return r.Status == RoundStatusLive
}

// IsCompleted returns true if the round has been settled
func (r *Round) IsCompleted() bool {
	return r.Status == RoundStatusCompleted
}

// IsExpired returns true once the round's end time has been reached
func (r *Round) IsExpired(now time.Time) bool {
	return !now.Before(r.EndTime)
}

// TimeRemaining returns the time left until the round ends, never negative
func (r *Round) TimeRemaining(now time.Time) time.Duration {
	remaining := r.EndTime.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AcceptsBets returns true if the round is live and at least closeBeforeEnd remains
func (r *Round) AcceptsBets(now time.Time, closeBeforeEnd time.Duration) bool {
	return r.IsLive() && r.EndTime.Sub(now) >= closeBeforeEnd
}

// Complete records the settled outcome on the in-memory round
func (r *Round) Complete(color Color, number int, commission decimal.Decimal, at time.Time) {
	r.Status = RoundStatusCompleted
	r.WinningColor = &color
	r.WinningNumber = &number
	r.AdminCommission = commission
	r.CompletedAt = &at
}
