package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"wingo/domain/entities"
	"wingo/domain/interfaces"

	"github.com/shopspring/decimal"
)

var (
	commissionDivisor = decimal.NewFromInt(1000)
	commissionFloor   = decimal.NewFromInt(1)
	commissionCeiling = decimal.NewFromInt(10)
)

// outcomeResolver computes round outcomes. It has no side effects beyond reading its randomness source.
type outcomeResolver struct {
	random io.Reader
}

// NewOutcomeResolver creates a resolver drawing winning numbers from random, or crypto/rand when nil
func NewOutcomeResolver(random io.Reader) interfaces.OutcomeResolver {
	if random == nil {
		random = rand.Reader
	}
	return &outcomeResolver{random: random}
}

// Resolve picks the least-staked color as the winner and draws a display number in [0,9]
func (r *outcomeResolver) Resolve(exposure entities.Exposure) (*interfaces.Outcome, error) {
	n, err := rand.Int(r.random, big.NewInt(10))
	if err != nil {
		return nil, fmt.Errorf("failed to generate winning number: %w", err)
	}

	total := exposure.Total()
	return &interfaces.Outcome{
		WinningColor:    LowestExposureColor(exposure),
		WinningNumber:   int(n.Int64()),
		TotalStaked:     total,
		AdminCommission: AdminCommission(total),
	}, nil
}

// LowestExposureColor returns the color with the smallest total stake.
// Ties go to the earliest color in AllColors, so an empty round is won by red.
func LowestExposureColor(exposure entities.Exposure) entities.Color {
	winner := entities.AllColors[0]
	lowest := exposure[winner].TotalAmount
	for _, c := range entities.AllColors[1:] {
		if exposure[c].TotalAmount.LessThan(lowest) {
			winner = c
			lowest = exposure[c].TotalAmount
		}
	}
	return winner
}

// AdminCommission returns clamp(floor(totalStaked/1000), 1, 10). It is recorded for reporting only.
func AdminCommission(totalStaked decimal.Decimal) decimal.Decimal {
	commission := totalStaked.Div(commissionDivisor).Floor()
	if commission.LessThan(commissionFloor) {
		return commissionFloor
	}
	if commission.GreaterThan(commissionCeiling) {
		return commissionCeiling
	}
	return commission
}

// HouseNet returns what the house keeps when winner wins: all stakes minus the 2x payout on the winning color
func HouseNet(exposure entities.Exposure, winner entities.Color) decimal.Decimal {
	payout := exposure[winner].TotalAmount.Mul(entities.PayoutMultiplier)
	return exposure.Total().Sub(payout)
}
