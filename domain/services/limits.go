package services

import (
	"fmt"

	"wingo/domain/entities"

	"github.com/shopspring/decimal"
)

// AmountRange is an inclusive range of accepted money amounts
type AmountRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Check returns ErrInvalidAmount if amount falls outside the range or has sub-cent digits
func (r AmountRange) Check(amount decimal.Decimal) error {
	if err := entities.CheckMoneyPrecision(amount); err != nil {
		return err
	}
	if amount.LessThan(r.Min) || amount.GreaterThan(r.Max) {
		return fmt.Errorf("%w: must be between %s and %s", entities.ErrInvalidAmount, r.Min.StringFixed(2), r.Max.StringFixed(2))
	}
	return nil
}
