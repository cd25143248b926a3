package entities

import "errors"

// Expected rejections. Callers classify them with errors.Is; anything else is an infrastructure fault.
var (
	ErrInvalidColor        = errors.New("invalid color")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("insufficient balance")
	ErrNoLiveRound         = errors.New("no active game")
	ErrBettingClosed       = errors.New("betting is closed for this round")
	ErrDuplicateBet        = errors.New("you already placed a bet in this round")
	ErrAccountNotFound     = errors.New("account not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidUsername     = errors.New("invalid username")
	ErrRoundNotFound       = errors.New("round not found")
	ErrInvalidDestination  = errors.New("invalid withdrawal destination")
	ErrInvalidSignature    = errors.New("invalid payment signature")
	ErrOrderNotFound       = errors.New("deposit order not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrWithdrawalFinalized = errors.New("withdrawal already processed")
	ErrPayoutUnavailable   = errors.New("payout provider unavailable")
)
