package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
	"wingo/domain/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

const maxReferralCodeAttempts = 5

type accountService struct {
	accountRepo     interfaces.AccountRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
	referralBonus   decimal.Decimal
}

// NewAccountService creates a new account service
func NewAccountService(
	accountRepo interfaces.AccountRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	referralBonus decimal.Decimal,
) interfaces.AccountService {
	return &accountService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
		referralBonus:   referralBonus,
	}
}

// Register creates a zero-balance account. A resolvable referral code credits the referrer's bonus
// in the same unit of work; an unknown code is ignored.
func (s *accountService) Register(ctx context.Context, username, referralCode string) (*entities.Account, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 letters, digits or underscores", entities.ErrInvalidUsername)
	}

	existing, err := s.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, entities.ErrUsernameTaken
	}

	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	var referrer *entities.Account
	if referralCode = strings.ToUpper(strings.TrimSpace(referralCode)); referralCode != "" {
		referrer, err = s.accountRepo.GetByReferralCode(ctx, referralCode)
		if err != nil {
			return nil, fmt.Errorf("failed to look up referral code: %w", err)
		}
		if referrer == nil {
			log.WithField("referralCode", referralCode).Info("Ignoring unknown referral code")
		}
	}

	account := &entities.Account{
		Username:         username,
		ReferralCode:     code,
		Balance:          decimal.Zero,
		TotalWinnings:    decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
	}
	if referrer != nil {
		account.ReferredBy = &referrer.ID
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if referrer != nil && s.referralBonus.IsPositive() {
		if _, _, err := utils.ApplyLedgerChange(ctx, s.accountRepo, s.transactionRepo, s.eventPublisher, utils.LedgerChange{
			AccountID:   referrer.ID,
			Delta:       entities.BalanceDelta{Amount: s.referralBonus},
			Type:        entities.TransactionTypeReferral,
			Status:      entities.TransactionStatusCompleted,
			Description: fmt.Sprintf("Referral bonus for %s", account.Username),
			Reference:   fmt.Sprintf("account:%d", account.ID),
		}); err != nil {
			return nil, fmt.Errorf("failed to credit referral bonus: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"accountID":  account.ID,
		"username":   account.Username,
		"referredBy": account.ReferredBy,
	}).Info("Account registered")

	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, id int64) (*entities.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}
	return account, nil
}

func (s *accountService) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < maxReferralCodeAttempts; i++ {
		code, err := newReferralCode()
		if err != nil {
			return "", err
		}
		owner, err := s.accountRepo.GetByReferralCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if owner == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique referral code after %d attempts", maxReferralCodeAttempts)
}

// newReferralCode returns 8 uppercase hex characters
func newReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
