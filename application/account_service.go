package application

import (
	"context"
	"fmt"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
	"wingo/domain/services"

	"github.com/shopspring/decimal"
)

// AccountService serves registration and account lookups
type AccountService struct {
	uowFactory    UnitOfWorkFactory
	referralBonus decimal.Decimal
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, referralBonus decimal.Decimal) *AccountService {
	return &AccountService{uowFactory: uowFactory, referralBonus: referralBonus}
}

func (a *AccountService) service(uow UnitOfWork) interfaces.AccountService {
	return services.NewAccountService(uow.AccountRepository(), uow.TransactionRepository(), uow.EventBus(), a.referralBonus)
}

// Register creates an account, crediting the referrer when the referral code resolves
func (a *AccountService) Register(ctx context.Context, username, referralCode string) (*entities.Account, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := a.service(uow).Register(ctx, username, referralCode)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}
	return account, nil
}

// GetAccount returns the account or ErrAccountNotFound
func (a *AccountService) GetAccount(ctx context.Context, id int64) (*entities.Account, error) {
	uow := a.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return a.service(uow).GetAccount(ctx, id)
}
