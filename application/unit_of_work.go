package application

import (
	"context"

	"wingo/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes the events published inside it
	Commit() error

	// Rollback rolls back the transaction and discards its events
	Rollback() error

	// Repository getters
	AccountRepository() interfaces.AccountRepository
	TransactionRepository() interfaces.TransactionRepository
	RoundRepository() interfaces.RoundRepository
	BetRepository() interfaces.BetRepository
	WithdrawalRepository() interfaces.WithdrawalRepository
	DepositOrderRepository() interfaces.DepositOrderRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
