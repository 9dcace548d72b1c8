package utils

import (
	"context"
	"errors"
	"sync"
)

// ErrInsufficientFunds is returned by Withdraw when the player's balance
// cannot cover the requested amount.
var ErrInsufficientFunds = errors.New("insufficient chips")

// Ledger is the chip economy as seen by the games. All calls may fail;
// Withdraw is atomic with its own affordability check so two racing
// withdrawals can never both succeed on one balance.
type Ledger interface {
	CanAfford(ctx context.Context, userID int64, amount int64) (bool, error)
	Withdraw(ctx context.Context, userID int64, amount int64) error
	Deposit(ctx context.Context, userID int64, amount int64) error
	Balance(ctx context.Context, userID int64) (int64, error)
}

// MemoryLedger is a mutex-guarded in-memory Ledger. It backs the bot
// when no DATABASE_URL is configured and is the ledger used by tests.
// Unknown players start with StartingChips.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[int64]int64),
	}
}

func (ml *MemoryLedger) balance(userID int64) int64 {
	if _, exists := ml.balances[userID]; !exists {
		ml.balances[userID] = StartingChips
	}
	return ml.balances[userID]
}

// CanAfford reports whether the player's balance covers amount
func (ml *MemoryLedger) CanAfford(ctx context.Context, userID int64, amount int64) (bool, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.balance(userID) >= amount, nil
}

// Withdraw removes amount from the player's balance
func (ml *MemoryLedger) Withdraw(ctx context.Context, userID int64, amount int64) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.balance(userID) < amount {
		return ErrInsufficientFunds
	}
	ml.balances[userID] -= amount
	return nil
}

// Deposit adds amount to the player's balance
func (ml *MemoryLedger) Deposit(ctx context.Context, userID int64, amount int64) error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.balances[userID] = ml.balance(userID) + amount
	return nil
}

// Balance returns the player's current balance
func (ml *MemoryLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.balance(userID), nil
}

// SetBalance overrides a player's balance. Test helper.
func (ml *MemoryLedger) SetBalance(userID int64, amount int64) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.balances[userID] = amount
}
