package utils

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is one row of the users table
type User struct {
	UserID    int64
	Chips     int64
	Wins      int
	Losses    int
	CreatedAt time.Time
}

var (
	DB            *pgxpool.Pool
	dbInitialized = false
	dbMutex       sync.RWMutex
)

// SetupDatabase initializes the database connection pool. A missing URL
// is not an error; the bot runs on the in-memory ledger instead.
func SetupDatabase(databaseURL string) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if dbInitialized {
		return nil
	}

	if databaseURL == "" {
		return nil
	}

	ctx := context.Background()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Tuned for many short balance queries from interaction handlers
	config.MaxConns = 30
	config.MinConns = 8
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "slixk-casino-bot",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	DB = pool
	dbInitialized = true

	if err := createUsersTable(ctx); err != nil {
		return err
	}

	return nil
}

// CloseDatabase closes the database connection pool
func CloseDatabase() {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if DB != nil {
		DB.Close()
		DB = nil
		dbInitialized = false
	}
}

func createUsersTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			chips BIGINT NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	if _, err := DB.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// GetUser retrieves a user from the database, creating one with the
// starting balance if it doesn't exist
func GetUser(ctx context.Context, userID int64) (*User, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not connected")
	}

	user := &User{}
	query := `
		SELECT user_id, chips, wins, losses, created_at
		FROM users WHERE user_id = $1`

	err := DB.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Chips,
		&user.Wins,
		&user.Losses,
		&user.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return CreateUser(ctx, userID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// CreateUser creates a new user with the starting chip balance
func CreateUser(ctx context.Context, userID int64) (*User, error) {
	user := &User{
		UserID:    userID,
		Chips:     StartingChips,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO users (user_id, chips, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := DB.Exec(ctx, query, user.UserID, user.Chips, user.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("Created user %d with %d starting chips", userID, StartingChips)
	return user, nil
}

// RecordResult increments the win or loss counter for a user based on
// the sign of the game's net profit. A push records neither.
func RecordResult(ctx context.Context, userID int64, netProfit int64) error {
	if DB == nil {
		return nil
	}

	var query string
	switch {
	case netProfit > 0:
		query = `UPDATE users SET wins = wins + 1 WHERE user_id = $1`
	case netProfit < 0:
		query = `UPDATE users SET losses = losses + 1 WHERE user_id = $1`
	default:
		return nil
	}

	if _, err := DB.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// PostgresLedger implements Ledger on top of the users table. The
// withdrawal is a single conditional UPDATE so the affordability check
// and the debit cannot be split by a concurrent writer.
type PostgresLedger struct{}

// NewPostgresLedger returns a ledger backed by the shared pool
func NewPostgresLedger() *PostgresLedger {
	return &PostgresLedger{}
}

// CanAfford reports whether the player's balance covers amount
func (pl *PostgresLedger) CanAfford(ctx context.Context, userID int64, amount int64) (bool, error) {
	balance, err := pl.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// Withdraw removes amount from the player's balance
func (pl *PostgresLedger) Withdraw(ctx context.Context, userID int64, amount int64) error {
	// Make sure the row exists so a fresh player spends from the
	// starting balance rather than hitting zero rows.
	if _, err := GetUser(ctx, userID); err != nil {
		return err
	}

	query := `UPDATE users SET chips = chips - $2 WHERE user_id = $1 AND chips >= $2`
	tag, err := DB.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to withdraw chips: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}

	if Cache != nil {
		Cache.Delete(userID)
	}
	return nil
}

// Deposit adds amount to the player's balance
func (pl *PostgresLedger) Deposit(ctx context.Context, userID int64, amount int64) error {
	if _, err := GetUser(ctx, userID); err != nil {
		return err
	}

	query := `UPDATE users SET chips = chips + $2 WHERE user_id = $1`
	if _, err := DB.Exec(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("failed to deposit chips: %w", err)
	}

	if Cache != nil {
		Cache.Delete(userID)
	}
	return nil
}

// Balance returns the player's current balance
func (pl *PostgresLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Chips, nil
}
