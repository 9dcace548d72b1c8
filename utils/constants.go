package utils

import "time"

// General Configuration
const (
	BotColor   = 0x5865F2
	WinColor   = 0x57F287
	LoseColor  = 0xED4245
	ErrorColor = 0xFF0000
)

// Economy
const (
	StartingChips int64 = 1000
	MinBet        int64 = 500
)

// Blackjack Game Constants
const (
	DealerStandValue = 17
	BlackjackTarget  = 21
)

// Session lifecycle
const (
	SessionIdleTimeout = 3 * time.Minute
	SessionSweepPeriod = 30 * time.Second
	UserCacheTTL       = 5 * time.Minute
	UserCacheSweep     = 5 * time.Minute
)

// Card System
var (
	CardSuits = []string{"♠️", "♥️", "♦️", "♣️"}
	CardRanks = map[string]int{
		"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
		"J": 10, "Q": 10, "K": 10, "A": 11,
	}
)

// UI Messages
const (
	CasinoTitle        = "Slixk's 🎲 Casino | Blackjack"
	GameTimeoutMessage = "You did not respond in time. Your game has timed out and you have forfeited your bet of %d chips."
	NotYourGameMessage = "This is not your game!"
)
