package blackjack

import (
	"context"
	"sync"
	"testing"
	"time"

	"slixk-casino/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(rank, suit string) utils.Card {
	return utils.NewCard(rank, suit)
}

func spade(rank string) utils.Card { return c(rank, "♠️") }
func heart(rank string) utils.Card { return c(rank, "♥️") }
func club(rank string) utils.Card  { return c(rank, "♣️") }
func diam(rank string) utils.Card  { return c(rank, "♦️") }

// countingLedger wraps a MemoryLedger and counts mutating calls
type countingLedger struct {
	*utils.MemoryLedger
	mu        sync.Mutex
	withdraws int
	deposits  int
}

func newCountingLedger() *countingLedger {
	return &countingLedger{MemoryLedger: utils.NewMemoryLedger()}
}

func (cl *countingLedger) Withdraw(ctx context.Context, userID int64, amount int64) error {
	cl.mu.Lock()
	cl.withdraws++
	cl.mu.Unlock()
	return cl.MemoryLedger.Withdraw(ctx, userID, amount)
}

func (cl *countingLedger) Deposit(ctx context.Context, userID int64, amount int64) error {
	cl.mu.Lock()
	cl.deposits++
	cl.mu.Unlock()
	return cl.MemoryLedger.Deposit(ctx, userID, amount)
}

func (cl *countingLedger) counts() (int, int) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.withdraws, cl.deposits
}

// newTestRegistry returns a registry whose sessions deal the given cards
// in order: player, dealer, player, dealer, then draws.
func newTestRegistry(ledger utils.Ledger, cards ...utils.Card) *Registry {
	r := NewRegistry(ledger, utils.MinBet, time.Minute)
	if len(cards) > 0 {
		r.newDeck = func() *utils.Deck {
			return utils.NewOrderedDeck(cards...)
		}
	}
	return r
}

func TestStartWithdrawsBetExactlyOnce(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	ledger.SetBalance(1, 5000)
	r := newTestRegistry(ledger)

	snap, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)
	require.NotNil(t, snap)

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(4500), balance)

	withdraws, _ := ledger.counts()
	assert.Equal(t, 1, withdraws)

	assert.Equal(t, PhasePlayerTurn, snap.Phase)
	require.Len(t, snap.Hands, 1)
	assert.Len(t, snap.Hands[0].Cards, 2)
	assert.Len(t, snap.DealerCards, 1, "only the dealer up-card is visible mid-game")
}

func TestStartSecondSessionRejectedWithoutLedgerCalls(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	ledger.SetBalance(1, 5000)
	r := newTestRegistry(ledger)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	withdrawsBefore, depositsBefore := ledger.counts()

	_, err = r.Start(ctx, 1, 500)
	assert.ErrorIs(t, err, ErrAlreadyActive)

	withdrawsAfter, depositsAfter := ledger.counts()
	assert.Equal(t, withdrawsBefore, withdrawsAfter, "rejected start must not touch the ledger")
	assert.Equal(t, depositsBefore, depositsAfter)
}

func TestStartBelowMinimum(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	r := newTestRegistry(ledger)

	_, err := r.Start(ctx, 1, utils.MinBet-1)
	assert.ErrorIs(t, err, ErrBelowMinimum)

	withdraws, _ := ledger.counts()
	assert.Zero(t, withdraws)
	assert.False(t, r.Active(1))
}

func TestStartInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 100)
	r := newTestRegistry(ledger)

	_, err := r.Start(ctx, 1, 500)
	assert.ErrorIs(t, err, utils.ErrInsufficientFunds)
	assert.False(t, r.Active(1), "failed start must unwind the registry entry")

	// The slot is free again once funds arrive
	ledger.SetBalance(1, 1000)
	_, err = r.Start(ctx, 1, 500)
	assert.NoError(t, err)
}

func TestStandLosesToDealerNineteen(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Player 10+7=17, dealer 9+5 then draws 5 for 19
	r := newTestRegistry(ledger,
		spade("10"), club("9"), heart("7"), diam("5"),
		club("5"),
	)

	snap, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 17, snap.Hands[0].Total)
	assert.Equal(t, "9", snap.DealerCards[0].Rank)

	snap, err = r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	require.Equal(t, PhaseResolved, snap.Phase)

	require.NotNil(t, snap.Result)
	assert.Equal(t, 19, snap.Result.DealerTotal)
	require.Len(t, snap.Result.Hands, 1)
	assert.Equal(t, OutcomeLose, snap.Result.Hands[0].Outcome)
	assert.Zero(t, snap.Result.Hands[0].Payout)
	assert.Zero(t, snap.Result.TotalCredited)

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(500), balance)

	assert.False(t, r.Active(1), "resolved session must leave the registry")
}

func TestActAfterResolutionReturnsNoActiveSession(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	r := newTestRegistry(ledger,
		spade("10"), club("9"), heart("7"), diam("5"),
		club("5"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)
	_, err = r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)

	_, err = r.Act(ctx, 1, ActionHit)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestWinPaysDoubleTheBet(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Player 10+9=19, dealer 10+7=17, stands
	r := newTestRegistry(ledger,
		spade("10"), club("10"), heart("9"), diam("7"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, snap.Result.Hands[0].Outcome)
	assert.Equal(t, int64(1000), snap.Result.Hands[0].Payout)
	assert.Equal(t, int64(1000), snap.Result.TotalCredited)

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(1500), balance)
}

func TestPushReturnsTheStake(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Player 10+8=18, dealer 10+8=18
	r := newTestRegistry(ledger,
		spade("10"), club("10"), heart("8"), diam("8"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	assert.Equal(t, OutcomePush, snap.Result.Hands[0].Outcome)
	assert.Equal(t, int64(500), snap.Result.TotalCredited)

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(1000), balance, "push must return the wager without gain")
}

func TestHitAtTwentyOneAutoStands(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Player 10+4=14, hit 7 for 21; dealer 10+9=19 stands
	r := newTestRegistry(ledger,
		spade("10"), club("10"), heart("4"), diam("9"),
		spade("7"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionHit)
	require.NoError(t, err)
	assert.Equal(t, PhaseResolved, snap.Phase, "hitting to 21 leaves no further choice")
	assert.Equal(t, 21, snap.Result.Hands[0].Total)
	assert.Equal(t, OutcomeWin, snap.Result.Hands[0].Outcome)
}

func TestHitBust(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Player 10+7, hit K for 27; dealer 10+9
	r := newTestRegistry(ledger,
		spade("10"), club("10"), heart("7"), diam("9"),
		spade("K"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionHit)
	require.NoError(t, err)
	assert.Equal(t, PhaseResolved, snap.Phase)
	assert.Equal(t, OutcomeBust, snap.Result.Hands[0].Outcome)
	assert.Zero(t, snap.Result.TotalCredited)
}

func TestDoubleDrawsOneCardAndDoublesTheBet(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	ledger.SetBalance(1, 1000)

	// Player 5+6=11, double draws 10 for 21; dealer 10+7=17 stands
	r := newTestRegistry(ledger,
		spade("5"), club("10"), heart("6"), diam("7"),
		spade("10"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionDouble)
	require.NoError(t, err)
	require.Equal(t, PhaseResolved, snap.Phase)

	hand := snap.Result.Hands[0]
	assert.Equal(t, 21, hand.Total)
	assert.Equal(t, int64(1000), hand.Bet, "double must double the tracked bet")
	assert.Equal(t, int64(2000), hand.Payout)
	assert.Len(t, snap.Hands[0].Cards, 3, "double draws exactly one card")

	withdraws, _ := ledger.counts()
	assert.Equal(t, 2, withdraws, "start plus exactly one double withdrawal")

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(2000), balance)
}

func TestDoubleAfterHitIsIllegal(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	ledger.SetBalance(1, 5000)

	// Player 2+3, hit 4, then try to double
	r := newTestRegistry(ledger,
		spade("2"), club("10"), heart("3"), diam("7"),
		spade("4"), spade("9"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	_, err = r.Act(ctx, 1, ActionHit)
	require.NoError(t, err)

	withdrawsBefore, _ := ledger.counts()

	_, err = r.Act(ctx, 1, ActionDouble)
	assert.ErrorIs(t, err, ErrIllegalAction)

	withdrawsAfter, _ := ledger.counts()
	assert.Equal(t, withdrawsBefore, withdrawsAfter, "illegal double must not touch the ledger")

	// The session is still playable
	snap, err := r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	assert.Equal(t, PhaseResolved, snap.Phase)
}

func TestDoubleWithoutFundsLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 500)

	r := newTestRegistry(ledger,
		spade("5"), club("10"), heart("6"), diam("7"),
		spade("10"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	_, err = r.Act(ctx, 1, ActionDouble)
	assert.ErrorIs(t, err, utils.ErrInsufficientFunds)

	// No card drawn, bet unchanged, session still live
	require.True(t, r.Active(1))
	snap, err := r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	assert.Equal(t, int64(500), snap.Result.Hands[0].Bet)
	assert.Len(t, snap.Hands[0].Cards, 2)
}

func TestSplitSettlesHandsIndependently(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	ledger.SetBalance(1, 1500)

	// Player 8♠+8♥ vs dealer 10+7=17. Split: hand one gets K (18... no:
	// 8+K=18), hand two gets 3 (11). Hand one hits Q and busts at 28,
	// hand two hits 10 for 21 and wins.
	r := newTestRegistry(ledger,
		spade("8"), club("10"), heart("8"), diam("7"),
		diam("K"), club("3"),
		club("Q"), heart("10"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionSplit)
	require.NoError(t, err)
	require.Len(t, snap.Hands, 2, "split produces two hands")
	assert.Len(t, snap.Hands[0].Cards, 2, "each split hand draws a second card")
	assert.Len(t, snap.Hands[1].Cards, 2)
	assert.Equal(t, int64(1000), snap.TotalBet, "split reserves a second wager")
	assert.Equal(t, 0, snap.Active)

	// First hand: 8+K=18, hit Q busts it, play moves to hand two
	snap, err = r.Act(ctx, 1, ActionHit)
	require.NoError(t, err)
	require.Equal(t, PhasePlayerTurn, snap.Phase)
	assert.Equal(t, 1, snap.Active)
	assert.True(t, snap.Hands[0].Done)

	// Second hand: 8+3=11, hit 10 for 21, auto-stand resolves everything
	snap, err = r.Act(ctx, 1, ActionHit)
	require.NoError(t, err)
	require.Equal(t, PhaseResolved, snap.Phase)

	require.Len(t, snap.Result.Hands, 2)
	assert.Equal(t, OutcomeBust, snap.Result.Hands[0].Outcome)
	assert.Zero(t, snap.Result.Hands[0].Payout)
	assert.Equal(t, OutcomeWin, snap.Result.Hands[1].Outcome)
	assert.Equal(t, int64(1000), snap.Result.Hands[1].Payout)
	assert.Equal(t, int64(1000), snap.Result.TotalCredited, "exactly one hand pays out")

	_, deposits := ledger.counts()
	assert.Equal(t, 1, deposits, "one credit per hand with a nonzero payout")

	// 1500 - 500 - 500 + 1000
	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(1500), balance)
}

func TestSplitRequiresMatchingRanks(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 5000)

	// K and Q are both worth 10 but are different ranks
	r := newTestRegistry(ledger,
		spade("K"), club("10"), heart("Q"), diam("7"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	_, err = r.Act(ctx, 1, ActionSplit)
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestSplitEligibilityIsReEvaluatedPerHand(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 5000)

	// After splitting 8♠/8♥ the first hand draws another 8, which makes
	// it a fresh two-card pair again and re-enables split for that hand.
	r := newTestRegistry(ledger,
		spade("8"), club("10"), heart("8"), diam("9"),
		diam("8"), club("2"),
		club("5"), heart("6"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionSplit)
	require.NoError(t, err)
	require.Len(t, snap.Hands, 2)
	assert.True(t, snap.CanSplit, "a re-dealt pair is splittable again")

	snap, err = r.Act(ctx, 1, ActionSplit)
	require.NoError(t, err)
	assert.Len(t, snap.Hands, 3)
	assert.Equal(t, int64(1500), snap.TotalBet)
}

func TestPostSplitHandCannotDoubleAfterHitting(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 5000)

	r := newTestRegistry(ledger,
		spade("8"), club("10"), heart("8"), diam("9"),
		diam("2"), club("3"),
		club("4"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)
	_, err = r.Act(ctx, 1, ActionSplit)
	require.NoError(t, err)

	// Hand one: 8+2=10, hit 4 for 14, then double is no longer legal
	_, err = r.Act(ctx, 1, ActionHit)
	require.NoError(t, err)
	_, err = r.Act(ctx, 1, ActionDouble)
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestDealerDrawsThroughSoftSixteen(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Dealer A+5 is a soft 16 and must draw. The K drops the ace to 1
	// for 16, still short of 17, so a 4 follows for 20.
	r := newTestRegistry(ledger,
		spade("10"), diam("A"), heart("9"), club("5"),
		club("K"), heart("4"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Result.DealerTotal)
	assert.Len(t, snap.Result.DealerCards, 4)
	assert.Equal(t, OutcomeLose, snap.Result.Hands[0].Outcome)
}

func TestDealerStandsOnSoftSeventeen(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Dealer A+6 evaluates to 17 and stands; player 19 wins
	r := newTestRegistry(ledger,
		spade("10"), diam("A"), heart("9"), club("6"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	assert.Equal(t, 17, snap.Result.DealerTotal)
	assert.Len(t, snap.Result.DealerCards, 2)
	assert.Equal(t, OutcomeWin, snap.Result.Hands[0].Outcome)
}

func TestDealerBustPaysAllLiveHands(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	// Dealer 10+6 draws K for 26
	r := newTestRegistry(ledger,
		spade("9"), diam("10"), heart("9"), club("6"),
		club("K"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	snap, err := r.Act(ctx, 1, ActionStand)
	require.NoError(t, err)
	assert.Equal(t, 26, snap.Result.DealerTotal)
	assert.Equal(t, OutcomeWin, snap.Result.Hands[0].Outcome)
	assert.Equal(t, int64(1000), snap.Result.TotalCredited)
}

func TestCancelForfeitsTheWager(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)
	r := newTestRegistry(ledger)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	require.NoError(t, r.Cancel(ctx, 1))
	assert.False(t, r.Active(1))

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(500), balance, "cancellation must not refund the wager")

	assert.ErrorIs(t, r.Cancel(ctx, 1), ErrNoActiveSession)
	_, err = r.Act(ctx, 1, ActionHit)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSnapshotGatesDoubleOnAffordability(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 500)

	r := newTestRegistry(ledger,
		spade("5"), club("10"), heart("6"), diam("7"),
	)

	snap, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	assert.True(t, snap.CanHit)
	assert.False(t, snap.CanDouble, "broke players should not be offered double")
	assert.False(t, snap.CanSplit)
}

func TestIdleSessionsAreSwept(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	r := NewRegistry(ledger, utils.MinBet, 10*time.Millisecond)

	var expiredUser, expiredBet int64
	r.OnExpire = func(userID int64, bet int64) {
		expiredUser = userID
		expiredBet = bet
	}

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	r.sweepIdle()

	assert.False(t, r.Active(1))
	assert.Equal(t, int64(1), expiredUser)
	assert.Equal(t, int64(500), expiredBet)

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(500), balance, "sweep forfeits like an explicit cancel")
}

func TestActiveSessionsSurviveTheSweep(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	ledger.SetBalance(1, 1000)

	r := NewRegistry(ledger, utils.MinBet, time.Minute)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	r.sweepIdle()
	assert.True(t, r.Active(1))
}

func TestConcurrentPlayersAreIndependent(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	r := newTestRegistry(ledger)

	const players = 100
	for i := int64(1); i <= players; i++ {
		ledger.SetBalance(i, 10000)
	}

	var wg sync.WaitGroup
	errs := make([]error, players)

	for i := int64(1); i <= players; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if _, err := r.Start(ctx, userID, 500); err != nil {
				errs[userID-1] = err
				return
			}
			// Alternate first moves, then stand until resolved
			if userID%2 == 0 {
				if _, err := r.Act(ctx, userID, ActionHit); err != nil {
					errs[userID-1] = err
					return
				}
			}
			for r.Active(userID) {
				if _, err := r.Act(ctx, userID, ActionStand); err != nil {
					errs[userID-1] = err
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "player %d", i+1)
	}
	assert.Equal(t, 0, r.Stats()["active_sessions"], "every session must settle and leave the registry")
}

func TestConcurrentDoublesNeverDoubleWithdraw(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	ledger.SetBalance(1, 10000)

	// Player 5+6=11, double draws 9 for 20; dealer 10+7=17 stands
	r := newTestRegistry(ledger,
		spade("5"), club("10"), heart("6"), diam("7"),
		club("9"),
	)

	_, err := r.Start(ctx, 1, 500)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = r.Act(ctx, 1, ActionDouble)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t,
				err == ErrIllegalAction || err == ErrNoActiveSession,
				"loser must fail cleanly, got %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one double may apply")

	withdraws, _ := ledger.counts()
	assert.Equal(t, 2, withdraws, "start plus one double, never a double withdrawal")

	// 10000 - 500 - 500 + 2000 (20 beats 17)
	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(11000), balance)
}

func TestConcurrentStartsOpenExactlyOneSession(t *testing.T) {
	ctx := context.Background()
	ledger := newCountingLedger()
	ledger.SetBalance(1, 10000)
	r := newTestRegistry(ledger)

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = r.Start(ctx, 1, 500)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyActive)
		}
	}
	assert.Equal(t, 1, succeeded)

	withdraws, _ := ledger.counts()
	assert.Equal(t, 1, withdraws)

	balance, _ := ledger.Balance(ctx, 1)
	assert.Equal(t, int64(9500), balance)
}
