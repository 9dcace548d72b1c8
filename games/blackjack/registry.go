package blackjack

import (
	"context"
	"log"
	"sync"
	"time"

	"slixk-casino/utils"
)

// HandSnapshot is one player hand as shown to the presentation layer
type HandSnapshot struct {
	Cards []utils.Card
	Total int
	Bet   int64
	Done  bool
}

// Snapshot is a read-only view of a session taken under its lock
type Snapshot struct {
	UserID      int64
	Phase       Phase
	Hands       []HandSnapshot
	Active      int
	DealerCards []utils.Card
	DealerTotal int
	TotalBet    int64
	Result      *Result

	// Options for the currently active hand
	CanHit    bool
	CanDouble bool
	CanSplit  bool
}

// entry pairs a session with the lock that serializes every operation on
// it. Ledger calls happen with this lock held, so two near-simultaneous
// actions for the same player can never interleave a balance check with
// another action's debit.
type entry struct {
	mu      sync.Mutex
	session *Session
}

// Registry owns the mapping from player to at most one live session.
// Operations on different players proceed independently; the registry
// mutex only guards the map itself.
type Registry struct {
	mu      sync.RWMutex
	entries map[int64]*entry

	ledger      utils.Ledger
	minBet      int64
	idleTimeout time.Duration

	// Deck construction is swappable so tests can deal known cards
	newDeck func() *utils.Deck

	// OnExpire is called after an idle session has been cancelled,
	// outside any lock. Optional.
	OnExpire func(userID int64, bet int64)

	sweepTicker *time.Ticker
	done        chan bool
}

// NewRegistry creates a registry backed by the given ledger
func NewRegistry(ledger utils.Ledger, minBet int64, idleTimeout time.Duration) *Registry {
	return &Registry{
		entries:     make(map[int64]*entry),
		ledger:      ledger,
		minBet:      minBet,
		idleTimeout: idleTimeout,
		newDeck:     utils.NewDeck,
		done:        make(chan bool),
	}
}

// StartSweep launches the background cancellation of idle sessions
func (r *Registry) StartSweep() {
	r.sweepTicker = time.NewTicker(utils.SessionSweepPeriod)
	go r.sweepRoutine()
}

// Close stops the sweep routine
func (r *Registry) Close() {
	if r.sweepTicker != nil {
		r.sweepTicker.Stop()
		r.done <- true
	}
}

// Start reserves the wager and opens a session for the player. It fails
// without touching the ledger if the player already has one.
func (r *Registry) Start(ctx context.Context, userID int64, bet int64) (*Snapshot, error) {
	if bet < r.minBet {
		return nil, ErrBelowMinimum
	}

	r.mu.Lock()
	if _, exists := r.entries[userID]; exists {
		r.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	e := &entry{}
	e.mu.Lock()
	r.entries[userID] = e
	r.mu.Unlock()
	defer e.mu.Unlock()

	// The entry is already registered so a concurrent Start sees
	// AlreadyActive while we wait on the ledger. Unwind it if the
	// wager can't be reserved.
	if err := r.ledger.Withdraw(ctx, userID, bet); err != nil {
		r.remove(userID)
		return nil, err
	}

	e.session = newSession(userID, bet, r.newDeck())
	return r.snapshot(ctx, e.session), nil
}

// Act applies one player action. When the action resolves the session,
// the registry entry is released before the session lock is, so any
// queued press for the same player lands on NoActiveSession.
func (r *Registry) Act(ctx context.Context, userID int64, action Action) (*Snapshot, error) {
	e := r.get(userID)
	if e == nil {
		return nil, ErrNoActiveSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The session may have been cancelled or resolved while we waited
	// on the lock
	if e.session == nil {
		return nil, ErrNoActiveSession
	}

	err := e.session.apply(ctx, r.ledger, action)

	var snap *Snapshot
	if e.session.phase == PhaseResolved {
		snap = r.snapshot(ctx, e.session)
		e.session = nil
		r.remove(userID)
	} else if err == nil {
		snap = r.snapshot(ctx, e.session)
	}

	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Cancel removes a non-resolved session. The reserved wager stays with
// the house.
func (r *Registry) Cancel(ctx context.Context, userID int64) error {
	e := r.get(userID)
	if e == nil {
		return ErrNoActiveSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveSession
	}

	bet := e.session.totalBet()
	e.session = nil
	r.remove(userID)

	log.Printf("Cancelled blackjack session for user %d, forfeited %d chips", userID, bet)
	return nil
}

// Active reports whether the player currently has a live session
func (r *Registry) Active(userID int64) bool {
	return r.get(userID) != nil
}

// Stats returns counters for the health endpoint
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]int{
		"active_sessions": len(r.entries),
	}
}

func (r *Registry) get(userID int64) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[userID]
}

func (r *Registry) remove(userID int64) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
}

// snapshot builds the presentation view of a session. Must be called
// with the entry lock held.
func (r *Registry) snapshot(ctx context.Context, s *Session) *Snapshot {
	snap := &Snapshot{
		UserID:   s.userID,
		Phase:    s.phase,
		Active:   s.active,
		TotalBet: s.totalBet(),
		Result:   s.result,
	}

	for _, h := range s.hands {
		snap.Hands = append(snap.Hands, HandSnapshot{
			Cards: h.hand.Cards,
			Total: h.hand.Value(),
			Bet:   h.bet,
			Done:  h.done,
		})
	}

	if s.phase == PhaseResolved {
		snap.DealerCards = s.dealerHand.Cards
		snap.DealerTotal = s.dealerHand.Value()
	} else {
		// Only the up-card is visible mid-game
		snap.DealerCards = s.dealerHand.Cards[:1]
		snap.DealerTotal = s.dealerHand.Cards[0].Value()
	}

	if s.phase == PhasePlayerTurn {
		h := s.hands[s.active]
		snap.CanHit = !h.hand.IsBust()

		// Affordability here is advisory, for button gating; the
		// authoritative check is the atomic withdrawal when the
		// action lands
		if !h.acted && h.hand.Size() == 2 {
			afford, err := r.ledger.CanAfford(ctx, s.userID, h.bet)
			if err != nil {
				afford = false
			}
			snap.CanDouble = afford
			snap.CanSplit = afford && h.hand.CanSplit()
		}
	}

	return snap
}

// sweepRoutine cancels sessions that have gone idle
func (r *Registry) sweepRoutine() {
	for {
		select {
		case <-r.sweepTicker.C:
			r.sweepIdle()
		case <-r.done:
			return
		}
	}
}

func (r *Registry) sweepIdle() {
	type candidate struct {
		userID int64
		e      *entry
	}

	r.mu.RLock()
	candidates := make([]candidate, 0, len(r.entries))
	for userID, e := range r.entries {
		candidates = append(candidates, candidate{userID, e})
	}
	r.mu.RUnlock()

	now := time.Now()
	for _, c := range candidates {
		c.e.mu.Lock()
		if c.e.session == nil || now.Sub(c.e.session.lastAction) < r.idleTimeout {
			c.e.mu.Unlock()
			continue
		}

		bet := c.e.session.totalBet()
		c.e.session = nil
		r.remove(c.userID)
		c.e.mu.Unlock()

		log.Printf("Expired idle blackjack session for user %d, forfeited %d chips", c.userID, bet)
		if r.OnExpire != nil {
			r.OnExpire(c.userID, bet)
		}
	}
}
