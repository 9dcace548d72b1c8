package blackjack

import (
	"context"
	"errors"
	"time"

	"slixk-casino/utils"
)

// User-facing failures. None of these mutate session state.
var (
	ErrAlreadyActive   = errors.New("you already have an active blackjack game")
	ErrNoActiveSession = errors.New("no active blackjack game found")
	ErrBelowMinimum    = errors.New("bet is below the table minimum")
	ErrIllegalAction   = errors.New("that action is not allowed right now")
)

// Action is a player move on the active hand
type Action int

const (
	ActionHit Action = iota
	ActionStand
	ActionDouble
	ActionSplit
)

// String returns the action name
func (a Action) String() string {
	switch a {
	case ActionHit:
		return "hit"
	case ActionStand:
		return "stand"
	case ActionDouble:
		return "double"
	case ActionSplit:
		return "split"
	default:
		return "unknown"
	}
}

// Phase is the session's position in its lifecycle
type Phase int

const (
	PhasePlayerTurn Phase = iota
	PhaseDealerTurn
	PhaseResolved
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhasePlayerTurn:
		return "player_turn"
	case PhaseDealerTurn:
		return "dealer_turn"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// handState is one player hand and its wager. acted flips on the first
// action applied to the hand; double and split are only legal before
// that, on the hand's original two cards.
type handState struct {
	hand  *utils.Hand
	bet   int64
	acted bool
	done  bool
}

// Session is one player's blackjack game from wager to settlement. All
// access is serialized by the owning registry entry's lock.
type Session struct {
	userID     int64
	deck       *utils.Deck
	dealerHand *utils.Hand
	hands      []*handState
	active     int
	phase      Phase
	result     *Result
	createdAt  time.Time
	lastAction time.Time
}

// newSession deals the opening hands: player, dealer, player, dealer.
func newSession(userID int64, bet int64, deck *utils.Deck) *Session {
	now := time.Now()
	s := &Session{
		userID:     userID,
		deck:       deck,
		dealerHand: utils.NewHand(),
		hands:      []*handState{{hand: utils.NewHand(), bet: bet}},
		phase:      PhasePlayerTurn,
		createdAt:  now,
		lastAction: now,
	}

	s.hands[0].hand.AddCard(deck.Deal())
	s.dealerHand.AddCard(deck.Deal())
	s.hands[0].hand.AddCard(deck.Deal())
	s.dealerHand.AddCard(deck.Deal())

	return s
}

// apply runs one player action against the active hand. Ledger debits
// happen before any session mutation, so a failed withdrawal leaves the
// session exactly as it was.
func (s *Session) apply(ctx context.Context, ledger utils.Ledger, action Action) error {
	if s.phase != PhasePlayerTurn {
		return ErrIllegalAction
	}

	h := s.hands[s.active]

	switch action {
	case ActionHit:
		h.acted = true
		h.hand.AddCard(s.deck.Deal())
		s.lastAction = time.Now()
		// A hand at or over 21 has no choices left
		if h.hand.Value() >= utils.BlackjackTarget {
			return s.standActive(ctx, ledger)
		}
		return nil

	case ActionStand:
		h.acted = true
		s.lastAction = time.Now()
		return s.standActive(ctx, ledger)

	case ActionDouble:
		if h.acted || h.hand.Size() != 2 {
			return ErrIllegalAction
		}
		if err := ledger.Withdraw(ctx, s.userID, h.bet); err != nil {
			return err
		}
		h.acted = true
		h.bet *= 2
		h.hand.AddCard(s.deck.Deal())
		s.lastAction = time.Now()
		return s.standActive(ctx, ledger)

	case ActionSplit:
		if h.acted || !h.hand.CanSplit() {
			return ErrIllegalAction
		}
		if err := ledger.Withdraw(ctx, s.userID, h.bet); err != nil {
			return err
		}
		first, second := h.hand.Split()
		first.AddCard(s.deck.Deal())
		second.AddCard(s.deck.Deal())

		s.hands[s.active] = &handState{hand: first, bet: h.bet}
		rest := append([]*handState{{hand: second, bet: h.bet}}, s.hands[s.active+1:]...)
		s.hands = append(s.hands[:s.active+1], rest...)
		s.lastAction = time.Now()
		return nil

	default:
		return ErrIllegalAction
	}
}

// standActive marks the active hand finished and either advances play to
// the next open hand or hands control to the dealer and settles.
func (s *Session) standActive(ctx context.Context, ledger utils.Ledger) error {
	s.hands[s.active].done = true

	for i, h := range s.hands {
		if !h.done {
			s.active = i
			return nil
		}
	}

	s.phase = PhaseDealerTurn
	s.playDealer()
	return s.settle(ctx, ledger)
}

// totalBet returns the sum of all wagers currently at risk
func (s *Session) totalBet() int64 {
	total := int64(0)
	for _, h := range s.hands {
		total += h.bet
	}
	return total
}
