package blackjack

import (
	"context"
	"fmt"

	"slixk-casino/utils"
)

// Outcome is the result of a single player hand against the dealer
type Outcome int

const (
	OutcomeBust Outcome = iota
	OutcomeWin
	OutcomePush
	OutcomeLose
)

// String returns the table-side announcement for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeBust:
		return "Bust!"
	case OutcomeWin:
		return "You Win!"
	case OutcomePush:
		return "Push!"
	case OutcomeLose:
		return "House Wins!"
	default:
		return "unknown"
	}
}

// HandResult is the settled result of one player hand
type HandResult struct {
	Outcome Outcome
	Total   int
	Bet     int64
	Payout  int64
}

// Result is the structured settlement of a whole session
type Result struct {
	Hands         []HandResult
	DealerCards   []utils.Card
	DealerTotal   int
	TotalCredited int64
}

// playDealer runs the house policy: draw while the hand value is below
// 17. The softened value is what gets compared, so the dealer keeps
// drawing on soft totals under 17 and stands on any 17 or better.
func (s *Session) playDealer() {
	for s.dealerHand.Value() < utils.DealerStandValue {
		s.dealerHand.AddCard(s.deck.Deal())
	}
}

// settle compares every player hand against the dealer's final total,
// credits winnings, and moves the session to its terminal phase. A win
// pays back double the hand's wager, a push returns it, everything else
// was forfeited when the wager was reserved. A 21 off the deal gets no
// bonus; it settles like any other 21.
func (s *Session) settle(ctx context.Context, ledger utils.Ledger) error {
	s.phase = PhaseResolved

	dealerTotal := s.dealerHand.Value()
	result := &Result{
		Hands:       make([]HandResult, 0, len(s.hands)),
		DealerCards: s.dealerHand.Cards,
		DealerTotal: dealerTotal,
	}

	for _, h := range s.hands {
		total := h.hand.Value()

		var outcome Outcome
		var payout int64
		switch {
		case total > utils.BlackjackTarget:
			outcome = OutcomeBust
		case dealerTotal > utils.BlackjackTarget || total > dealerTotal:
			outcome = OutcomeWin
			payout = 2 * h.bet
		case total == dealerTotal:
			outcome = OutcomePush
			payout = h.bet
		default:
			outcome = OutcomeLose
		}

		result.Hands = append(result.Hands, HandResult{
			Outcome: outcome,
			Total:   total,
			Bet:     h.bet,
			Payout:  payout,
		})
	}

	s.result = result

	// One credit per winning or pushed hand. The session is already
	// terminal at this point; a failed deposit is an infrastructure
	// error, not a replayable game state.
	for i := range result.Hands {
		payout := result.Hands[i].Payout
		if payout == 0 {
			continue
		}
		if err := ledger.Deposit(ctx, s.userID, payout); err != nil {
			return fmt.Errorf("settlement deposit for hand %d: %w", i+1, err)
		}
		result.TotalCredited += payout
	}

	return nil
}
