package utils

import (
	"math/rand"
	"time"
)

// Card represents a playing card
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// NewCard creates a new card
func NewCard(rank, suit string) Card {
	return Card{
		Rank: rank,
		Suit: suit,
	}
}

// String returns the string representation of a card
func (c Card) String() string {
	return c.Rank + " " + c.Suit
}

// Value returns the blackjack value of the card (ace counts as 11)
func (c Card) Value() int {
	if value, exists := CardRanks[c.Rank]; exists {
		return value
	}
	return 0
}

// IsAce checks if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == "A"
}

// IsTen checks if the card has a value of 10 (10, J, Q, K)
func (c Card) IsTen() bool {
	return c.Rank == "10" || c.Rank == "J" || c.Rank == "Q" || c.Rank == "K"
}

// Deck represents a single 52-card deck in a random permutation
type Deck struct {
	Cards      []Card `json:"cards"`
	DealtCards int    `json:"dealt_cards"`
	rng        *rand.Rand
}

// NewDeck creates a shuffled 52-card deck
func NewDeck() *Deck {
	deck := &Deck{
		Cards: make([]Card, 0, 52),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	ranks := []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	for _, suit := range CardSuits {
		for _, rank := range ranks {
			deck.Cards = append(deck.Cards, NewCard(rank, suit))
		}
	}

	deck.Shuffle()
	return deck
}

// NewOrderedDeck creates a deck that deals the given cards in order.
// Used by tests that need a known sequence.
func NewOrderedDeck(cards ...Card) *Deck {
	owned := make([]Card, len(cards))
	copy(owned, cards)
	return &Deck{Cards: owned}
}

// Shuffle shuffles the undealt deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
	d.DealtCards = 0
}

// Deal deals one card from the deck. A single blackjack session can
// never legally consume all 52 cards, so an empty deck means the session
// state is corrupt and we fail loudly instead of recycling cards.
func (d *Deck) Deal() Card {
	if d.DealtCards >= len(d.Cards) {
		panic("blackjack: deal from empty deck")
	}

	card := d.Cards[d.DealtCards]
	d.DealtCards++
	return card
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.Cards) - d.DealtCards
}

// Hand represents a hand of playing cards
type Hand struct {
	Cards []Card `json:"cards"`
}

// NewHand creates a new empty hand
func NewHand() *Hand {
	return &Hand{
		Cards: make([]Card, 0, 6),
	}
}

// AddCard adds a card to the hand
func (h *Hand) AddCard(card Card) {
	h.Cards = append(h.Cards, card)
}

// Value calculates the blackjack hand value with Ace handling: aces are
// counted as 11 first, then softened to 1 one at a time while the total
// is over 21.
func (h *Hand) Value() int {
	total := 0
	aces := 0

	for _, card := range h.Cards {
		if card.IsAce() {
			aces++
		}
		total += card.Value()
	}

	for aces > 0 && total > BlackjackTarget {
		total -= 10
		aces--
	}

	return total
}

// String returns string representation of the hand
func (h *Hand) String() string {
	result := ""
	for i, card := range h.Cards {
		if i > 0 {
			result += ", "
		}
		result += card.String()
	}
	return result
}

// IsBust checks if the hand is over 21
func (h *Hand) IsBust() bool {
	return h.Value() > BlackjackTarget
}

// IsSoft checks if the hand contains an ace still counted as 11
func (h *Hand) IsSoft() bool {
	total := 0
	hasUsableAce := false

	for _, card := range h.Cards {
		if card.IsAce() {
			if total+11 <= BlackjackTarget {
				total += 11
				hasUsableAce = true
			} else {
				total++
			}
		} else {
			total += card.Value()
		}
	}

	return hasUsableAce && total <= BlackjackTarget
}

// CanSplit checks if the hand can be split (exactly two cards of the
// same rank)
func (h *Hand) CanSplit() bool {
	return len(h.Cards) == 2 && h.Cards[0].Rank == h.Cards[1].Rank
}

// Split separates a two-card hand into two one-card hands
func (h *Hand) Split() (*Hand, *Hand) {
	first := NewHand()
	second := NewHand()
	first.AddCard(h.Cards[0])
	second.AddCard(h.Cards[1])
	return first, second
}

// Size returns the number of cards in the hand
func (h *Hand) Size() int {
	return len(h.Cards)
}
