package blackjack

import "strings"

// Hand is an ordered sequence of cards held by the player or the dealer.
type Hand []Card

// Clone returns an independent copy of the hand. A nil hand clones to an
// empty, non-nil hand so snapshots always serialise as a JSON array.
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	copy(out, h)
	return out
}

// Value returns the hand's best value. See BestValue.
func (h Hand) Value() int {
	return BestValue(h)
}

// IsBlackjack reports whether the hand is a natural: two cards totalling 21.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && BestValue(h) == 21
}

// String renders the hand as space-separated cards.
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// BestValue returns the highest total not above 21 over every assignment of
// 1 or 11 to each ace. When every assignment busts it returns the smallest
// total, which is the sum with all aces counted as 1.
//
// At most one ace can count as 11 without busting (two would add 22), so the
// enumeration reduces to trying the all-ones sum plus 10.
func BestValue(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		total += c.Value()
		if c.Rank == Ace {
			aces++
		}
	}
	if aces > 0 && total+10 <= 21 {
		return total + 10
	}
	return total
}
