// Package evaluator ranks poker hands. It is pure: no state, no side
// effects, which keeps it trivial to property-test in isolation.
package evaluator

import (
	"fmt"
	"sort"

	"github.com/rpsholdem/server/internal/deck"
)

// Class is the hand rank class, ordered weakest to strongest.
type Class int

const (
	HighCard Class = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the conventional hand name
func (c Class) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandRank is a comparable hand strength: the rank class plus an ordered
// tiebreak sequence of card values, most significant first.
type HandRank struct {
	Class   Class
	Kickers []int
}

// String returns the conventional name of the hand
func (h HandRank) String() string {
	return h.Class.String()
}

// Compare orders two hand ranks. It returns >0 if a beats b, <0 if b beats
// a, and 0 on an exact tie. Kicker positions missing on one side compare as
// lower than any present value.
func Compare(a, b HandRank) int {
	if a.Class != b.Class {
		return int(a.Class) - int(b.Class)
	}

	n := len(a.Kickers)
	if len(b.Kickers) > n {
		n = len(b.Kickers)
	}
	for i := 0; i < n; i++ {
		ka, kb := -1, -1
		if i < len(a.Kickers) {
			ka = a.Kickers[i]
		}
		if i < len(b.Kickers) {
			kb = b.Kickers[i]
		}
		if ka != kb {
			return ka - kb
		}
	}
	return 0
}

// Evaluate returns the best five-card hand makeable from 5 to 7 cards by
// checking every five-card subset. For seven cards that is 21 subsets, small
// enough that the brute force stays constant-time in practice.
func Evaluate(cards []deck.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandRank{}, fmt.Errorf("evaluate requires 5 to 7 cards, got %d", len(cards))
	}

	best := HandRank{Class: -1}
	subset := make([]deck.Card, 5)
	pickFive(cards, subset, 0, 0, func(hand []deck.Card) {
		rank := EvaluateFive(hand)
		if best.Class < 0 || Compare(rank, best) > 0 {
			best = rank
		}
	})
	return best, nil
}

// pickFive visits every 5-card subset of cards in index order.
func pickFive(cards, subset []deck.Card, from, depth int, visit func([]deck.Card)) {
	if depth == 5 {
		visit(subset)
		return
	}
	for i := from; i <= len(cards)-(5-depth); i++ {
		subset[depth] = cards[i]
		pickFive(cards, subset, i+1, depth+1, visit)
	}
}

// EvaluateFive classifies exactly five cards.
func EvaluateFive(cards []deck.Card) HandRank {
	values := make([]int, 5)
	for i, c := range cards {
		values[i] = c.Value()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	counts := make(map[int]int, 5)
	for _, v := range values {
		counts[v]++
	}

	flush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	straight, high := straightHigh(values)

	switch {
	case flush && straight && high == int(deck.Ace):
		return HandRank{Class: RoyalFlush}
	case flush && straight:
		return HandRank{Class: StraightFlush, Kickers: []int{high}}
	}

	// Group distinct values by multiplicity. Values arrive in descending
	// order, so each group comes out in significance order already.
	byCount := func(n int) []int {
		var out []int
		for _, v := range values {
			if counts[v] == n && !contains(out, v) {
				out = append(out, v)
			}
		}
		return out
	}
	quads := byCount(4)
	trips := byCount(3)
	pairs := byCount(2)
	singles := byCount(1)

	switch {
	case len(quads) == 1:
		return HandRank{Class: FourOfAKind, Kickers: append(quads, singles...)}
	case len(trips) == 1 && len(pairs) == 1:
		return HandRank{Class: FullHouse, Kickers: []int{trips[0], pairs[0]}}
	case flush:
		return HandRank{Class: Flush, Kickers: values}
	case straight:
		return HandRank{Class: Straight, Kickers: []int{high}}
	case len(trips) == 1:
		return HandRank{Class: ThreeOfAKind, Kickers: append(trips, singles...)}
	case len(pairs) == 2:
		return HandRank{Class: TwoPair, Kickers: append(pairs, singles...)}
	case len(pairs) == 1:
		return HandRank{Class: Pair, Kickers: append(pairs, singles...)}
	default:
		return HandRank{Class: HighCard, Kickers: values}
	}
}

// straightHigh reports whether the descending values form a straight and,
// if so, its high card. The wheel (A-2-3-4-5) counts with the five high.
func straightHigh(values []int) (bool, int) {
	run := true
	for i := 1; i < len(values); i++ {
		if values[i-1] != values[i]+1 {
			run = false
			break
		}
	}
	if run {
		return true, values[0]
	}

	if values[0] == int(deck.Ace) &&
		values[1] == 5 && values[2] == 4 && values[3] == 3 && values[4] == 2 {
		return true, 5
	}
	return false, 0
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
