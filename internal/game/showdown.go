package game

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rpsholdem/server/internal/deck"
	"github.com/rpsholdem/server/internal/evaluator"
)

// Settlement is the result of comparing hands at showdown.
type Settlement struct {
	// Winners holds the IDs of every player achieving the best hand, in
	// seat-position order.
	Winners []string
	// Payouts maps player ID to pot share. The integer remainder of the
	// split goes to the winner with the lowest seat position, so the
	// shares always sum to the pot exactly.
	Payouts map[string]int
	Best    evaluator.HandRank
	// Summary is a human-readable result line, e.g.
	// "Alice wins 120 with Full House".
	Summary string
}

// Showdown evaluates every contender's best hand against the board and
// splits the pot among the winner set.
func Showdown(pot int, contenders []*Player, community []deck.Card) (Settlement, error) {
	if len(contenders) == 0 {
		return Settlement{}, fmt.Errorf("showdown with no contenders")
	}

	bySeat := append([]*Player(nil), contenders...)
	sort.Slice(bySeat, func(i, j int) bool {
		return bySeat[i].Position < bySeat[j].Position
	})

	best := evaluator.HandRank{Class: -1}
	ranks := make(map[string]evaluator.HandRank, len(bySeat))
	for _, p := range bySeat {
		cards := append(append([]deck.Card(nil), p.HoleCards...), community...)
		rank, err := evaluator.Evaluate(cards)
		if err != nil {
			return Settlement{}, fmt.Errorf("evaluating %s: %w", p.Name, err)
		}
		ranks[p.ID] = rank
		if best.Class < 0 || evaluator.Compare(rank, best) > 0 {
			best = rank
		}
	}

	settlement := Settlement{
		Payouts: make(map[string]int),
		Best:    best,
	}
	var names []string
	for _, p := range bySeat {
		if evaluator.Compare(ranks[p.ID], best) == 0 {
			settlement.Winners = append(settlement.Winners, p.ID)
			names = append(names, p.Name)
		}
	}

	share := pot / len(settlement.Winners)
	remainder := pot - share*len(settlement.Winners)
	for i, id := range settlement.Winners {
		settlement.Payouts[id] = share
		if i == 0 {
			settlement.Payouts[id] += remainder
		}
	}

	if len(names) == 1 {
		settlement.Summary = fmt.Sprintf("%s wins %d with %s", names[0], pot, best)
	} else {
		settlement.Summary = fmt.Sprintf("%s split %d with %s", strings.Join(names, " and "), pot, best)
	}
	return settlement, nil
}
