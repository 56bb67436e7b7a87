package game

// PlayerResult is the settlement computed for one player by a round
// resolution.
type PlayerResult struct {
	PlayerID string
	Symbol   Symbol
	Owed     int
	// Paid is the amount actually staked after the all-in clamp.
	Paid   int
	Folds  bool
	Busted bool
}

// RoundResult is the outcome of resolving one betting round as a single
// atomic batch.
type RoundResult struct {
	RockCount int
	Total     int
	Players   []PlayerResult
}

// ResolveRound computes the settlement of a betting round. It is pure: the
// caller applies the returned result to its records.
//
// Active players with no recorded symbol default to paper. The rock count
// is taken over the whole batch before any per-player classification, so a
// partial view can never misclassify a call as a check.
//
// Per player: rock owes the bet amount (a raise); scissors owes bet ×
// rockCount when there are raises (a call of all of them) and nothing
// otherwise (a check); paper folds against any raise and checks otherwise.
// Owed amounts are clamped to the player's balance, and a balance reaching
// zero busts the player out of the game.
func ResolveRound(betAmount int, active []*Player, symbols map[string]Symbol) RoundResult {
	result := RoundResult{Players: make([]PlayerResult, 0, len(active))}

	resolved := make(map[string]Symbol, len(active))
	for _, p := range active {
		symbol, acted := symbols[p.ID]
		if !acted {
			symbol = Paper
		}
		resolved[p.ID] = symbol
		if symbol == Rock {
			result.RockCount++
		}
	}

	for _, p := range active {
		pr := PlayerResult{PlayerID: p.ID, Symbol: resolved[p.ID]}

		switch pr.Symbol {
		case Rock:
			pr.Owed = betAmount
		case Scissors:
			pr.Owed = betAmount * result.RockCount
		case Paper:
			pr.Folds = result.RockCount > 0
		}

		if pr.Owed > 0 {
			pr.Paid = pr.Owed
			if pr.Paid > p.Balance {
				pr.Paid = p.Balance
			}
			pr.Busted = p.Balance-pr.Paid == 0
			result.Total += pr.Paid
		}

		result.Players = append(result.Players, pr)
	}

	return result
}
