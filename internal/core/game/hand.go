package game

// HandInfo is the blackjack score of a hand.
type HandInfo struct {
	Total       int
	IsBust      bool
	IsBlackjack bool
}

// HandValue scores a hand. Each ace initially counts as 11; while the
// total exceeds 21 and an unsoftened ace remains, 10 is subtracted per
// softened ace. [A, A, 9] therefore scores 21: 11+11+9=31, one ace
// softened to 1. Blackjack is exactly two cards totalling 21.
func HandValue(hand []Card) HandInfo {
	total := 0
	aces := 0

	for _, c := range hand {
		total += c.Value()
		if c.Rank == RankAce {
			aces++
		}
	}

	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}

	return HandInfo{
		Total:       total,
		IsBust:      total > 21,
		IsBlackjack: len(hand) == 2 && total == 21,
	}
}
