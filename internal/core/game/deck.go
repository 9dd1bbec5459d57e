package game

import "math/rand"

var suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

var ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

// NewDeck returns the 52 distinct (rank, suit) cards in a fixed order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle returns a uniformly random permutation of the deck
// (Fisher-Yates). The input is not modified. There is no seed
// parameter: rounds need fairness, not reproducibility.
func Shuffle(deck []Card) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	for i := len(out) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
