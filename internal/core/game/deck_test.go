package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck_52UniqueCards(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 52)

	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffle_IsPermutation(t *testing.T) {
	deck := NewDeck()
	shuffled := Shuffle(deck)

	require.Len(t, shuffled, len(deck))

	count := func(cards []Card) map[Card]int {
		m := make(map[Card]int)
		for _, c := range cards {
			m[c]++
		}
		return m
	}
	assert.Equal(t, count(deck), count(shuffled), "shuffle must preserve the multiset")
}

func TestShuffle_DoesNotMutateInput(t *testing.T) {
	deck := NewDeck()
	original := make([]Card, len(deck))
	copy(original, deck)

	_ = Shuffle(deck)

	assert.Equal(t, original, deck)
}

func TestCard_Value(t *testing.T) {
	tests := []struct {
		rank  Rank
		value int
	}{
		{RankAce, 11},
		{RankTwo, 2},
		{RankNine, 9},
		{RankTen, 10},
		{RankJack, 10},
		{RankQueen, 10},
		{RankKing, 10},
	}
	for _, tt := range tests {
		t.Run(string(tt.rank), func(t *testing.T) {
			assert.Equal(t, tt.value, Card{Rank: tt.rank, Suit: SuitSpades}.Value())
		})
	}
}
