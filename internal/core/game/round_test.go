package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riggedRound builds an idle round whose deck deals the scripted cards
// in order: player's two cards, dealer's two cards, then any further
// draws. Padding keeps the deck above the reshuffle threshold.
func riggedRound(script ...Card) *Round {
	deck := make([]Card, 0, len(script)+reshuffleThreshold)
	deck = append(deck, script...)
	for len(deck) < reshuffleThreshold+4 {
		deck = append(deck, card(RankTwo))
	}
	return &Round{Deck: deck, Status: StatusIdle}
}

func TestRound_Deal_EntersPlayerTurn(t *testing.T) {
	r := riggedRound(card(RankFive), card(RankSix), card(RankTen), card(RankSeven))

	require.NoError(t, r.Deal(1000))

	assert.Equal(t, StatusPlayerTurn, r.Status)
	assert.Equal(t, int64(1000), r.ActiveBetCents)
	assert.Len(t, r.PlayerHand, 2)
	assert.Len(t, r.DealerHand, 2)
	assert.Equal(t, OutcomeNone, r.Outcome)
}

func TestRound_Deal_RejectsNonPositiveBet(t *testing.T) {
	r := NewRound()
	assert.Error(t, r.Deal(0))
	assert.Error(t, r.Deal(-5))
	assert.Equal(t, StatusIdle, r.Status)
}

func TestRound_Deal_RejectsMidRound(t *testing.T) {
	r := riggedRound(card(RankFive), card(RankSix), card(RankTen), card(RankSeven))
	require.NoError(t, r.Deal(1000))

	assert.Error(t, r.Deal(1000), "deal during playerTurn must fail")
}

func TestRound_Deal_ReshufflesShortDeck(t *testing.T) {
	r := &Round{Deck: NewDeck()[:reshuffleThreshold-1], Status: StatusIdle}

	require.NoError(t, r.Deal(100))

	// Fresh 52-card deck minus the 4 dealt cards.
	assert.Len(t, r.Deck, 48)
}

func TestRound_Deal_PlayerBlackjackShortCircuits(t *testing.T) {
	r := riggedRound(card(RankAce), card(RankKing), card(RankTen), card(RankSeven))

	require.NoError(t, r.Deal(2000))

	assert.Equal(t, StatusRoundOver, r.Status)
	assert.Equal(t, OutcomePlayerBlackjack, r.Outcome)
	assert.Equal(t, int64(4000), r.Outcome.CreditCents(r.ActiveBetCents))
}

func TestRound_Deal_DealerBlackjackShortCircuits(t *testing.T) {
	r := riggedRound(card(RankTen), card(RankSeven), card(RankAce), card(RankQueen))

	require.NoError(t, r.Deal(2000))

	assert.Equal(t, StatusRoundOver, r.Status)
	assert.Equal(t, OutcomeDealerWin, r.Outcome)
	assert.Equal(t, int64(0), r.Outcome.CreditCents(r.ActiveBetCents))
}

func TestRound_Deal_DoubleBlackjackIsPush(t *testing.T) {
	r := riggedRound(card(RankAce), card(RankKing), card(RankAce), card(RankQueen))

	require.NoError(t, r.Deal(2000))

	assert.Equal(t, OutcomePush, r.Outcome)
	assert.Equal(t, int64(2000), r.Outcome.CreditCents(r.ActiveBetCents))
}

func TestRound_Hit_BustEndsRound(t *testing.T) {
	// Player 10+7, dealer 10+7, player draws a king: 27, bust.
	r := riggedRound(
		card(RankTen), card(RankSeven),
		card(RankTen), card(RankSeven),
		card(RankKing),
	)
	require.NoError(t, r.Deal(1000))
	require.NoError(t, r.Hit())

	assert.Equal(t, StatusRoundOver, r.Status)
	assert.Equal(t, OutcomeDealerWin, r.Outcome)
	assert.True(t, HandValue(r.PlayerHand).IsBust)
}

func TestRound_Hit_ContinuesBelowBust(t *testing.T) {
	r := riggedRound(
		card(RankFive), card(RankSix),
		card(RankTen), card(RankSeven),
		card(RankFive),
	)
	require.NoError(t, r.Deal(1000))
	require.NoError(t, r.Hit())

	assert.Equal(t, StatusPlayerTurn, r.Status)
	assert.Len(t, r.PlayerHand, 3)
}

func TestRound_Hit_RequiresPlayerTurn(t *testing.T) {
	r := NewRound()
	assert.Error(t, r.Hit())
	assert.Error(t, r.Stand())
}

func TestRound_Stand_DealerDrawsTo17(t *testing.T) {
	// Dealer starts at 2+2=4 and draws twos until reaching 17 or more.
	r := riggedRound(
		card(RankTen), card(RankNine),
		card(RankTwo), card(RankTwo),
	)
	require.NoError(t, r.Deal(1000))
	require.NoError(t, r.Stand())

	dInfo := HandValue(r.DealerHand)
	assert.GreaterOrEqual(t, dInfo.Total, 17, "dealer must not stop below 17")

	// The dealer stood as soon as 17 was reached: removing the last
	// drawn card must leave a total below 17.
	withoutLast := r.DealerHand[:len(r.DealerHand)-1]
	assert.Less(t, HandValue(withoutLast).Total, 17, "dealer must not draw once at 17")
}

func TestRound_Stand_PlayerWinsOnHigherTotal(t *testing.T) {
	// Player 19, dealer 17: no draws, player wins.
	r := riggedRound(
		card(RankTen), card(RankNine),
		card(RankTen), card(RankSeven),
	)
	require.NoError(t, r.Deal(1500))
	require.NoError(t, r.Stand())

	assert.Equal(t, OutcomePlayerWin, r.Outcome)
	assert.Equal(t, int64(3000), r.Outcome.CreditCents(r.ActiveBetCents))
}

func TestRound_Stand_DealerWinsOnHigherTotal(t *testing.T) {
	// Player 17, dealer 19.
	r := riggedRound(
		card(RankTen), card(RankSeven),
		card(RankTen), card(RankNine),
	)
	require.NoError(t, r.Deal(1500))
	require.NoError(t, r.Stand())

	assert.Equal(t, OutcomeDealerWin, r.Outcome)
	assert.Equal(t, int64(0), r.Outcome.CreditCents(r.ActiveBetCents))
}

func TestRound_Stand_EqualTotalsPush(t *testing.T) {
	// Player 18, dealer 18.
	r := riggedRound(
		card(RankTen), card(RankEight),
		card(RankTen), card(RankEight),
	)
	require.NoError(t, r.Deal(700))
	require.NoError(t, r.Stand())

	assert.Equal(t, OutcomePush, r.Outcome)
	assert.Equal(t, int64(700), r.Outcome.CreditCents(r.ActiveBetCents))
}

func TestRound_Stand_DealerBustPaysPlayer(t *testing.T) {
	// Dealer 10+6 draws a king: 26, bust.
	r := riggedRound(
		card(RankTen), card(RankEight),
		card(RankTen), card(RankSix),
		card(RankKing),
	)
	require.NoError(t, r.Deal(1000))
	require.NoError(t, r.Stand())

	assert.Equal(t, OutcomePlayerWin, r.Outcome)
	assert.True(t, HandValue(r.DealerHand).IsBust)
}

func TestRound_DealAgainAfterRoundOver(t *testing.T) {
	r := riggedRound(
		card(RankTen), card(RankEight),
		card(RankTen), card(RankEight),
	)
	require.NoError(t, r.Deal(700))
	require.NoError(t, r.Stand())
	require.Equal(t, StatusRoundOver, r.Status)

	require.NoError(t, r.Deal(500))
	assert.Contains(t, []Status{StatusPlayerTurn, StatusRoundOver}, r.Status)
	assert.Equal(t, int64(500), r.ActiveBetCents)
}

func TestOutcome_Kind(t *testing.T) {
	assert.Equal(t, "PUSH", OutcomePush.Kind())
	assert.Equal(t, "WIN", OutcomePlayerWin.Kind())
	assert.Equal(t, "WIN", OutcomePlayerBlackjack.Kind())
}
