package game

import "fmt"

// Status is the state of a round's state machine.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusPlayerTurn Status = "playerTurn"
	StatusDealerTurn Status = "dealerTurn"
	StatusRoundOver  Status = "roundOver"
)

// Outcome is a terminal round result.
type Outcome string

const (
	OutcomeNone            Outcome = ""
	OutcomePlayerBlackjack Outcome = "playerBlackjack"
	OutcomePlayerWin       Outcome = "playerWin"
	OutcomeDealerWin       Outcome = "dealerWin"
	OutcomePush            Outcome = "push"
)

const (
	// Dealer draws while its total is below this, stands otherwise.
	// Soft and hard 17 are not distinguished.
	dealerStandTotal = 17

	// A round starting with fewer cards than this reshuffles a fresh deck.
	reshuffleThreshold = 15
)

// CreditCents returns the credit the ledger owes for this outcome given
// the round's active bet. Zero means the debited bet is the full loss.
// A natural blackjack pays 2x the bet, the same as any other win.
func (o Outcome) CreditCents(betCents int64) int64 {
	switch o {
	case OutcomePlayerBlackjack, OutcomePlayerWin:
		return 2 * betCents
	case OutcomePush:
		return betCents
	default:
		return 0
	}
}

// Kind maps the outcome to the transaction kind its credit carries.
func (o Outcome) Kind() string {
	if o == OutcomePush {
		return "PUSH"
	}
	return "WIN"
}

// Round is the single-owner state of one blackjack round. It owns no
// money: ActiveBetCents records what the caller already debited, and
// terminal outcomes only report what credit to request.
type Round struct {
	Deck           []Card  `json:"-"`
	PlayerHand     []Card  `json:"playerHand"`
	DealerHand     []Card  `json:"dealerHand"`
	Status         Status  `json:"status"`
	ActiveBetCents int64   `json:"activeBetCents"`
	Outcome        Outcome `json:"outcome,omitempty"`
}

// NewRound returns an idle round with a freshly shuffled deck.
func NewRound() *Round {
	return &Round{
		Deck:   Shuffle(NewDeck()),
		Status: StatusIdle,
	}
}

// Deal starts a round for a bet the caller has already debited. Two
// cards go to each side; a natural blackjack on either side ends the
// round immediately.
func (r *Round) Deal(betCents int64) error {
	if r.Status != StatusIdle && r.Status != StatusRoundOver {
		return fmt.Errorf("deal: round in progress (status %s)", r.Status)
	}
	if betCents <= 0 {
		return fmt.Errorf("deal: bet must be positive, got %d", betCents)
	}

	if len(r.Deck) < reshuffleThreshold {
		r.Deck = Shuffle(NewDeck())
	}

	r.PlayerHand = []Card{r.draw(), r.draw()}
	r.DealerHand = []Card{r.draw(), r.draw()}
	r.ActiveBetCents = betCents
	r.Status = StatusPlayerTurn
	r.Outcome = OutcomeNone

	pInfo := HandValue(r.PlayerHand)
	dInfo := HandValue(r.DealerHand)

	switch {
	case pInfo.IsBlackjack && dInfo.IsBlackjack:
		r.finish(OutcomePush)
	case pInfo.IsBlackjack:
		r.finish(OutcomePlayerBlackjack)
	case dInfo.IsBlackjack:
		r.finish(OutcomeDealerWin)
	}

	return nil
}

// Hit draws one card for the player. A bust ends the round with no credit.
func (r *Round) Hit() error {
	if r.Status != StatusPlayerTurn {
		return fmt.Errorf("hit: not the player's turn (status %s)", r.Status)
	}

	r.PlayerHand = append(r.PlayerHand, r.draw())

	if HandValue(r.PlayerHand).IsBust {
		r.finish(OutcomeDealerWin)
	}
	return nil
}

// Stand ends the player's turn; the dealer draws to 17 or more and the
// outcome is computed from the final totals.
func (r *Round) Stand() error {
	if r.Status != StatusPlayerTurn {
		return fmt.Errorf("stand: not the player's turn (status %s)", r.Status)
	}

	r.Status = StatusDealerTurn

	dInfo := HandValue(r.DealerHand)
	for dInfo.Total < dealerStandTotal {
		r.DealerHand = append(r.DealerHand, r.draw())
		dInfo = HandValue(r.DealerHand)
	}

	pInfo := HandValue(r.PlayerHand)

	switch {
	case dInfo.IsBust:
		r.finish(OutcomePlayerWin)
	case pInfo.Total > dInfo.Total:
		r.finish(OutcomePlayerWin)
	case pInfo.Total < dInfo.Total:
		r.finish(OutcomeDealerWin)
	default:
		r.finish(OutcomePush)
	}
	return nil
}

func (r *Round) finish(o Outcome) {
	r.Status = StatusRoundOver
	r.Outcome = o
}

func (r *Round) draw() Card {
	if len(r.Deck) == 0 {
		r.Deck = Shuffle(NewDeck())
	}
	c := r.Deck[0]
	r.Deck = r.Deck[1:]
	return c
}
