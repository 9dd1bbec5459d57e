package ports

import (
	"context"
	"time"

	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/game"

	"github.com/google/uuid"
)

// --- Ledger ---

// DebitParams is the validated input of a Debit call.
type DebitParams struct {
	UserID       uuid.UUID
	AmountCents  int64
	SettlementID string // idempotency key; required
	GameRef      string
}

// CreditParams is the validated input of a Credit call.
type CreditParams struct {
	UserID       uuid.UUID
	AmountCents  int64
	Kind         domain.TransactionKind
	GameRef      string
	SettlementID string // idempotency key; required
	// ActorRole is the role of the caller, not necessarily the wallet
	// owner. ADMIN_DEPOSIT demands RoleAdmin.
	ActorRole domain.Role
}

// LedgerResult is the outcome of a successful ledger operation.
type LedgerResult struct {
	BalanceCents  int64     `json:"balanceCents"`
	TransactionID uuid.UUID `json:"transactionId"`
}

// LedgerService is the only component allowed to mutate a wallet or
// append a transaction. Both operations are atomic, idempotent on the
// settlement id, and keep the balance non-negative.
type LedgerService interface {
	Debit(ctx context.Context, p DebitParams) (*LedgerResult, error)
	Credit(ctx context.Context, p CreditParams) (*LedgerResult, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
}

// --- Game / settlement ---

// RoundView is the player-facing snapshot of a round.
type RoundView struct {
	Status         game.Status  `json:"status"`
	PlayerHand     []game.Card  `json:"playerHand"`
	DealerHand     []game.Card  `json:"dealerHand"`
	PlayerTotal    int          `json:"playerTotal"`
	DealerTotal    int          `json:"dealerTotal"`
	ActiveBetCents int64        `json:"activeBetCents"`
	Outcome        game.Outcome `json:"outcome,omitempty"`
	BalanceCents   int64        `json:"balanceCents"`
}

// GameService drives blackjack rounds and their settlement: debit-first
// on deal, exactly zero or one credit once a round reaches roundOver.
type GameService interface {
	CurrentRound(ctx context.Context, userID uuid.UUID) (*RoundView, error)
	Deal(ctx context.Context, userID uuid.UUID, betCents int64) (*RoundView, error)
	Hit(ctx context.Context, userID uuid.UUID) (*RoundView, error)
	Stand(ctx context.Context, userID uuid.UUID) (*RoundView, error)
}

// SettlementRetrier retries pending settlements; implemented by the
// reconciliation worker's service side.
type SettlementRetrier interface {
	// RetryDue applies due pending settlements. Returns how many were
	// successfully applied.
	RetryDue(ctx context.Context, now time.Time) (int, error)
}

// --- Auth ---

// RegisterParams is the validated input for user registration.
type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
}

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, p RegisterParams) (*domain.User, string, time.Time, error) // user, token, expiry
	Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error)
}

// TokenService handles JWT operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// --- Read models ---

// FeedService serves the public latest-wins feed.
type FeedService interface {
	LatestWins(ctx context.Context) ([]domain.LatestWin, error)
}

// ProfileService serves the authenticated user profile.
type ProfileService interface {
	Me(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// Profile is the /users/me response model.
type Profile struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	DisplayName   string      `json:"displayName"`
	Role          domain.Role `json:"role"`
	WalletBalance int64       `json:"walletBalance"`
	XP            int64       `json:"xp"`
}
