package dto

// RegisterRequest is the request body for player registration.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"displayName" binding:"required,min=1,max=50"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the embedded user shape in auth responses.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	XP          int64  `json:"xp"`
}

// AuthResponse is the response body for register and login.
type AuthResponse struct {
	Token  string       `json:"token"`
	Expiry int64        `json:"expiry"` // Unix timestamp
	User   UserResponse `json:"user"`
}

// BetRequest is the request body for a direct wallet debit.
// SettlementID is optional; one is generated when absent.
type BetRequest struct {
	AmountCents  int64  `json:"amountCents" binding:"required,gt=0"`
	SettlementID string `json:"settlementId,omitempty" binding:"omitempty,max=100,settlement_id"`
}

// CreditRequest is the request body for a direct wallet credit (WIN).
type CreditRequest struct {
	AmountCents  int64  `json:"amountCents" binding:"required,gt=0"`
	SettlementID string `json:"settlementId,omitempty" binding:"omitempty,max=100,settlement_id"`
}

// AdminDepositRequest is the request body for an admin deposit.
// UserID targets another player's wallet; defaults to the caller.
type AdminDepositRequest struct {
	AmountCents int64   `json:"amountCents" binding:"required,gt=0"`
	UserID      *string `json:"userId,omitempty" binding:"omitempty,uuid"`
}

// BalanceResponse is the response body for balance-changing calls.
type BalanceResponse struct {
	BalanceCents int64 `json:"balanceCents"`
}

// DealRequest is the request body for starting a blackjack round.
type DealRequest struct {
	AmountCents int64 `json:"amountCents" binding:"required,gt=0"`
}
