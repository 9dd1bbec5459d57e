package handler

import (
	"casino-ledger/internal/adapter/http/dto"
	"casino-ledger/internal/adapter/http/middleware"
	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"
	"casino-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// blackjackGameRef tags direct win credits so they show up in the feed.
const blackjackGameRef = "Blackjack"

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
	feedSvc   ports.FeedService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService, feedSvc ports.FeedService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc, feedSvc: feedSvc}
}

// Bet handles POST /api/v1/wallet/bet — a direct debit against the
// caller's wallet, outside any game round.
func (h *WalletHandler) Bet(c *gin.Context) {
	var req dto.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	userID := currentUserID(c)
	settlementID := req.SettlementID
	if settlementID == "" {
		settlementID = domain.BuildBetSettlementID(uuid.New())
	}

	result, err := h.ledgerSvc.Debit(c.Request.Context(), ports.DebitParams{
		UserID:       userID,
		AmountCents:  req.AmountCents,
		SettlementID: settlementID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{BalanceCents: result.BalanceCents})
}

// Credit handles POST /api/v1/wallet/credit — a direct WIN credit to
// the caller's wallet.
func (h *WalletHandler) Credit(c *gin.Context) {
	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	userID := currentUserID(c)
	settlementID := req.SettlementID
	if settlementID == "" {
		settlementID = domain.BuildCreditSettlementID(uuid.New())
	}

	result, err := h.ledgerSvc.Credit(c.Request.Context(), ports.CreditParams{
		UserID:       userID,
		AmountCents:  req.AmountCents,
		Kind:         domain.TransactionKindWin,
		GameRef:      blackjackGameRef,
		SettlementID: settlementID,
		ActorRole:    currentRole(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{BalanceCents: result.BalanceCents})
}

// AdminDeposit handles POST /api/v1/wallet/admin-deposit. The target
// wallet defaults to the caller; an explicit userId may name another
// player.
func (h *WalletHandler) AdminDeposit(c *gin.Context) {
	var req dto.AdminDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	targetID := currentUserID(c)
	if req.UserID != nil {
		parsed, err := uuid.Parse(*req.UserID)
		if err != nil {
			response.Error(c, apperror.Validation("userId must be a valid UUID"))
			return
		}
		targetID = parsed
	}

	result, err := h.ledgerSvc.Credit(c.Request.Context(), ports.CreditParams{
		UserID:       targetID,
		AmountCents:  req.AmountCents,
		Kind:         domain.TransactionKindAdminDeposit,
		SettlementID: domain.BuildCreditSettlementID(uuid.New()),
		ActorRole:    currentRole(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{BalanceCents: result.BalanceCents})
}

// Balance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.ledgerSvc.Balance(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceResponse{BalanceCents: balance})
}

// LatestWins handles GET /api/v1/wallet/latest-wins. Public.
func (h *WalletHandler) LatestWins(c *gin.Context) {
	wins, err := h.feedSvc.LatestWins(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if wins == nil {
		wins = []domain.LatestWin{}
	}
	response.OK(c, wins)
}

func currentUserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(middleware.CtxUserID)
	id, _ := v.(uuid.UUID)
	return id
}

func currentRole(c *gin.Context) domain.Role {
	v, _ := c.Get(middleware.CtxRole)
	role, _ := v.(domain.Role)
	return role
}
