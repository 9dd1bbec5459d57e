package handler

import (
	"casino-ledger/internal/adapter/http/dto"
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"
	"casino-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// GameHandler handles blackjack endpoints.
type GameHandler struct {
	gameSvc ports.GameService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(gameSvc ports.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// CurrentRound handles GET /api/v1/game/blackjack.
func (h *GameHandler) CurrentRound(c *gin.Context) {
	view, err := h.gameSvc.CurrentRound(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Deal handles POST /api/v1/game/blackjack/deal.
func (h *GameHandler) Deal(c *gin.Context) {
	var req dto.DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	view, err := h.gameSvc.Deal(c.Request.Context(), currentUserID(c), req.AmountCents)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Hit handles POST /api/v1/game/blackjack/hit.
func (h *GameHandler) Hit(c *gin.Context) {
	view, err := h.gameSvc.Hit(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Stand handles POST /api/v1/game/blackjack/stand.
func (h *GameHandler) Stand(c *gin.Context) {
	view, err := h.gameSvc.Stand(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
