package handler

import (
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user profile endpoints.
type UserHandler struct {
	profileSvc ports.ProfileService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(profileSvc ports.ProfileService) *UserHandler {
	return &UserHandler{profileSvc: profileSvc}
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.profileSvc.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}
