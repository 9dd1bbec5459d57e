package service

import (
	"context"
	"fmt"

	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// ProfileServiceImpl implements ports.ProfileService.
type ProfileServiceImpl struct {
	userRepo ports.UserRepository
	ledger   ports.LedgerService
}

// NewProfileService creates a new ProfileServiceImpl.
func NewProfileService(userRepo ports.UserRepository, ledger ports.LedgerService) *ProfileServiceImpl {
	return &ProfileServiceImpl{
		userRepo: userRepo,
		ledger:   ledger,
	}
}

// Me returns the authenticated user's profile with the live balance.
func (s *ProfileServiceImpl) Me(ctx context.Context, userID uuid.UUID) (*ports.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.StorageFailure(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ports.Profile{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		Role:          user.Role,
		WalletBalance: balance,
		XP:            user.XP,
	}, nil
}
