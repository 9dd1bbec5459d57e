package service

import (
	"context"
	"fmt"
	"time"

	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/ports"
	"casino-ledger/pkg/apperror"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo ports.UserRepository
	tokenSvc ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(userRepo ports.UserRepository, tokenSvc ports.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo: userRepo,
		tokenSvc: tokenSvc,
	}
}

// Register creates a player account and logs it in. The wallet row is
// created lazily on the first ledger touch.
func (s *AuthServiceImpl) Register(ctx context.Context, p ports.RegisterParams) (*domain.User, string, time.Time, error) {
	existing, err := s.userRepo.GetByEmail(ctx, p.Email)
	if err != nil {
		return nil, "", time.Time{}, apperror.StorageFailure(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, "", time.Time{}, apperror.ErrEmailExists()
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        p.Email,
		PasswordHash: string(passwordHash),
		DisplayName:  p.DisplayName,
		Role:         domain.RolePlayer,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperror.StorageFailure(fmt.Errorf("create user: %w", err))
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return user, token, expiry, nil
}

// Login validates credentials and returns the user with a JWT.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, apperror.StorageFailure(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return user, token, expiry, nil
}
