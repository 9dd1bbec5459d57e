package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"casino-ledger/internal/adapter/http/dto"
	"casino-ledger/internal/adapter/http/middleware"
	"casino-ledger/internal/core/domain"
	"casino-ledger/internal/core/game"
	"casino-ledger/internal/core/ports"
	"casino-ledger/internal/core/ports/mocks"
	"casino-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func authenticate(c *gin.Context, userID uuid.UUID, role domain.Role) {
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxRole, role)
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	userID := uuid.New()
	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterParams{
		Email:       "player@example.com",
		Password:    "password123",
		DisplayName: "Player One",
	}).Return(&domain.User{
		ID:          userID,
		Email:       "player@example.com",
		DisplayName: "Player One",
		Role:        domain.RolePlayer,
	}, "jwt-token-123", expiry, nil)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:       "player@example.com",
		Password:    "password123",
		DisplayName: "Player One",
	})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "jwt-token-123", resp["token"])
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, userID.String(), user["id"])
	assert.Equal(t, string(domain.RolePlayer), user["role"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	// Empty body => binding error
	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/register", map[string]string{})

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_EmailExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).
		Return(nil, "", time.Time{}, apperror.ErrEmailExists())

	c, w := newTestContext(t, http.MethodPost, "/", dto.RegisterRequest{
		Email:       "taken@example.com",
		Password:    "password123",
		DisplayName: "Player",
	})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "player@example.com", "password123").
		Return(&domain.User{ID: uuid.New(), Email: "player@example.com", Role: domain.RolePlayer}, "jwt-token-123", expiry, nil)

	c, w := newTestContext(t, http.MethodPost, "/", dto.LoginRequest{
		Email:    "player@example.com",
		Password: "password123",
	})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "jwt-token-123", resp["token"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "bad@example.com", "bad-password").
		Return(nil, "", time.Time{}, apperror.ErrInvalidCredentials())

	c, w := newTestContext(t, http.MethodPost, "/", dto.LoginRequest{
		Email:    "bad@example.com",
		Password: "bad-password",
	})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Wallet Handler Tests ---

func TestBet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	userID := uuid.New()
	mockLedger.EXPECT().Debit(gomock.Any(), ports.DebitParams{
		UserID:       userID,
		AmountCents:  1000,
		SettlementID: "bet:round-42",
	}).Return(&ports.LedgerResult{BalanceCents: 9000, TransactionID: uuid.New()}, nil)

	c, w := newTestContext(t, http.MethodPost, "/", dto.BetRequest{
		AmountCents:  1000,
		SettlementID: "bet:round-42",
	})
	authenticate(c, userID, domain.RolePlayer)

	h.Bet(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(9000), resp.BalanceCents)
}

func TestBet_GeneratesSettlementID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	userID := uuid.New()
	mockLedger.EXPECT().Debit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, p ports.DebitParams) (*ports.LedgerResult, error) {
			assert.NotEmpty(t, p.SettlementID)
			return &ports.LedgerResult{BalanceCents: 9000}, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/", dto.BetRequest{AmountCents: 1000})
	authenticate(c, userID, domain.RolePlayer)

	h.Bet(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBet_InsufficientFunds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	mockLedger.EXPECT().Debit(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientFunds())

	c, w := newTestContext(t, http.MethodPost, "/", dto.BetRequest{AmountCents: 999999})
	authenticate(c, uuid.New(), domain.RolePlayer)

	h.Bet(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "WAL_001", resp["error_code"])
}

func TestBet_InvalidBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), nil)

	c, w := newTestContext(t, http.MethodPost, "/", map[string]interface{}{"amountCents": -5})
	authenticate(c, uuid.New(), domain.RolePlayer)

	h.Bet(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCredit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	userID := uuid.New()
	mockLedger.EXPECT().Credit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, p ports.CreditParams) (*ports.LedgerResult, error) {
			assert.Equal(t, userID, p.UserID)
			assert.Equal(t, domain.TransactionKindWin, p.Kind)
			assert.Equal(t, "Blackjack", p.GameRef)
			assert.Equal(t, domain.RolePlayer, p.ActorRole)
			return &ports.LedgerResult{BalanceCents: 12000}, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/", dto.CreditRequest{AmountCents: 2000})
	authenticate(c, userID, domain.RolePlayer)

	h.Credit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(12000), resp.BalanceCents)
}

func TestCredit_DuplicateSettlement(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	mockLedger.EXPECT().Credit(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrDuplicateSettlement())

	c, w := newTestContext(t, http.MethodPost, "/", dto.CreditRequest{
		AmountCents:  2000,
		SettlementID: "settle:round-42",
	})
	authenticate(c, uuid.New(), domain.RolePlayer)

	h.Credit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminDeposit_DefaultsToCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	adminID := uuid.New()
	mockLedger.EXPECT().Credit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, p ports.CreditParams) (*ports.LedgerResult, error) {
			assert.Equal(t, adminID, p.UserID)
			assert.Equal(t, domain.TransactionKindAdminDeposit, p.Kind)
			assert.Equal(t, domain.RoleAdmin, p.ActorRole)
			return &ports.LedgerResult{BalanceCents: 50000}, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/", dto.AdminDepositRequest{AmountCents: 50000})
	authenticate(c, adminID, domain.RoleAdmin)

	h.AdminDeposit(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminDeposit_TargetsOtherUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	adminID := uuid.New()
	targetID := uuid.New()
	target := targetID.String()
	mockLedger.EXPECT().Credit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, p ports.CreditParams) (*ports.LedgerResult, error) {
			assert.Equal(t, targetID, p.UserID)
			return &ports.LedgerResult{BalanceCents: 50000}, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/", dto.AdminDepositRequest{
		AmountCents: 50000,
		UserID:      &target,
	})
	authenticate(c, adminID, domain.RoleAdmin)

	h.AdminDeposit(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBalance_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, nil)

	userID := uuid.New()
	mockLedger.EXPECT().Balance(gomock.Any(), userID).Return(int64(7500), nil)

	c, w := newTestContext(t, http.MethodGet, "/", nil)
	authenticate(c, userID, domain.RolePlayer)

	h.Balance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7500), resp.BalanceCents)
}

func TestLatestWins_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFeed := mocks.NewMockFeedService(ctrl)
	h := NewWalletHandler(nil, mockFeed)

	mockFeed.EXPECT().LatestWins(gomock.Any()).Return([]domain.LatestWin{
		{ID: uuid.New(), DisplayName: "Player One", AmountCents: 4000, CreatedAt: time.Now()},
	}, nil)

	c, w := newTestContext(t, http.MethodGet, "/", nil)

	h.LatestWins(c)

	assert.Equal(t, http.StatusOK, w.Code)
	// The body is a bare array, consumed directly by the feed widget.
	var wins []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wins))
	require.Len(t, wins, 1)
	assert.Equal(t, "Player One", wins[0]["displayName"])
	assert.Equal(t, float64(4000), wins[0]["amountCents"])
}

func TestLatestWins_EmptyIsArray(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFeed := mocks.NewMockFeedService(ctrl)
	h := NewWalletHandler(nil, mockFeed)

	mockFeed.EXPECT().LatestWins(gomock.Any()).Return(nil, nil)

	c, w := newTestContext(t, http.MethodGet, "/", nil)

	h.LatestWins(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

// --- Game Handler Tests ---

func TestDeal_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGame := mocks.NewMockGameService(ctrl)
	h := NewGameHandler(mockGame)

	userID := uuid.New()
	mockGame.EXPECT().Deal(gomock.Any(), userID, int64(1000)).Return(&ports.RoundView{
		Status:         game.StatusPlayerTurn,
		ActiveBetCents: 1000,
		BalanceCents:   9000,
	}, nil)

	c, w := newTestContext(t, http.MethodPost, "/", dto.DealRequest{AmountCents: 1000})
	authenticate(c, userID, domain.RolePlayer)

	h.Deal(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(game.StatusPlayerTurn), resp["status"])
}

func TestDeal_RoundInProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGame := mocks.NewMockGameService(ctrl)
	h := NewGameHandler(mockGame)

	mockGame.EXPECT().Deal(gomock.Any(), gomock.Any(), int64(1000)).
		Return(nil, apperror.ErrRoundState("round already in progress"))

	c, w := newTestContext(t, http.MethodPost, "/", dto.DealRequest{AmountCents: 1000})
	authenticate(c, uuid.New(), domain.RolePlayer)

	h.Deal(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHit_NoActiveRound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGame := mocks.NewMockGameService(ctrl)
	h := NewGameHandler(mockGame)

	mockGame.EXPECT().Hit(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrNoActiveRound())

	c, w := newTestContext(t, http.MethodPost, "/", nil)
	authenticate(c, uuid.New(), domain.RolePlayer)

	h.Hit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "GAME_002", resp["error_code"])
}

func TestStand_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGame := mocks.NewMockGameService(ctrl)
	h := NewGameHandler(mockGame)

	userID := uuid.New()
	mockGame.EXPECT().Stand(gomock.Any(), userID).Return(&ports.RoundView{
		Status:       game.StatusRoundOver,
		BalanceCents: 11000,
	}, nil)

	c, w := newTestContext(t, http.MethodPost, "/", nil)
	authenticate(c, userID, domain.RolePlayer)

	h.Stand(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentRound_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGame := mocks.NewMockGameService(ctrl)
	h := NewGameHandler(mockGame)

	userID := uuid.New()
	mockGame.EXPECT().CurrentRound(gomock.Any(), userID).Return(&ports.RoundView{
		Status:       game.StatusIdle,
		BalanceCents: 10000,
	}, nil)

	c, w := newTestContext(t, http.MethodGet, "/", nil)
	authenticate(c, userID, domain.RolePlayer)

	h.CurrentRound(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- User Handler Tests ---

func TestMe_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProfile := mocks.NewMockProfileService(ctrl)
	h := NewUserHandler(mockProfile)

	userID := uuid.New()
	mockProfile.EXPECT().Me(gomock.Any(), userID).Return(&ports.Profile{
		ID:            userID,
		Email:         "player@example.com",
		DisplayName:   "Player One",
		Role:          domain.RolePlayer,
		WalletBalance: 10000,
		XP:            250,
	}, nil)

	c, w := newTestContext(t, http.MethodGet, "/", nil)
	authenticate(c, userID, domain.RolePlayer)

	h.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, userID.String(), resp["id"])
	assert.Equal(t, float64(250), resp["xp"])
}

func TestMe_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProfile := mocks.NewMockProfileService(ctrl)
	h := NewUserHandler(mockProfile)

	mockProfile.EXPECT().Me(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	c, w := newTestContext(t, http.MethodGet, "/", nil)
	authenticate(c, uuid.New(), domain.RolePlayer)

	h.Me(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// --- Health Check Test ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(context.Context) error { return s.err }
func (s stubChecker) Name() string               { return s.name }

func TestHealthCheck_Healthy(t *testing.T) {
	c, w := newTestContext(t, http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgres"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	c, w := newTestContext(t, http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgres", err: errors.New("connection refused")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}
