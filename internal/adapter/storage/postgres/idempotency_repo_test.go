package postgres

import (
	"context"
	"testing"
	"time"

	"casino-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	log := &domain.IdempotencyLog{
		Key:           "bet:" + uuid.NewString(),
		UserID:        uuid.New(),
		TransactionID: uuid.New(),
		Kind:          domain.TransactionKindBet,
		AmountCents:   1000,
		ResponseJSON:  []byte(`{"balanceCents":9000}`),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(log.Key, log.UserID, log.TransactionID, log.Kind, log.AmountCents, log.ResponseJSON, log.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	key := "settle:" + uuid.NewString()
	userID := uuid.New()
	txID := uuid.New()
	created := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows([]string{"key", "user_id", "transaction_id", "kind", "amount_cents", "response_json", "created_at"}).
		AddRow(key, userID, txID, domain.TransactionKindWin, int64(4000), []byte(`{"balanceCents":13000}`), created)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs(key).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, txID, got.TransactionID)
	assert.Equal(t, domain.TransactionKindWin, got.Kind)
	assert.Equal(t, int64(4000), got.AmountCents)
	assert.JSONEq(t, `{"balanceCents":13000}`, string(got.ResponseJSON))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs("bet:missing").
		WillReturnRows(pgxmock.NewRows([]string{"key", "user_id", "transaction_id", "kind", "amount_cents", "response_json", "created_at"}))

	got, err := repo.Get(context.Background(), "bet:missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
