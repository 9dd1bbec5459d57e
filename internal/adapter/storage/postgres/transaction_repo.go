package postgres

import (
	"context"
	"fmt"

	"casino-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The ledger log
// is append-only: there is deliberately no update or delete here.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction. A
// duplicate settlement_id violates the partial unique index and fails
// the whole atomic unit.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, user_id, kind, amount_cents, game_ref, settlement_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.Kind, t.AmountCents, t.GameRef, t.SettlementID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SumByUser returns the signed sum of a user's transaction amounts.
func (r *TransactionRepo) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE user_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}

// LatestWins returns the newest positive WIN entries, newest first.
func (r *TransactionRepo) LatestWins(ctx context.Context, limit int) ([]domain.LatestWin, error) {
	query := `SELECT t.id, u.display_name, t.amount_cents, COALESCE(t.game_ref, ''), t.created_at
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		WHERE t.kind = 'WIN' AND t.amount_cents > 0
		ORDER BY t.created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest wins: %w", err)
	}
	defer rows.Close()

	wins := make([]domain.LatestWin, 0, limit)
	for rows.Next() {
		var w domain.LatestWin
		if err := rows.Scan(&w.ID, &w.DisplayName, &w.AmountCents, &w.Game, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan latest win: %w", err)
		}
		wins = append(wins, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latest wins: %w", err)
	}
	return wins, nil
}
