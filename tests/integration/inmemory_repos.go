package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"casino-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) IncrementXP(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.XP += delta
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) EnsureForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[userID]
	if !ok {
		now := time.Now()
		w = &domain.Wallet{UserID: userID, BalanceCents: 0, CreatedAt: now, UpdatedAt: now}
		r.wallets[userID] = w
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balanceCents int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if balanceCents < 0 {
		return fmt.Errorf("balance check violation")
	}
	w, ok := r.wallets[userID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.BalanceCents = balanceCents
	w.UpdatedAt = time.Now()
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	users        *inMemoryUserRepo
	transactions []*domain.Transaction
	settlements  map[string]bool
}

func newInMemoryTransactionRepo(users *inMemoryUserRepo) *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		users:       users,
		settlements: make(map[string]bool),
	}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.SettlementID != nil {
		if r.settlements[*t.SettlementID] {
			return fmt.Errorf("duplicate settlement id")
		}
		r.settlements[*t.SettlementID] = true
	}
	cp := *t
	r.transactions = append(r.transactions, &cp)
	return nil
}

func (r *inMemoryTransactionRepo) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, t := range r.transactions {
		if t.UserID == userID {
			sum += t.AmountCents
		}
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) LatestWins(ctx context.Context, limit int) ([]domain.LatestWin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var wins []domain.LatestWin
	for _, t := range r.transactions {
		if t.Kind != domain.TransactionKindWin {
			continue
		}
		name := ""
		if u, _ := r.users.GetByID(ctx, t.UserID); u != nil {
			name = u.DisplayName
		}
		game := ""
		if t.GameRef != nil {
			game = *t.GameRef
		}
		wins = append(wins, domain.LatestWin{
			ID:          t.ID,
			DisplayName: name,
			AmountCents: t.AmountCents,
			Game:        game,
			CreatedAt:   t.CreatedAt,
		})
	}
	sort.Slice(wins, func(i, j int) bool { return wins[i].CreatedAt.After(wins[j].CreatedAt) })
	if len(wins) > limit {
		wins = wins[:limit]
	}
	return wins, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[log.Key]; ok {
		return fmt.Errorf("duplicate idempotency key")
	}
	cp := *log
	r.logs[log.Key] = &cp
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// --- In-Memory Settlement Repo ---

type inMemorySettlementRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.PendingSettlement
}

func newInMemorySettlementRepo() *inMemorySettlementRepo {
	return &inMemorySettlementRepo{rows: make(map[string]*domain.PendingSettlement)}
}

func (r *inMemorySettlementRepo) Create(ctx context.Context, s *domain.PendingSettlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.SettlementID]; ok {
		return fmt.Errorf("duplicate pending settlement")
	}
	cp := *s
	r.rows[s.SettlementID] = &cp
	return nil
}

func (r *inMemorySettlementRepo) ClaimDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.PendingSettlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []domain.PendingSettlement
	for _, s := range r.rows {
		if s.Status == domain.SettlementStatusPending && !s.NextRetryAt.After(now) {
			due = append(due, *s)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (r *inMemorySettlementRepo) MarkApplied(ctx context.Context, settlementID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[settlementID]
	if !ok {
		return fmt.Errorf("pending settlement not found")
	}
	s.Status = domain.SettlementStatusApplied
	s.UpdatedAt = time.Now()
	return nil
}

func (r *inMemorySettlementRepo) RecordAttempt(ctx context.Context, tx pgx.Tx, settlementID string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[settlementID]
	if !ok {
		return fmt.Errorf("pending settlement not found")
	}
	s.Attempts++
	s.NextRetryAt = nextRetryAt
	s.UpdatedAt = time.Now()
	return nil
}

func (r *inMemorySettlementRepo) MarkAbandoned(ctx context.Context, tx pgx.Tx, settlementID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[settlementID]
	if !ok {
		return fmt.Errorf("pending settlement not found")
	}
	s.Status = domain.SettlementStatusAbandoned
	s.UpdatedAt = time.Now()
	return nil
}

func (r *inMemorySettlementRepo) get(settlementID string) *domain.PendingSettlement {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[settlementID]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex, the
// in-memory stand-in for the row lock the real store takes with
// SELECT ... FOR UPDATE. Begin blocks until the previous transaction
// commits or rolls back.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockedTx{release: &t.mu}, nil
}

// lockedTx is a pgx.Tx that holds the transactor lock until finished.
// Rollback after Commit is a no-op, matching pgx semantics.
type lockedTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *lockedTx) finish() {
	t.once.Do(func() { t.release.Unlock() })
}

func (t *lockedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockedTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *lockedTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *lockedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockedTx) Conn() *pgx.Conn { return nil }
