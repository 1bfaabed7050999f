// Package ledgertest provides in-memory fakes of the store and
// repositories for exercising the engine and settlement worker without a
// database. WithinTx serializes callers and rolls state back when the
// unit of work fails, matching the store's atomicity guarantee.
package ledgertest

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
)

type FakeDB struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account
	byNumber map[string]int64
	txns     map[string]*domain.Transaction
	goals    map[int64]*domain.SavingsGoal
	outbox   []domain.OutboxMessage
	nextID   int64
}

func NewFakeDB() *FakeDB {
	return &FakeDB{
		accounts: map[int64]*domain.Account{},
		byNumber: map[string]int64{},
		txns:     map[string]*domain.Transaction{},
		goals:    map[int64]*domain.SavingsGoal{},
		nextID:   1,
	}
}

// AddAccount seeds an account and returns its assigned id.
func (db *FakeDB) AddAccount(a domain.Account) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	a.ID = db.nextID
	db.nextID++
	db.accounts[a.ID] = &a
	db.byNumber[a.AccountNumber] = a.ID
	return a.ID
}

func (db *FakeDB) AddGoal(g domain.SavingsGoal) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	g.ID = db.nextID
	db.nextID++
	db.goals[g.ID] = &g
	return g.ID
}

func (db *FakeDB) Balance(accountNumber string) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.accounts[db.byNumber[accountNumber]].Balance
}

func (db *FakeDB) Goal(id int64) domain.SavingsGoal {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.goals[id]
}

func (db *FakeDB) Transaction(transactionID string) (domain.Transaction, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	txn, ok := db.txns[transactionID]
	if !ok {
		return domain.Transaction{}, false
	}
	return *txn, true
}

// BackdateTransaction rewrites a stored transaction's creation time so
// tests can simulate transfers that sat in flight for a while.
func (db *FakeDB) BackdateTransaction(transactionID string, createdAt time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if txn, ok := db.txns[transactionID]; ok {
		txn.CreatedAt = createdAt
	}
}

func (db *FakeDB) OutboxMessages() []domain.OutboxMessage {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.OutboxMessage(nil), db.outbox...)
}

// Store returns a storage.Store-compatible view of the fake.
func (db *FakeDB) Store() *FakeStore {
	return &FakeStore{db: db}
}

type FakeStore struct {
	db *FakeDB
}

func (s *FakeStore) Querier() domain.Querier {
	return nil
}

// WithinTx holds the fake's lock for the whole unit of work and restores
// the previous state if fn fails, so partial effects never leak.
func (s *FakeStore) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snap := s.db.snapshot()
	if err := fn(nil); err != nil {
		s.db.restore(snap)
		return err
	}
	return nil
}

type dbSnapshot struct {
	accounts map[int64]domain.Account
	txns     map[string]domain.Transaction
	goals    map[int64]domain.SavingsGoal
	outbox   []domain.OutboxMessage
}

func (db *FakeDB) snapshot() dbSnapshot {
	snap := dbSnapshot{
		accounts: map[int64]domain.Account{},
		txns:     map[string]domain.Transaction{},
		goals:    map[int64]domain.SavingsGoal{},
		outbox:   append([]domain.OutboxMessage(nil), db.outbox...),
	}
	for id, a := range db.accounts {
		snap.accounts[id] = *a
	}
	for id, t := range db.txns {
		snap.txns[id] = *t
	}
	for id, g := range db.goals {
		snap.goals[id] = *g
	}
	return snap
}

func (db *FakeDB) restore(snap dbSnapshot) {
	db.accounts = map[int64]*domain.Account{}
	for id, a := range snap.accounts {
		a := a
		db.accounts[id] = &a
	}
	db.txns = map[string]*domain.Transaction{}
	for id, t := range snap.txns {
		t := t
		db.txns[id] = &t
	}
	db.goals = map[int64]*domain.SavingsGoal{}
	for id, g := range snap.goals {
		g := g
		db.goals[id] = &g
	}
	db.outbox = snap.outbox
}

// Accounts returns an accounts_repo.AccountRepository backed by the fake.
func (db *FakeDB) Accounts() *FakeAccountRepo { return &FakeAccountRepo{db: db} }

type FakeAccountRepo struct {
	db *FakeDB
}

func (r *FakeAccountRepo) Create(ctx context.Context, q domain.Querier, account *domain.Account) error {
	if _, exists := r.db.byNumber[account.AccountNumber]; exists {
		return domain.ErrAccountAlreadyExists
	}
	account.ID = r.db.nextID
	r.db.nextID++
	copy := *account
	r.db.accounts[copy.ID] = &copy
	r.db.byNumber[copy.AccountNumber] = copy.ID
	return nil
}

func (r *FakeAccountRepo) GetByNumber(ctx context.Context, q domain.Querier, accountNumber string) (*domain.Account, error) {
	return r.GetByNumberForUpdate(ctx, q, accountNumber)
}

func (r *FakeAccountRepo) GetByNumberForUpdate(ctx context.Context, q domain.Querier, accountNumber string) (*domain.Account, error) {
	id, ok := r.db.byNumber[accountNumber]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copy := *r.db.accounts[id]
	return &copy, nil
}

func (r *FakeAccountRepo) GetByIDForUpdate(ctx context.Context, q domain.Querier, id int64) (*domain.Account, error) {
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copy := *a
	return &copy, nil
}

func (r *FakeAccountRepo) ApplyBalanceChange(ctx context.Context, q domain.Querier, accountID int64, delta decimal.Decimal) error {
	a, ok := r.db.accounts[accountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	return nil
}

func (r *FakeAccountRepo) Close(ctx context.Context, q domain.Querier, accountID int64) error {
	a, ok := r.db.accounts[accountID]
	if !ok || !a.Balance.IsZero() {
		return domain.ErrAccountNotFound
	}
	now := time.Now()
	a.Status = domain.AccountStatusClosed
	a.ClosedAt = &now
	return nil
}

// Transactions returns a transactions_repo.TransactionRepository backed
// by the fake.
func (db *FakeDB) Transactions() *FakeTransactionRepo { return &FakeTransactionRepo{db: db} }

type FakeTransactionRepo struct {
	db *FakeDB
}

func (r *FakeTransactionRepo) Create(ctx context.Context, q domain.Querier, txn *domain.Transaction) error {
	copy := *txn
	r.db.txns[copy.TransactionID] = &copy
	return nil
}

func (r *FakeTransactionRepo) GetByTransactionID(ctx context.Context, q domain.Querier, transactionID string) (*domain.Transaction, error) {
	return r.GetByTransactionIDForUpdate(ctx, q, transactionID)
}

func (r *FakeTransactionRepo) GetByTransactionIDForUpdate(ctx context.Context, q domain.Querier, transactionID string) (*domain.Transaction, error) {
	txn, ok := r.db.txns[transactionID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	copy := *txn
	return &copy, nil
}

func (r *FakeTransactionRepo) ListProcessingBefore(ctx context.Context, q domain.Querier, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Transaction
	for _, txn := range r.db.txns {
		if txn.Status == domain.TransactionStatusProcessing && !txn.CreatedAt.After(cutoff) {
			out = append(out, *txn)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *FakeTransactionRepo) CompleteProcessing(ctx context.Context, q domain.Querier, transactionID, receiptNumber string) (bool, error) {
	txn, ok := r.db.txns[transactionID]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if txn.Status != domain.TransactionStatusProcessing {
		return false, nil
	}
	now := time.Now()
	txn.Status = domain.TransactionStatusCompleted
	txn.ReceiptNumber = receiptNumber
	txn.ProcessedAt = &now
	return true, nil
}

func (r *FakeTransactionRepo) FinalizeProcessing(ctx context.Context, q domain.Querier, transactionID string, status domain.TransactionStatus, failureReason string) (bool, error) {
	txn, ok := r.db.txns[transactionID]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if txn.Status != domain.TransactionStatusProcessing {
		return false, nil
	}
	now := time.Now()
	txn.Status = status
	txn.FailureReason = failureReason
	txn.ProcessedAt = &now
	return true, nil
}

// Goals returns a goals_repo.SavingsGoalRepository backed by the fake.
func (db *FakeDB) Goals() *FakeGoalRepo { return &FakeGoalRepo{db: db} }

type FakeGoalRepo struct {
	db *FakeDB
}

func (r *FakeGoalRepo) Create(ctx context.Context, q domain.Querier, goal *domain.SavingsGoal) error {
	goal.ID = r.db.nextID
	r.db.nextID++
	copy := *goal
	r.db.goals[copy.ID] = &copy
	return nil
}

func (r *FakeGoalRepo) GetForMemberForUpdate(ctx context.Context, q domain.Querier, goalID, memberID int64) (*domain.SavingsGoal, error) {
	g, ok := r.db.goals[goalID]
	if !ok || g.MemberID != memberID {
		return nil, domain.ErrSavingsGoalNotFound
	}
	copy := *g
	return &copy, nil
}

func (r *FakeGoalRepo) Update(ctx context.Context, q domain.Querier, goal *domain.SavingsGoal) error {
	if _, ok := r.db.goals[goal.ID]; !ok {
		return domain.ErrSavingsGoalNotFound
	}
	copy := *goal
	r.db.goals[goal.ID] = &copy
	return nil
}

// Outbox returns an outbox_repo.OutboxRepository backed by the fake.
func (db *FakeDB) Outbox() *FakeOutboxRepo { return &FakeOutboxRepo{db: db} }

type FakeOutboxRepo struct {
	db *FakeDB
}

func (r *FakeOutboxRepo) CreateMessage(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error {
	r.db.outbox = append(r.db.outbox, *msg)
	return nil
}

func (r *FakeOutboxRepo) GetPendingMessages(ctx context.Context, q domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	var out []domain.OutboxMessage
	for _, msg := range r.db.outbox {
		if msg.Status == domain.OutboxStatusPending {
			out = append(out, msg)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *FakeOutboxRepo) UpdateMessageStatus(ctx context.Context, q domain.Querier, id string, status domain.OutboxMessageStatus) error {
	for i := range r.db.outbox {
		if r.db.outbox[i].ID == id {
			r.db.outbox[i].Status = status
			return nil
		}
	}
	return domain.ErrTransactionNotFound
}
