// Package mocks provides hand-written test doubles for the usecase
// interfaces. The in-memory defaults enforce the same guarantees the
// real storage layer does (conditional balance updates, the unique entry
// index, status compare-and-swap), and MockTx journals undo operations so
// a rollback really compensates, which lets the race-oriented tests run
// against real goroutines.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

// MockTx is a journaling transaction: mutations register undo closures
// that run on Rollback unless Commit happened first.
type MockTx struct {
	mu       sync.Mutex
	undo     []func()
	finished bool
}

func (t *MockTx) addUndo(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo = append(t.undo, fn)
}

func (t *MockTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = true
	t.undo = nil
	return nil
}

func (t *MockTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	return nil
}

// MockTxManager hands out journaling transactions.
type MockTxManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTx{}, nil
}

// MockIDGenerator generates sequential IDs unless overridden.
type MockIDGenerator struct {
	GenerateFunc func() string

	mu   sync.Mutex
	next int
}

func NewMockIDGenerator() *MockIDGenerator { return &MockIDGenerator{} }

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "id-" + itoa(m.next)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// MockUserRepository is an in-memory UserRepository with an atomic,
// non-negative-guarded balance adjustment.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User

	CreateFunc        func(ctx context.Context, user *domain.User) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.User, error)
	AdjustBalanceFunc func(ctx context.Context, tx usecase.Transaction, userID string, delta int64) (int64, error)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Seed(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.Seed(user)
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, tx usecase.Transaction, userID string, delta int64) (int64, error) {
	if m.AdjustBalanceFunc != nil {
		return m.AdjustBalanceFunc(ctx, tx, userID, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if u.Balance+delta < 0 {
		return 0, domain.ErrInsufficientBalance
	}
	u.Balance += delta
	if mt, ok := tx.(*MockTx); ok && mt != nil {
		mt.addUndo(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if cur, ok := m.users[userID]; ok {
				cur.Balance -= delta
			}
		})
	}
	return u.Balance, nil
}

// Balance reads the current stored balance directly.
func (m *MockUserRepository) Balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return u.Balance
	}
	return 0
}

// MockWagerRepository is an in-memory WagerRepository whose UpdateStatusIf
// is a true compare-and-swap under a mutex.
type MockWagerRepository struct {
	mu     sync.Mutex
	wagers map[string]*domain.Wager

	CreateFunc                func(ctx context.Context, wager *domain.Wager) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Wager, error)
	GetByIDForUpdateFunc      func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wager, error)
	ListFunc                  func(ctx context.Context, filter usecase.WagerFilter) ([]*domain.Wager, error)
	ListByUserFunc            func(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error)
	ListExpiredOpenFunc       func(ctx context.Context, now time.Time, limit int) ([]*domain.Wager, error)
	ListUnsettledResolvedFunc func(ctx context.Context, limit int) ([]*domain.Wager, error)
	UpdateStatusIfFunc        func(ctx context.Context, tx usecase.Transaction, id string, from []domain.WagerStatus, to domain.WagerStatus, winningSide *domain.Side, at time.Time) (bool, error)
}

func NewMockWagerRepository() *MockWagerRepository {
	return &MockWagerRepository{wagers: make(map[string]*domain.Wager)}
}

func (m *MockWagerRepository) Seed(w *domain.Wager) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wagers[w.ID] = w
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *domain.Wager) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, wager)
	}
	m.Seed(wager)
	return nil
}

func (m *MockWagerRepository) getCopy(id string) (*domain.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wagers[id]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, domain.ErrWagerNotFound
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id string) (*domain.Wager, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return m.getCopy(id)
}

func (m *MockWagerRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wager, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.getCopy(id)
}

func (m *MockWagerRepository) List(ctx context.Context, filter usecase.WagerFilter) ([]*domain.Wager, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Wager
	for _, w := range m.wagers {
		if filter.Status != nil && w.Status != *filter.Status {
			continue
		}
		copied := *w
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockWagerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *MockWagerRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*domain.Wager, error) {
	if m.ListExpiredOpenFunc != nil {
		return m.ListExpiredOpenFunc(ctx, now, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Wager
	for _, w := range m.wagers {
		if w.Status == domain.WagerStatusOpen && !now.Before(w.Deadline) {
			copied := *w
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockWagerRepository) ListUnsettledResolved(ctx context.Context, limit int) ([]*domain.Wager, error) {
	if m.ListUnsettledResolvedFunc != nil {
		return m.ListUnsettledResolvedFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Wager
	for _, w := range m.wagers {
		if w.Status == domain.WagerStatusResolved {
			copied := *w
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockWagerRepository) UpdateStatusIf(ctx context.Context, tx usecase.Transaction, id string, from []domain.WagerStatus, to domain.WagerStatus, winningSide *domain.Side, at time.Time) (bool, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, tx, id, from, to, winningSide, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wagers[id]
	if !ok {
		return false, domain.ErrWagerNotFound
	}
	matched := false
	for _, s := range from {
		if w.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	prevStatus, prevSide := w.Status, w.WinningSide
	w.Status = to
	if winningSide != nil {
		side := *winningSide
		w.WinningSide = &side
	}
	w.UpdatedAt = at
	if mt, ok := tx.(*MockTx); ok && mt != nil {
		mt.addUndo(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if cur, ok := m.wagers[id]; ok {
				cur.Status = prevStatus
				cur.WinningSide = prevSide
			}
		})
	}
	return true, nil
}

// MockEntryRepository is an in-memory EntryRepository enforcing the
// (wager_id, user_id) unique constraint.
type MockEntryRepository struct {
	mu      sync.Mutex
	entries map[string]*domain.Entry // keyed by wagerID+"/"+userID

	CreateFunc               func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	ExistsFunc               func(ctx context.Context, wagerID, userID string) (bool, error)
	ListByWagerFunc          func(ctx context.Context, wagerID string) ([]*domain.Entry, error)
	ListByWagerForUpdateFunc func(ctx context.Context, tx usecase.Transaction, wagerID string) ([]*domain.Entry, error)
	ListByUserFunc           func(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{entries: make(map[string]*domain.Entry)}
}

func entryKey(wagerID, userID string) string { return wagerID + "/" + userID }

func (m *MockEntryRepository) Seed(e *domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entryKey(e.WagerID, e.UserID)] = e
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entryKey(entry.WagerID, entry.UserID)
	if _, exists := m.entries[key]; exists {
		return domain.ErrAlreadyJoined
	}
	m.entries[key] = entry
	if mt, ok := tx.(*MockTx); ok && mt != nil {
		mt.addUndo(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.entries, key)
		})
	}
	return nil
}

func (m *MockEntryRepository) Exists(ctx context.Context, wagerID, userID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, wagerID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[entryKey(wagerID, userID)]
	return ok, nil
}

func (m *MockEntryRepository) listByWager(wagerID string) []*domain.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Entry
	for _, e := range m.entries {
		if e.WagerID == wagerID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out
}

func (m *MockEntryRepository) ListByWager(ctx context.Context, wagerID string) ([]*domain.Entry, error) {
	if m.ListByWagerFunc != nil {
		return m.ListByWagerFunc(ctx, wagerID)
	}
	return m.listByWager(wagerID), nil
}

func (m *MockEntryRepository) ListByWagerForUpdate(ctx context.Context, tx usecase.Transaction, wagerID string) ([]*domain.Entry, error) {
	if m.ListByWagerForUpdateFunc != nil {
		return m.ListByWagerForUpdateFunc(ctx, tx, wagerID)
	}
	return m.listByWager(wagerID), nil
}

func (m *MockEntryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MockTransactionRepository is an in-memory append-only transaction log.
type MockTransactionRepository struct {
	mu   sync.Mutex
	txns []*domain.Transaction

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	ListByUserFunc            func(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
	SumByUserAndTypeSinceFunc func(ctx context.Context, userID string, txType domain.TransactionType, since time.Time) (int64, error)
	CheckConsistencyFunc      func(ctx context.Context) (int64, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns = append(m.txns, txn)
	if mt, ok := tx.(*MockTx); ok && mt != nil {
		id := txn.ID
		mt.addUndo(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, t := range m.txns {
				if t.ID == id {
					m.txns = append(m.txns[:i], m.txns[i+1:]...)
					break
				}
			}
		})
	}
	return nil
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) SumByUserAndTypeSince(ctx context.Context, userID string, txType domain.TransactionType, since time.Time) (int64, error) {
	if m.SumByUserAndTypeSinceFunc != nil {
		return m.SumByUserAndTypeSinceFunc(ctx, userID, txType, since)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.txns {
		if t.UserID == userID && t.Type == txType && !t.CreatedAt.Before(since) {
			if t.Amount < 0 {
				sum -= t.Amount
			} else {
				sum += t.Amount
			}
		}
	}
	return sum, nil
}

func (m *MockTransactionRepository) CheckConsistency(ctx context.Context) (int64, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}
	return 0, nil
}

// SumFor totals the signed amounts recorded for one user.
func (m *MockTransactionRepository) SumFor(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.txns {
		if t.UserID == userID {
			sum += t.Amount
		}
	}
	return sum
}

// CountByType counts recorded transactions of one type.
func (m *MockTransactionRepository) CountByType(txType domain.TransactionType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.txns {
		if t.Type == txType {
			n++
		}
	}
	return n
}
