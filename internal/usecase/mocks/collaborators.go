package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

// MockWithdrawalRepository is an in-memory WithdrawalRepository with CAS
// status transitions.
type MockWithdrawalRepository struct {
	mu          sync.Mutex
	withdrawals map[string]*domain.Withdrawal

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, w *domain.Withdrawal) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Withdrawal, error)
	GetByReferenceFunc   func(ctx context.Context, reference string) (*domain.Withdrawal, error)
	UpdateStatusIfFunc   func(ctx context.Context, id string, from, to domain.WithdrawalStatus, failureReason string, at time.Time) (bool, error)
	SetTransferCodesFunc func(ctx context.Context, id, recipientCode, transferCode string, at time.Time) error
	ListByUserFunc       func(ctx context.Context, userID string, limit, offset int) ([]*domain.Withdrawal, error)
}

func NewMockWithdrawalRepository() *MockWithdrawalRepository {
	return &MockWithdrawalRepository{withdrawals: make(map[string]*domain.Withdrawal)}
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.Withdrawal) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, w)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *w
	m.withdrawals[w.ID] = &copied
	if mt, ok := tx.(*MockTx); ok && mt != nil {
		id := w.ID
		mt.addUndo(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.withdrawals, id)
		})
	}
	return nil
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.withdrawals[id]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) GetByReference(ctx context.Context, reference string) (*domain.Withdrawal, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.withdrawals {
		if w.Reference == reference {
			copied := *w
			return &copied, nil
		}
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.WithdrawalStatus, failureReason string, at time.Time) (bool, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, id, from, to, failureReason, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return false, domain.ErrWithdrawalNotFound
	}
	if w.Status != from {
		return false, nil
	}
	w.Status = to
	if failureReason != "" {
		w.FailureReason = failureReason
	}
	w.UpdatedAt = at
	return true, nil
}

func (m *MockWithdrawalRepository) SetTransferCodes(ctx context.Context, id, recipientCode, transferCode string, at time.Time) error {
	if m.SetTransferCodesFunc != nil {
		return m.SetTransferCodesFunc(ctx, id, recipientCode, transferCode, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.withdrawals[id]; ok {
		w.RecipientCode = recipientCode
		w.TransferCode = transferCode
		w.UpdatedAt = at
	}
	return nil
}

func (m *MockWithdrawalRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Withdrawal, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Withdrawal
	for _, w := range m.withdrawals {
		if w.UserID == userID {
			copied := *w
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Status reads the stored status directly.
func (m *MockWithdrawalRepository) Status(id string) domain.WithdrawalStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.withdrawals[id]; ok {
		return w.Status
	}
	return ""
}

// MockSettingRepository returns canned settings rows.
type MockSettingRepository struct {
	ListFunc func(ctx context.Context) ([]domain.Setting, int64, error)
}

func NewMockSettingRepository() *MockSettingRepository { return &MockSettingRepository{} }

func (m *MockSettingRepository) List(ctx context.Context) ([]domain.Setting, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, 1, nil
}

// StaticSettings is a fixed SettingsProvider for tests.
type StaticSettings struct {
	Settings domain.Settings
}

func (s StaticSettings) Snapshot() domain.Settings { return s.Settings }

// MockCache records invalidations; GetOrFetch always calls the loader.
type MockCache struct {
	mu               sync.Mutex
	DeletedKeys      []string
	DeletedPrefixes  []string
	GetOrFetchFunc   func(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error)
	LoaderCallCounts map[string]int
}

func NewMockCache() *MockCache {
	return &MockCache{LoaderCallCounts: make(map[string]int)}
}

func (m *MockCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if m.GetOrFetchFunc != nil {
		return m.GetOrFetchFunc(ctx, key, ttl, loader)
	}
	m.mu.Lock()
	m.LoaderCallCounts[key]++
	m.mu.Unlock()
	return loader(ctx)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedKeys = append(m.DeletedKeys, keys...)
	return nil
}

func (m *MockCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedPrefixes = append(m.DeletedPrefixes, prefix)
	return nil
}

// HasDeletedPrefix reports whether the prefix was invalidated.
func (m *MockCache) HasDeletedPrefix(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.DeletedPrefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

// MockTransferClient simulates the external transfer processor.
type MockTransferClient struct {
	CreateRecipientFunc  func(ctx context.Context, account domain.BankAccount) (string, error)
	InitiateTransferFunc func(ctx context.Context, recipientCode string, amount int64, reference string) (string, error)
}

func NewMockTransferClient() *MockTransferClient { return &MockTransferClient{} }

func (m *MockTransferClient) CreateRecipient(ctx context.Context, account domain.BankAccount) (string, error) {
	if m.CreateRecipientFunc != nil {
		return m.CreateRecipientFunc(ctx, account)
	}
	return "RCP_test", nil
}

func (m *MockTransferClient) InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference string) (string, error) {
	if m.InitiateTransferFunc != nil {
		return m.InitiateTransferFunc(ctx, recipientCode, amount, reference)
	}
	return "TRF_test", nil
}

// MockResolver proposes canned outcomes.
type MockResolver struct {
	ProposeOutcomeFunc func(ctx context.Context, wager *domain.Wager) (*domain.OutcomeProposal, error)
}

func NewMockResolver() *MockResolver { return &MockResolver{} }

func (m *MockResolver) ProposeOutcome(ctx context.Context, wager *domain.Wager) (*domain.OutcomeProposal, error) {
	if m.ProposeOutcomeFunc != nil {
		return m.ProposeOutcomeFunc(ctx, wager)
	}
	return &domain.OutcomeProposal{}, nil
}

// MockNotifier records dispatched notifications.
type MockNotifier struct {
	mu     sync.Mutex
	Events []NotifiedEvent

	NotifyFunc func(ctx context.Context, userID, event string, payload map[string]any) error
}

// NotifiedEvent is one recorded notification.
type NotifiedEvent struct {
	UserID  string
	Event   string
	Payload map[string]any
}

func NewMockNotifier() *MockNotifier { return &MockNotifier{} }

func (m *MockNotifier) Notify(ctx context.Context, userID, event string, payload map[string]any) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, userID, event, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, NotifiedEvent{UserID: userID, Event: event, Payload: payload})
	return nil
}

// CountEvents counts notifications of one event type.
func (m *MockNotifier) CountEvents(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// MockDedupStore marks keys once, in memory.
type MockDedupStore struct {
	mu   sync.Mutex
	seen map[string]bool

	MarkOnceFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ForgetFunc   func(ctx context.Context, key string) error
}

func NewMockDedupStore() *MockDedupStore {
	return &MockDedupStore{seen: make(map[string]bool)}
}

func (m *MockDedupStore) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.MarkOnceFunc != nil {
		return m.MarkOnceFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *MockDedupStore) Forget(ctx context.Context, key string) error {
	if m.ForgetFunc != nil {
		return m.ForgetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}
