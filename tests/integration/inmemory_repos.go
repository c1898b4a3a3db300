package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Merchant + Checkout Counter Store ---

// inMemoryStore backs both the merchant and checkout counter repositories so
// alias values land on the same records the merchants own.
type inMemoryStore struct {
	mu        sync.RWMutex
	merchants map[int64]*domain.Merchant
	nextID    int64
	nextCtrID int64
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{merchants: make(map[int64]*domain.Merchant)}
}

func copyMerchant(m *domain.Merchant) *domain.Merchant {
	cp := *m
	cp.DFSPs = append([]domain.DFSP(nil), m.DFSPs...)
	cp.CheckoutCounters = append([]domain.CheckoutCounter(nil), m.CheckoutCounters...)
	return &cp
}

func (s *inMemoryStore) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	for i := range m.CheckoutCounters {
		s.nextCtrID++
		m.CheckoutCounters[i].ID = s.nextCtrID
		m.CheckoutCounters[i].MerchantID = m.ID
	}
	s.merchants[m.ID] = copyMerchant(m)
	return nil
}

func (s *inMemoryStore) GetByID(ctx context.Context, id int64) (*domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.merchants[id]
	if !ok {
		return nil, nil
	}
	return copyMerchant(m), nil
}

func (s *inMemoryStore) GetManyByIDs(ctx context.Context, ids []int64) ([]domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Merchant
	for _, id := range ids {
		if m, ok := s.merchants[id]; ok {
			result = append(result, *copyMerchant(m))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *inMemoryStore) List(ctx context.Context, params ports.MerchantListParams) ([]domain.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Merchant
	for _, m := range s.merchants {
		if params.DFSPID != nil && !m.BelongsToDFSP(*params.DFSPID) {
			continue
		}
		if params.Status != nil && m.RegistrationStatus != *params.Status {
			continue
		}
		result = append(result, *copyMerchant(m))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Merchant{}, nil
	}
	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

func (s *inMemoryStore) BulkUpdateStatus(ctx context.Context, ids []int64, expected domain.RegistrationStatus, upd ports.StatusUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for _, id := range ids {
		m, ok := s.merchants[id]
		if !ok || m.RegistrationStatus != expected {
			continue
		}
		m.RegistrationStatus = upd.Status
		m.RegistrationStatusReason = upd.Reason
		if upd.CheckedBy != nil {
			m.CheckedBy = upd.CheckedBy
		}
		m.UpdatedAt = time.Now().UTC()
		affected++
	}
	return affected, nil
}

func (s *inMemoryStore) ListByMerchant(ctx context.Context, merchantID int64) ([]domain.CheckoutCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.merchants[merchantID]
	if !ok {
		return nil, nil
	}
	return append([]domain.CheckoutCounter(nil), m.CheckoutCounters...), nil
}

func (s *inMemoryStore) UpdateAliasValue(ctx context.Context, counterID int64, aliasValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.merchants {
		for i := range m.CheckoutCounters {
			if m.CheckoutCounters[i].ID == counterID {
				m.CheckoutCounters[i].AliasValue = aliasValue
				return nil
			}
		}
	}
	return fmt.Errorf("checkout counter %d not found", counterID)
}

// --- In-Memory Portal User Repo ---

type inMemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[int64]*domain.PortalUser
	nextID int64
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[int64]*domain.PortalUser)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.PortalUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id int64) (*domain.PortalUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.PortalUser, error) {
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

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.RWMutex
	entries []domain.AuditLog
	nextID  int64
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryAuditRepo) List(ctx context.Context, params ports.AuditListParams) ([]domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if params.ActorID != nil && (e.ActorID == nil || *e.ActorID != *params.ActorID) {
			continue
		}
		if params.Module != nil && e.Module != *params.Module {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
