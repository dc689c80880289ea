package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/minihub/internal/models"
)

// memStore is an in-memory ResourceStore. ListVisible returns every item
// so that tests exercise the service-side visibility filter.
type memStore[T any] struct {
	mu     sync.Mutex
	header func(*T) *models.Resource
	items  map[string]T
	shares map[string][]string
	order  []string
}

func newMemStore[T any](header func(*T) *models.Resource) *memStore[T] {
	return &memStore[T]{
		header: header,
		items:  make(map[string]T),
		shares: make(map[string][]string),
	}
}

func (m *memStore[T]) ListVisible(_ context.Context, _ string, _ models.ListFilter) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*T
	for i := len(m.order) - 1; i >= 0; i-- {
		if item, ok := m.load(m.order[i]); ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore[T]) ListOwned(_ context.Context, ownerID string) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*T
	for i := len(m.order) - 1; i >= 0; i-- {
		item, ok := m.load(m.order[i])
		if ok && m.header(item).OwnerID == ownerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore[T]) Get(_ context.Context, id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.load(id)
	if !ok {
		return nil, models.ErrNotFound
	}
	return item, nil
}

func (m *memStore[T]) Insert(_ context.Context, item *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.header(item).ID
	m.items[id] = *item
	m.order = append(m.order, id)
	return nil
}

func (m *memStore[T]) Update(_ context.Context, item *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.header(item).ID
	if _, ok := m.items[id]; !ok {
		return models.ErrNotFound
	}
	m.items[id] = *item
	return nil
}

func (m *memStore[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.items, id)
	delete(m.shares, id)
	return nil
}

func (m *memStore[T]) ReplaceShares(_ context.Context, id string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shares[id] = append([]string(nil), userIDs...)
	return nil
}

func (m *memStore[T]) load(id string) (*T, bool) {
	item, ok := m.items[id]
	if !ok {
		return nil, false
	}
	h := m.header(&item)
	h.SharedWith = nil
	for _, uid := range m.shares[id] {
		h.SharedWith = append(h.SharedWith, models.UserSummary{ID: uid})
	}
	return &item, true
}

func (m *memStore[T]) shareIDs(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := append([]string(nil), m.shares[id]...)
	sort.Strings(ids)
	return ids
}

// directory resolves emails to ids the way the user repository does.
type directory map[string]string

func (d directory) ResolveHandles(_ context.Context, handles []string, exclude string) ([]string, error) {
	var ids []string
	for _, h := range handles {
		if id, ok := d[h]; ok && id != exclude {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type memActivity struct {
	mu      sync.Mutex
	records []models.Activity
}

func (m *memActivity) Append(_ context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *a)
	return nil
}

func (m *memActivity) List(_ context.Context, userID string, q models.FeedQuery) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for i := len(m.records) - 1; i >= 0; i-- {
		a := m.records[i]
		if a.UserID != userID || (q.Type != "" && a.Type != q.Type) {
			continue
		}
		out = append(out, a)
	}
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memActivity) Since(_ context.Context, userID string, since time.Time) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for _, a := range m.records {
		if a.UserID == userID && !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

// noTx runs fn directly.
type noTx struct{}

func (noTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// stepClock returns a time one second later on every call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// plainHasher stores passwords with a prefix instead of bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(password string) ([]byte, error) { return []byte("hashed:" + password), nil }
func (plainHasher) Check(hash []byte, password string) bool {
	return string(hash) == "hashed:"+password
}

type mockUserRepo struct {
	CreateFunc         func(ctx context.Context, u *models.User) error
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	UsernameExistsFunc func(ctx context.Context, username string) (bool, error)
	UpdateProfileFunc  func(ctx context.Context, u *models.User) error
	UpdatePasswordFunc func(ctx context.Context, id string, hash []byte) error
	DeleteFunc         func(ctx context.Context, id string) error
	ListOverviewFunc   func(ctx context.Context) ([]models.UserOverview, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	return m.CreateFunc(ctx, u)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}
func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return m.UsernameExistsFunc(ctx, username)
}
func (m *mockUserRepo) UpdateProfile(ctx context.Context, u *models.User) error {
	return m.UpdateProfileFunc(ctx, u)
}
func (m *mockUserRepo) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	return m.UpdatePasswordFunc(ctx, id, hash)
}
func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}
func (m *mockUserRepo) ListOverview(ctx context.Context) ([]models.UserOverview, error) {
	return m.ListOverviewFunc(ctx)
}
