package handler_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// =====================
// プロセス内のproducts（filterはid/categoryのみ対応）
// =====================

type memProducts struct {
	mu     sync.Mutex
	rows   map[int64]model.Product
	nextID int64
}

var _ repo.ProductRepository = (*memProducts)(nil)

func newMemProducts(seed ...model.Product) *memProducts {
	m := &memProducts{rows: map[int64]model.Product{}}
	_, _ = m.Insert(context.Background(), seed)
	return m
}

func (m *memProducts) match(p model.Product, filters []repo.Filter) bool {
	for _, f := range filters {
		var v any
		switch f.Column {
		case model.ProductColumnID:
			v = p.ID
		case model.ProductColumnCategory:
			v = p.Category
		default:
			return false
		}
		switch f.Op {
		case repo.OpEq:
			if !sameValue(v, f.Value) {
				return false
			}
		case repo.OpNeq:
			if sameValue(v, f.Value) {
				return false
			}
		case repo.OpIn:
			ids, _ := f.Value.([]int64)
			found := false
			for _, id := range ids {
				if sameValue(v, id) {
					found = true
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func sameValue(a, b any) bool {
	switch bv := b.(type) {
	case int:
		b = int64(bv)
	}
	return a == b
}

func (m *memProducts) Select(_ context.Context, q repo.SelectQuery) ([]model.Product, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []model.Product{}
	for _, p := range m.rows {
		if m.match(p, q.Filters) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if q.Single {
		if len(out) == 0 {
			return nil, repo.ErrNotFound
		}
		out = out[:1]
	}
	return out, nil
}

func (m *memProducts) Insert(_ context.Context, products []model.Product) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		m.nextID++
		p.ID = m.nextID
		p.CreatedAt = time.Now()
		m.rows[p.ID] = p
		out = append(out, p)
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, filters []repo.Filter, c repo.ProductChanges) (int64, error) {
	if len(filters) == 0 {
		return 0, repo.ErrUnfilteredMutation
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, p := range m.rows {
		if !m.match(p, filters) {
			continue
		}
		if c.Title != nil {
			p.Title = *c.Title
		}
		if c.Price != nil {
			p.Price = *c.Price
		}
		if c.Description != nil {
			p.Description = *c.Description
		}
		if c.Category != nil {
			p.Category = *c.Category
		}
		m.rows[id] = p
		n++
	}
	return n, nil
}

func (m *memProducts) Delete(_ context.Context, filters []repo.Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, repo.ErrUnfilteredMutation
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, p := range m.rows {
		if m.match(p, filters) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

// =====================
// users / audit
// =====================

type memUsers struct {
	mu    sync.Mutex
	users map[int64]*model.User
}

var _ repo.UserRepository = (*memUsers)(nil)

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]*model.User{}}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = int64(len(m.users) + 1)
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

type memAudit struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

var _ repo.AuditLogRepository = (*memAudit)(nil)

func (m *memAudit) Create(_ context.Context, l model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, l)
	return nil
}

func (m *memAudit) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AuditLog{}
	for i := len(m.logs) - 1; i >= 0; i-- {
		if auditMatches(m.logs[i], f) {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}

func auditMatches(l model.AuditLog, f repo.AuditLogFilter) bool {
	switch {
	case f.Action != nil && l.Action != *f.Action,
		f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID,
		f.ResourceType != nil && l.ResourceType != *f.ResourceType,
		f.ResourceID != nil && l.ResourceID != *f.ResourceID,
		f.CreatedFrom != nil && l.CreatedAt.Before(*f.CreatedFrom),
		f.CreatedTo != nil && l.CreatedAt.After(*f.CreatedTo):
		return false
	}
	return true
}

func (m *memAudit) actions() []model.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AuditAction, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type stubCatalog struct {
	items []model.CatalogItem
	err   error
	calls int
}

func (s *stubCatalog) FetchProducts(context.Context) ([]model.CatalogItem, error) {
	s.calls++
	return s.items, s.err
}

// ゲートウェイの障害ページを返すストア
type unavailableProducts struct{}

func (unavailableProducts) Select(context.Context, repo.SelectQuery) ([]model.Product, error) {
	return nil, errors.New("<!DOCTYPE html><title>521: Web server is down</title>")
}

func (unavailableProducts) Insert(context.Context, []model.Product) ([]model.Product, error) {
	return nil, errors.New("<!DOCTYPE html> 521")
}

func (unavailableProducts) Update(context.Context, []repo.Filter, repo.ProductChanges) (int64, error) {
	return 0, errors.New("<!DOCTYPE html> 521")
}

func (unavailableProducts) Delete(context.Context, []repo.Filter) (int64, error) {
	return 0, errors.New("<!DOCTYPE html> 521")
}
