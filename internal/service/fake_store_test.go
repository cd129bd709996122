package service

import (
	"context"
	"sync"
	"time"

	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/queue"
	"github.com/tuntikone/workforce-backend/internal/repository"
)

// fakeStore is an in-memory Datastore for service tests. Its runTx
// serializes transactions behind one mutex, which gives the same
// observable ordering the row locks give MySQL. Rollback is not
// simulated; the services only mutate after their checks pass.
type fakeStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	nextID    uint64
	users     map[uint64]*model.User
	approvals map[uint64]*model.ApprovedEmail
	tokens    map[string]*model.RefreshToken
	companies map[uint64]*model.Company
	workDays  map[uint64]*model.WorkDay
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[uint64]*model.User{},
		approvals: map[uint64]*model.ApprovedEmail{},
		tokens:    map[string]*model.RefreshToken{},
		companies: map[uint64]*model.Company{},
		workDays:  map[uint64]*model.WorkDay{},
	}
}

func (f *fakeStore) runTx(ctx context.Context, fn func(tx Datastore) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(f)
}

func (f *fakeStore) id() uint64 {
	f.nextID++
	return f.nextID
}

// seedCompany inserts a tenant and returns its id.
func (f *fakeStore) seedCompany(name string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.companies[id] = &model.Company{ID: id, Name: name, Settings: map[string]any{}}
	return id
}

// seedUser inserts an account directly, bypassing registration.
func (f *fakeStore) seedUser(companyID uint64, email, hash string, role model.Role) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{
		ID:           f.id(),
		CompanyID:    companyID,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	f.users[u.ID] = u
	return u
}

// seedApproval inserts an unconsumed approval entry.
func (f *fakeStore) seedApproval(companyID uint64, email string, role model.Role) *model.ApprovedEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &model.ApprovedEmail{ID: f.id(), CompanyID: companyID, Email: email, Role: role}
	f.approvals[a.ID] = a
	return a
}

func (f *fakeStore) tokenCount(userID uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

// ----- UserStore -----

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindUserByID(ctx context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) ListUsersByCompany(ctx context.Context, companyID uint64) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		if u.CompanyID == companyID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.id()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateUserPassword(ctx context.Context, id uint64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeStore) UpdateUserRole(ctx context.Context, id uint64, role model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeStore) UpdateUserEmail(ctx context.Context, id uint64, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Email = email
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	for k, t := range f.tokens {
		if t.UserID == id {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeStore) LockUser(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

// ----- ApprovalStore -----

func (f *fakeStore) FindApprovalByEmail(ctx context.Context, email string) (*model.ApprovedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.approvals {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListApprovalsByCompany(ctx context.Context, companyID uint64) ([]model.ApprovedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ApprovedEmail
	for _, a := range f.approvals {
		if a.CompanyID == companyID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateApproval(ctx context.Context, a *model.ApprovedEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.approvals {
		if existing.Email == a.Email {
			return repository.ErrDuplicate
		}
	}
	a.ID = f.id()
	cp := *a
	f.approvals[a.ID] = &cp
	return nil
}

func (f *fakeStore) ConsumeApproval(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.approvals[id]
	if !ok || a.UsedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	a.UsedAt = &now
	return nil
}

func (f *fakeStore) UpdateApprovalRole(ctx context.Context, id uint64, role model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.approvals[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Role = role
	return nil
}

func (f *fakeStore) UpdateApprovalEmail(ctx context.Context, id uint64, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.approvals[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range f.approvals {
		if other.ID != id && other.Email == email {
			return repository.ErrDuplicate
		}
	}
	a.Email = email
	return nil
}

func (f *fakeStore) DeleteApproval(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.approvals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.approvals, id)
	return nil
}

// ----- TokenStore -----

func (f *fakeStore) StoreRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[t.Token]; ok {
		return repository.ErrDuplicate
	}
	t.ID = f.id()
	cp := *t
	f.tokens[t.Token] = &cp
	return nil
}

func (f *fakeStore) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) DeleteRefreshToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeStore) DeleteAllRefreshTokens(ctx context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, t := range f.tokens {
		if t.ExpiresAt.Before(before) || t.ExpiresAt.Equal(before) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

// ----- CompanyStore -----

func (f *fakeStore) FindCompanyByID(ctx context.Context, id uint64) (*model.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) UpdateCompanySettings(ctx context.Context, id uint64, settings map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Settings = settings
	return nil
}

// ----- WorkDayStore -----

func (f *fakeStore) CreateWorkDay(ctx context.Context, w *model.WorkDay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.workDays {
		if existing.UserID == w.UserID && existing.Date.Equal(w.Date) {
			return repository.ErrDuplicate
		}
	}
	w.ID = f.id()
	cp := *w
	f.workDays[w.ID] = &cp
	return nil
}

func (f *fakeStore) FindWorkDayByID(ctx context.Context, id uint64) (*model.WorkDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.workDays[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeStore) FindWorkDayByDate(ctx context.Context, userID uint64, date time.Time) (*model.WorkDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workDays {
		if w.UserID == userID && w.Date.Equal(date) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListWorkDaysByUser(ctx context.Context, userID uint64) ([]model.WorkDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WorkDay
	for _, w := range f.workDays {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeStore) ListWorkDaysByCompany(ctx context.Context, companyID uint64) ([]model.WorkDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WorkDay
	for _, w := range f.workDays {
		if owner, ok := f.users[w.UserID]; ok && owner.CompanyID == companyID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateWorkDay(ctx context.Context, w *model.WorkDay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workDays[w.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *w
	f.workDays[w.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteWorkDaysBefore(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, w := range f.workDays {
		if w.Date.Before(before) {
			delete(f.workDays, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteWorkDay(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workDays[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.workDays, id)
	return nil
}

// fakePublisher records audit events in order.
type fakePublisher struct {
	mu     sync.Mutex
	events []queue.AuthEvent
}

func (p *fakePublisher) PublishAuthEvent(ctx context.Context, ev queue.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}
