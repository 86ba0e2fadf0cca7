package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash, Role: role}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// ChargesStub returns fixed shipping and tax, or Err.
type ChargesStub struct {
	Charges model.Charges
	Err     error

	mu       sync.Mutex
	requests []model.ChargesRequest
}

// Quote records the request and returns configured charges.
func (s *ChargesStub) Quote(ctx context.Context, req model.ChargesRequest) (model.Charges, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.Err != nil {
		return model.Charges{}, s.Err
	}
	return s.Charges, nil
}

// Requests returns recorded quote requests.
func (s *ChargesStub) Requests() []model.ChargesRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChargesRequest(nil), s.requests...)
}

// ObserverStub counts order outcomes; safe for concurrent use.
type ObserverStub struct {
	mu       sync.Mutex
	placed   int
	rejected []string
	statuses []model.OrderStatus
}

func (o *ObserverStub) OrderPlaced(*model.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.placed++
}

func (o *ObserverStub) OrderRejected(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, reason)
}

func (o *ObserverStub) OrderStatusChanged(status model.OrderStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

// Placed returns the number of placed orders.
func (o *ObserverStub) Placed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.placed
}

// Rejected returns recorded rejection reasons.
func (o *ObserverStub) Rejected() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.rejected...)
}

// Statuses returns recorded status changes.
func (o *ObserverStub) Statuses() []model.OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.OrderStatus(nil), o.statuses...)
}
