package member

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service provides member-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new member service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of members matching the query.
func (s *Service) List(ctx context.Context, q Query) ([]Member, int, error) {
	return s.repo.List(ctx, q)
}

// GetByID returns a member by id.
func (s *Service) GetByID(ctx context.Context, id int64) (Member, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registers a member. Fails with ErrEmailTaken on a duplicate email.
func (s *Service) Create(ctx context.Context, in Input) (Member, error) {
	return s.repo.Create(ctx, in)
}

// Update applies a partial update; email uniqueness is enforced against other
// members.
func (s *Service) Update(ctx context.Context, id int64, u Update) (Member, error) {
	return s.repo.Update(ctx, id, u)
}

// Delete removes a member. Fails while the member has open loans or debt.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// PayDebt records a payment against the outstanding balance. The amount must
// be positive and at most the current balance.
func (s *Service) PayDebt(ctx context.Context, id int64, amount decimal.Decimal) (Member, error) {
	return s.repo.PayDebt(ctx, id, amount)
}

// ClearDebt waives the entire outstanding balance.
func (s *Service) ClearDebt(ctx context.Context, id int64) (Member, error) {
	return s.repo.ClearDebt(ctx, id)
}
