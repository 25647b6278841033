package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service is the loan lifecycle engine: it issues books, prices and closes
// loans, and removes records with their compensation rules.
type Service struct {
	repo      Repository
	policy    FeePolicy
	loanLimit int
}

func NewService(repo Repository, policy FeePolicy, loanLimit int) *Service {
	return &Service{repo: repo, policy: policy, loanLimit: loanLimit}
}

// List returns a page of transactions, searchable by book title or member name.
func (s *Service) List(ctx context.Context, q Query) ([]Transaction, int, error) {
	return s.repo.List(ctx, q)
}

// GetByID returns a single transaction.
func (s *Service) GetByID(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// Issue starts a loan. Eligibility is checked in a fixed order: book
// existence, stock, member existence, debt, loan cap. All checks and the
// copy reservation happen inside one database transaction.
func (s *Service) Issue(ctx context.Context, in IssueInput) (Transaction, error) {
	if in.IssueDate.IsZero() {
		in.IssueDate = time.Now()
	}
	return s.repo.Issue(ctx, in, s.loanLimit)
}

// Return closes a loan. When the caller does not supply a fee it is computed
// from the policy. addToDebt decides whether the fee lands on the member's
// balance or is treated as settled on the spot.
func (s *Service) Return(ctx context.Context, id int64, returnDate time.Time, rentFee *decimal.Decimal, addToDebt bool) (Transaction, error) {
	fee, err := s.resolveFee(ctx, id, returnDate, rentFee)
	if err != nil {
		return Transaction{}, err
	}
	return s.repo.Return(ctx, id, returnDate, fee, addToDebt)
}

func (s *Service) resolveFee(ctx context.Context, id int64, returnDate time.Time, rentFee *decimal.Decimal) (decimal.Decimal, error) {
	if rentFee != nil {
		return rentFee.Round(2), nil
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return s.policy.ComputeFee(t.IssueDate, returnDate), nil
}

// Delete removes a transaction. An open loan gives its reserved copy back in
// the same database transaction; a closed loan is deleted as-is, without
// reversing fees or debt already applied.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Recent returns the latest transactions for the dashboard.
func (s *Service) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	return s.repo.Recent(ctx, limit)
}
