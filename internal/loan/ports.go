package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the contract for transaction storage. Issue, Return and
// Delete run all of their inventory, debt and record mutations as one atomic
// database transaction; partial application is never observable.
type Repository interface {
	List(ctx context.Context, q Query) ([]Transaction, int, error)
	GetByID(ctx context.Context, id int64) (Transaction, error)
	Issue(ctx context.Context, in IssueInput, loanLimit int) (Transaction, error)
	Return(ctx context.Context, id int64, returnDate time.Time, rentFee decimal.Decimal, addToDebt bool) (Transaction, error)
	Delete(ctx context.Context, id int64) error
	Recent(ctx context.Context, limit int) ([]Transaction, error)
}
