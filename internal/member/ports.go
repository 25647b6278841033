package member

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the contract for member data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Member, int, error)
	GetByID(ctx context.Context, id int64) (Member, error)
	Create(ctx context.Context, in Input) (Member, error)
	Update(ctx context.Context, id int64, u Update) (Member, error)
	Delete(ctx context.Context, id int64) error
	PayDebt(ctx context.Context, id int64, amount decimal.Decimal) (Member, error)
	ClearDebt(ctx context.Context, id int64) (Member, error)
}
