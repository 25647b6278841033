package report

import (
	"context"
)

// Repository defines the aggregate queries behind the dashboard.
type Repository interface {
	Overview(ctx context.Context) (Overview, error)
	Monthly(ctx context.Context, year int) ([]MonthlyCount, error)
}
