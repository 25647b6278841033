package report

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Overview(ctx context.Context) (Overview, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM members),
			(SELECT COUNT(*) FROM books WHERE created_at >= NOW() - INTERVAL '30 days'),
			(SELECT COUNT(*) FROM members WHERE created_at >= NOW() - INTERVAL '30 days'),
			(SELECT COUNT(*) FROM transactions WHERE type = 'ISSUE' AND return_date IS NULL),
			(SELECT COUNT(*) FROM transactions
				WHERE type = 'ISSUE' AND return_date IS NULL
				AND issue_date >= NOW() - INTERVAL '7 days')`

	var o Overview
	var lastWeekLoans int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query).Scan(
		&o.TotalBooks, &o.TotalMembers, &o.NewBooks, &o.NewMembers,
		&o.ActiveLoans, &lastWeekLoans,
	)
	if err != nil {
		return Overview{}, err
	}

	if o.ActiveLoans > 0 {
		o.LoanIncrease = float64(lastWeekLoans-o.ActiveLoans) / float64(o.ActiveLoans) * 100
	}
	return o, nil
}

func (r *PostgresRepo) Monthly(ctx context.Context, year int) ([]MonthlyCount, error) {
	const query = `
		SELECT
			EXTRACT(MONTH FROM created_at)::int AS month,
			COUNT(*) FILTER (WHERE type = 'ISSUE') AS loans,
			COUNT(*) FILTER (WHERE type = 'RETURN') AS returns
		FROM transactions
		WHERE EXTRACT(YEAR FROM created_at)::int = $1
		GROUP BY 1
		ORDER BY 1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]MonthlyCount, 12)
	for i := range counts {
		counts[i].Name = time.Month(i + 1).String()[:3]
	}

	for rows.Next() {
		var month, loans, returns int
		if err := rows.Scan(&month, &loans, &returns); err != nil {
			return nil, err
		}
		if month >= 1 && month <= 12 {
			counts[month-1].Loans = loans
			counts[month-1].Returns = returns
		}
	}
	return counts, rows.Err()
}
