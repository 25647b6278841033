package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const memberColumns = `m.id, m.name, m.email, m.address, m.outstanding_debt, m.created_at, m.updated_at`

// openLoanCount is joined into reads so callers see how many books are out.
const openLoanCount = `(
	SELECT COUNT(*) FROM transactions t
	WHERE t.member_id = m.id AND t.type = 'ISSUE' AND t.return_date IS NULL
)`

const uniqueViolation = "23505"

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

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Address, &m.OutstandingDebt,
		&m.CreatedAt, &m.UpdatedAt, &m.OpenLoans,
	)
	return m, err
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Member, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(m.name ILIKE $%d OR m.email ILIKE $%d)", argn, argn+1))
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern)
		argn += 2
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM members m %s", where)
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT %s, %s
		FROM members m
		%s
		ORDER BY m.created_at DESC
		LIMIT $%d OFFSET $%d`,
		memberColumns, openLoanCount, where, argn, argn+1)

	args = append(args, q.Limit, q.Offset)
	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Member, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM members m WHERE m.id = $1`, memberColumns, openLoanCount)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	m, err := scanMember(r.db.QueryRow(timeoutCtx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

func (r *PostgresRepo) Create(ctx context.Context, in Input) (Member, error) {
	query := fmt.Sprintf(`
		INSERT INTO members AS m (name, email, address, outstanding_debt, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		RETURNING %s, 0`, memberColumns)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	m, err := scanMember(r.db.QueryRow(timeoutCtx, query, in.Name, in.Email, in.Address))
	if err != nil {
		if isUniqueViolation(err) {
			return Member{}, ErrEmailTaken
		}
		return Member{}, err
	}
	return m, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, u Update) (Member, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	argn := 1

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argn))
		args = append(args, value)
		argn++
	}

	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.Email != nil {
		set("email", *u.Email)
	}
	if u.Address != nil {
		set("address", *u.Address)
	}

	query := fmt.Sprintf(`UPDATE members AS m SET %s WHERE m.id = $%d RETURNING %s, %s`,
		strings.Join(sets, ", "), argn, memberColumns, openLoanCount)
	args = append(args, id)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	m, err := scanMember(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return Member{}, ErrEmailTaken
		}
		return Member{}, err
	}
	return m, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(timeoutCtx)

	var debt decimal.Decimal
	err = tx.QueryRow(timeoutCtx, `SELECT outstanding_debt FROM members WHERE id = $1`, id).Scan(&debt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if debt.IsPositive() {
		return ErrHasDebt
	}

	var hasOpen bool
	if err := tx.QueryRow(timeoutCtx,
		`SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE member_id = $1 AND type = 'ISSUE' AND return_date IS NULL
		)`, id).Scan(&hasOpen); err != nil {
		return err
	}
	if hasOpen {
		return ErrHasOpenLoans
	}

	// All remaining transactions are closed history; they go with the member.
	if _, err := tx.Exec(timeoutCtx, `DELETE FROM transactions WHERE member_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.Exec(timeoutCtx, `DELETE FROM members WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(timeoutCtx)
}

// PayDebt decrements the balance with a guarded update so the debt can never
// be observed below zero, whatever interleaving the pool produces.
func (r *PostgresRepo) PayDebt(ctx context.Context, id int64, amount decimal.Decimal) (Member, error) {
	query := fmt.Sprintf(`
		UPDATE members AS m
		SET outstanding_debt = outstanding_debt - $2, updated_at = NOW()
		WHERE m.id = $1 AND outstanding_debt >= $2
		RETURNING %s, %s`, memberColumns, openLoanCount)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	m, err := scanMember(r.db.QueryRow(timeoutCtx, query, id, amount))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Member{}, err
	}

	// Guard refused: distinguish a missing member from an oversized payment.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return Member{}, getErr
	}
	return Member{}, ErrPaymentExceedsDebt
}

func (r *PostgresRepo) ClearDebt(ctx context.Context, id int64) (Member, error) {
	query := fmt.Sprintf(`
		UPDATE members AS m
		SET outstanding_debt = 0, updated_at = NOW()
		WHERE m.id = $1
		RETURNING %s, %s`, memberColumns, openLoanCount)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	m, err := scanMember(r.db.QueryRow(timeoutCtx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
