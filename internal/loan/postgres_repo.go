package loan

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const txColumns = `id, type, book_id, member_id, issue_date, return_date, rent_fee, related_transaction_id, created_at, updated_at`

var dialect = goqu.Dialect("postgres")

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

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.Type, &t.BookID, &t.MemberID, &t.IssueDate, &t.ReturnDate,
		&t.RentFee, &t.RelatedTransactionID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func joinedDataset() *goqu.SelectDataset {
	return dialect.From(goqu.T("transactions").As("t")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.Ex{"t.book_id": goqu.I("b.id")})).
		Join(goqu.T("members").As("m"), goqu.On(goqu.Ex{"t.member_id": goqu.I("m.id")}))
}

func joinedColumns() []any {
	return []any{
		goqu.I("t.id"), goqu.I("t.type"), goqu.I("t.book_id"), goqu.I("t.member_id"),
		goqu.I("t.issue_date"), goqu.I("t.return_date"), goqu.I("t.rent_fee"),
		goqu.I("t.related_transaction_id"), goqu.I("t.created_at"), goqu.I("t.updated_at"),
		goqu.I("b.title"), goqu.I("m.name"),
	}
}

func (r *PostgresRepo) queryJoined(ctx context.Context, ds *goqu.SelectDataset) ([]Transaction, error) {
	sql, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.Type, &t.BookID, &t.MemberID, &t.IssueDate, &t.ReturnDate,
			&t.RentFee, &t.RelatedTransactionID, &t.CreatedAt, &t.UpdatedAt,
			&t.BookTitle, &t.MemberName,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Transaction, int, error) {
	ds := joinedDataset()
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		ds = ds.Where(goqu.Or(
			goqu.I("b.title").ILike(pattern),
			goqu.I("m.name").ILike(pattern),
		))
	}

	countSQL, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	out, err := r.queryJoined(ctx, ds.
		Select(joinedColumns()...).
		Order(goqu.I("t.created_at").Desc()).
		Limit(uint(q.Limit)).
		Offset(uint(q.Offset)))
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	return r.queryJoined(ctx, joinedDataset().
		Select(joinedColumns()...).
		Order(goqu.I("t.created_at").Desc()).
		Limit(uint(limit)))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Transaction, error) {
	out, err := r.queryJoined(ctx, joinedDataset().
		Select(joinedColumns()...).
		Where(goqu.I("t.id").Eq(id)))
	if err != nil {
		return Transaction{}, err
	}
	if len(out) == 0 {
		return Transaction{}, ErrNotFound
	}
	return out[0], nil
}

// Issue reserves a copy and creates the OPEN loan record in one database
// transaction. Check order: book existence, stock, member existence, debt,
// loan cap. The stock check is repeated as a guarded update so two racing
// issues can never both take the last copy.
func (r *PostgresRepo) Issue(ctx context.Context, in IssueInput, loanLimit int) (Transaction, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(timeoutCtx)

	var quantity int
	err = tx.QueryRow(timeoutCtx, `SELECT quantity FROM books WHERE id = $1`, in.BookID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrBookNotFound
		}
		return Transaction{}, err
	}
	if quantity < 1 {
		return Transaction{}, ErrOutOfStock
	}

	var debt decimal.Decimal
	err = tx.QueryRow(timeoutCtx, `SELECT outstanding_debt FROM members WHERE id = $1`, in.MemberID).Scan(&debt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrMemberNotFound
		}
		return Transaction{}, err
	}
	if debt.IsPositive() {
		return Transaction{}, ErrDebtOutstanding
	}

	var openLoans int
	err = tx.QueryRow(timeoutCtx, `
		SELECT COUNT(*) FROM transactions
		WHERE member_id = $1 AND type = 'ISSUE' AND return_date IS NULL`,
		in.MemberID).Scan(&openLoans)
	if err != nil {
		return Transaction{}, err
	}
	if openLoans >= loanLimit {
		return Transaction{}, ErrLoanLimit
	}

	if err := reserveCopy(timeoutCtx, tx, in.BookID); err != nil {
		return Transaction{}, err
	}

	var t Transaction
	t, err = scanTransaction(tx.QueryRow(timeoutCtx, `
		INSERT INTO transactions (type, book_id, member_id, issue_date, created_at, updated_at)
		VALUES ('ISSUE', $1, $2, $3, NOW(), NOW())
		RETURNING `+txColumns,
		in.BookID, in.MemberID, in.IssueDate))
	if err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(timeoutCtx); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Return closes a loan: stamps the ISSUE row, inserts the linked RETURN
// record, releases the copy, and charges the member when addToDebt is set.
// All of it commits or none of it does.
func (r *PostgresRepo) Return(ctx context.Context, id int64, returnDate time.Time, rentFee decimal.Decimal, addToDebt bool) (Transaction, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(timeoutCtx)

	// Lock the row so a concurrent return of the same loan waits here and
	// then fails the already-returned check instead of double-crediting.
	existing, err := scanTransaction(tx.QueryRow(timeoutCtx,
		`SELECT `+txColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, err
	}
	if existing.Type != TypeIssue {
		return Transaction{}, ErrNotIssue
	}
	if existing.ReturnDate != nil {
		return Transaction{}, ErrAlreadyReturned
	}

	t, err := scanTransaction(tx.QueryRow(timeoutCtx, `
		UPDATE transactions
		SET return_date = $2, rent_fee = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+txColumns,
		id, returnDate, rentFee))
	if err != nil {
		return Transaction{}, err
	}

	_, err = tx.Exec(timeoutCtx, `
		INSERT INTO transactions (type, book_id, member_id, issue_date, return_date, rent_fee, related_transaction_id, created_at, updated_at)
		VALUES ('RETURN', $1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		existing.BookID, existing.MemberID, existing.IssueDate, returnDate, rentFee, id)
	if err != nil {
		return Transaction{}, err
	}

	if err := releaseCopy(timeoutCtx, tx, existing.BookID); err != nil {
		return Transaction{}, err
	}

	if addToDebt {
		if err := chargeFee(timeoutCtx, tx, existing.MemberID, rentFee); err != nil {
			return Transaction{}, err
		}
	}

	if err := tx.Commit(timeoutCtx); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Delete removes a transaction. Deleting an OPEN loan gives the reserved copy
// back before the record goes; deleting a CLOSED one also removes its linked
// RETURN record but reverses nothing else.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(timeoutCtx)

	existing, err := scanTransaction(tx.QueryRow(timeoutCtx,
		`SELECT `+txColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if existing.Open() {
		if err := releaseCopy(timeoutCtx, tx, existing.BookID); err != nil {
			return err
		}
	}

	if existing.Type == TypeIssue {
		if _, err := tx.Exec(timeoutCtx,
			`DELETE FROM transactions WHERE related_transaction_id = $1`, id); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(timeoutCtx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(timeoutCtx)
}

// reserveCopy takes one copy off the shelf. The quantity guard keeps the
// count from ever going negative; zero rows affected means the last copy was
// taken by someone else since the read.
func reserveCopy(ctx context.Context, tx pgx.Tx, bookID int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE books
		SET quantity = quantity - 1, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND quantity > 0`, bookID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutOfStock
	}
	return nil
}

// releaseCopy puts a copy back on the shelf.
func releaseCopy(ctx context.Context, tx pgx.Tx, bookID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE books
		SET quantity = quantity + 1, version = version + 1, updated_at = NOW()
		WHERE id = $1`, bookID)
	return err
}

// chargeFee adds the fee to the member's outstanding balance.
func chargeFee(ctx context.Context, tx pgx.Tx, memberID int64, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		UPDATE members
		SET outstanding_debt = outstanding_debt + $2, updated_at = NOW()
		WHERE id = $1`, memberID, amount)
	return err
}
