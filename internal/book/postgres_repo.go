package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, author, isbn, quantity, publisher, cover_url, version, created_at, updated_at`

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

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	var publisher *string
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Quantity, &publisher, &b.CoverURL,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if publisher != nil {
		b.Publisher = *publisher
	}
	return b, err
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR isbn ILIKE $%d)", argn, argn+1, argn+2))
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern, pattern)
		argn += 3
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM books %s", where)
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		bookColumns, where, argn, argn+1)

	args = append(args, q.Limit, q.Offset)
	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, bookColumns)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

// CreateOrRestock inserts a new title, or adds the submitted quantity to an
// existing one when the ISBN is already present.
func (r *PostgresRepo) CreateOrRestock(ctx context.Context, in Input) (Book, error) {
	query := fmt.Sprintf(`
		INSERT INTO books (title, author, isbn, quantity, publisher, cover_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (isbn) DO UPDATE SET
			quantity = books.quantity + EXCLUDED.quantity,
			version = books.version + 1,
			updated_at = NOW()
		RETURNING %s`, bookColumns)

	var publisher *string
	if in.Publisher != "" {
		publisher = &in.Publisher
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanBook(r.db.QueryRow(timeoutCtx, query,
		in.Title, in.Author, in.ISBN, in.Quantity, publisher, in.CoverURL,
	))
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, u Update) (Book, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{}
	argn := 1

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argn))
		args = append(args, value)
		argn++
	}

	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Author != nil {
		set("author", *u.Author)
	}
	if u.ISBN != nil {
		set("isbn", *u.ISBN)
	}
	if u.Quantity != nil {
		set("quantity", *u.Quantity)
		sets = append(sets, "version = version + 1")
	}
	if u.Publisher != nil {
		set("publisher", *u.Publisher)
	}
	if u.CoverURL != nil {
		set("cover_url", *u.CoverURL)
	}

	query := fmt.Sprintf(`UPDATE books SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argn, bookColumns)
	args = append(args, id)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return err
	}
	defer tx.Rollback(timeoutCtx)

	var exists bool
	if err := tx.QueryRow(timeoutCtx,
		`SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	var hasOpen bool
	if err := tx.QueryRow(timeoutCtx,
		`SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE book_id = $1 AND type = 'ISSUE' AND return_date IS NULL
		)`, id).Scan(&hasOpen); err != nil {
		return err
	}
	if hasOpen {
		return ErrHasOpenLoans
	}

	// All remaining transactions are closed history; they go with the book.
	if _, err := tx.Exec(timeoutCtx, `DELETE FROM transactions WHERE book_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(timeoutCtx)
}
