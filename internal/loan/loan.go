package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Type discriminates the two transaction kinds. An ISSUE row is the loan
// itself; a RETURN row is the audit record created when it closes.
type Type string

const (
	TypeIssue  Type = "ISSUE"
	TypeReturn Type = "RETURN"
)

var (
	// ErrNotFound is returned when a transaction is not found.
	ErrNotFound = errors.New("transaction not found")

	// ErrBookNotFound is returned when issuing against a missing book.
	ErrBookNotFound = errors.New("book not found")

	// ErrOutOfStock is returned when no copy is on the shelf.
	ErrOutOfStock = errors.New("book is out of stock")

	// ErrMemberNotFound is returned when issuing to a missing member.
	ErrMemberNotFound = errors.New("member not found")

	// ErrDebtOutstanding blocks issuing while the member owes fees.
	ErrDebtOutstanding = errors.New("member has outstanding fees")

	// ErrLoanLimit blocks issuing once the member holds the maximum number of books.
	ErrLoanLimit = errors.New("member has reached maximum number of borrowed books")

	// ErrAlreadyReturned is returned when closing a loan twice.
	ErrAlreadyReturned = errors.New("book already returned")

	// ErrNotIssue is returned when trying to return a RETURN record.
	ErrNotIssue = errors.New("only issue transactions can be returned")
)

// Transaction is a loan record. A loan is OPEN while ReturnDate is nil and
// CLOSED once it is stamped; closed loans never reopen.
type Transaction struct {
	ID                   int64            `json:"id"`
	Type                 Type             `json:"type"`
	BookID               int64            `json:"book_id"`
	MemberID             int64            `json:"member_id"`
	IssueDate            time.Time        `json:"issue_date"`
	ReturnDate           *time.Time       `json:"return_date,omitempty"`
	RentFee              *decimal.Decimal `json:"rent_fee,omitempty"`
	RelatedTransactionID *int64           `json:"related_transaction_id,omitempty"`
	BookTitle            string           `json:"book_title,omitempty"`
	MemberName           string           `json:"member_name,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Open reports whether the loan is still out.
func (t Transaction) Open() bool {
	return t.Type == TypeIssue && t.ReturnDate == nil
}

// Query defines filters and pagination for listing transactions.
type Query struct {
	Search string
	Limit  int
	Offset int
}

// IssueInput starts a loan.
type IssueInput struct {
	BookID    int64
	MemberID  int64
	IssueDate time.Time
}
