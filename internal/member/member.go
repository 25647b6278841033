package member

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a member is not found.
	ErrNotFound = errors.New("member not found")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrHasOpenLoans blocks deleting a member who still has books out.
	ErrHasOpenLoans = errors.New("member has open loans")

	// ErrHasDebt blocks deleting a member with an unpaid balance.
	ErrHasDebt = errors.New("member has outstanding debt")

	// ErrPaymentExceedsDebt is returned when a payment is larger than the balance.
	ErrPaymentExceedsDebt = errors.New("payment amount exceeds outstanding debt")
)

// Member is a library patron. OutstandingDebt never goes below zero.
type Member struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Address         *string         `json:"address,omitempty"`
	OutstandingDebt decimal.Decimal `json:"outstanding_debt"`
	OpenLoans       int             `json:"open_loans"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Query defines filters and pagination for listing members.
type Query struct {
	Search string
	Limit  int
	Offset int
}

// Input is the payload for registering a member. New members start debt-free.
type Input struct {
	Name    string
	Email   string
	Address *string
}

// Update carries a partial update; nil fields are left untouched.
type Update struct {
	Name    *string
	Email   *string
	Address *string
}
