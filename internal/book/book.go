package book

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrHasOpenLoans blocks deleting a book that still has unreturned copies out.
var ErrHasOpenLoans = errors.New("book has open loans")

// Book represents a title in the catalog. Quantity counts the copies currently
// on the shelf; Version bumps on every inventory mutation.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Quantity  int       `json:"quantity"`
	Publisher string    `json:"publisher,omitempty"`
	CoverURL  *string   `json:"cover_url,omitempty"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Query defines filters and pagination for listing books.
type Query struct {
	Search string
	Limit  int
	Offset int
}

// Input is the payload for creating or importing a book.
type Input struct {
	Title     string
	Author    string
	ISBN      string
	Quantity  int
	Publisher string
	CoverURL  *string
}

// Update carries a partial update; nil fields are left untouched.
type Update struct {
	Title     *string
	Author    *string
	ISBN      *string
	Quantity  *int
	Publisher *string
	CoverURL  *string
}

// ImportResult reports how many candidate records made it into the catalog.
type ImportResult struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}
