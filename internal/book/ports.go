package book

import (
	"context"

	"libraryapi/internal/platform/frappe"
)

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	CreateOrRestock(ctx context.Context, in Input) (Book, error)
	Update(ctx context.Context, id int64, u Update) (Book, error)
	Delete(ctx context.Context, id int64) error
}

// ExternalCatalog is the upstream book-metadata search service.
type ExternalCatalog interface {
	Search(ctx context.Context, q frappe.SearchQuery) ([]frappe.Book, error)
}
