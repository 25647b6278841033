package book

import (
	"context"
	"log"

	"libraryapi/internal/platform/frappe"
)

// Service provides book-related business logic.
type Service struct {
	repo    Repository
	catalog ExternalCatalog
}

// NewService creates a new book service.
func NewService(repo Repository, catalog ExternalCatalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// List returns a page of books matching the query.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.List(ctx, q)
}

// GetByID returns a book by its id.
func (s *Service) GetByID(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a book. When the ISBN is already in the catalog the submitted
// quantity is added to the existing record instead.
func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	return s.repo.CreateOrRestock(ctx, in)
}

// Update applies a partial update to a book.
func (s *Service) Update(ctx context.Context, id int64, u Update) (Book, error) {
	return s.repo.Update(ctx, id, u)
}

// Delete removes a book. Fails with ErrHasOpenLoans while copies are out.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Import bulk-creates books, skipping records that fail individually.
func (s *Service) Import(ctx context.Context, inputs []Input) (ImportResult, error) {
	res := ImportResult{Total: len(inputs)}
	for _, in := range inputs {
		if _, err := s.Create(ctx, in); err != nil {
			log.Printf("import skipped isbn=%s error=%v", in.ISBN, err)
			continue
		}
		res.Imported++
	}
	return res, nil
}

// SearchExternal queries the upstream catalog for candidate records.
func (s *Service) SearchExternal(ctx context.Context, q frappe.SearchQuery) ([]frappe.Book, error) {
	return s.catalog.Search(ctx, q)
}
