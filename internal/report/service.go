package report

import (
	"context"
	"time"
)

// Service provides the dashboard aggregates.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	return s.repo.Overview(ctx)
}

// Monthly returns loan/return counts for every month of the current year.
func (s *Service) Monthly(ctx context.Context) ([]MonthlyCount, error) {
	return s.repo.Monthly(ctx, time.Now().Year())
}
