package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Service assigns identities to completed reports and fronts the repo.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// SaveReport stores a completed report and returns its new ID. It satisfies
// the compat package's store contract.
func (s *Service) SaveReport(ctx context.Context, products []string, result json.RawMessage) (string, error) {
	report := Report{
		ID:        uuid.NewString(),
		Products:  products,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, report); err != nil {
		return "", err
	}
	return report.ID, nil
}

// Get returns one stored report.
func (s *Service) Get(ctx context.Context, id string) (Report, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns stored reports newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Report, error) {
	return s.Repo.List(ctx, limit, offset)
}
