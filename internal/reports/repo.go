package reports

import "context"

// Repo stores completed reports.
type Repo interface {
	Create(ctx context.Context, report Report) error
	GetByID(ctx context.Context, id string) (Report, error)
	// List returns reports newest first.
	List(ctx context.Context, limit, offset int) ([]Report, error)
}
