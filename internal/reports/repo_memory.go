package reports

import (
	"context"
	"sync"
)

// MemoryRepo stores reports in memory and is safe for concurrent use. It
// keeps at most maxEntries reports, evicting the oldest.
type MemoryRepo struct {
	mu         sync.RWMutex
	byID       map[string]Report
	order      []string
	maxEntries int
}

// NewMemoryRepo constructs a MemoryRepo capped at maxEntries reports.
func NewMemoryRepo(maxEntries int) *MemoryRepo {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &MemoryRepo{
		byID:       make(map[string]Report),
		maxEntries: maxEntries,
	}
}

// Create stores the report, evicting the oldest entry when at capacity.
func (r *MemoryRepo) Create(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) >= r.maxEntries {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byID, oldest)
	}
	r.byID[report.ID] = report
	r.order = append(r.order, report.ID)
	return nil
}

// GetByID returns a report by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.byID[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return report, nil
}

// List returns stored reports newest first.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Report, 0, limit)
	for i := len(r.order) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.byID[r.order[i]])
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
